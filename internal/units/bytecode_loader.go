package units

import (
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/go-pasc/internal/bytecode"
)

// BytecodeLoader loads compiled unit files (.pbu): the same cache/cycle/
// search-path shape as SourceLoader, but decoding instead of parsing.
type BytecodeLoader struct {
	dir        string
	searchPath string
	cache      map[string]*bytecode.Unit
	loading    map[string]bool
	stack      []string
}

func NewBytecodeLoader(dir, searchPath string) *BytecodeLoader {
	return &BytecodeLoader{
		dir: dir,
		searchPath: searchPath,
		cache: map[string]*bytecode.Unit{},
		loading: map[string]bool{},
	}
}

// LoadUnit returns name's decoded unit, loading it and its dependencies
// from disk on first request.
func (l *BytecodeLoader) LoadUnit(name string) (*bytecode.Unit, error) {
	key := canon(name)
	if u, ok := l.cache[key]; ok {
		return u, nil
	}
	if l.loading[key] {
		return nil, fmt.Errorf("circular unit dependency: %s -> %s", strings.Join(l.stack, " -> "), name)
	}

	path, err := findUnitFile(name, l.dir, l.searchPath, ".pbu")
	if err != nil {
		return nil, fmt.Errorf("loading unit %s: %w", name, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading unit %s: %w", name, err)
	}
	defer f.Close()

	l.loading[key] = true
	l.stack = append(l.stack, name)
	defer func() {
		delete(l.loading, key)
		l.stack = l.stack[:len(l.stack)-1]
	}()

	u, derr := bytecode.DeserializeUnit(f)
	if derr != nil {
		return nil, fmt.Errorf("decoding unit %s (%s): %w", name, path, derr)
	}
	if canon(u.Name) != key {
		return nil, fmt.Errorf("%s declares unit %q, expected %q", path, u.Name, name)
	}

	for _, dep := range u.Uses {
		if _, derr := l.LoadUnit(dep); derr != nil {
			return nil, derr
		}
	}

	l.cache[key] = u
	return u, nil
}

// Loaded reports the canonical names of every unit cached so far.
func (l *BytecodeLoader) Loaded() []string {
	names := make([]string, 0, len(l.cache))
	for name := range l.cache {
		names = append(names, name)
	}
	return names
}
