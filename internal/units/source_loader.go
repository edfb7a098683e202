package units

import (
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/lexer"
	"github.com/cwbudde/go-pasc/internal/parser"
)

// SourceLoader loads unit source files (.pas) on demand: parsing each one
// and recursively loading its uses list, with a cache so a unit is never
// parsed twice and a loading stack that turns a dependency cycle into an
// error instead of infinite recursion.
type SourceLoader struct {
	dir        string
	searchPath string
	cache      map[string]*ast.Unit
	loading    map[string]bool
	stack      []string
}

// NewSourceLoader creates a loader that searches dir (the importing
// program or unit's own directory) before searchPath, the single
// configured search-path directory.
func NewSourceLoader(dir, searchPath string) *SourceLoader {
	return &SourceLoader{
		dir:        dir,
		searchPath: searchPath,
		cache:      map[string]*ast.Unit{},
		loading:    map[string]bool{},
	}
}

// LoadUnit returns name's parsed unit, loading it and everything it uses
// from disk on first request and serving every later request from cache.
func (l *SourceLoader) LoadUnit(name string) (*ast.Unit, error) {
	key := canon(name)
	if u, ok := l.cache[key]; ok {
		return u, nil
	}
	if l.loading[key] {
		return nil, fmt.Errorf("circular unit dependency: %s -> %s", strings.Join(l.stack, " -> "), name)
	}

	path, err := findUnitFile(name, l.dir, l.searchPath, ".pas")
	if err != nil {
		return nil, fmt.Errorf("loading unit %s: %w", name, err)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading unit %s: %w", name, err)
	}

	l.loading[key] = true
	l.stack = append(l.stack, name)
	defer func() {
		delete(l.loading, key)
		l.stack = l.stack[:len(l.stack)-1]
	}()

	u, perr := parser.New(lexer.New(string(src))).ParseUnit()
	if perr != nil {
		return nil, fmt.Errorf("parsing unit %s (%s): %w", name, path, perr)
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
func (l *SourceLoader) Loaded() []string {
	names := make([]string, 0, len(l.cache))
	for name := range l.cache {
		names = append(names, name)
	}
	return names
}
