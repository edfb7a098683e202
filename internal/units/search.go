package units

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func canon(s string) string { return strings.ToLower(s) }

// findUnitFile locates name's source file on disk, looking in dir first and
// then searchPath, the single configured search-path directory. Matching is
// case-insensitive on both the unit name and the file's extension, since
// unit names fold case but filesystems generally don't.
func findUnitFile(name, dir, searchPath, ext string) (string, error) {
	dirs := []string{dir}
	if searchPath != "" && searchPath != dir {
		dirs = append(dirs, searchPath)
	}
	for _, d := range dirs {
		if path, ok := findInDir(d, name, ext); ok {
			return path, nil
		}
	}
	return "", fmt.Errorf("unit %q not found in %s", name, strings.Join(dirs, ", "))
}

func findInDir(dir, name, ext string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	want := canon(name) + ext
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if canon(e.Name()) == want {
			return filepath.Join(dir, e.Name()), true
		}
	}
	return "", false
}
