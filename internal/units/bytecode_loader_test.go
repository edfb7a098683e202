package units

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/bytecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBytecodeUnit(t *testing.T, dir, name string, uses []string) {
	t.Helper()
	src := &ast.Unit{Name: name, Uses: uses}
	compiled, err := bytecode.CompileUnit(src)
	require.NoError(t, err)

	f, err := os.Create(filepath.Join(dir, name+".pbu"))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, bytecode.SerializeUnit(f, compiled))
}

func TestBytecodeLoaderLoadsUnit(t *testing.T) {
	dir := t.TempDir()
	writeBytecodeUnit(t, dir, "Greeter", nil)

	l := NewBytecodeLoader(dir, "")
	u, err := l.LoadUnit("Greeter")
	require.NoError(t, err)
	assert.Equal(t, "Greeter", u.Name)
}

func TestBytecodeLoaderLoadsTransitiveDependencies(t *testing.T) {
	dir := t.TempDir()
	writeBytecodeUnit(t, dir, "Base", nil)
	writeBytecodeUnit(t, dir, "Middle", []string{"Base"})

	l := NewBytecodeLoader(dir, "")
	_, err := l.LoadUnit("Middle")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"middle", "base"}, l.Loaded())
}

func TestBytecodeLoaderDetectsCircularDependency(t *testing.T) {
	dir := t.TempDir()
	writeBytecodeUnit(t, dir, "A", []string{"B"})
	writeBytecodeUnit(t, dir, "B", []string{"A"})

	l := NewBytecodeLoader(dir, "")
	_, err := l.LoadUnit("A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular")
}

func TestBytecodeLoaderMissingFileIsFatal(t *testing.T) {
	l := NewBytecodeLoader(t.TempDir(), "")
	_, err := l.LoadUnit("Nonexistent")
	require.Error(t, err)
}

func TestBytecodeLoaderCachesByName(t *testing.T) {
	dir := t.TempDir()
	writeBytecodeUnit(t, dir, "Once", nil)

	l := NewBytecodeLoader(dir, "")
	first, err := l.LoadUnit("Once")
	require.NoError(t, err)
	second, err := l.LoadUnit("ONCE")
	require.NoError(t, err)
	assert.Same(t, first, second)
}
