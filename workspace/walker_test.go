package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/changeimpact/symbol"
)

func TestWalk_EnumeratesRecognizedExtensions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.rs"), []byte("fn main() {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# hi"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node_modules", "x.js"), []byte("x"), 0o644))

	w := New(Options{})
	var found []File
	err := w.Walk(context.Background(), dir, func(f File) error {
		found = append(found, f)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "a.rs", found[0].Path)
	assert.Equal(t, symbol.Rust, found[0].Language)
}

func TestWalk_CustomIgnoreDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "generated"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "generated", "x.rb"), []byte(""), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.rb"), []byte(""), 0o644))

	w := New(Options{IgnoreDirs: []string{"generated"}})
	var found []File
	err := w.Walk(context.Background(), dir, func(f File) error {
		found = append(found, f)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "keep.rb", found[0].Path)
}
