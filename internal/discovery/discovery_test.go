package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mk(t *testing.T, p string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	return p
}

func TestWalkRecursesWithoutFiltering(t *testing.T) {
	root := t.TempDir()
	a := mk(t, filepath.Join(root, "a.jpg"))
	b := mk(t, filepath.Join(root, "sub", "deeper", "b.txt"))
	c := mk(t, filepath.Join(root, "sub", "c.png"))
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))

	files, err := Walk(root)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b, c}, files)
}

func TestWalkMissingDirectory(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "nope"))
	var me *MissingFileError
	require.True(t, errors.As(err, &me))

	f := mk(t, filepath.Join(t.TempDir(), "file.jpg"))
	_, err = Walk(f)
	assert.ErrorAs(t, err, &me)
}

func TestWalkIncludesSymlinkedFiles(t *testing.T) {
	root := t.TempDir()
	target := mk(t, filepath.Join(t.TempDir(), "real.jpg"))
	link := filepath.Join(root, "link.jpg")
	if err := os.Symlink(target, link); err != nil {
		t.Skip("symlinks not supported")
	}
	files, err := Walk(root)
	require.NoError(t, err)
	assert.Equal(t, []string{link}, files)
}

func TestCheckFiles(t *testing.T) {
	dir := t.TempDir()
	ok := mk(t, filepath.Join(dir, "ok.jpg"))

	assert.NoError(t, CheckFiles([]string{ok, "s3://bucket/remote.png"}))

	missing := filepath.Join(dir, "missing.jpg")
	err := CheckFiles([]string{ok, missing})
	var me *MissingFileError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, missing, me.Path)
	assert.Contains(t, err.Error(), "file or directory not found")

	err = CheckFiles([]string{dir})
	require.ErrorAs(t, err, &me)
	assert.Equal(t, dir, me.Path)
}

func TestCollectOrdersDirectoriesThenFiles(t *testing.T) {
	root := t.TempDir()
	inDir := mk(t, filepath.Join(root, "d", "x.gif"))
	explicit := mk(t, filepath.Join(root, "y.bmp"))

	got, err := Collect([]string{filepath.Join(root, "d")}, []string{explicit})
	require.NoError(t, err)
	assert.Equal(t, []string{inDir, explicit}, got)

	_, err = Collect(nil, []string{explicit, filepath.Join(root, "gone.jpg")})
	assert.Error(t, err)
}
