package source

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/gdlens/pkg/models"
	"github.com/panbanda/gdlens/pkg/testutil"
)

func TestFS_Read(t *testing.T) {
	fs := testutil.MemFS()
	testutil.WriteFile(t, fs, "/game/player.gd", "extends Node\n")
	testutil.WriteFile(t, fs, "/game/empty.gd", "")
	src := NewFS(fs)

	content, err := src.Read("/game/player.gd")
	require.NoError(t, err)
	assert.Equal(t, "extends Node\n", string(content))

	_, err = src.Read("/game/missing.gd")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	_, err = src.Read("/game/empty.gd")
	assert.True(t, errors.Is(err, models.ErrEmpty))

	_, err = src.Read("/game")
	assert.True(t, errors.Is(err, models.ErrUnreadable))

	var ae *models.AnalysisError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "/game", ae.Path)
}

func TestFS_Exists(t *testing.T) {
	fs := testutil.MemFS()
	testutil.WriteFile(t, fs, "/game/a.gd", "x")
	src := NewFS(fs)

	assert.True(t, src.Exists("/game/a.gd"))
	assert.False(t, src.Exists("/game/b.gd"))
	assert.False(t, src.Exists("/game"))
}

func TestNewOS(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.gd")
	require.NoError(t, afero.WriteFile(afero.NewOsFs(), path, []byte("pass"), 0644))

	content, err := NewOS().Read(path)
	require.NoError(t, err)
	assert.Equal(t, "pass", string(content))
}

func TestFindProjectRoot(t *testing.T) {
	fs := testutil.MemFS()
	testutil.WriteFile(t, fs, "/game/project.godot", "[application]\n")
	testutil.WriteFile(t, fs, "/game/scenes/levels/one.tscn", "[gd_scene]\n")

	root, ok := FindProjectRoot(fs, "/game/scenes/levels/one.tscn", 0)
	require.True(t, ok)
	assert.Equal(t, "/game", root)

	root, ok = FindProjectRoot(fs, "/game/scenes/levels", 0)
	require.True(t, ok)
	assert.Equal(t, "/game", root)

	_, ok = FindProjectRoot(fs, "/game/scenes/levels", 1)
	assert.False(t, ok, "depth bound stops the walk")

	_, ok = FindProjectRoot(fs, "/elsewhere", 0)
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	p, ok := Resolve("/game", "res://scripts/player.gd")
	require.True(t, ok)
	assert.Equal(t, filepath.Join("/game", "scripts", "player.gd"), p)

	_, ok = Resolve("/game", "uid://abc")
	assert.False(t, ok)
	_, ok = Resolve("/game", "user://save.dat")
	assert.False(t, ok)
	_, ok = Resolve("/game", "")
	assert.False(t, ok)

	p, ok = Resolve("/game", "/abs/file.gd")
	require.True(t, ok)
	assert.Equal(t, "/abs/file.gd", p)
}

func TestToResPath(t *testing.T) {
	assert.Equal(t, "res://scripts/player.gd", ToResPath("/game", "/game/scripts/player.gd"))
	assert.Equal(t, "res://a.gd", ToResPath("/game", "res://a.gd"))
	assert.Equal(t, "/other/a.gd", ToResPath("/game", "/other/a.gd"))
	assert.Equal(t, "/other/a.gd", ToResPath("", "/other/a.gd"))
}

func TestIsResourcePath(t *testing.T) {
	assert.True(t, IsResourcePath("res://a.tscn"))
	assert.True(t, IsResourcePath("uid://x"))
	assert.True(t, IsResourcePath("user://save"))
	assert.False(t, IsResourcePath("/tmp/a"))
}
