// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

// MinimalProject is the smallest project.godot accepted as a project marker.
const MinimalProject = `config_version=5

[application]

config/name="fixture"
`

// MemFS creates an in-memory filesystem.
func MemFS() afero.Fs {
	return afero.NewMemMapFs()
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// CreateFileTree creates multiple files from a map of relative path to
// content.
func CreateFileTree(t *testing.T, fs afero.Fs, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		WriteFile(t, fs, filepath.Join(root, name), content)
	}
}

// Project lays out a project at root: a project.godot marker (MinimalProject
// unless files supplies one) plus the given files.
func Project(t *testing.T, fs afero.Fs, root string, files map[string]string) {
	t.Helper()
	if _, ok := files["project.godot"]; !ok {
		WriteFile(t, fs, filepath.Join(root, "project.godot"), MinimalProject)
	}
	CreateFileTree(t, fs, root, files)
}

// OSProject is Project on a fresh temporary directory of the real
// filesystem. It returns the directory.
func OSProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	Project(t, afero.NewOsFs(), root, files)
	return root
}
