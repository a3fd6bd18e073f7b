package source

import (
	"errors"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/panbanda/gdlens/pkg/models"
)

// ProjectMarker is the file that marks a project root.
const ProjectMarker = "project.godot"

// DefaultMaxDepth bounds the ancestor walk in FindProjectRoot.
const DefaultMaxDepth = 32

// Resource path schemes.
const (
	ResScheme  = "res://"
	UIDScheme  = "uid://"
	UserScheme = "user://"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// Source is a ContentSource that can also answer existence checks.
type Source interface {
	ContentSource
	Exists(path string) bool
}

// FS reads files through an afero filesystem. Read failures are reported
// as *models.AnalysisError with kind ErrNotFound, ErrUnreadable or ErrEmpty.
type FS struct {
	fs afero.Fs
}

// NewFS wraps fs.
func NewFS(fs afero.Fs) *FS {
	return &FS{fs: fs}
}

// NewOS creates a source that reads from the operating system filesystem.
func NewOS() *FS {
	return NewFS(afero.NewOsFs())
}

// Fs returns the underlying filesystem.
func (s *FS) Fs() afero.Fs {
	return s.fs
}

// Read implements ContentSource.
func (s *FS) Read(p string) ([]byte, error) {
	info, err := s.fs.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, models.NewAnalysisError(models.ErrNotFound, p, err)
		}
		return nil, models.NewAnalysisError(models.ErrUnreadable, p, err)
	}
	if info.IsDir() {
		return nil, models.NewAnalysisError(models.ErrUnreadable, p, errors.New("is a directory"))
	}
	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		return nil, models.NewAnalysisError(models.ErrUnreadable, p, err)
	}
	if len(data) == 0 {
		return nil, models.NewAnalysisError(models.ErrEmpty, p, nil)
	}
	return data, nil
}

// Exists reports whether p names an existing regular file.
func (s *FS) Exists(p string) bool {
	info, err := s.fs.Stat(p)
	return err == nil && !info.IsDir()
}

// FindProjectRoot walks from start towards the filesystem root looking for
// the project marker, visiting at most maxDepth directories.
func FindProjectRoot(fsys afero.Fs, start string, maxDepth int) (string, bool) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	dir := filepath.Clean(start)
	if info, err := fsys.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for i := 0; i < maxDepth; i++ {
		if ok, _ := afero.Exists(fsys, filepath.Join(dir, ProjectMarker)); ok {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

// Resolve maps a resource path to a filesystem path under root. res://
// paths are joined with root; uid:// and user:// paths cannot be resolved
// statically and yield false. Other paths are returned unchanged.
func Resolve(root, p string) (string, bool) {
	switch {
	case strings.HasPrefix(p, ResScheme):
		rel := strings.TrimPrefix(p, ResScheme)
		return filepath.Join(root, filepath.FromSlash(rel)), true
	case strings.HasPrefix(p, UIDScheme), strings.HasPrefix(p, UserScheme):
		return "", false
	case p == "":
		return "", false
	}
	return p, true
}

// ToResPath converts a filesystem path under root to its res:// form. Paths
// outside root are returned as slash-separated paths.
func ToResPath(root, p string) string {
	if strings.HasPrefix(p, ResScheme) {
		return p
	}
	if root != "" {
		if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
			return ResScheme + path.Clean(filepath.ToSlash(rel))
		}
	}
	return filepath.ToSlash(p)
}

// IsResourcePath reports whether s uses one of the resource schemes.
func IsResourcePath(s string) bool {
	return strings.HasPrefix(s, ResScheme) || strings.HasPrefix(s, UIDScheme) || strings.HasPrefix(s, UserScheme)
}
