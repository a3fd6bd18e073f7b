// Package scanner expands command line paths into the scripts and scenes
// to analyze.
package scanner

import (
	"os"
	"path/filepath"

	"github.com/panbanda/gdlens/internal/scanner"
	"github.com/panbanda/gdlens/pkg/config"
	"github.com/panbanda/gdlens/pkg/parser"
	"github.com/panbanda/gdlens/pkg/source"
)

// Service provides file scanning functionality.
type Service struct {
	config *config.Config
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// New creates a new scanner service.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	return s
}

// ScanPaths expands paths into project files. Directories are scanned with
// the configured exclusions; files and res:// paths are taken as given and
// classified by extension, so an explicitly named file is never excluded.
// Paths of unknown kinds end up in Skipped.
func (s *Service) ScanPaths(paths []string) (*scanner.Files, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	out := &scanner.Files{
		Scripts: make([]string, 0),
		Scenes:  make([]string, 0),
	}
	seen := make(map[string]bool)
	add := func(p string) {
		if seen[p] {
			return
		}
		seen[p] = true
		switch parser.DetectKind(p) {
		case parser.KindScript:
			out.Scripts = append(out.Scripts, p)
		case parser.KindScene:
			out.Scenes = append(out.Scenes, p)
		default:
			out.Skipped = append(out.Skipped, p)
		}
	}

	scan := scanner.NewScanner(s.config)
	for _, path := range paths {
		if source.IsResourcePath(path) {
			add(path)
			continue
		}
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}
		if !info.IsDir() {
			add(absPath)
			continue
		}
		found, err := scan.ScanDir(absPath)
		if err != nil {
			return nil, &ScanError{Path: path, Err: err}
		}
		for _, group := range [][]string{found.Scripts, found.Scenes, found.Skipped} {
			for _, p := range group {
				add(p)
			}
		}
	}
	return out, nil
}

// PathError indicates an invalid path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a scanning failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan directory " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
