// Package scanner discovers the scripts and scenes of a project.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/gdlens/pkg/config"
	"github.com/panbanda/gdlens/pkg/parser"
)

// IgnoreMarker is the file that excludes a directory from the project.
const IgnoreMarker = ".gdignore"

// Files is the result of a directory scan. Paths are joined with the
// scanned root and listed in lexical order.
type Files struct {
	Scripts []string `json:"scripts" toon:"scripts"`
	Scenes  []string `json:"scenes" toon:"scenes"`
	// Binary scenes cannot be parsed and are only reported.
	Skipped []string `json:"skipped,omitempty" toon:"skipped,omitempty"`
}

// Total returns the number of analyzable files.
func (f *Files) Total() int {
	return len(f.Scripts) + len(f.Scenes)
}

// Scanner finds project files in a directory.
type Scanner struct {
	config  *config.Config
	exclude gitignore.Matcher
	git     gitignore.Matcher
	gitRoot string
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns parses the configured patterns as gitignore syntax
// relative to root, and reads every .gitignore of the enclosing repository.
func (s *Scanner) loadExcludePatterns(root string) {
	var patterns []gitignore.Pattern
	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	if len(patterns) > 0 {
		s.exclude = gitignore.NewMatcher(patterns)
	}

	if !s.config.Exclude.Gitignore {
		return
	}
	s.gitRoot = findGitRoot(root)
	if s.gitRoot == "" {
		return
	}
	if gitPatterns, err := gitignore.ReadPatterns(osfs.New(s.gitRoot), nil); err == nil && len(gitPatterns) > 0 {
		s.git = gitignore.NewMatcher(gitPatterns)
	}
}

// isExcluded checks a path relative to the scan root against the
// configured patterns and the repository's .gitignore files.
func (s *Scanner) isExcluded(absPath, relPath string, isDir bool) bool {
	if s.exclude != nil && s.exclude.Match(splitPath(relPath), isDir) {
		return true
	}
	if s.git != nil {
		if rel, err := filepath.Rel(s.gitRoot, absPath); err == nil && !strings.HasPrefix(rel, "..") {
			return s.git.Match(splitPath(rel), isDir)
		}
	}
	return false
}

func splitPath(p string) []string {
	return strings.Split(filepath.ToSlash(p), "/")
}

func (s *Scanner) excludedDir(name string) bool {
	for _, dir := range s.config.Exclude.Dirs {
		if name == dir {
			return true
		}
	}
	return false
}

// ScanDir recursively scans a directory for scripts and scenes.
// Directories holding a .gdignore marker are skipped when enabled, as are
// symlinks that resolve outside the root.
func (s *Scanner) ScanDir(root string) (*Files, error) {
	out := &Files{
		Scripts: make([]string, 0, 256),
		Scenes:  make([]string, 0, 64),
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(absRoot)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relPath, _ := filepath.Rel(root, path)
		absPath := filepath.Join(absRoot, relPath)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if relPath == "." {
				return nil
			}
			if s.excludedDir(d.Name()) || s.isExcluded(absPath, relPath, true) {
				return filepath.SkipDir
			}
			if s.config.Exclude.Gdignore {
				if _, err := os.Stat(filepath.Join(path, IgnoreMarker)); err == nil {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if s.isExcluded(absPath, relPath, false) {
			return nil
		}
		switch parser.DetectKind(path) {
		case parser.KindScript:
			out.Scripts = append(out.Scripts, path)
		case parser.KindScene:
			out.Scenes = append(out.Scenes, path)
		case parser.KindBinaryScene:
			out.Skipped = append(out.Skipped, path)
		}
		return nil
	})

	return out, walkErr
}

// isWithinRoot checks if a path is contained within the root directory.
// Returns false if the path escapes via symlinks or relative paths.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}
