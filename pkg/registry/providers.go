package registry

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/panbanda/gdlens/pkg/lex"
	"github.com/panbanda/gdlens/pkg/parser"
	"github.com/panbanda/gdlens/pkg/source"
)

// GlobalClass is one entry of the project's global class list.
type GlobalClass struct {
	Name     string `json:"name" toon:"name"`
	Path     string `json:"path" toon:"path"`
	Base     string `json:"base,omitempty" toon:"base,omitempty"`
	Language string `json:"language,omitempty" toon:"language,omitempty"`
	Autoload bool   `json:"autoload,omitempty" toon:"autoload,omitempty"`
}

// Provider supplies global class entries for a project root. A provider
// whose backing file is absent returns no entries and no error.
type Provider interface {
	Name() string
	Classes(fsys afero.Fs, root string) ([]GlobalClass, error)
}

// CacheFile is the Godot 4 global class cache, relative to the project
// root.
var CacheFile = filepath.Join(".godot", "global_script_class_cache.cfg")

// CacheProvider reads the Godot 4 global class cache.
type CacheProvider struct{}

func (CacheProvider) Name() string { return "class_cache" }

func (CacheProvider) Classes(fsys afero.Fs, root string) ([]GlobalClass, error) {
	data, err := readOptional(fsys, filepath.Join(root, CacheFile))
	if err != nil || data == "" {
		return nil, err
	}
	start := strings.Index(data, "list=")
	if start < 0 {
		return nil, nil
	}
	return parseClassList(data[start:]), nil
}

// ProjectProvider reads the Godot 3 `_global_script_classes` list from
// project.godot.
type ProjectProvider struct{}

func (ProjectProvider) Name() string { return "project_classes" }

func (ProjectProvider) Classes(fsys afero.Fs, root string) ([]GlobalClass, error) {
	data, err := readOptional(fsys, filepath.Join(root, source.ProjectMarker))
	if err != nil || data == "" {
		return nil, err
	}
	start := strings.Index(data, "_global_script_classes=")
	if start < 0 {
		return nil, nil
	}
	rest := data[start:]
	open := strings.IndexByte(rest, '[')
	if open < 0 {
		return nil, nil
	}
	inner, _ := lex.Inner(rest, open)
	return parseClassList(inner), nil
}

// AutoloadProvider reads the [autoload] section of project.godot. Autoloads
// are globally addressable by name, like global classes.
type AutoloadProvider struct{}

func (AutoloadProvider) Name() string { return "autoload" }

func (AutoloadProvider) Classes(fsys afero.Fs, root string) ([]GlobalClass, error) {
	data, err := readOptional(fsys, filepath.Join(root, source.ProjectMarker))
	if err != nil || data == "" {
		return nil, err
	}
	var out []GlobalClass
	inSection := false
	for _, line := range strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") {
			inSection = line == "[autoload]"
			continue
		}
		if !inSection || line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		name := strings.TrimSpace(line[:eq])
		path := strings.TrimPrefix(lex.Unquote(line[eq+1:]), "*")
		if name == "" || path == "" {
			continue
		}
		out = append(out, GlobalClass{Name: name, Path: path, Autoload: true})
	}
	return out, nil
}

// ScanProvider builds the class list by reading class_name from every
// script under the root. It is the fallback when no class list exists.
type ScanProvider struct {
	SkipDirs []string
}

// DefaultSkipDirs are never scanned for scripts.
var DefaultSkipDirs = []string{".godot", ".import", ".git"}

func (ScanProvider) Name() string { return "scan" }

func (p ScanProvider) Classes(fsys afero.Fs, root string) ([]GlobalClass, error) {
	skip := p.SkipDirs
	if skip == nil {
		skip = DefaultSkipDirs
	}
	var out []GlobalClass
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != root && skipDir(fsys, path, info.Name(), skip) {
				return filepath.SkipDir
			}
			return nil
		}
		if parser.DetectKind(path) != parser.KindScript {
			return nil
		}
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return nil
		}
		ps := parser.ParseScript(string(data), parser.ScriptOptions{})
		if ps.Decl.ClassName == "" {
			return nil
		}
		out = append(out, GlobalClass{
			Name:     ps.Decl.ClassName,
			Path:     source.ToResPath(root, path),
			Base:     ps.Decl.Extends,
			Language: "GDScript",
		})
		return nil
	})
	return out, err
}

func skipDir(fsys afero.Fs, path, name string, skip []string) bool {
	for _, s := range skip {
		if name == s {
			return true
		}
	}
	ok, _ := afero.Exists(fsys, filepath.Join(path, ".gdignore"))
	return ok
}

func readOptional(fsys afero.Fs, path string) (string, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

// parseClassList extracts the class dictionaries of a serialized class
// list: [{ "base": &"Node", "class": &"Player", "path": "res://p.gd" }, ...].
func parseClassList(text string) []GlobalClass {
	var out []GlobalClass
	for i := 0; i < len(text); i++ {
		if text[i] == '"' {
			// Skip string literals so braces inside them are ignored.
			if end := strings.IndexByte(text[i+1:], '"'); end >= 0 {
				i += end + 1
			}
			continue
		}
		if text[i] != '{' {
			continue
		}
		end := lex.MatchingClose(text, i)
		if end == lex.NotFound {
			break
		}
		block := text[i+1 : end]
		i = end
		c := GlobalClass{
			Name:     dictString(block, "class"),
			Path:     dictString(block, "path"),
			Base:     dictString(block, "base"),
			Language: dictString(block, "language"),
		}
		if c.Name != "" {
			out = append(out, c)
		}
	}
	return out
}

// dictString returns the string value stored under key in a serialized
// dictionary body. StringName values (&"x") are accepted.
func dictString(block, key string) string {
	needle := `"` + key + `":`
	idx := strings.Index(block, needle)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimLeft(block[idx+len(needle):], " \t\n")
	rest = strings.TrimPrefix(rest, "&")
	if !strings.HasPrefix(rest, `"`) {
		return ""
	}
	end := strings.IndexByte(rest[1:], '"')
	if end < 0 {
		return ""
	}
	return rest[1 : end+1]
}
