// Package parser turns script and scene text into the structural models in
// pkg/models. Parsing is line oriented and heuristic: it recognizes the
// practical subset of the language that carries declarations and never
// fails on malformed input.
package parser

import (
	"path/filepath"
	"strings"
)

// FileKind identifies the kind of project file.
type FileKind string

const (
	KindScript      FileKind = "script"
	KindScene       FileKind = "scene"
	KindBinaryScene FileKind = "binary_scene"
	KindResource    FileKind = "resource"
	KindProject     FileKind = "project"
	KindUnknown     FileKind = "unknown"
)

// String returns the string representation.
func (k FileKind) String() string {
	return string(k)
}

// DetectKind determines the file kind from a path.
func DetectKind(path string) FileKind {
	ext := strings.ToLower(filepath.Ext(path))
	base := strings.ToLower(filepath.Base(path))

	// Check special filenames first
	switch base {
	case "project.godot":
		return KindProject
	}

	switch ext {
	case ".gd":
		return KindScript
	case ".tscn", ".escn":
		return KindScene
	case ".scn":
		return KindBinaryScene
	case ".tres":
		return KindResource
	default:
		return KindUnknown
	}
}

// normalize strips a byte order mark and carriage returns and splits src
// into lines.
func normalize(src string) []string {
	src = strings.TrimPrefix(src, "\ufeff")
	src = strings.ReplaceAll(src, "\r\n", "\n")
	return strings.Split(src, "\n")
}
