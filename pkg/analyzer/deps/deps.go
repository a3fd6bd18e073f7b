// Package deps extracts dependency edges from a parsed script.
package deps

import (
	"path"
	"strings"

	"github.com/panbanda/gdlens/pkg/lex"
	"github.com/panbanda/gdlens/pkg/models"
	"github.com/panbanda/gdlens/pkg/parser"
	"github.com/panbanda/gdlens/pkg/registry"
	"github.com/panbanda/gdlens/pkg/source"
)

// Loader is a call-like construct whose first string argument names a
// dependency, such as preload("res://a.gd").
type Loader struct {
	Name     string                `json:"name" koanf:"name" toml:"name"`
	Kind     models.DependencyKind `json:"kind" koanf:"kind" toml:"kind"`
	AllowDot bool                  `json:"allow_dot" koanf:"allow_dot" toml:"allow_dot"`
}

// DefaultLoaders returns the loaders recognized out of the box.
func DefaultLoaders() []Loader {
	return []Loader{
		{Name: "preload", Kind: models.DepPreload},
		{Name: "load", Kind: models.DepLoad},
		{Name: "ResourceLoader.load", Kind: models.DepLoad, AllowDot: true},
		{Name: "ClassDB.instantiate", Kind: models.DepClassDBReference, AllowDot: true},
	}
}

var resourceTypes = map[string]string{
	".gd":       "Script",
	".cs":       "Script",
	".tscn":     "PackedScene",
	".scn":      "PackedScene",
	".escn":     "PackedScene",
	".tres":     "Resource",
	".res":      "Resource",
	".png":      "Texture2D",
	".jpg":      "Texture2D",
	".jpeg":     "Texture2D",
	".svg":      "Texture2D",
	".webp":     "Texture2D",
	".wav":      "AudioStream",
	".ogg":      "AudioStream",
	".mp3":      "AudioStream",
	".gdshader": "Shader",
	".shader":   "Shader",
	".ttf":      "FontFile",
	".otf":      "FontFile",
	".json":     "JSON",
	".glb":      "PackedScene",
	".gltf":     "PackedScene",
	".obj":      "Mesh",
}

// ResourceType guesses the resource type of p from its extension. Unknown
// extensions yield an empty string.
func ResourceType(p string) string {
	return resourceTypes[strings.ToLower(path.Ext(p))]
}

// Resolver extracts dependencies against a class registry.
type Resolver struct {
	registry *registry.Registry
	loaders  []Loader
}

// Option is a functional option for configuring Resolver.
type Option func(*Resolver)

// WithLoaders replaces the default loader list.
func WithLoaders(loaders []Loader) Option {
	return func(r *Resolver) {
		r.loaders = loaders
	}
}

// New creates a resolver. A nil registry is treated as engine-only.
func New(reg *registry.Registry, opts ...Option) *Resolver {
	if reg == nil {
		reg = registry.Empty()
	}
	r := &Resolver{
		registry: reg,
		loaders:  DefaultLoaders(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// collector registers dependencies, dropping later entries that repeat a
// (kind, target, line) key.
type collector struct {
	seen map[models.DependencyKey]bool
	out  []models.Dependency
}

func newCollector() *collector {
	return &collector{
		seen: make(map[models.DependencyKey]bool),
		out:  make([]models.Dependency, 0),
	}
}

func (c *collector) add(d models.Dependency) {
	if d.Target == "" || c.seen[d.Key()] {
		return
	}
	c.seen[d.Key()] = true
	c.out = append(c.out, d)
}

// Resolve returns the dependencies of ps in discovery order: per-line
// matches first, then type hints, then literal resource defaults.
func (r *Resolver) Resolve(ps *parser.ParsedScript) []models.Dependency {
	c := newCollector()
	sourceLines := make(map[int]string, len(ps.Lines))
	for _, line := range ps.Lines {
		sourceLines[line.Number] = strings.TrimSpace(line.Text)
		r.scanLine(c, ps.Decl.ClassName, line)
	}
	r.typeHints(c, ps.Decl, sourceLines)
	r.literalResources(c, ps.Decl, sourceLines)
	return c.out
}

func (r *Resolver) scanLine(c *collector, self string, line parser.BodyLine) {
	code := lex.StripComment(line.Text)
	if strings.TrimSpace(code) == "" {
		return
	}
	text := strings.TrimSpace(line.Text)

	if lex.Indent(code) == 0 {
		if target, ok := extendsTarget(strings.TrimSpace(code)); ok {
			c.add(r.dependency(target, models.DepInheritance, text, line.Number))
		}
	}

	for _, l := range r.loaders {
		for _, arg := range lex.QuotedArgs(code, l.Name, l.AllowDot) {
			c.add(r.dependency(arg, l.Kind, text, line.Number))
		}
	}

	for _, name := range r.classReferences(code) {
		if name == self {
			continue
		}
		c.add(r.dependency(name, models.DepClassReference, text, line.Number))
	}
}

func (r *Resolver) dependency(target string, kind models.DependencyKind, text string, number int) models.Dependency {
	d := models.Dependency{
		Target:     target,
		Kind:       kind,
		SourceLine: text,
		LineNumber: number,
	}
	if source.IsResourcePath(target) {
		d.Metadata.ResourceType = ResourceType(target)
	} else if p, ok := r.registry.PathOf(target); ok {
		d.ResolvedPath = p
	}
	return d
}

// extendsTarget reads the base of an `extends` or `class_name X extends Y`
// line.
func extendsTarget(code string) (string, bool) {
	var rest string
	switch {
	case strings.HasPrefix(code, "extends "):
		rest = code[len("extends "):]
	case strings.HasPrefix(code, "class_name "):
		idx := strings.Index(code, " extends ")
		if idx < 0 {
			return "", false
		}
		rest = code[idx+len(" extends "):]
	default:
		return "", false
	}
	target := lex.Unquote(strings.TrimSuffix(strings.TrimSpace(rest), ":"))
	return target, target != ""
}

// classReferences returns user class names used as `Name.` or `Name(`.
func (r *Resolver) classReferences(code string) []string {
	masked := lex.MaskStrings(code)
	var out []string
	for i := 0; i < len(masked); {
		if !lex.IsIdentByte(masked[i]) {
			i++
			continue
		}
		start := i
		for i < len(masked) && lex.IsIdentByte(masked[i]) {
			i++
		}
		if start > 0 && masked[start-1] == '.' {
			continue
		}
		if i >= len(masked) || (masked[i] != '.' && masked[i] != '(') {
			continue
		}
		if name := masked[start:i]; r.registry.IsUserClass(name) {
			out = append(out, name)
		}
	}
	return out
}

// typeHints records user classes named in declared types: variables,
// exports, method return types and parameter types.
func (r *Resolver) typeHints(c *collector, decl *models.ScriptDeclaration, sourceLines map[int]string) {
	hint := func(typ string, number int) {
		for _, name := range lex.Identifiers(typ) {
			if name == decl.ClassName || !r.registry.IsUserClass(name) {
				continue
			}
			c.add(r.dependency(name, models.DepTypeHint, sourceLines[number], number))
		}
	}
	for _, v := range decl.AllVariables() {
		if v.HasKnownType() {
			hint(v.Type, v.LineNumber)
		}
	}
	for _, m := range decl.Methods {
		hint(m.ReturnType, m.LineNumber)
		for _, p := range m.Parameters {
			if p.Type != models.TypeInferred {
				hint(p.Type, m.LineNumber)
			}
		}
	}
}

// literalResources records variable defaults that are resource path
// literals, optionally written with a leading '@'.
func (r *Resolver) literalResources(c *collector, decl *models.ScriptDeclaration, sourceLines map[int]string) {
	for _, v := range decl.AllVariables() {
		target, ok := resourceLiteral(v.DefaultValue)
		if !ok {
			continue
		}
		c.add(r.dependency(target, models.DepLiteralResource, sourceLines[v.LineNumber], v.LineNumber))
	}
}

func resourceLiteral(value string) (string, bool) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "@")
	if len(value) < 2 || (value[0] != '"' && value[0] != '\'') || value[len(value)-1] != value[0] {
		return "", false
	}
	s := lex.Unquote(value)
	return s, source.IsResourcePath(s)
}
