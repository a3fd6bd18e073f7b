package parser

import (
	"strings"

	"github.com/panbanda/gdlens/pkg/lex"
	"github.com/panbanda/gdlens/pkg/models"
)

// ScriptProperty is the node property holding an attached script.
const ScriptProperty = "script"

// SceneOptions selects what the scene parser keeps. The script property is
// always recorded so attached scripts can be followed.
type SceneOptions struct {
	Properties  bool
	Connections bool
}

// DefaultSceneOptions keeps everything.
func DefaultSceneOptions() SceneOptions {
	return SceneOptions{Properties: true, Connections: true}
}

type sceneParser struct {
	opts    SceneOptions
	out     *models.SceneFile
	current *models.SceneNode
	lastKey string
	root    bool
}

// ParseScene parses text scene source into a flat node list, connections
// and the resource tables. It never fails.
func ParseScene(src string, opts SceneOptions) *models.SceneFile {
	p := &sceneParser{
		opts: opts,
		out: &models.SceneFile{
			Nodes:        make([]*models.SceneNode, 0),
			Connections:  make([]models.SceneConnection, 0),
			ExtResources: make(models.ExtResourceMap),
		},
	}
	for i, line := range normalize(src) {
		p.line(i+1, line)
	}
	return p.out
}

func (p *sceneParser) line(number int, raw string) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, ";") {
		return
	}
	if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
		p.header(number, line)
		return
	}
	if p.current == nil {
		return
	}
	p.property(line, raw)
}

func sectionKind(header string) string {
	body := strings.TrimPrefix(header, "[")
	end := strings.IndexAny(body, " ]")
	if end < 0 {
		return body
	}
	return body[:end]
}

func (p *sceneParser) header(number int, h string) {
	p.current = nil
	p.lastKey = ""

	switch sectionKind(h) {
	case "gd_scene":
		p.out.Format, _ = lex.Attr(h, "format")
		p.out.UID, _ = lex.Attr(h, "uid")
	case "ext_resource":
		res := models.ExtResource{}
		res.ID, _ = lex.Attr(h, "id")
		res.Path, _ = lex.Attr(h, "path")
		res.Type, _ = lex.Attr(h, "type")
		res.UID, _ = lex.Attr(h, "uid")
		if res.ID != "" {
			p.out.ExtResources[res.ID] = res
		}
	case "sub_resource":
		res := models.SubResource{}
		res.ID, _ = lex.Attr(h, "id")
		res.Type, _ = lex.Attr(h, "type")
		p.out.SubResources = append(p.out.SubResources, res)
	case "node":
		p.node(number, h)
	case "connection":
		if !p.opts.Connections {
			return
		}
		c := models.SceneConnection{LineNumber: number}
		c.Signal, _ = lex.Attr(h, "signal")
		c.From, _ = lex.Attr(h, "from")
		c.To, _ = lex.Attr(h, "to")
		c.Method, _ = lex.Attr(h, "method")
		c.Flags, _ = lex.Attr(h, "flags")
		p.out.Connections = append(p.out.Connections, c)
	}
}

func (p *sceneParser) node(number int, h string) {
	n := &models.SceneNode{
		Properties: make(map[string]models.Property),
		Children:   make([]*models.SceneNode, 0),
		LineNumber: number,
	}
	n.Name, _ = lex.Attr(h, "name")
	n.Type, _ = lex.Attr(h, "type")
	n.Groups = parseGroups(h)

	parent, hasParent := lex.Attr(h, "parent")
	switch {
	case !hasParent:
		n.Path = models.RootPath
		if p.root {
			// A second parentless node cannot be placed and is reported
			// as an orphan.
			n.Path = n.Name
			n.ParentPath = strayParent
		}
		p.root = true
	case parent == models.RootPath:
		n.ParentPath = parent
		n.Path = n.Name
	default:
		n.ParentPath = parent
		n.Path = parent + "/" + n.Name
	}

	if instance, ok := lex.Attr(h, "instance"); ok {
		n.Instance = instance
		if id, ok := ExtResourceID(instance); ok {
			if path, ok := p.out.ExtResources.PathOf(id); ok {
				n.Instance = path
			}
		}
	}

	p.out.Nodes = append(p.out.Nodes, n)
	p.current = n
}

func (p *sceneParser) property(line, raw string) {
	eq := lex.FindUnquoted(line, "=")
	if eq == lex.NotFound || eq == 0 {
		// Continuation of a multi-line value.
		if p.lastKey == "" {
			return
		}
		prop := p.current.Properties[p.lastKey]
		prop.Value += "\n" + line
		prop.RawLine += "\n" + raw
		p.current.Properties[p.lastKey] = prop
		return
	}
	key := strings.TrimSpace(line[:eq])
	if !p.opts.Properties && key != ScriptProperty {
		p.lastKey = ""
		return
	}
	p.current.Properties[key] = models.Property{
		Value:   strings.TrimSpace(line[eq+1:]),
		RawLine: raw,
	}
	p.lastKey = key
}

// parseGroups extracts the quoted names of a groups=[...] attribute.
func parseGroups(h string) []string {
	idx := lex.FindUnquoted(h, "groups=[")
	if idx == lex.NotFound {
		return nil
	}
	inner, _ := lex.Inner(h, idx+len("groups="))
	var groups []string
	for _, part := range strings.Split(inner, ",") {
		if g := lex.Unquote(part); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

// ExtResourceID extracts the id from ExtResource("id") or the Godot 3 form
// ExtResource( 1 ).
func ExtResourceID(value string) (string, bool) {
	return resourceRef(value, "ExtResource")
}

// SubResourceID extracts the id from SubResource("id").
func SubResourceID(value string) (string, bool) {
	return resourceRef(value, "SubResource")
}

func resourceRef(value, kind string) (string, bool) {
	callee, args, ok := lex.CallForm(value)
	if !ok || callee != kind {
		return "", false
	}
	id := lex.Unquote(args)
	return id, id != ""
}
