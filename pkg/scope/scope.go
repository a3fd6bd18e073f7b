// Package scope resolves variable types visible inside a method body.
//
// A class scope holds typed class variables, exports and signals. A method
// scope overlays parameters and the locals declared in the body. Lookups
// walk outward through parent scopes.
package scope

import (
	"sort"

	"github.com/panbanda/gdlens/pkg/models"
	"github.com/panbanda/gdlens/pkg/parser"
)

// SignalType is the type recorded for declared signals.
const SignalType = "Signal"

// Scope maps names to types. An entry with an empty type shadows outer
// scopes without making the name known.
type Scope struct {
	parent *Scope
	types  map[string]string
}

// New creates a scope nested in parent, which may be nil.
func New(parent *Scope) *Scope {
	return &Scope{parent: parent, types: make(map[string]string)}
}

// Define records name with typ in this scope.
func (s *Scope) Define(name, typ string) {
	s.types[name] = typ
}

// Lookup returns the type of name, searching outward. Shadowing entries
// without a type end the search.
func (s *Scope) Lookup(name string) (string, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if typ, ok := cur.types[name]; ok {
			return typ, typ != ""
		}
	}
	return "", false
}

// Known reports whether name resolves to a type.
func (s *Scope) Known(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Types flattens the scope chain into one map. Inner entries win.
func (s *Scope) Types() map[string]string {
	var chain []*Scope
	for cur := s; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	out := make(map[string]string)
	for i := len(chain) - 1; i >= 0; i-- {
		for name, typ := range chain[i].types {
			if typ == "" {
				delete(out, name)
				continue
			}
			out[name] = typ
		}
	}
	return out
}

// Names returns the known names in sorted order.
func (s *Scope) Names() []string {
	types := s.Types()
	names := make([]string, 0, len(types))
	for n := range types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ForClass builds the class scope of a script. Variables without an
// explicit type are left out.
func ForClass(decl *models.ScriptDeclaration) *Scope {
	s := New(nil)
	for _, v := range decl.AllVariables() {
		if v.HasKnownType() {
			s.Define(v.Name, v.Type)
		}
	}
	for _, sig := range decl.Signals {
		s.Define(sig.Name, SignalType)
	}
	return s
}

// ForMethod builds the scope of one method body on top of class.
// Parameters shadow class members; untyped parameters hide them.
func ForMethod(class *Scope, m models.MethodDecl, body parser.MethodBody) *Scope {
	s := New(class)
	for _, p := range m.Parameters {
		typ := p.Type
		if typ == models.TypeInferred || typ == parser.Variant {
			typ = ""
		}
		s.Define(p.Name, typ)
	}
	for _, local := range Locals(body) {
		if _, ok := s.types[local.Name]; ok && local.Type == "" {
			continue
		}
		s.Define(local.Name, local.Type)
	}
	return s
}

// Locals returns the variables declared in a method body with their
// resolved types. Declarations whose type cannot be inferred carry an
// empty type.
func Locals(body parser.MethodBody) []models.VariableDecl {
	var out []models.VariableDecl
	for _, line := range body.Lines {
		v, ok := parser.ParseVariable(line.Text)
		if !ok {
			continue
		}
		v.LineNumber = line.Number
		v.Type = localType(v)
		out = append(out, v)
	}
	return out
}

func localType(v models.VariableDecl) string {
	if v.HasKnownType() {
		return v.Type
	}
	if v.DefaultValue == "" {
		return ""
	}
	if typ := parser.InferTypeFromLiteral(v.DefaultValue); typ != parser.Variant {
		return typ
	}
	return ""
}

// ForScript builds one scope per method of ps, indexed like its methods.
func ForScript(ps *parser.ParsedScript) []*Scope {
	class := ForClass(ps.Decl)
	scopes := make([]*Scope, len(ps.Decl.Methods))
	for i, m := range ps.Decl.Methods {
		var body parser.MethodBody
		if i < len(ps.Bodies) {
			body = ps.Bodies[i]
		}
		scopes[i] = ForMethod(class, m, body)
	}
	return scopes
}
