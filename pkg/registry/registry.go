// Package registry holds the class registry: a read-only snapshot of the
// project's global classes layered over the embedded engine API tables.
package registry

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
)

// ConstructorMethod is the method that instantiates any class.
const ConstructorMethod = "new"

// maxBaseDepth bounds base-class walks against cyclic tables.
const maxBaseDepth = 64

// Registry is an immutable snapshot. It is safe for concurrent use.
type Registry struct {
	engine      *engineTable
	user        map[string]GlobalClass
	source      string
	fingerprint string
}

// New creates a registry from the given global classes. The first entry
// for a name wins.
func New(classes []GlobalClass) *Registry {
	r := &Registry{
		engine: mustEngineTable(),
		user:   make(map[string]GlobalClass, len(classes)),
	}
	for _, c := range classes {
		if c.Name == "" {
			continue
		}
		if _, dup := r.user[c.Name]; !dup {
			r.user[c.Name] = c
		}
	}
	r.fingerprint = fingerprint(r.UserClasses())
	return r
}

func fingerprint(classes []GlobalClass) string {
	h := xxhash.New()
	for _, c := range classes {
		fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%t\n", c.Name, c.Path, c.Base, c.Language, c.Autoload)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// Empty returns a registry with engine classes only.
func Empty() *Registry {
	return New(nil)
}

// Load builds the registry for the project at root. The Godot 4 class
// cache is preferred, then the Godot 3 project list, then a scan of the
// project's scripts. Autoloads are added on top.
func Load(fsys afero.Fs, root string) (*Registry, error) {
	var classes []GlobalClass
	used := ""
	for _, p := range []Provider{CacheProvider{}, ProjectProvider{}, ScanProvider{}} {
		found, err := p.Classes(fsys, root)
		if err != nil {
			return nil, fmt.Errorf("%s provider: %w", p.Name(), err)
		}
		if len(found) > 0 {
			classes, used = found, p.Name()
			break
		}
	}
	autoloads, err := AutoloadProvider{}.Classes(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("autoload provider: %w", err)
	}
	r := New(append(classes, autoloads...))
	r.source = used
	return r, nil
}

// Source names the provider the user classes came from.
func (r *Registry) Source() string {
	return r.source
}

// Fingerprint identifies the user classes of the snapshot. Registries with
// the same classes have the same fingerprint.
func (r *Registry) Fingerprint() string {
	return r.fingerprint
}

// UserClasses returns all global classes sorted by name.
func (r *Registry) UserClasses() []GlobalClass {
	out := make([]GlobalClass, 0, len(r.user))
	for _, c := range r.user {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IsUserClass reports whether name is a project global class or autoload.
func (r *Registry) IsUserClass(name string) bool {
	_, ok := r.user[name]
	return ok
}

// IsEngineClass reports whether name is an engine class.
func (r *Registry) IsEngineClass(name string) bool {
	_, ok := r.engine.classes[name]
	return ok
}

// IsClass reports whether name is any known class.
func (r *Registry) IsClass(name string) bool {
	return r.IsUserClass(name) || r.IsEngineClass(name)
}

// PathOf returns the script path declaring the global class name.
func (r *Registry) PathOf(name string) (string, bool) {
	c, ok := r.user[name]
	if !ok || c.Path == "" {
		return "", false
	}
	return c.Path, true
}

// EngineClassHasMethod reports whether the engine class or one of its
// bases declares method.
func (r *Registry) EngineClassHasMethod(class, method string) bool {
	for i := 0; i < maxBaseDepth && class != ""; i++ {
		if r.engine.methods[class][method] {
			return true
		}
		c, ok := r.engine.classes[class]
		if !ok {
			return false
		}
		class = c.Base
	}
	return false
}

// EngineMethodKnown reports whether any engine class declares method.
func (r *Registry) EngineMethodKnown(method string) bool {
	return r.engine.index[method]
}

// EngineBase returns the first engine class in the inheritance chain of a
// user or engine class.
func (r *Registry) EngineBase(name string) (string, bool) {
	for i := 0; i < maxBaseDepth && name != ""; i++ {
		if r.IsEngineClass(name) {
			return name, true
		}
		c, ok := r.user[name]
		if !ok {
			return "", false
		}
		name = c.Base
	}
	return "", false
}

// IsPrimitive reports whether name is a primitive value type.
func (r *Registry) IsPrimitive(name string) bool {
	return IsPrimitive(name)
}

// PrimitiveHasMethod reports whether the primitive type declares method.
func (r *Registry) PrimitiveHasMethod(typ, method string) bool {
	return PrimitiveHasMethod(typ, method)
}

// IsArrayType reports whether name is an array-like type.
func (r *Registry) IsArrayType(name string) bool {
	return IsArrayType(name)
}

// ArrayTypeHasMethod reports whether the array-like type provides method.
func (r *Registry) ArrayTypeHasMethod(typ, method string) bool {
	return ArrayTypeHasMethod(typ, method)
}
