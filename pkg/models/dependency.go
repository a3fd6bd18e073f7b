package models

// DependencyKind is the kind of reference a dependency edge represents.
type DependencyKind string

const (
	DepInheritance      DependencyKind = "inheritance"
	DepPreload          DependencyKind = "preload"
	DepLoad             DependencyKind = "load"
	DepClassDBReference DependencyKind = "classdb_reference"
	DepClassReference   DependencyKind = "class_reference"
	DepTypeHint         DependencyKind = "type_hint"
	DepLiteralResource  DependencyKind = "literal_resource"
)

// Valid reports whether k is one of the known dependency kinds.
func (k DependencyKind) Valid() bool {
	switch k {
	case DepInheritance, DepPreload, DepLoad, DepClassDBReference,
		DepClassReference, DepTypeHint, DepLiteralResource:
		return true
	}
	return false
}

// DependencyMetadata carries optional facts about a dependency target.
type DependencyMetadata struct {
	ResourceType string `json:"resource_type,omitempty" toon:"resource_type,omitempty"`
}

// Dependency is one discovered reference from a script to a class, path or
// resource. Dependencies are unique by (Kind, Target, LineNumber).
type Dependency struct {
	Target       string             `json:"target" toon:"target"`
	Kind         DependencyKind     `json:"kind" toon:"kind"`
	ResolvedPath string             `json:"resolved_path,omitempty" toon:"resolved_path,omitempty"`
	Metadata     DependencyMetadata `json:"metadata" toon:"metadata"`
	SourceLine   string             `json:"source_line" toon:"source_line"`
	LineNumber   int                `json:"line_number" toon:"line_number"`
}

// DependencyKey identifies a dependency for deduplication.
type DependencyKey struct {
	Kind   DependencyKind
	Target string
	Line   int
}

// Key returns the deduplication key of d.
func (d Dependency) Key() DependencyKey {
	return DependencyKey{Kind: d.Kind, Target: d.Target, Line: d.LineNumber}
}
