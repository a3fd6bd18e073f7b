package models

// VariableScope classifies where a variable is declared.
type VariableScope string

const (
	ScopeClass   VariableScope = "class"
	ScopeOnready VariableScope = "onready"
	ScopeConst   VariableScope = "const"
)

// TypeInferred marks a declaration whose type is left to the engine (`:=` or
// an untyped parameter).
const TypeInferred = "inferred"

// Parameter is a single method or signal parameter.
type Parameter struct {
	Name    string `json:"name" toon:"name"`
	Type    string `json:"type,omitempty" toon:"type,omitempty"`
	Default string `json:"default,omitempty" toon:"default,omitempty"`
}

// SignalDecl is a `signal` declaration.
type SignalDecl struct {
	Name       string      `json:"name" toon:"name"`
	Parameters []Parameter `json:"parameters" toon:"parameters"`
	LineNumber int         `json:"line_number" toon:"line_number"`
}

// VariableDecl is a class-level `var` or `const`, including exported and
// onready variables. It is never mutated after parsing.
type VariableDecl struct {
	Name         string        `json:"name" toon:"name"`
	Type         string        `json:"type" toon:"type"`
	DefaultValue string        `json:"default_value,omitempty" toon:"default_value,omitempty"`
	IsExport     bool          `json:"is_export" toon:"is_export"`
	IsConstant   bool          `json:"is_constant" toon:"is_constant"`
	IsOnready    bool          `json:"is_onready" toon:"is_onready"`
	Scope        VariableScope `json:"scope" toon:"scope"`
	LineNumber   int           `json:"line_number" toon:"line_number"`
	Annotations  []string      `json:"annotations,omitempty" toon:"annotations,omitempty"`
}

// HasKnownType reports whether the declaration carries a usable type.
func (v VariableDecl) HasKnownType() bool {
	return v.Type != "" && v.Type != TypeInferred
}

// MethodDecl is a `func` declaration. Its body is kept by the parser for
// analysis only and never exposed.
type MethodDecl struct {
	Name       string      `json:"name" toon:"name"`
	Parameters []Parameter `json:"parameters" toon:"parameters"`
	ReturnType string      `json:"return_type,omitempty" toon:"return_type,omitempty"`
	LineNumber int         `json:"line_number" toon:"line_number"`
	IsStatic   bool        `json:"is_static,omitempty" toon:"is_static,omitempty"`
}

// SignalEmission records a signal emitted from inside a method body.
type SignalEmission struct {
	Method string `json:"method" toon:"method"`
	Signal string `json:"signal" toon:"signal"`
	Line   int    `json:"line" toon:"line"`
}

// ScriptDeclaration is the structural model of one script file. All lists
// preserve source order and may contain duplicate names.
type ScriptDeclaration struct {
	ClassName       string           `json:"class_name" toon:"class_name"`
	Extends         string           `json:"extends" toon:"extends"`
	Signals         []SignalDecl     `json:"signals" toon:"signals"`
	Exports         []VariableDecl   `json:"exports" toon:"exports"`
	Variables       []VariableDecl   `json:"variables" toon:"variables"`
	Methods         []MethodDecl     `json:"methods" toon:"methods"`
	Dependencies    []Dependency     `json:"dependencies" toon:"dependencies"`
	SignalEmissions []SignalEmission `json:"signal_emissions" toon:"signal_emissions"`
}

// NewScriptDeclaration returns an empty declaration with non-nil lists so
// that serialized output uses empty arrays instead of null.
func NewScriptDeclaration() *ScriptDeclaration {
	return &ScriptDeclaration{
		Signals:         make([]SignalDecl, 0),
		Exports:         make([]VariableDecl, 0),
		Variables:       make([]VariableDecl, 0),
		Methods:         make([]MethodDecl, 0),
		Dependencies:    make([]Dependency, 0),
		SignalEmissions: make([]SignalEmission, 0),
	}
}

// AllVariables returns exports followed by plain variables.
func (d *ScriptDeclaration) AllVariables() []VariableDecl {
	all := make([]VariableDecl, 0, len(d.Exports)+len(d.Variables))
	all = append(all, d.Exports...)
	return append(all, d.Variables...)
}

// HasMethod reports whether a method with the given name is declared.
func (d *ScriptDeclaration) HasMethod(name string) bool {
	for _, m := range d.Methods {
		if m.Name == name {
			return true
		}
	}
	return false
}

// SignalNames returns declared signal names in source order.
func (d *ScriptDeclaration) SignalNames() []string {
	names := make([]string, 0, len(d.Signals))
	for _, s := range d.Signals {
		names = append(names, s.Name)
	}
	return names
}
