package models

// String methods for all custom string types.
// These are required for toon serialization, which uses fmt.Stringer.

// VariableScope
func (s VariableScope) String() string { return string(s) }

// DependencyKind
func (k DependencyKind) String() string { return string(k) }

// CallKind
func (c CallKind) String() string { return string(c) }

// PatternTag
func (p PatternTag) String() string { return string(p) }

// Complexity
func (c Complexity) String() string { return string(c) }
