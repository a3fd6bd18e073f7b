package models

// CallKind classifies a call expression.
type CallKind string

const (
	CallInternal CallKind = "internal"
	CallExternal CallKind = "external"
	CallBuiltin  CallKind = "builtin"
)

// SelfObject is the receiver recorded for bare calls.
const SelfObject = "self"

// CallRecord is one call expression found in a method body.
type CallRecord struct {
	MethodName string   `json:"method_name" toon:"method_name"`
	Object     string   `json:"object" toon:"object"`
	CallType   CallKind `json:"call_type" toon:"call_type"`
	LineNumber int      `json:"line_number" toon:"line_number"`
	Line       string   `json:"line" toon:"line"`
}

// QualifiedName returns object.method for external calls and the bare
// method name otherwise.
func (c CallRecord) QualifiedName() string {
	if c.CallType == CallExternal && c.Object != "" && c.Object != SelfObject {
		return c.Object + "." + c.MethodName
	}
	return c.MethodName
}
