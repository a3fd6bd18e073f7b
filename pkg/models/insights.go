package models

import "sort"

// PatternTag names a behavioral pattern detected in a script.
type PatternTag string

const (
	PatternReadyInitialization  PatternTag = "ready_initialization"
	PatternFrameUpdate          PatternTag = "frame_update"
	PatternPhysicsUpdate        PatternTag = "physics_update"
	PatternInputHandling        PatternTag = "input_handling"
	PatternTreeLifecycle        PatternTag = "tree_lifecycle"
	PatternConstructor          PatternTag = "constructor"
	PatternCustomDrawing        PatternTag = "custom_drawing"
	PatternNotificationHandling PatternTag = "notification_handling"
	PatternEventDriven          PatternTag = "event_driven"
	PatternSignalEmitter        PatternTag = "signal_emitter"
	PatternSignalEmittingActive PatternTag = "signal_emitting_active"
	PatternStateManagement      PatternTag = "state_management"
)

// Complexity is a coarse size tier for a script.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Weight returns a numeric weight for ordering (higher = more severe).
func (c Complexity) Weight() int {
	switch c {
	case ComplexityHigh:
		return 3
	case ComplexityMedium:
		return 2
	case ComplexityLow:
		return 1
	default:
		return 0
	}
}

// MaxComplexity returns the more severe of a and b.
func MaxComplexity(a, b Complexity) Complexity {
	if b.Weight() > a.Weight() {
		return b
	}
	return a
}

// VariableTypeCounts counts variables by declaration flavor.
type VariableTypeCounts struct {
	Exported int `json:"exported" toon:"exported"`
	Onready  int `json:"onready" toon:"onready"`
	Constant int `json:"constant" toon:"constant"`
	Regular  int `json:"regular" toon:"regular"`
}

// Add sums o into c.
func (c *VariableTypeCounts) Add(o VariableTypeCounts) {
	c.Exported += o.Exported
	c.Onready += o.Onready
	c.Constant += o.Constant
	c.Regular += o.Regular
}

// BehavioralInsights summarizes the behavior of one script or, once merged,
// of every script in a scene. Patterns and LifecycleMethods are sets kept
// sorted; signal lists keep first-seen order.
type BehavioralInsights struct {
	Patterns           []PatternTag       `json:"patterns" toon:"patterns"`
	LifecycleMethods   []string           `json:"lifecycle_methods" toon:"lifecycle_methods"`
	EventHandlerCount  int                `json:"event_handler_count" toon:"event_handler_count"`
	SignalsDefined     []string           `json:"signals_defined" toon:"signals_defined"`
	SignalsEmitted     []string           `json:"signals_emitted" toon:"signals_emitted"`
	VariableTypeCounts VariableTypeCounts `json:"variable_type_counts" toon:"variable_type_counts"`
	Complexity         Complexity         `json:"complexity" toon:"complexity"`
}

// NewBehavioralInsights returns empty insights at the lowest complexity.
func NewBehavioralInsights() *BehavioralInsights {
	return &BehavioralInsights{
		Patterns:         make([]PatternTag, 0),
		LifecycleMethods: make([]string, 0),
		SignalsDefined:   make([]string, 0),
		SignalsEmitted:   make([]string, 0),
		Complexity:       ComplexityLow,
	}
}

// HasPattern reports whether tag was detected.
func (b *BehavioralInsights) HasPattern(tag PatternTag) bool {
	for _, p := range b.Patterns {
		if p == tag {
			return true
		}
	}
	return false
}

// AddPattern inserts tag into the pattern set.
func (b *BehavioralInsights) AddPattern(tag PatternTag) {
	if b.HasPattern(tag) {
		return
	}
	b.Patterns = append(b.Patterns, tag)
	sort.Slice(b.Patterns, func(i, j int) bool { return b.Patterns[i] < b.Patterns[j] })
}

// AddLifecycleMethod inserts name into the lifecycle set.
func (b *BehavioralInsights) AddLifecycleMethod(name string) {
	b.LifecycleMethods = UnionSorted(b.LifecycleMethods, []string{name})
}

// Merge folds o into b: sets are unioned, signal lists unioned in
// first-seen order, counters summed and complexity maximized.
func (b *BehavioralInsights) Merge(o *BehavioralInsights) {
	if o == nil {
		return
	}
	for _, p := range o.Patterns {
		b.AddPattern(p)
	}
	b.LifecycleMethods = UnionSorted(b.LifecycleMethods, o.LifecycleMethods)
	b.EventHandlerCount += o.EventHandlerCount
	b.SignalsDefined = AppendUnique(b.SignalsDefined, o.SignalsDefined...)
	b.SignalsEmitted = AppendUnique(b.SignalsEmitted, o.SignalsEmitted...)
	b.VariableTypeCounts.Add(o.VariableTypeCounts)
	b.Complexity = MaxComplexity(b.Complexity, o.Complexity)
}

// AppendUnique appends the values of add not already present in dst,
// preserving first-seen order.
func AppendUnique(dst []string, add ...string) []string {
	if dst == nil {
		dst = make([]string, 0, len(add))
	}
	seen := make(map[string]bool, len(dst)+len(add))
	for _, v := range dst {
		seen[v] = true
	}
	for _, v := range add {
		if !seen[v] {
			seen[v] = true
			dst = append(dst, v)
		}
	}
	return dst
}

// UnionSorted returns the sorted union of a and b.
func UnionSorted(a, b []string) []string {
	out := AppendUnique(append([]string(nil), a...), b...)
	sort.Strings(out)
	return out
}

// NodeScript maps a scene node to the script attached to it.
type NodeScript struct {
	NodePath   string `json:"node_path" toon:"node_path"`
	ScriptPath string `json:"script_path" toon:"script_path"`
}

// ConnectionFlow joins a scene connection with the handler lookup result.
type ConnectionFlow struct {
	Signal       string `json:"signal" toon:"signal"`
	From         string `json:"from" toon:"from"`
	To           string `json:"to" toon:"to"`
	Method       string `json:"method" toon:"method"`
	TargetScript string `json:"target_script,omitempty" toon:"target_script,omitempty"`
	HandlerFound bool   `json:"handler_found" toon:"handler_found"`
}

// SceneInsights aggregates per-script insights over a scene.
type SceneInsights struct {
	BehavioralInsights
	ScriptCount       int              `json:"script_count" toon:"script_count"`
	FailedScripts     int              `json:"failed_scripts" toon:"failed_scripts"`
	NodeScriptMapping []NodeScript     `json:"node_script_mapping" toon:"node_script_mapping"`
	UniqueScripts     []string         `json:"unique_scripts" toon:"unique_scripts"`
	ConnectionFlows   []ConnectionFlow `json:"connection_flows,omitempty" toon:"connection_flows,omitempty"`
}

// NewSceneInsights returns empty scene insights.
func NewSceneInsights() *SceneInsights {
	return &SceneInsights{
		BehavioralInsights: *NewBehavioralInsights(),
		NodeScriptMapping:  make([]NodeScript, 0),
		UniqueScripts:      make([]string, 0),
	}
}
