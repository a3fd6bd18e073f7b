// Package behavior derives behavioral facts from a parsed script: lifecycle
// and event patterns, complexity, scene-tree interactions and signal flow.
package behavior

import (
	"strings"

	"github.com/panbanda/gdlens/pkg/models"
)

// Lifecycle callbacks and the pattern each one implies.
var lifecycle = map[string]models.PatternTag{
	"_ready":               models.PatternReadyInitialization,
	"_process":             models.PatternFrameUpdate,
	"_physics_process":     models.PatternPhysicsUpdate,
	"_input":               models.PatternInputHandling,
	"_unhandled_input":     models.PatternInputHandling,
	"_unhandled_key_input": models.PatternInputHandling,
	"_shortcut_input":      models.PatternInputHandling,
	"_gui_input":           models.PatternInputHandling,
	"_enter_tree":          models.PatternTreeLifecycle,
	"_exit_tree":           models.PatternTreeLifecycle,
	"_init":                models.PatternConstructor,
	"_draw":                models.PatternCustomDrawing,
	"_notification":        models.PatternNotificationHandling,
	"_integrate_forces":    models.PatternPhysicsUpdate,
}

// IsLifecycle reports whether name is an engine lifecycle callback.
func IsLifecycle(name string) bool {
	_, ok := lifecycle[name]
	return ok
}

// Thresholds are the complexity tier limits. A script is high when it has
// more than HighMethods methods or HighVariables variables, medium past the
// Medium limits, otherwise low.
type Thresholds struct {
	HighMethods     int `json:"high_methods" koanf:"high_methods" toml:"high_methods"`
	HighVariables   int `json:"high_variables" koanf:"high_variables" toml:"high_variables"`
	MediumMethods   int `json:"medium_methods" koanf:"medium_methods" toml:"medium_methods"`
	MediumVariables int `json:"medium_variables" koanf:"medium_variables" toml:"medium_variables"`
}

// DefaultThresholds returns the standard tier limits.
func DefaultThresholds() Thresholds {
	return Thresholds{HighMethods: 20, HighVariables: 30, MediumMethods: 10, MediumVariables: 15}
}

// DefaultEventHandlerPrefix marks methods wired to signals by convention.
const DefaultEventHandlerPrefix = "_on_"

// DefaultStateKeywords mark variables that hold state.
func DefaultStateKeywords() []string {
	return []string{"state", "status", "mode"}
}

// Analyzer derives behavioral facts. It holds no per-script state and is
// safe for concurrent use.
type Analyzer struct {
	eventPrefix   string
	stateKeywords []string
	thresholds    Thresholds
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithEventHandlerPrefix sets the event handler naming prefix.
func WithEventHandlerPrefix(prefix string) Option {
	return func(a *Analyzer) {
		if prefix != "" {
			a.eventPrefix = prefix
		}
	}
}

// WithStateKeywords sets the substrings that mark state variables.
func WithStateKeywords(keywords ...string) Option {
	return func(a *Analyzer) {
		if len(keywords) > 0 {
			a.stateKeywords = keywords
		}
	}
}

// WithThresholds sets the complexity tier limits.
func WithThresholds(t Thresholds) Option {
	return func(a *Analyzer) {
		a.thresholds = t
	}
}

// New creates an analyzer with default options.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		eventPrefix:   DefaultEventHandlerPrefix,
		stateKeywords: DefaultStateKeywords(),
		thresholds:    DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(a)
	}
	lower := make([]string, len(a.stateKeywords))
	for i, k := range a.stateKeywords {
		lower[i] = strings.ToLower(k)
	}
	a.stateKeywords = lower
	return a
}

// IsEventHandler reports whether name follows the event handler convention.
func (a *Analyzer) IsEventHandler(name string) bool {
	return strings.HasPrefix(name, a.eventPrefix)
}

// IsStateVariable reports whether name mentions a state keyword.
func (a *Analyzer) IsStateVariable(name string) bool {
	lower := strings.ToLower(name)
	for _, k := range a.stateKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Complexity returns the tier for the given method and variable counts.
func (a *Analyzer) Complexity(methods, variables int) models.Complexity {
	t := a.thresholds
	switch {
	case methods > t.HighMethods || variables > t.HighVariables:
		return models.ComplexityHigh
	case methods > t.MediumMethods || variables > t.MediumVariables:
		return models.ComplexityMedium
	default:
		return models.ComplexityLow
	}
}

// Insights summarizes the declarations of one script.
func (a *Analyzer) Insights(decl *models.ScriptDeclaration) *models.BehavioralInsights {
	ins := models.NewBehavioralInsights()

	for _, m := range decl.Methods {
		if tag, ok := lifecycle[m.Name]; ok {
			ins.AddLifecycleMethod(m.Name)
			ins.AddPattern(tag)
		}
		if a.IsEventHandler(m.Name) {
			ins.EventHandlerCount++
		}
	}
	if ins.EventHandlerCount > 0 {
		ins.AddPattern(models.PatternEventDriven)
	}

	ins.SignalsDefined = models.AppendUnique(ins.SignalsDefined, decl.SignalNames()...)
	for _, e := range decl.SignalEmissions {
		ins.SignalsEmitted = models.AppendUnique(ins.SignalsEmitted, e.Signal)
	}
	if len(ins.SignalsDefined) > 0 {
		ins.AddPattern(models.PatternSignalEmitter)
	}
	if len(ins.SignalsEmitted) > 0 {
		ins.AddPattern(models.PatternSignalEmittingActive)
	}

	vars := decl.AllVariables()
	for _, v := range vars {
		switch {
		case v.IsExport:
			ins.VariableTypeCounts.Exported++
		case v.IsOnready:
			ins.VariableTypeCounts.Onready++
		case v.IsConstant:
			ins.VariableTypeCounts.Constant++
		default:
			ins.VariableTypeCounts.Regular++
		}
		if a.IsStateVariable(v.Name) {
			ins.AddPattern(models.PatternStateManagement)
		}
	}

	ins.Complexity = a.Complexity(len(decl.Methods), len(vars))
	return ins
}

// Analysis assembles the behavioral analysis section of a script result.
func (a *Analyzer) Analysis(decl *models.ScriptDeclaration, ins *models.BehavioralInsights, summaries []models.MethodSummary, interactions models.SceneInteractions) *models.BehavioralAnalysis {
	if summaries == nil {
		summaries = make([]models.MethodSummary, 0)
	}
	return &models.BehavioralAnalysis{
		PatternCount:      len(ins.Patterns),
		SignalCount:       len(decl.Signals),
		VariableCount:     len(decl.Exports) + len(decl.Variables),
		MethodSummaries:   summaries,
		SceneInteractions: interactions,
	}
}

// Context names the members behind the insight counters.
func (a *Analyzer) Context(decl *models.ScriptDeclaration, ins *models.BehavioralInsights) *models.BehavioralContext {
	ctx := &models.BehavioralContext{
		BehavioralInsights: *ins,
		EventHandlers:      make([]string, 0),
		ExportedProperties: make([]string, 0),
		StateVariables:     make([]string, 0),
	}
	for _, m := range decl.Methods {
		if a.IsEventHandler(m.Name) {
			ctx.EventHandlers = models.AppendUnique(ctx.EventHandlers, m.Name)
		}
	}
	for _, v := range decl.AllVariables() {
		if v.IsExport {
			ctx.ExportedProperties = models.AppendUnique(ctx.ExportedProperties, v.Name)
		}
		if a.IsStateVariable(v.Name) {
			ctx.StateVariables = models.AppendUnique(ctx.StateVariables, v.Name)
		}
	}
	return ctx
}
