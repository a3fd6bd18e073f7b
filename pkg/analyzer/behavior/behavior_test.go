package behavior

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/gdlens/pkg/analyzer/calls"
	"github.com/panbanda/gdlens/pkg/models"
	"github.com/panbanda/gdlens/pkg/parser"
	"github.com/panbanda/gdlens/pkg/registry"
)

const hudScript = `extends Control

signal score_changed(value)
signal paused
signal never_used

@export var max_score := 100
@onready var label: Label = $Score/Label
const LIMIT = 3
var current_state = "idle"
var score = 0

func _ready():
	$Button.pressed.connect(_on_button_pressed)
	%Timer.timeout.connect(func(): queue_free())
	connect("visibility_changed", self, "_on_visibility_changed")
	get_node("Panel").show()
	print("$NotANode %alsoNot")
	var ratio = score % 10

func _process(delta):
	update_label()

func _on_button_pressed():
	score += 1
	score_changed.emit(score)
	emit_signal("game_over")
	var level = preload("res://levels/level_2.tscn").instantiate()
	get_parent().add_child(level)
	get_tree().change_scene_to_file("res://menu.tscn")

func _on_visibility_changed():
	pass

func update_label():
	label.text = str(score)
`

func analyze(t *testing.T, src string) (*parser.ParsedScript, *models.BehavioralInsights) {
	t.Helper()
	ps := parser.ParseScript(src, parser.DefaultScriptOptions())
	return ps, New().Insights(ps.Decl)
}

func TestInsights(t *testing.T) {
	_, ins := analyze(t, hudScript)

	assert.Equal(t, []models.PatternTag{
		models.PatternEventDriven,
		models.PatternFrameUpdate,
		models.PatternReadyInitialization,
		models.PatternSignalEmitter,
		models.PatternSignalEmittingActive,
		models.PatternStateManagement,
	}, ins.Patterns)
	assert.Equal(t, []string{"_process", "_ready"}, ins.LifecycleMethods)
	assert.Equal(t, 2, ins.EventHandlerCount)
	assert.Equal(t, []string{"score_changed", "paused", "never_used"}, ins.SignalsDefined)
	assert.Equal(t, []string{"score_changed", "game_over"}, ins.SignalsEmitted)
	assert.Equal(t, models.VariableTypeCounts{Exported: 1, Onready: 1, Constant: 1, Regular: 2}, ins.VariableTypeCounts)
	assert.Equal(t, models.ComplexityLow, ins.Complexity)
}

func TestInsights_Empty(t *testing.T) {
	_, ins := analyze(t, "extends Node\n")
	assert.Empty(t, ins.Patterns)
	assert.Equal(t, 0, ins.EventHandlerCount)
	assert.Equal(t, models.ComplexityLow, ins.Complexity)
}

func TestInsights_LifecycleCallbacks(t *testing.T) {
	tests := []struct {
		method string
		want   models.PatternTag
	}{
		{"_ready", models.PatternReadyInitialization},
		{"_process", models.PatternFrameUpdate},
		{"_physics_process", models.PatternPhysicsUpdate},
		{"_integrate_forces", models.PatternPhysicsUpdate},
		{"_input", models.PatternInputHandling},
		{"_unhandled_input", models.PatternInputHandling},
		{"_unhandled_key_input", models.PatternInputHandling},
		{"_shortcut_input", models.PatternInputHandling},
		{"_gui_input", models.PatternInputHandling},
		{"_enter_tree", models.PatternTreeLifecycle},
		{"_exit_tree", models.PatternTreeLifecycle},
		{"_init", models.PatternConstructor},
		{"_draw", models.PatternCustomDrawing},
		{"_notification", models.PatternNotificationHandling},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			_, ins := analyze(t, "extends Node\n\nfunc "+tt.method+"():\n\tpass\n")
			assert.True(t, IsLifecycle(tt.method))
			assert.Equal(t, []string{tt.method}, ins.LifecycleMethods)
			assert.Equal(t, []models.PatternTag{tt.want}, ins.Patterns)
		})
	}

	assert.False(t, IsLifecycle("_on_ready"))
	assert.False(t, IsLifecycle("ready"))
}

func TestComplexity(t *testing.T) {
	a := New()
	assert.Equal(t, models.ComplexityLow, a.Complexity(10, 15))
	assert.Equal(t, models.ComplexityMedium, a.Complexity(11, 0))
	assert.Equal(t, models.ComplexityMedium, a.Complexity(0, 16))
	assert.Equal(t, models.ComplexityHigh, a.Complexity(21, 0))
	assert.Equal(t, models.ComplexityHigh, a.Complexity(0, 31))

	strict := New(WithThresholds(Thresholds{HighMethods: 2, HighVariables: 2, MediumMethods: 1, MediumVariables: 1}))
	assert.Equal(t, models.ComplexityHigh, strict.Complexity(3, 0))
}

func TestComplexity_FromScript(t *testing.T) {
	var b strings.Builder
	b.WriteString("extends Node\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "func m%d():\n\tpass\n", i)
	}
	_, ins := analyze(t, b.String())
	assert.Equal(t, models.ComplexityMedium, ins.Complexity)
}

func TestOptions(t *testing.T) {
	keywords := []string{"PHASE"}
	a := New(WithEventHandlerPrefix("handle_"), WithStateKeywords(keywords...))
	assert.True(t, a.IsEventHandler("handle_click"))
	assert.False(t, a.IsEventHandler("_on_click"))
	assert.True(t, a.IsStateVariable("game_phase"))
	assert.False(t, a.IsStateVariable("current_state"))
	assert.Equal(t, []string{"PHASE"}, keywords, "caller slice is not modified")
}

func TestInteractions(t *testing.T) {
	ps, _ := analyze(t, hudScript)
	si := New().Interactions(ps)

	assert.Equal(t, []string{"$Button", "%Timer", `get_node("Panel")`}, si.NodeQueries)
	assert.Equal(t, []string{"queue_free", "get_parent().add_child", "get_tree().change_scene_to_file"}, si.TreeManipulation)
	assert.Equal(t, []string{"res://levels/level_2.tscn", `preload("res://levels/level_2.tscn").instantiate()`, "res://menu.tscn"}, si.SceneLoading)
	assert.Equal(t, []string{`get_node("Panel").show`}, si.DownwardCommunication)
	assert.Equal(t, []string{"score_changed", "game_over"}, si.UpwardCommunication)

	require.Len(t, si.SignalConnections, 3)
	assert.Equal(t, models.SignalConnection{
		Source: "$Button", Signal: "pressed", Handler: "_on_button_pressed", Method: "_ready", Line: 14,
	}, si.SignalConnections[0])
	assert.Equal(t, "%Timer", si.SignalConnections[1].Source)
	assert.Equal(t, lambdaHandler, si.SignalConnections[1].Handler)
	assert.Equal(t, models.SignalConnection{
		Source: models.SelfObject, Signal: "visibility_changed", Handler: "_on_visibility_changed", Method: "_ready", Line: 16,
	}, si.SignalConnections[2])
}

const stringNameScript = `extends Node

signal hit

func _ready():
	button.connect(&"pressed", _on_pressed)
	connect(&"hit", self, &"_on_hit")
	timer.timeout.connect(Callable(self, &"_on_timeout"))

func _on_pressed():
	emit_signal(&"hit")
`

func TestInteractions_StringNameLiterals(t *testing.T) {
	ps, ins := analyze(t, stringNameScript)
	si := New().Interactions(ps)

	assert.Equal(t, []models.SignalConnection{
		{Source: "button", Signal: "pressed", Handler: "_on_pressed", Method: "_ready", Line: 6},
		{Source: models.SelfObject, Signal: "hit", Handler: "_on_hit", Method: "_ready", Line: 7},
		{Source: "timer", Signal: "timeout", Handler: "_on_timeout", Method: "_ready", Line: 8},
	}, si.SignalConnections)
	assert.Equal(t, []string{"hit"}, si.UpwardCommunication)
	assert.Equal(t, []string{"hit"}, ins.SignalsEmitted)
	assert.Contains(t, ins.Patterns, models.PatternSignalEmittingActive)
}

func TestHandlerName(t *testing.T) {
	tests := map[string]string{
		"_on_hit":                    "_on_hit",
		"self._on_hit":               "_on_hit",
		"_on_hit.bind(3)":            "_on_hit",
		`Callable(self, "_on_hit")`:  "_on_hit",
		`Callable(self, &"_on_hit")`: "_on_hit",
		"func(x): print(x)":          lambdaHandler,
		"target._on_hit.bind(1, 2)":  "target._on_hit",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, handlerName(in))
		})
	}
}

func TestSplitArgs(t *testing.T) {
	assert.Nil(t, splitArgs("  "))
	assert.Equal(t, []string{`"a,b"`, "f(1, 2)", "[3, 4]"}, splitArgs(`"a,b", f(1, 2), [3, 4]`))
}

func TestContext(t *testing.T) {
	ps, ins := analyze(t, hudScript)
	ctx := New().Context(ps.Decl, ins)

	assert.Equal(t, []string{"_on_button_pressed", "_on_visibility_changed"}, ctx.EventHandlers)
	assert.Equal(t, []string{"max_score"}, ctx.ExportedProperties)
	assert.Equal(t, []string{"current_state"}, ctx.StateVariables)
	assert.Equal(t, ins.Patterns, ctx.Patterns)
}

func TestFlows(t *testing.T) {
	ps, _ := analyze(t, hudScript)
	summaries := calls.Summarize(ps, registry.Empty(), false)
	f := New().Flows(ps.Decl, summaries)

	require.Len(t, f.SignalFlows, 4)
	assert.Equal(t, models.SignalFlow{Signal: "score_changed", Declared: true, Emitters: []string{"_on_button_pressed"}}, f.SignalFlows[0])
	assert.Equal(t, models.SignalFlow{Signal: "game_over", Declared: false, Emitters: []string{"_on_button_pressed"}}, f.SignalFlows[3])
	assert.Equal(t, []string{"paused", "never_used"}, f.UnusedSignals)
	assert.Equal(t, []string{"game_over"}, f.UndeclaredEmissions)
	assert.Equal(t, []models.CallEdge{{From: "_process", To: "update_label"}}, f.CallFlows)
	assert.Equal(t, []string{"_ready", "_process", "_on_button_pressed", "_on_visibility_changed"}, f.EntryPoints)
}

func TestAnalysis(t *testing.T) {
	ps, ins := analyze(t, hudScript)
	a := New()
	ba := a.Analysis(ps.Decl, ins, nil, a.Interactions(ps))
	assert.Equal(t, len(ins.Patterns), ba.PatternCount)
	assert.Equal(t, 3, ba.SignalCount)
	assert.Equal(t, 5, ba.VariableCount)
	assert.NotNil(t, ba.MethodSummaries)
}
