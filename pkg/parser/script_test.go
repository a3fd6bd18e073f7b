package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/gdlens/pkg/models"
)

const playerScript = `@tool
class_name Player
extends CharacterBody2D

signal health_changed(value: int)
signal died

enum State { IDLE, RUN }

@export var speed: float = 200.0
@export
var jump_height := 3
@export_group("Combat")
var state := State.IDLE
@onready var sprite: Sprite2D = $Sprite2D
const GRAVITY = 980

func _ready() -> void:
	var timer := Timer.new()
	add_child(timer)
	# comment inside body
	health_changed.emit(10)

static func create() -> Player:
	return Player.new()

func _on_hit(damage: int,
		source: Node) -> void:
	emit_signal("died")

class Inner:
	var hidden = 1
	func hidden_method():
		pass

func _process(delta):
	move_and_slide()
func _process(delta):
	pass
`

func TestParseScript(t *testing.T) {
	ps := ParseScript(playerScript, DefaultScriptOptions())
	decl := ps.Decl

	assert.Equal(t, "Player", decl.ClassName)
	assert.Equal(t, "CharacterBody2D", decl.Extends)
	assert.Equal(t, []string{"health_changed", "died"}, decl.SignalNames())

	require.Len(t, decl.Exports, 2)
	assert.Equal(t, "speed", decl.Exports[0].Name)
	assert.Equal(t, "jump_height", decl.Exports[1].Name)
	assert.Equal(t, models.TypeInferred, decl.Exports[1].Type)
	assert.Equal(t, []string{"@export"}, decl.Exports[1].Annotations)

	names := make([]string, 0, len(decl.Variables))
	for _, v := range decl.Variables {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"State", "state", "sprite", "GRAVITY"}, names)
	assert.False(t, decl.Variables[1].IsExport, "export_group does not export the next variable")
	assert.Equal(t, models.ScopeOnready, decl.Variables[2].Scope)

	methods := make([]string, 0, len(decl.Methods))
	for _, m := range decl.Methods {
		methods = append(methods, m.Name)
	}
	assert.Equal(t, []string{"_ready", "create", "_on_hit", "_process", "_process"}, methods)
	assert.True(t, decl.Methods[1].IsStatic)
	assert.Equal(t, "Player", decl.Methods[1].ReturnType)

	onHit := decl.Methods[2]
	require.Len(t, onHit.Parameters, 2)
	assert.Equal(t, "source", onHit.Parameters[1].Name)
	assert.Equal(t, "Node", onHit.Parameters[1].Type)
	assert.Equal(t, "void", onHit.ReturnType)

	require.Len(t, ps.Bodies, len(decl.Methods))
	ready, ok := ps.Body("_ready")
	require.True(t, ok)
	assert.Len(t, ready.Lines, 3)

	// The inner class body is skipped entirely.
	assert.False(t, decl.HasMethod("hidden_method"))

	// Name lookup resolves to the last declaration; the index keeps both.
	process, ok := ps.Body("_process")
	require.True(t, ok)
	require.Len(t, process.Lines, 1)
	assert.Contains(t, process.Lines[0].Text, "pass")
	assert.Contains(t, ps.Bodies[3].Lines[0].Text, "move_and_slide")

	assert.Equal(t, []models.SignalEmission{
		{Method: "_ready", Signal: "health_changed", Line: 22},
		{Method: "_on_hit", Signal: "died", Line: 29},
	}, decl.SignalEmissions)
}

func TestParseScript_Options(t *testing.T) {
	t.Run("methods only still parses variables", func(t *testing.T) {
		ps := ParseScript(playerScript, ScriptOptions{Methods: true})
		assert.NotEmpty(t, ps.Decl.Variables)
		assert.NotEmpty(t, ps.Decl.Methods)
	})

	t.Run("variables only skips methods", func(t *testing.T) {
		ps := ParseScript(playerScript, ScriptOptions{Variables: true})
		assert.Empty(t, ps.Decl.Methods)
		assert.Empty(t, ps.Bodies)
		assert.NotEmpty(t, ps.Decl.Exports)
		assert.Equal(t, "Player", ps.Decl.ClassName)
	})

	t.Run("nothing requested keeps class header", func(t *testing.T) {
		ps := ParseScript(playerScript, ScriptOptions{})
		assert.Empty(t, ps.Decl.Variables)
		assert.Empty(t, ps.Decl.Methods)
		assert.Len(t, ps.Decl.Signals, 2)
	})
}

func TestParseScript_EdgeCases(t *testing.T) {
	t.Run("empty source is a valid empty structure", func(t *testing.T) {
		ps := ParseScript("", DefaultScriptOptions())
		assert.Equal(t, "", ps.Decl.ClassName)
		assert.NotNil(t, ps.Decl.Methods)
		assert.NotNil(t, ps.Decl.Dependencies)
	})

	t.Run("crlf and quoted extends", func(t *testing.T) {
		ps := ParseScript("extends \"res://base.gd\"\r\nfunc f():\r\n\tpass\r\n", DefaultScriptOptions())
		assert.Equal(t, "res://base.gd", ps.Decl.Extends)
		require.Len(t, ps.Decl.Methods, 1)
	})

	t.Run("class_name with extends on the same line", func(t *testing.T) {
		ps := ParseScript("class_name Enemy extends Node2D\n", DefaultScriptOptions())
		assert.Equal(t, "Enemy", ps.Decl.ClassName)
		assert.Equal(t, "Node2D", ps.Decl.Extends)
	})

	t.Run("one line body", func(t *testing.T) {
		ps := ParseScript("func speed() -> float: return 2.0\n", DefaultScriptOptions())
		body, ok := ps.Body("speed")
		require.True(t, ok)
		require.Len(t, body.Lines, 1)
		assert.Contains(t, body.Lines[0].Text, "return 2.0")
	})
}
