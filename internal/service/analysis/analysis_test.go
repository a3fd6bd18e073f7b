package analysis

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/gdlens/internal/cache"
	"github.com/panbanda/gdlens/pkg/config"
	"github.com/panbanda/gdlens/pkg/models"
	"github.com/panbanda/gdlens/pkg/registry"
	"github.com/panbanda/gdlens/pkg/testutil"
)

const playerScript = `class_name Player
extends CharacterBody2D

signal hit(damage: int)

@export var speed: float = 200.0
var state := "idle"
const Bullet = preload("res://bullet.tscn")

func _ready() -> void:
	$Sprite.play("idle")
	hit.connect(_on_hit)

func _physics_process(delta):
	move_and_slide()

func shoot():
	var b = Bullet.instantiate()
	add_child(b)
	hit.emit(1)

func _on_hit(damage):
	helper()

func helper():
	pass
`

const hudScript = `extends Control

signal hit

func _ready():
	emit_signal("hit")

func _on_player_hit(damage):
	pass
`

const mainScene = `[gd_scene load_steps=6 format=3 uid="uid://main"]

[ext_resource type="Script" path="res://player.gd" id="1_p"]
[ext_resource type="Script" path="res://hud.gd" id="2_h"]
[ext_resource type="Script" path="res://broken.gd" id="3_b"]
[ext_resource type="PackedScene" path="res://bullet.tscn" id="4_s"]

[sub_resource type="GDScript" id="GDScript_x"]

[node name="Main" type="Node2D"]

[node name="Player" type="CharacterBody2D" parent="."]
script = ExtResource("1_p")

[node name="Sprite" type="AnimatedSprite2D" parent="Player"]

[node name="HUD" type="Control" parent="."]
script = ExtResource("2_h")

[node name="Broken" type="Node" parent="HUD"]
script = ExtResource("3_b")

[node name="Inline" type="Node" parent="."]
script = SubResource("GDScript_x")

[node name="Player2" type="CharacterBody2D" parent="."]
script = ExtResource("1_p")

[node name="Bullet" parent="." instance=ExtResource("4_s")]

[connection signal="hit" from="Player" to="HUD" method="_on_player_hit"]
[connection signal="hit" from="HUD" to="Player" method="missing"]
`

const bulletScene = `[gd_scene format=3]

[node name="Bullet" type="Area2D"]
`

func projectFiles() map[string]string {
	return map[string]string{
		"player.gd":   playerScript,
		"hud.gd":      hudScript,
		"broken.gd":   "",
		"main.tscn":   mainScene,
		"bullet.tscn": bulletScene,
	}
}

func memService(t *testing.T, opts ...Option) (*Service, afero.Fs) {
	t.Helper()
	fs := testutil.MemFS()
	testutil.Project(t, fs, "/game", projectFiles())
	opts = append([]Option{WithConfig(config.DefaultConfig()), WithFs(fs)}, opts...)
	return New(opts...), fs
}

func allScript() ScriptOptions {
	return ScriptOptions{IncludeDependencies: true, IncludeMethods: true, IncludeVariables: true}
}

func TestAnalyzeScript(t *testing.T) {
	svc, _ := memService(t)
	res := svc.AnalyzeScript(context.Background(), "/game/player.gd", allScript())

	require.False(t, res.Failed(), res.Error)
	assert.Equal(t, "res://player.gd", res.ScriptPath)
	assert.NotEmpty(t, res.Fingerprint)

	decl := res.Structure
	require.NotNil(t, decl)
	assert.Equal(t, "Player", decl.ClassName)
	assert.Equal(t, "CharacterBody2D", decl.Extends)
	assert.Len(t, decl.Methods, 5)

	var preload *models.Dependency
	for i, d := range decl.Dependencies {
		if d.Kind == models.DepPreload {
			preload = &decl.Dependencies[i]
		}
	}
	require.NotNil(t, preload)
	assert.Equal(t, "res://bullet.tscn", preload.Target)

	require.NotNil(t, res.BehavioralAnalysis)
	assert.Equal(t, 1, res.BehavioralAnalysis.SignalCount)
	require.Len(t, res.BehavioralAnalysis.MethodSummaries, 5)
	onHit := res.BehavioralAnalysis.MethodSummaries[3]
	assert.Equal(t, "_on_hit", onHit.Name)
	assert.Equal(t, []string{"helper"}, onHit.InternalCalls)

	require.NotNil(t, res.BehavioralFlows)
	assert.Contains(t, res.BehavioralFlows.CallFlows, models.CallEdge{From: "_on_hit", To: "helper"})
	assert.Contains(t, res.BehavioralFlows.EntryPoints, "_ready")
	assert.Contains(t, res.BehavioralFlows.EntryPoints, "_on_hit")

	require.NotNil(t, res.BehavioralContext)
	assert.True(t, res.BehavioralContext.HasPattern(models.PatternReadyInitialization))
	assert.True(t, res.BehavioralContext.HasPattern(models.PatternStateManagement))
	assert.Equal(t, []string{"speed"}, res.BehavioralContext.ExportedProperties)
}

func TestAnalyzeScript_Options(t *testing.T) {
	svc, _ := memService(t)
	res := svc.AnalyzeScript(context.Background(), "/game/player.gd", ScriptOptions{})

	require.False(t, res.Failed())
	assert.Empty(t, res.Structure.Dependencies)
	assert.Empty(t, res.Structure.Methods)
	assert.Empty(t, res.Structure.Variables)
	assert.Len(t, res.Structure.Exports, 1)
	assert.Empty(t, res.BehavioralAnalysis.MethodSummaries)
	// Trimming never changes what the analysis saw.
	assert.Equal(t, []string{"_physics_process", "_ready"}, res.BehavioralContext.LifecycleMethods)
}

func TestAnalyzeScript_Failures(t *testing.T) {
	svc, fs := memService(t)
	testutil.WriteFile(t, fs, "/loose/tool.gd", "extends Node\n")

	tests := []struct {
		name string
		path string
		kind error
	}{
		{"missing file", "/game/nope.gd", models.ErrNotFound},
		{"empty file", "/game/broken.gd", models.ErrEmpty},
		{"directory", "/game", models.ErrUnreadable},
		{"uid path", "uid://b6x1", models.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := svc.AnalyzeScript(context.Background(), tt.path, allScript())
			assert.True(t, res.Failed())
			assert.Nil(t, res.Structure)
			assert.Contains(t, res.Error, tt.kind.Error())
		})
	}

	t.Run("outside a project", func(t *testing.T) {
		res := svc.AnalyzeScript(context.Background(), "/loose/tool.gd", allScript())
		require.False(t, res.Failed(), res.Error)
		assert.Equal(t, "/loose/tool.gd", res.ScriptPath)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := svc.AnalyzeScript(ctx, "/game/hud.gd", allScript())
		assert.True(t, res.Failed())
	})
}

func TestAnalyzeScript_ResPath(t *testing.T) {
	svc, _ := memService(t, WithRoot("/game"))
	res := svc.AnalyzeScript(context.Background(), "res://hud.gd", allScript())
	require.False(t, res.Failed(), res.Error)
	assert.Equal(t, "res://hud.gd", res.ScriptPath)
	assert.Equal(t, "Control", res.Structure.Extends)
}

func TestAnalyzeScript_Cache(t *testing.T) {
	fs := testutil.MemFS()
	testutil.Project(t, fs, "/game", projectFiles())
	c, err := cache.New(fs, "/cache", 24, true)
	require.NoError(t, err)
	svc := New(WithConfig(config.DefaultConfig()), WithFs(fs), WithCache(c))

	first := svc.AnalyzeScript(context.Background(), "/game/hud.gd", allScript())
	require.False(t, first.Failed())
	stats, err := c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)

	second := svc.AnalyzeScript(context.Background(), "/game/hud.gd", allScript())
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.Structure.SignalNames(), second.Structure.SignalNames())

	testutil.WriteFile(t, fs, "/game/hud.gd", "extends Control\n\nsignal closed\n")
	third := svc.AnalyzeScript(context.Background(), "/game/hud.gd", allScript())
	assert.NotEqual(t, first.Fingerprint, third.Fingerprint)
	assert.Equal(t, []string{"closed"}, third.Structure.SignalNames())
}

func TestAnalyzeScript_CacheKeyedByProject(t *testing.T) {
	fs := testutil.MemFS()
	files := projectFiles()
	files["main.gd"] = "extends Node\n\nfunc _ready():\n\tvar e = Enemy.new()\n"
	testutil.Project(t, fs, "/game", files)
	c, err := cache.New(fs, "/cache", 24, true)
	require.NoError(t, err)

	analyze := func(cfg *config.Config) []string {
		svc := New(WithConfig(cfg), WithFs(fs), WithCache(c))
		res := svc.AnalyzeScript(context.Background(), "/game/main.gd", allScript())
		require.False(t, res.Failed(), res.Error)
		var refs []string
		for _, d := range res.Structure.Dependencies {
			if d.Kind == models.DepClassReference {
				refs = append(refs, d.Target)
			}
		}
		return refs
	}

	assert.Empty(t, analyze(config.DefaultConfig()))

	testutil.WriteFile(t, fs, "/game/enemy.gd", "class_name Enemy\nextends Node\n")
	assert.Equal(t, []string{"Enemy"}, analyze(config.DefaultConfig()), "a new class is not served from the cache")

	cfg := config.DefaultConfig()
	cfg.Loaders = nil
	analyze(cfg)
	stats, err := c.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Entries, "each class set and loader set has its own entry")
}

func TestRegistry(t *testing.T) {
	svc, _ := memService(t)
	reg, err := svc.Registry("/game")
	require.NoError(t, err)
	again, err := svc.Registry("/game")
	require.NoError(t, err)
	assert.Same(t, reg, again)
	assert.Equal(t, "scan", reg.Source())
	assert.True(t, reg.IsUserClass("Player"))

	fixed := registry.Empty()
	pinned := New(WithConfig(config.DefaultConfig()), WithRegistry(fixed))
	got, err := pinned.Registry("/anything")
	require.NoError(t, err)
	assert.Same(t, fixed, got)
}

func TestListClasses(t *testing.T) {
	svc, _ := memService(t)
	list, err := svc.ListClasses("/game/sub")
	require.NoError(t, err)
	assert.Equal(t, "/game", list.Root)
	assert.Equal(t, "scan", list.Source)
	require.Len(t, list.Classes, 1)
	assert.Equal(t, "Player", list.Classes[0].Name)
	assert.Equal(t, "res://player.gd", list.Classes[0].Path)
	assert.Equal(t, "CharacterBody2D", list.Classes[0].EngineBase)

	_, err = svc.ListClasses("/elsewhere")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
