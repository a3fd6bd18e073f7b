package analysis

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/gdlens/pkg/models"
	"github.com/panbanda/gdlens/pkg/testutil"
)

func allScene() SceneOptions {
	return SceneOptions{
		IncludeProperties:     true,
		IncludeConnections:    true,
		IncludeScriptInsights: true,
	}
}

func TestAnalyzeScene(t *testing.T) {
	svc, _ := memService(t)
	var ticks atomic.Int32
	opts := allScene()
	opts.OnProgress = func() { ticks.Add(1) }

	res := svc.AnalyzeScene(context.Background(), "/game/main.tscn", opts)
	require.False(t, res.Failed(), res.Error)
	assert.Equal(t, "res://main.tscn", res.ScenePath)

	st := res.Structure
	require.NotNil(t, st)
	assert.Equal(t, "Main", st.RootName)
	assert.Equal(t, "Node2D", st.RootType)
	assert.Equal(t, 8, st.NodeCount)
	assert.Equal(t, 1, st.SubResourceCount)
	assert.Len(t, st.Connections, 2)
	assert.Len(t, st.Hierarchy.Children, 5)

	assert.Equal(t, []models.NodeScript{
		{NodePath: "Player", ScriptPath: "res://player.gd"},
		{NodePath: "HUD", ScriptPath: "res://hud.gd"},
		{NodePath: "HUD/Broken", ScriptPath: "res://broken.gd"},
		{NodePath: "Player2", ScriptPath: "res://player.gd"},
	}, res.NodeScriptMapping)
	assert.Equal(t, []models.UnresolvedScript{
		{NodePath: "Inline", Reference: `SubResource("GDScript_x")`, Reason: ReasonSubResource},
	}, res.UnresolvedScripts)

	// Each unique script is analyzed once.
	assert.Equal(t, int32(3), ticks.Load())
	require.Len(t, res.ScriptInsights, 3)
	assert.False(t, res.ScriptInsights["res://player.gd"].Failed())
	assert.False(t, res.ScriptInsights["res://hud.gd"].Failed())
	broken := res.ScriptInsights["res://broken.gd"]
	assert.True(t, broken.Failed())
	assert.Nil(t, broken.Structure)

	si := res.SceneInsights
	require.NotNil(t, si)
	assert.Equal(t, 3, si.ScriptCount)
	assert.Equal(t, 1, si.FailedScripts)
	assert.Equal(t, []string{"res://player.gd", "res://hud.gd", "res://broken.gd"}, si.UniqueScripts)
	assert.Equal(t, res.NodeScriptMapping, si.NodeScriptMapping)
	assert.Equal(t, []string{"hit"}, si.SignalsDefined)
	assert.Equal(t, []string{"hit"}, si.SignalsEmitted)
	assert.Equal(t, []string{"_physics_process", "_ready"}, si.LifecycleMethods)
	assert.Equal(t, 2, si.EventHandlerCount)
	assert.Equal(t, models.ComplexityLow, si.Complexity)
	assert.True(t, si.HasPattern(models.PatternEventDriven))

	assert.Equal(t, []models.ConnectionFlow{
		{Signal: "hit", From: "Player", To: "HUD", Method: "_on_player_hit", TargetScript: "res://hud.gd", HandlerFound: true},
		{Signal: "hit", From: "HUD", To: "Player", Method: "missing", TargetScript: "res://player.gd", HandlerFound: false},
	}, si.ConnectionFlows)
}

func TestAnalyzeScene_MaxDepth(t *testing.T) {
	svc, _ := memService(t)
	opts := allScene()
	opts.MaxDepth = 1

	res := svc.AnalyzeScene(context.Background(), "/game/main.tscn", opts)
	require.False(t, res.Failed(), res.Error)
	assert.Equal(t, 8, res.Structure.NodeCount)
	for _, child := range res.Structure.Hierarchy.Children {
		assert.Empty(t, child.Children, child.Name)
	}
	assert.Len(t, res.NodeScriptMapping, 3)
	assert.Len(t, res.ScriptInsights, 2)
	assert.Zero(t, res.SceneInsights.FailedScripts)
}

func TestAnalyzeScene_WithoutInsights(t *testing.T) {
	svc, _ := memService(t)
	opts := allScene()
	opts.IncludeScriptInsights = false
	opts.IncludeConnections = false

	res := svc.AnalyzeScene(context.Background(), "/game/main.tscn", opts)
	require.False(t, res.Failed())
	assert.Nil(t, res.ScriptInsights)
	assert.Nil(t, res.SceneInsights)
	assert.Empty(t, res.Structure.Connections)
	assert.Len(t, res.NodeScriptMapping, 4)
}

func TestAnalyzeScene_Failures(t *testing.T) {
	svc, fs := memService(t)
	testutil.WriteFile(t, fs, "/game/empty_tree.tscn", "[gd_scene format=3]\n")

	missing := svc.AnalyzeScene(context.Background(), "/game/nope.tscn", allScene())
	assert.True(t, missing.Failed())
	assert.Nil(t, missing.Structure)
	assert.Contains(t, missing.Error, models.ErrNotFound.Error())

	noRoot := svc.AnalyzeScene(context.Background(), "/game/empty_tree.tscn", allScene())
	assert.True(t, noRoot.Failed())
	assert.Contains(t, noRoot.Error, models.ErrInvalidStructure.Error())
}

func TestResolveScript(t *testing.T) {
	ext := models.ExtResourceMap{
		"1_a": {ID: "1_a", Path: "res://a.gd"},
		"2":   {ID: "2", Path: "res://legacy.gd"},
		"3_u": {ID: "3_u", UID: "uid://x"},
	}
	tests := []struct {
		value  string
		path   string
		reason string
	}{
		{`ExtResource("1_a")`, "res://a.gd", ""},
		{`ExtResource( 2 )`, "res://legacy.gd", ""},
		{`"res://direct.gd"`, "res://direct.gd", ""},
		{`SubResource("GDScript_1")`, "", ReasonSubResource},
		{`ExtResource("9_z")`, "", ReasonUnknownResource},
		{`ExtResource("3_u")`, "", ReasonNotResPath},
		{`null`, "", ReasonNotResPath},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			path, reason := resolveScript(tt.value, ext)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.reason, reason)
		})
	}
}
