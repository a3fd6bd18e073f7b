package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/gdlens/internal/output"
	"github.com/panbanda/gdlens/pkg/config"
	"github.com/panbanda/gdlens/pkg/testutil"
)

const playerScript = `class_name Player
extends CharacterBody2D

signal hit(damage: int)

const Bullet = preload("res://bullet.tscn")

func _ready():
	hit.connect(_on_hit)

func shoot():
	add_child(Bullet.instantiate())
	hit.emit(1)

func _on_hit(damage):
	pass
`

const mainScene = `[gd_scene load_steps=3 format=3]

[ext_resource type="Script" path="res://player.gd" id="1_p"]
[ext_resource type="PackedScene" path="res://bullet.tscn" id="2_b"]

[node name="Main" type="Node2D"]

[node name="Player" type="CharacterBody2D" parent="."]
script = ExtResource("1_p")

[node name="Bullet" parent="." instance=ExtResource("2_b")]

[connection signal="hit" from="Player" to="Player" method="_on_hit"]
`

const bulletScene = `[gd_scene format=3]

[node name="Bullet" type="Area2D"]
`

func fixtureProject(t *testing.T) string {
	t.Helper()
	return testutil.OSProject(t, map[string]string{
		"player.gd":   playerScript,
		"main.tscn":   mainScene,
		"bullet.tscn": bulletScene,
	})
}

func newTestServer() *Server {
	return NewServer("test", config.DefaultConfig())
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("nil result")
	}
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content is not TextContent: %T", result.Content[0])
	}
	return text.Text
}

func mustSucceed(t *testing.T, result *mcp.CallToolResult, err error) string {
	t.Helper()
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	text := resultText(t, result)
	if result.IsError {
		t.Fatalf("handler returned tool error: %s", text)
	}
	return text
}

func TestServerCreation(t *testing.T) {
	server := NewServer("1.0.0-test", config.DefaultConfig())
	if server == nil {
		t.Fatal("NewServer() returned nil")
	}
	if server.server == nil {
		t.Fatal("NewServer().server is nil")
	}
}

func TestServerCreationDefaults(t *testing.T) {
	server := NewServer("", nil)
	if server.config == nil {
		t.Fatal("config not loaded")
	}
}

func TestToolDescriptions(t *testing.T) {
	descriptions := map[string]func() string{
		"script":  describeScript,
		"scene":   describeScene,
		"project": describeProject,
		"graph":   describeGraph,
		"classes": describeClasses,
	}

	for name, fn := range descriptions {
		t.Run(name, func(t *testing.T) {
			desc := fn()
			for _, section := range []string{"USE WHEN:", "INTERPRETING RESULTS:", "METRICS RETURNED:"} {
				if !strings.Contains(desc, section) {
					t.Errorf("%s description missing %s section", name, section)
				}
			}
		})
	}
}

func TestGetPath(t *testing.T) {
	if got := getPath(""); got != "." {
		t.Errorf("getPath(\"\") = %q, want \".\"", got)
	}
	if got := getPath("/game"); got != "/game" {
		t.Errorf("getPath() = %q", got)
	}
}

func TestGetFormat(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		expected output.Format
	}{
		{"empty defaults to toon", "", output.FormatTOON},
		{"json format", "json", output.FormatJSON},
		{"markdown format", "markdown", output.FormatMarkdown},
		{"md alias", "md", output.FormatMarkdown},
		{"text format", "text", output.FormatText},
		{"toon explicit", "toon", output.FormatTOON},
		{"unknown defaults to toon", "xml", output.FormatTOON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := getFormat(tt.format); result != tt.expected {
				t.Errorf("getFormat(%q) = %v, want %v", tt.format, result, tt.expected)
			}
		})
	}
}

func TestFlag(t *testing.T) {
	yes, no := true, false
	if !flag(nil, true) || flag(nil, false) {
		t.Error("nil flag should return the default")
	}
	if !flag(&yes, false) || flag(&no, true) {
		t.Error("set flag should override the default")
	}
}

func TestToolError(t *testing.T) {
	result, _, err := toolError("test error message")
	if err != nil {
		t.Fatalf("toolError returned unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("toolError result.IsError should be true")
	}
	if text := resultText(t, result); text != "Error: test error message" {
		t.Errorf("toolError text = %q, want %q", text, "Error: test error message")
	}
}

func TestToolResult(t *testing.T) {
	data := map[string]any{"name": "Player"}
	result, _, err := toolResult(data, getFormat(""))
	text := mustSucceed(t, result, err)
	if !strings.Contains(text, "name: Player") {
		t.Errorf("toon output = %q", text)
	}

	result, _, err = toolResult(data, output.FormatJSON)
	text = mustSucceed(t, result, err)
	if !strings.Contains(text, `"name": "Player"`) {
		t.Errorf("json output = %q", text)
	}
}

func TestInputStructTags(t *testing.T) {
	inputs := map[string]any{
		"ScriptInput":  ScriptInput{Path: "res://player.gd"},
		"SceneInput":   SceneInput{Path: "res://main.tscn"},
		"ProjectInput": ProjectInput{},
		"GraphInput":   GraphInput{},
		"ClassesInput": ClassesInput{},
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(input)
			if err != nil {
				t.Fatalf("failed to marshal: %v", err)
			}
			if len(data) == 0 {
				t.Error("marshaled to empty data")
			}
		})
	}
}

func TestHandleAnalyzeScript(t *testing.T) {
	root := fixtureProject(t)
	s := newTestServer()

	result, _, err := s.handleAnalyzeScript(context.Background(), nil, ScriptInput{
		Path:   filepath.Join(root, "player.gd"),
		Format: "json",
	})
	text := mustSucceed(t, result, err)
	for _, want := range []string{`"script_path": "res://player.gd"`, `"class_name": "Player"`} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %s", want)
		}
	}

	result, _, err = s.handleAnalyzeScript(context.Background(), nil, ScriptInput{
		Path:   filepath.Join(root, "player.gd"),
		Format: "markdown",
	})
	text = mustSucceed(t, result, err)
	if !strings.Contains(text, "## Script: res://player.gd") {
		t.Errorf("markdown output = %q", text)
	}
}

func TestHandleAnalyzeScript_Errors(t *testing.T) {
	root := fixtureProject(t)
	s := newTestServer()

	result, _, _ := s.handleAnalyzeScript(context.Background(), nil, ScriptInput{})
	if !result.IsError {
		t.Error("missing path should be a tool error")
	}

	result, _, _ = s.handleAnalyzeScript(context.Background(), nil, ScriptInput{Path: filepath.Join(root, "missing.gd")})
	if !result.IsError {
		t.Error("missing file should be a tool error")
	}
}

func TestHandleAnalyzeScene(t *testing.T) {
	root := fixtureProject(t)
	s := newTestServer()

	result, _, err := s.handleAnalyzeScene(context.Background(), nil, SceneInput{
		Path:   filepath.Join(root, "main.tscn"),
		Format: "markdown",
	})
	text := mustSucceed(t, result, err)
	for _, want := range []string{"Root: Main (Node2D)", "res://player.gd", "_on_hit"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q", want)
		}
	}

	result, _, _ = s.handleAnalyzeScene(context.Background(), nil, SceneInput{Path: "main.tscn", MaxDepth: -1})
	if !result.IsError {
		t.Error("negative max_depth should be a tool error")
	}
}

func TestHandleAnalyzeProject(t *testing.T) {
	root := fixtureProject(t)
	s := newTestServer()

	result, _, err := s.handleAnalyzeProject(context.Background(), nil, ProjectInput{Path: root, Format: "json"})
	text := mustSucceed(t, result, err)
	for _, want := range []string{`"script_count": 1`, `"scene_count": 2`} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %s", want)
		}
	}
}

func TestHandleAnalyzeProject_Empty(t *testing.T) {
	root := testutil.OSProject(t, nil)
	result, _, _ := newTestServer().handleAnalyzeProject(context.Background(), nil, ProjectInput{Path: root})
	if !result.IsError {
		t.Error("empty project should be a tool error")
	}
}

func TestHandleDependencyGraph(t *testing.T) {
	root := fixtureProject(t)
	s := newTestServer()

	result, _, err := s.handleDependencyGraph(context.Background(), nil, GraphInput{Path: root, Format: "markdown"})
	text := mustSucceed(t, result, err)
	if !strings.Contains(text, "```mermaid\ngraph LR") {
		t.Errorf("output missing mermaid diagram: %q", text)
	}
	if strings.Contains(text, "PageRank") {
		t.Error("metrics should be omitted unless requested")
	}

	result, _, err = s.handleDependencyGraph(context.Background(), nil, GraphInput{
		Path:           root,
		Format:         "markdown",
		IncludeMetrics: true,
		MaxNodes:       2,
	})
	text = mustSucceed(t, result, err)
	if !strings.Contains(text, "Top nodes by PageRank:") {
		t.Errorf("output missing metrics: %q", text)
	}
}

func TestHandleListClasses(t *testing.T) {
	root := fixtureProject(t)

	result, _, err := newTestServer().handleListClasses(context.Background(), nil, ClassesInput{Path: root, Format: "markdown"})
	text := mustSucceed(t, result, err)
	if !strings.Contains(text, "| Player | class |") {
		t.Errorf("output missing Player: %q", text)
	}
}

func TestHandleListClasses_NoProject(t *testing.T) {
	result, _, _ := newTestServer().handleListClasses(context.Background(), nil, ClassesInput{Path: t.TempDir()})
	if !result.IsError {
		t.Error("directory outside a project should be a tool error")
	}
}

func TestParseFrontmatter(t *testing.T) {
	content := []byte("---\ndescription: Review a scene\narguments:\n  - name: scene\n    required: true\n---\n\nBody {{scene}}\n")
	fm, body := parseFrontmatter(content)
	if fm.Description != "Review a scene" {
		t.Errorf("description = %q", fm.Description)
	}
	if len(fm.Arguments) != 1 || fm.Arguments[0].Name != "scene" || !fm.Arguments[0].Required {
		t.Errorf("arguments = %+v", fm.Arguments)
	}
	if body != "Body {{scene}}\n" {
		t.Errorf("body = %q", body)
	}

	fm, body = parseFrontmatter([]byte("no frontmatter"))
	if fm.Description != "" || body != "no frontmatter" {
		t.Errorf("plain content parsed as %+v, %q", fm, body)
	}
}

func TestSubstituteArgs(t *testing.T) {
	args := []promptArgument{{Name: "path", Default: "."}, {Name: "max_nodes", Default: "40"}}
	got := substituteArgs("at {{path}} with {{max_nodes}}", args, map[string]string{"path": "/game"})
	if got != "at /game with 40" {
		t.Errorf("substituteArgs() = %q", got)
	}
}

func TestPromptFiles(t *testing.T) {
	entries, err := promptFiles.ReadDir("prompts")
	if err != nil {
		t.Fatalf("reading prompts: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no prompts embedded")
	}
	for _, entry := range entries {
		t.Run(entry.Name(), func(t *testing.T) {
			content, err := promptFiles.ReadFile("prompts/" + entry.Name())
			if err != nil {
				t.Fatalf("reading %s: %v", entry.Name(), err)
			}
			fm, body := parseFrontmatter(content)
			if fm.Description == "" {
				t.Error("prompt description is empty")
			}
			if strings.TrimSpace(body) == "" {
				t.Error("prompt body is empty")
			}
		})
	}
}

func TestPromptHandler(t *testing.T) {
	fm := promptFrontmatter{
		Description: "Audit signals",
		Arguments:   []promptArgument{{Name: "path", Default: "."}},
	}
	handler := makePromptHandler(fm, "Audit {{path}}")

	req := &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{
			Name:      "audit-signals",
			Arguments: map[string]string{"path": "/game"},
		},
	}
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.Description != "Audit signals" {
		t.Errorf("description = %q", result.Description)
	}
	if len(result.Messages) != 1 || result.Messages[0].Role != "user" {
		t.Fatalf("messages = %+v", result.Messages)
	}
	text, ok := result.Messages[0].Content.(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Messages[0].Content)
	}
	if text.Text != "Audit /game" {
		t.Errorf("text = %q", text.Text)
	}
}

func TestGenerateManifest(t *testing.T) {
	data, err := GenerateManifest("1.2.3")
	if err != nil {
		t.Fatalf("GenerateManifest() error: %v", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if m.Name != "io.github.panbanda/gdlens" || m.Version != "1.2.3" {
		t.Errorf("manifest = %+v", m)
	}
	if len(m.Packages) != 1 || m.Packages[0].Identifier != "ghcr.io/panbanda/gdlens:1.2.3" {
		t.Fatalf("packages = %+v", m.Packages)
	}
	env := m.Packages[0].EnvironmentVariables
	if len(env) != 1 || env[0].Name != "GDLENS_CONFIG" || env[0].IsRequired {
		t.Errorf("environment variables = %+v", env)
	}

	for _, v := range []string{"", "dev"} {
		data, err = GenerateManifest(v)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), `"version": "0.0.0"`) {
			t.Errorf("version %q should be published as 0.0.0", v)
		}
	}

	data, err = GenerateManifest("v2.0.1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"identifier": "ghcr.io/panbanda/gdlens:2.0.1"`) {
		t.Errorf("leading v should be dropped:\n%s", data)
	}
}
