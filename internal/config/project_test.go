package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/airyra/flowboard/internal/domain"
)

func writeProject(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create project config: %v", err)
	}
	return path
}

func TestParseProjectConfig_Defaults(t *testing.T) {
	path := writeProject(t, t.TempDir(), `project = "my-board"`)

	cfg, err := ParseProjectConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Project != "my-board" {
		t.Errorf("expected project 'my-board', got %q", cfg.Project)
	}
	if cfg.ServerHost != DefaultServerHost || cfg.ServerPort != DefaultServerPort {
		t.Errorf("expected default server, got %s:%d", cfg.ServerHost, cfg.ServerPort)
	}
	if cfg.HostExplicitlySet() || cfg.PortExplicitlySet() {
		t.Error("expected host and port to be implicit")
	}
	if cfg.Path != path {
		t.Errorf("expected path %q, got %q", path, cfg.Path)
	}
}

func TestParseProjectConfig_AllSections(t *testing.T) {
	path := writeProject(t, t.TempDir(), `
project = "team_board"

[server]
host = "0.0.0.0"
port = 8080

[board]
show_archived_columns = true
locale = "de"
blocked_keywords = ["stuck"]
`)

	cfg, err := ParseProjectConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.HostExplicitlySet() || cfg.ServerHost != "0.0.0.0" {
		t.Errorf("expected explicit host 0.0.0.0, got %q", cfg.ServerHost)
	}
	if !cfg.PortExplicitlySet() || cfg.ServerPort != 8080 {
		t.Errorf("expected explicit port 8080, got %d", cfg.ServerPort)
	}

	yes := true
	want := BoardConfig{
		ShowArchivedColumns: &yes,
		Locale:              "de",
		Keywords:            domain.CategoryKeywords{Blocked: []string{"stuck"}},
	}
	if diff := cmp.Diff(want, cfg.Board); diff != "" {
		t.Errorf("board mismatch (-want +got):\n%s", diff)
	}
}

func TestParseProjectConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"missing project", "[server]\nport = 1\n", "project name cannot be empty"},
		{"invalid project name", `project = "bad name"`, "invalid project name"},
		{"port zero", "project = \"p\"\n[server]\nport = 0\n", "invalid port 0"},
		{"invalid toml", "project = ", "failed to parse TOML"},
		{"bad swimlane", "project = \"p\"\n[board]\nswimlane = \"status\"\n", "invalid swimlane"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeProject(t, t.TempDir(), tt.content)
			_, err := ParseProjectConfig(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestDiscoverProjectConfigFrom_WalksUp(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, `project = "parent"`)
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("failed to create nested dirs: %v", err)
	}

	cfg, err := DiscoverProjectConfigFrom(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Project != "parent" {
		t.Errorf("expected project 'parent', got %q", cfg.Project)
	}
}

func TestDiscoverProjectConfigFrom_NearestWins(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, `project = "outer"`)
	inner := filepath.Join(root, "inner")
	if err := os.Mkdir(inner, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	writeProject(t, inner, `project = "inner"`)

	cfg, err := DiscoverProjectConfigFrom(inner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Project != "inner" {
		t.Errorf("expected project 'inner', got %q", cfg.Project)
	}
}

func TestDiscoverProjectConfigFrom_NotFound(t *testing.T) {
	_, err := DiscoverProjectConfigFrom(t.TempDir())
	if !errors.Is(err, ErrNoProjectConfig) {
		t.Errorf("expected ErrNoProjectConfig, got %v", err)
	}
}

func TestRender_RoundTrips(t *testing.T) {
	data, err := Render("fresh", "127.0.0.1", 9000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := writeProject(t, t.TempDir(), string(data))
	cfg, err := ParseProjectConfig(path)
	if err != nil {
		t.Fatalf("rendered config does not parse: %v\n%s", err, data)
	}
	if cfg.Project != "fresh" || cfg.ServerHost != "127.0.0.1" || cfg.ServerPort != 9000 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Board.Swimlane != domain.SwimlaneNone {
		t.Errorf("expected swimlane none, got %q", cfg.Board.Swimlane)
	}
}

func TestRender_Rejects(t *testing.T) {
	if _, err := Render("no/slashes", "localhost", 1); err == nil {
		t.Error("expected invalid project name to be rejected")
	}
	if _, err := Render("ok", "localhost", 65536); err == nil {
		t.Error("expected invalid port to be rejected")
	}
}
