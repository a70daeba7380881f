package e2e

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/airyra/flowboard/internal/config"
)

// Exit codes from cmd/flowboard/exitcodes.go
const (
	ExitSuccess              = 0
	ExitGeneralError         = 1
	ExitServerNotRunning     = 2
	ExitProjectNotConfigured = 3
	ExitNotFound             = 4
	ExitInvalidInput         = 5
	ExitConflict             = 6
)

func TestE2E_ServerNotRunning(t *testing.T) {
	suite := setupE2E(t)

	// Grab a free port and release it so nothing listens there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	dir := filepath.Join(suite.tempDir, "offline")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	content, err := config.Render("offline", "127.0.0.1", port)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), content, 0644); err != nil {
		t.Fatal(err)
	}

	_, stderr, code := suite.runCLIInDir(dir, "list")
	if code != ExitServerNotRunning {
		t.Errorf("exit=%d, want %d; stderr=%s", code, ExitServerNotRunning, stderr)
	}
	if !strings.Contains(stderr, "flowboard serve") {
		t.Errorf("Error should tell how to start the server, got: %s", stderr)
	}
}

func TestE2E_NoProjectConfig(t *testing.T) {
	suite := setupE2E(t)

	dir := filepath.Join(suite.tempDir, "empty")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	_, stderr, code := suite.runCLIInDir(dir, "list")
	if code != ExitProjectNotConfigured {
		t.Errorf("exit=%d, want %d; stderr=%s", code, ExitProjectNotConfigured, stderr)
	}
	if !strings.Contains(stderr, "flowboard init") {
		t.Errorf("Error should mention flowboard init, got: %s", stderr)
	}
}

func TestE2E_ExitCodes(t *testing.T) {
	suite := setupE2E(t)
	dir := suite.createProject("errors-test")
	taskID := suite.createTask("errors-test", "Exists")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unknown task", []string{"show", "task-missing"}, ExitNotFound},
		{"unknown status", []string{"move", "nope", taskID}, ExitNotFound},
		{"blank title", []string{"create", "   "}, ExitInvalidInput},
		{"nothing to revert", []string{"revert", taskID}, ExitInvalidInput},
		{"unknown template", []string{"template", "apply", "waterfall"}, ExitInvalidInput},
		{"bad priority flag", []string{"create", "x", "-p", "urgent"}, ExitGeneralError},
		{"missing args", []string{"move", "TODO"}, ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := suite.runCLIInDir(dir, tt.args...)
			if code != tt.want {
				t.Errorf("flowboard %v: exit=%d, want %d; stderr=%s", tt.args, code, tt.want, stderr)
			}
		})
	}
}

func TestE2E_ValidationDetails(t *testing.T) {
	suite := setupE2E(t)
	dir := suite.createProject("validation-test")

	_, stderr, code := suite.runCLIInDir(dir, "status", "add", "Bad", "--category", "someday")
	if code != ExitInvalidInput {
		t.Fatalf("exit=%d, want %d", code, ExitInvalidInput)
	}
	if !strings.Contains(stderr, "category must be") {
		t.Errorf("Validation details should be printed, got: %s", stderr)
	}
}
