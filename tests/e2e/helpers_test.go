package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/airyra/flowboard/internal/api"
	"github.com/airyra/flowboard/internal/api/request"
	"github.com/airyra/flowboard/internal/client"
	"github.com/airyra/flowboard/internal/config"
	"github.com/airyra/flowboard/internal/domain"
	"github.com/airyra/flowboard/internal/store"
)

var (
	buildOnce sync.Once
	binPath   string
	buildErr  error
	buildLog  bytes.Buffer
)

// E2ETestSuite runs the flowboard binary against an in-process server.
type E2ETestSuite struct {
	t         *testing.T
	server    *httptest.Server
	dbManager *store.Manager
	tempDir   string
	home      string
	host      string
	port      int
}

// setupE2E creates a suite with a running server and an empty home
// directory, so no user config leaks into the run.
func setupE2E(t *testing.T) *E2ETestSuite {
	t.Helper()

	tempDir := t.TempDir()
	dbManager, err := store.NewManager(filepath.Join(tempDir, "data"))
	if err != nil {
		t.Fatalf("Failed to create database manager: %v", err)
	}

	server := httptest.NewServer(api.NewRouter(dbManager, api.Options{}))
	t.Cleanup(func() {
		server.Close()
		dbManager.Close()
	})

	host, portStr, err := net.SplitHostPort(server.Listener.Addr().String())
	if err != nil {
		t.Fatalf("Failed to parse server address: %v", err)
	}
	port, _ := strconv.Atoi(portStr)

	home := filepath.Join(tempDir, "home")
	if err := os.MkdirAll(home, 0755); err != nil {
		t.Fatalf("Failed to create home dir: %v", err)
	}

	return &E2ETestSuite{
		t:         t,
		server:    server,
		dbManager: dbManager,
		tempDir:   tempDir,
		home:      home,
		host:      host,
		port:      port,
	}
}

// createProject writes a flowboard.toml for name and returns its directory.
func (s *E2ETestSuite) createProject(name string) string {
	s.t.Helper()

	projectDir := filepath.Join(s.tempDir, "projects", name)
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		s.t.Fatalf("Failed to create project directory: %v", err)
	}

	content, err := config.Render(name, s.host, s.port)
	if err != nil {
		s.t.Fatalf("Failed to render config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, config.ConfigFileName), content, 0644); err != nil {
		s.t.Fatalf("Failed to write config file: %v", err)
	}
	return projectDir
}

// runCLIInDir executes the flowboard binary in dir and returns stdout,
// stderr and the exit code.
func (s *E2ETestSuite) runCLIInDir(dir string, args ...string) (stdout, stderr string, exitCode int) {
	s.t.Helper()

	cmd := exec.Command(s.buildCLI(), args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "HOME="+s.home, "FLOWBOARD_ACTOR=e2e@test")

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			s.t.Fatalf("Failed to execute CLI: %v", err)
		}
		exitCode = exitErr.ExitCode()
	}
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

// runJSON runs a command with --json, requires exit code 0 and decodes
// stdout into out.
func (s *E2ETestSuite) runJSON(dir string, out interface{}, args ...string) {
	s.t.Helper()

	stdout, stderr, code := s.runCLIInDir(dir, append(args, "--json")...)
	if code != 0 {
		s.t.Fatalf("flowboard %v: exit=%d stderr=%s", args, code, stderr)
	}
	if err := json.Unmarshal([]byte(stdout), out); err != nil {
		s.t.Fatalf("flowboard %v: invalid JSON %q: %v", args, stdout, err)
	}
}

// buildCLI compiles the flowboard binary once per test run.
func (s *E2ETestSuite) buildCLI() string {
	s.t.Helper()

	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "flowboard-e2e-bin-*")
		if err != nil {
			buildErr = err
			return
		}
		binPath = filepath.Join(dir, "flowboard")

		cmd := exec.Command("go", "build", "-o", binPath, "./cmd/flowboard")
		cmd.Dir = findProjectRoot()
		cmd.Stderr = &buildLog
		buildErr = cmd.Run()
	})
	if buildErr != nil {
		s.t.Fatalf("Failed to build CLI: %v\nstderr: %s", buildErr, buildLog.String())
	}
	return binPath
}

// findProjectRoot walks up from the working directory to go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return filepath.Join("..", "..")
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return filepath.Join("..", "..")
		}
		dir = parent
	}
}

// getClient creates an API client for the test server.
func (s *E2ETestSuite) getClient(projectName string) *client.Client {
	return client.NewClient(s.host, s.port, projectName, "e2e-api@test")
}

// createTask creates a task through the API and returns its id.
func (s *E2ETestSuite) createTask(projectName, title string) string {
	s.t.Helper()

	task, err := s.getClient(projectName).CreateTask(context.Background(), request.CreateTaskRequest{Title: title})
	if err != nil {
		s.t.Fatalf("Failed to create task: %v", err)
	}
	return task.ID
}

// getTask fetches a task through the API.
func (s *E2ETestSuite) getTask(projectName, taskID string) *domain.Task {
	s.t.Helper()

	task, err := s.getClient(projectName).GetTask(context.Background(), taskID)
	if err != nil {
		s.t.Fatalf("Failed to get task: %v", err)
	}
	return task
}

// applyTemplate switches a project to a builtin template and returns the
// statuses keyed by name.
func (s *E2ETestSuite) applyTemplate(projectName, template string) map[string]*domain.WorkflowStatus {
	s.t.Helper()

	view, err := s.getClient(projectName).ApplyTemplate(context.Background(), template)
	if err != nil {
		s.t.Fatalf("Failed to apply template %s: %v", template, err)
	}
	byName := make(map[string]*domain.WorkflowStatus, len(view.Statuses))
	for _, st := range view.Statuses {
		byName[st.Name] = st
	}
	return byName
}
