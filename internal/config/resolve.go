package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/text/language"

	"github.com/airyra/flowboard/internal/domain"
	"github.com/airyra/flowboard/internal/service"
)

// ResolvedConfig represents the final merged configuration with all
// precedence rules applied. Precedence order (highest to lowest):
// 1. Project config (flowboard.toml)
// 2. Global config (~/.flowboard/config.toml)
// 3. Built-in defaults (localhost:7433, no WIP enforcement, no swimlanes)
type ResolvedConfig struct {
	// Project is empty when no project file was found and none was required.
	Project    string
	ServerHost string
	ServerPort int
	DataDir    string
	Board      domain.WorkflowSettings
	Keywords   domain.CategoryKeywords
	Locale     language.Tag
	Templates  []domain.WorkflowTemplate
}

// Address returns host:port of the server.
func (c *ResolvedConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// ServiceConfig maps the board defaults onto the service layer configuration.
func (c *ResolvedConfig) ServiceConfig(logger *log.Logger) service.Config {
	return service.Config{
		Defaults:  c.Board,
		Keywords:  c.Keywords,
		Locale:    c.Locale,
		Templates: c.Templates,
		Logger:    logger,
	}
}

// ResolveConfig discovers the project config, loads the global config,
// and merges them according to precedence rules.
func ResolveConfig() (*ResolvedConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return ResolveConfigWithHome(homeDir)
}

// ResolveConfigWithHome resolves config using a specified home directory.
// This is useful for testing.
func ResolveConfigWithHome(homeDir string) (*ResolvedConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return Resolve(homeDir, cwd, true)
}

// ResolveServerConfig resolves the server configuration. A project file is
// used when one is found but is not required.
func ResolveServerConfig() (*ResolvedConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return Resolve(homeDir, cwd, false)
}

// Resolve merges defaults, the global config under homeDir and the project
// config discovered upward from startDir.
func Resolve(homeDir, startDir string, requireProject bool) (*ResolvedConfig, error) {
	// Step 1: Discover project config
	projectCfg, err := DiscoverProjectConfigFrom(startDir)
	if err != nil {
		if requireProject || !errors.Is(err, ErrNoProjectConfig) {
			return nil, err
		}
		projectCfg = nil
	}

	// Step 2: Load global config (optional, errors are not ignored for invalid files)
	globalCfg, err := LoadGlobalConfigFromDir(homeDir)
	if err != nil {
		return nil, err
	}

	// Step 3: Merge with precedence (defaults -> global -> project)
	resolved := &ResolvedConfig{
		ServerHost: DefaultServerHost,
		ServerPort: DefaultServerPort,
		DataDir:    filepath.Join(homeDir, GlobalConfigDir, DefaultDataDir),
	}

	if globalCfg.ServerHost != "" {
		resolved.ServerHost = globalCfg.ServerHost
	}
	if globalCfg.ServerPort != 0 {
		resolved.ServerPort = globalCfg.ServerPort
	}
	if globalCfg.DataDir != "" {
		resolved.DataDir = expandHome(globalCfg.DataDir, homeDir)
	}
	board := globalCfg.Board
	templates := mergeTemplates(nil, globalCfg.Templates)

	if projectCfg != nil {
		resolved.Project = projectCfg.Project
		if projectCfg.HostExplicitlySet() {
			resolved.ServerHost = projectCfg.ServerHost
		}
		if projectCfg.PortExplicitlySet() {
			resolved.ServerPort = projectCfg.ServerPort
		}
		board = projectCfg.Board.overlay(board)
		templates = mergeTemplates(templates, projectCfg.Templates)
	}

	resolved.Board = domain.DefaultSettings()
	if board.EnforceWipLimits != nil {
		resolved.Board.EnforceWipLimits = *board.EnforceWipLimits
	}
	if board.Swimlane != "" {
		resolved.Board.SwimlaneProperty = board.Swimlane
	}
	if board.ShowArchivedColumns != nil {
		resolved.Board.ShowArchivedColumns = *board.ShowArchivedColumns
	}

	resolved.Keywords = domain.DefaultCategoryKeywords().Merge(board.Keywords)

	resolved.Locale = language.English
	if board.Locale != "" {
		// Already validated when the file was parsed
		resolved.Locale = language.Make(board.Locale)
	}

	resolved.Templates = templates
	return resolved, nil
}

// mergeTemplates returns base with overrides applied by name, sorted by name.
func mergeTemplates(base, overrides []domain.WorkflowTemplate) []domain.WorkflowTemplate {
	byName := make(map[string]domain.WorkflowTemplate, len(base)+len(overrides))
	for _, t := range base {
		byName[t.Name] = t
	}
	for _, t := range overrides {
		byName[t.Name] = t
	}
	if len(byName) == 0 {
		return nil
	}

	out := make([]domain.WorkflowTemplate, 0, len(byName))
	for _, t := range byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func expandHome(path, homeDir string) string {
	if path == "~" {
		return homeDir
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
