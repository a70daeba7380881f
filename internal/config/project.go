package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/airyra/flowboard/internal/domain"
	"github.com/airyra/flowboard/internal/store"
)

const (
	// ConfigFileName is the name of the project configuration file
	ConfigFileName = "flowboard.toml"

	// DefaultServerHost is the default server host
	DefaultServerHost = "localhost"

	// DefaultServerPort is the default server port
	DefaultServerPort = 7433
)

// ErrNoProjectConfig is returned when no flowboard.toml is found between the
// start directory and the filesystem root.
var ErrNoProjectConfig = errors.New("no flowboard.toml found. Run 'flowboard init <name>' to create one")

// ProjectConfig represents the project-level configuration from flowboard.toml
type ProjectConfig struct {
	Project    string
	ServerHost string
	ServerPort int
	Board      BoardConfig
	Templates  []domain.WorkflowTemplate
	// Path is the file the config was read from.
	Path string

	// Track whether values were explicitly set in config file
	hostExplicitlySet bool
	portExplicitlySet bool
}

// projectConfigFile represents the raw TOML structure
type projectConfigFile struct {
	Project   string                    `toml:"project"`
	Server    serverConfig              `toml:"server"`
	Board     boardConfig               `toml:"board"`
	Templates []domain.WorkflowTemplate `toml:"templates"`
}

// serverConfig represents the [server] section in TOML
type serverConfig struct {
	Host    string `toml:"host"`
	Port    *int   `toml:"port"`
	DataDir string `toml:"data_dir"`
}

// DiscoverProjectConfig finds and parses the flowboard.toml file by traversing
// up the directory tree from the current working directory.
func DiscoverProjectConfig() (*ProjectConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	return DiscoverProjectConfigFrom(cwd)
}

// DiscoverProjectConfigFrom searches for flowboard.toml starting from the given directory
func DiscoverProjectConfigFrom(startDir string) (*ProjectConfig, error) {
	dir := startDir

	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return ParseProjectConfig(configPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ErrNoProjectConfig
		}
		dir = parent
	}
}

// ParseProjectConfig parses the flowboard.toml file at the given path
func ParseProjectConfig(path string) (*ProjectConfig, error) {
	var raw projectConfigFile
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	if raw.Project == "" {
		return nil, errors.New("project name cannot be empty")
	}
	if !store.ValidProjectName(raw.Project) {
		return nil, fmt.Errorf("invalid project name %q: use letters, digits, '-' and '_'", raw.Project)
	}

	if raw.Server.Port != nil {
		if err := validatePort(*raw.Server.Port); err != nil {
			return nil, err
		}
	}
	board, err := raw.Board.parse(path)
	if err != nil {
		return nil, err
	}
	templates, err := parseTemplates(raw.Templates, path)
	if err != nil {
		return nil, err
	}

	cfg := &ProjectConfig{
		Project:    raw.Project,
		ServerHost: DefaultServerHost,
		ServerPort: DefaultServerPort,
		Board:      board,
		Templates:  templates,
		Path:       path,
	}

	if raw.Server.Host != "" {
		cfg.ServerHost = raw.Server.Host
		cfg.hostExplicitlySet = true
	}
	if raw.Server.Port != nil {
		cfg.ServerPort = *raw.Server.Port
		cfg.portExplicitlySet = true
	}

	return cfg, nil
}

// HostExplicitlySet returns true if the host was explicitly set in the config file
func (c *ProjectConfig) HostExplicitlySet() bool {
	return c.hostExplicitlySet
}

// PortExplicitlySet returns true if the port was explicitly set in the config file
func (c *ProjectConfig) PortExplicitlySet() bool {
	return c.portExplicitlySet
}

// initFile is the layout written by Render.
type initFile struct {
	Project string `toml:"project"`
	Server  struct {
		Host string `toml:"host"`
		Port int    `toml:"port"`
	} `toml:"server"`
	Board struct {
		EnforceWipLimits    bool   `toml:"enforce_wip_limits"`
		Swimlane            string `toml:"swimlane"`
		ShowArchivedColumns bool   `toml:"show_archived_columns"`
	} `toml:"board"`
}

// Render returns the TOML text of a new project file.
func Render(project, host string, port int) ([]byte, error) {
	if !store.ValidProjectName(project) {
		return nil, fmt.Errorf("invalid project name %q: use letters, digits, '-' and '_'", project)
	}
	if err := validatePort(port); err != nil {
		return nil, err
	}

	var f initFile
	f.Project = project
	f.Server.Host = host
	f.Server.Port = port
	f.Board.Swimlane = string(domain.SwimlaneNone)

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// validatePort checks if the port is in the valid range (1-65535)
func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}
	return nil
}
