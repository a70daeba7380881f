package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/airyra/flowboard/internal/domain"
)

const (
	// GlobalConfigDir is the name of the global config directory in home
	GlobalConfigDir = ".flowboard"

	// GlobalConfigFileName is the name of the global config file
	GlobalConfigFileName = "config.toml"

	// DefaultDataDir is where project databases live, relative to the
	// global config directory.
	DefaultDataDir = "projects"
)

// GlobalConfig represents the user-level configuration from ~/.flowboard/config.toml
type GlobalConfig struct {
	ServerHost string
	ServerPort int
	DataDir    string
	Board      BoardConfig
	Templates  []domain.WorkflowTemplate
}

// globalConfigFile represents the raw TOML structure for global config
type globalConfigFile struct {
	Server    serverConfig              `toml:"server"`
	Board     boardConfig               `toml:"board"`
	Templates []domain.WorkflowTemplate `toml:"templates"`
}

// LoadGlobalConfig loads the global configuration from ~/.flowboard/config.toml.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return LoadGlobalConfigFromDir(homeDir)
}

// LoadGlobalConfigFromDir loads global config using the specified directory as home.
// This is useful for testing.
func LoadGlobalConfigFromDir(homeDir string) (*GlobalConfig, error) {
	configPath := filepath.Join(homeDir, GlobalConfigDir, GlobalConfigFileName)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &GlobalConfig{}, nil
	}

	var raw globalConfigFile
	if _, err := toml.DecodeFile(configPath, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse global config TOML: %w", err)
	}

	if raw.Server.Port != nil {
		if err := validatePort(*raw.Server.Port); err != nil {
			return nil, fmt.Errorf("global config: %w", err)
		}
	}
	board, err := raw.Board.parse("global config")
	if err != nil {
		return nil, err
	}
	templates, err := parseTemplates(raw.Templates, "global config")
	if err != nil {
		return nil, err
	}

	cfg := &GlobalConfig{
		ServerHost: raw.Server.Host,
		DataDir:    raw.Server.DataDir,
		Board:      board,
		Templates:  templates,
	}
	if raw.Server.Port != nil {
		cfg.ServerPort = *raw.Server.Port
	}

	return cfg, nil
}
