package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/airyra/flowboard/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Initialize a new flowboard project",
	Long: `Create a flowboard.toml configuration file in the current directory.

The project name selects the board on the flowboard server. Every command run
from this directory or below it talks to that board.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")

		dir, err := os.Getwd()
		if err != nil {
			return err
		}
		if err := runInit(dir, args[0], host, port); err != nil {
			return err
		}

		printSuccess(os.Stdout, fmt.Sprintf("Created %s for project '%s'", config.ConfigFileName, args[0]), format())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().String("host", config.DefaultServerHost, "Server host")
	initCmd.Flags().Int("port", config.DefaultServerPort, "Server port")
}

// runInit writes flowboard.toml into dir. An existing file is never replaced.
func runInit(dir, name, host string, port int) error {
	if name == "" {
		return fmt.Errorf("project name is required")
	}

	configPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists in this directory", config.ConfigFileName)
	}

	content, err := config.Render(name, host, port)
	if err != nil {
		return err
	}

	if err := atomic.WriteFile(configPath, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
