package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/airyra/flowboard/internal/api"
	"github.com/airyra/flowboard/internal/config"
	"github.com/airyra/flowboard/internal/server"
	"github.com/airyra/flowboard/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the flowboard server",
	Long: `Run the flowboard HTTP server in the foreground until interrupted.

Host, port and data directory come from ~/.flowboard/config.toml and the
nearest flowboard.toml, when present. --bind overrides both.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		bind, _ := cmd.Flags().GetString("bind")
		origins, _ := cmd.Flags().GetStringSlice("cors")
		return runServe(bind, origins)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("bind", "", "Address to bind the server to (default from config, localhost:7433)")
	serveCmd.Flags().StringSlice("cors", nil, "Browser origins allowed to call the API")
}

func runServe(bind string, origins []string) error {
	cfg, err := config.ResolveServerConfig()
	if err != nil {
		return err
	}

	addr := bind
	if addr == "" {
		addr = cfg.Address()
	}

	manager, err := store.NewManager(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open data directory: %w", err)
	}

	srv := server.New(addr, manager, api.Options{
		Service:        cfg.ServiceConfig(nil),
		AllowedOrigins: origins,
	})
	return srv.ListenAndServe()
}
