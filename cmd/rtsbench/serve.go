package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/allibot/rtsbench/internal/server"
	"github.com/allibot/rtsbench/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve archived runs over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer(ctx context.Context) error {
	cfg := loadConfig()
	logger, err := newLogger(cfg.Env)
	if err != nil {
		return err
	}
	defer logger.Sync()

	st, err := store.Open(filepath.Join(cfg.DataDir, "rtsbench.db"))
	if err != nil {
		return err
	}
	defer st.Close()

	handler := server.New(server.Config{
		Store:          st,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})
	return server.Serve(ctx, fmt.Sprintf(":%d", cfg.Port), handler.Routes(), logger)
}
