package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/allibot/rtsbench/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "rtsbench",
	Short: "MicroRTS bot benchmark harness",
	Long: `rtsbench builds a MicroRTS bot from source, plays it against a
roster of scripted and search-based opponents, and reports the results
as CSVs, charts and tracked runs.`,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	_ = godotenv.Load()
	return config.Load()
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
