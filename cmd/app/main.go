package main

import (
	"context"
	"fmt"
	"os"

	"PerfDash/internal/di"
	"PerfDash/pkg/config"

	"github.com/spf13/cobra"
)

// cfg is loaded once by the root command for every subcommand.
var cfg *config.Config

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "perfdash",
	Short: "Stock performance dashboard",
	Long: `PerfDash compares the price performance, Sharpe ratios, annualized
returns and return correlations of a set of stocks over a date range, using
a remote analytics service for the numbers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		c, err := config.LoadWithEnv(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			c.Log.Level = lvl
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "config/config.yaml", "config file path")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API and state stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Server.Port = port
		}
		app, err := di.InitializeApp(cfg)
		if err != nil {
			return fmt.Errorf("app initialization failed: %w", err)
		}
		return app.Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP port override")
}
