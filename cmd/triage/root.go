package main

import (
	"fmt"
	"os"

	"github.com/aretw0/triage/internal/cli"
	"github.com/aretw0/triage/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Triage walks a tabular decision tree one question at a time",
	Long: `Triage loads questions and prompts from CSV files (or a SQLite database) and guides
a user from the first question to a recommendation, in the terminal, over HTTP or as MCP tools.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("env-file", "", "Load settings from this file (default .env, if present)")
	flags.String("questions", "", "Questions table (CSV)")
	flags.String("prompts", "", "Prompts table (CSV)")
	flags.String("db", "", "SQLite database holding the questions and prompts tables")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("session-store", "", "Session store: memory, file, sqlite or redis")
}

// loadConfig reads the environment and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if cfg == nil {
		return nil, err
	}

	overrides := map[string]*string{
		"questions":     &cfg.Questions,
		"prompts":       &cfg.Prompts,
		"db":            &cfg.DB,
		"log-level":     &cfg.LogLevel,
		"session-store": &cfg.SessionStore,
		"addr":          &cfg.Addr,
	}
	for name, field := range overrides {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*field = f.Value.String()
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

// buildApp loads the configuration and the decision tree for cmd.
func buildApp(cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.Build(cmd.Context(), cfg, cfg.Logger())
}
