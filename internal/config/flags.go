package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RegisterCommonFlags defines the flags shared by every service binary and
// binds each to the env var of the same name via viper, so `--database-url`
// and `DATABASE_URL` are interchangeable. Call once on a command's
// PersistentFlags before Load*Config reads the values back out of viper.
func RegisterCommonFlags(cmd *cobra.Command) error {
	flags := cmd.PersistentFlags()
	flags.String("database-url", "", "Postgres connection string (env DATABASE_URL)")
	flags.String("elasticsearch-url", "http://localhost:9200", "Elasticsearch base URL (env ELASTICSEARCH_URL)")
	flags.Int("metrics-port", 9090, "port serving /metrics and /healthz for the ranker and indexer (env METRICS_PORT)")
	flags.String("log-level", "info", "zap log level: debug, info, warn, error (env LOG_LEVEL)")

	bindings := map[string]string{
		"database-url":      "database_url",
		"elasticsearch-url":  "elasticsearch_url",
		"metrics-port":      "metrics_port",
		"log-level":         "log_level",
	}
	for flagName, viperKey := range bindings {
		if err := viper.BindPFlag(viperKey, flags.Lookup(flagName)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flagName, err)
		}
	}
	return nil
}

// VersionCommand returns the standard `version` subcommand every service
// binary carries (cobra convention used throughout the pack).
func VersionCommand(service, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", service, version)
			return err
		},
	}
}
