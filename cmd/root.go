// Package cmd implements the CLI commands for docrows using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gaurav-prasanna/docrows/core/config"
)

var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
)

// Shared state built in PersistentPreRunE.
var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docrows",
	Short: "docrows — convert documentation pages into knowledge-base rows",
	Long: `docrows is a deterministic pipeline that turns a documentation web page
into tabular knowledge-base rows (CSV by default): one row per section, or one
row per significant code sample with the sample as its usage example.

Usage:
  docrows convert <url> [flags]
  docrows run <file.html> --url <reference> [flags]
  docrows batch --input urls.txt --output multi_final.csv
  docrows merge -o out.csv a.csv b.csv`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: ./docrows.yaml or ./configs/docrows.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "console", "Log format: console or json")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the layered configuration and builds the logger. Flags the
// running command registered in bindings are bound to their config keys, so
// an explicitly set flag overrides the file and the environment.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	logger, err = newLogger(flagLogLevel, flagLogFormat)
	if err != nil {
		return err
	}

	v, err := config.NewViper(flagConfig)
	if err != nil {
		return err
	}
	for flagName, key := range bindings {
		if f := cmd.Flags().Lookup(flagName); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("binding --%s: %w", flagName, err)
			}
		}
	}

	cfg, err = config.Load(v)
	if err != nil {
		return err
	}
	logger.Debug("config loaded",
		zap.String("file", v.ConfigFileUsed()),
		zap.Int("workers", cfg.Workers),
		zap.String("work_dir", cfg.WorkDir))
	return nil
}

// bindings maps command flags to config keys.
var bindings = map[string]string{
	"category":           "category_prefix",
	"inline-code":        "code.inline",
	"header-format":      "chunk.header_format",
	"keep-intermediates": "keep_intermediates",
	"workers":            "workers",
	"model":              "embed.model",
	"embed-url":          "embed.url",
	"timeout":            "fetch.timeout",
}
