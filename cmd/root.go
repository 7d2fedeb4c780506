// SPDX-License-Identifier: Apache-2.0

// Package cmd implements the trionorm CLI commands.
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/config"
	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/dictionary"
)

type globalFlags struct {
	configPath string
	logLevel   string
}

// NewRootCmd creates the root trionorm command with all subcommands
// registered.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "trionorm",
		Short:         "trionorm - classify equipment and normalize BACnet point names from trio exports",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML configuration file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(NewParseCmd())
	root.AddCommand(NewClassifyCmd(flags))
	root.AddCommand(NewNormalizeCmd(flags))
	root.AddCommand(NewServeCmd(flags))
	return root
}

// env is what every pipeline-backed command needs.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	tables *dictionary.Tables
}

func loadEnv(flags *globalFlags) (*env, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	tables, err := cfg.LoadDictionary()
	if err != nil {
		return nil, fmt.Errorf("loading dictionary: %w", err)
	}
	logger.Debug("Dictionary loaded",
		zap.String("version", tables.Version),
		zap.Int("acronyms", len(tables.Acronyms)),
		zap.Int("equipment_prefixes", len(tables.EquipmentPrefixes)))
	return &env{cfg: cfg, logger: logger, tables: tables}, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
