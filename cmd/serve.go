// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/pipeline"
	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/tool"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Serve the trionorm tools over MCP on stdin and stdout",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(flags)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			p, err := pipeline.NewPipeline(e.tables,
				pipeline.WithLogger(e.logger),
				pipeline.WithMetadata(e.cfg.Metadata))
			if err != nil {
				return err
			}

			version := cmd.Root().Version
			server := tool.NewServer(tool.NewHandlers(p, e.cfg.Batch), version)
			e.logger.Info("Serving MCP over stdio", zap.String("version", version))
			if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}
