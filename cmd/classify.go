// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/classify"
)

// NewClassifyCmd creates the classify subcommand.
func NewClassifyCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:          "classify <name>...",
		Short:        "Classify equipment names or file names and output JSON",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(flags)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			c, err := classify.New(e.tables, classify.WithMetadata(e.cfg.Metadata))
			if err != nil {
				return err
			}
			results := make([]classify.Result, 0, len(args))
			for _, name := range args {
				results = append(results, c.Classify(name))
			}
			return writeJSON(cmd, results)
		},
	}
}
