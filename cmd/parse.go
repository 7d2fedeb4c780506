// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/classify"
	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/trio"
)

// NewParseCmd creates the parse subcommand.
func NewParseCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:          "parse <trio-file>",
		Short:        "Parse a trio file and output its sections as JSON",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading trio file: %w", err)
			}

			id := classify.StripExtension(filepath.Base(args[0]))
			result, parseErr := trio.Parse(cmd.Context(), id, string(data), trio.Options{StrictMode: strict})
			if err := writeJSON(cmd, result); err != nil {
				return err
			}
			if parseErr != nil {
				return fmt.Errorf("parsing %s: %w", args[0], parseErr)
			}
			if !result.IsValid {
				return fmt.Errorf("%s has no valid sections", args[0])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on the first structural error")
	return cmd
}
