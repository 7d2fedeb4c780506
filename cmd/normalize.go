// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/pipeline"
)

type normalizeFlags struct {
	strict      bool
	skipEmpty   bool
	maxPoints   int
	concurrency int
	metricsFile string
}

// NewNormalizeCmd creates the normalize subcommand.
func NewNormalizeCmd(flags *globalFlags) *cobra.Command {
	nf := &normalizeFlags{}
	cmd := &cobra.Command{
		Use:   "normalize <glob>...",
		Short: "Run trio files through the full pipeline and output the batch result as JSON",
		Long: "Each argument is a file path or a doublestar glob such as 'exports/**/*.trio'. " +
			"Files matched by several arguments are processed once.",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(flags)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			paths, err := expandGlobs(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no files match %v", args)
			}
			docs, err := readDocuments(paths)
			if err != nil {
				return err
			}

			opts := e.cfg.Batch
			if cmd.Flags().Changed("strict") {
				opts.StrictMode = nf.strict
			}
			if cmd.Flags().Changed("skip-empty") {
				opts.SkipEmptyFiles = nf.skipEmpty
			}
			if cmd.Flags().Changed("max-points") {
				opts.MaxPointsPerEquipment = nf.maxPoints
			}
			if cmd.Flags().Changed("concurrency") {
				opts.Concurrency = nf.concurrency
			}

			pipelineOpts := []pipeline.Option{
				pipeline.WithLogger(e.logger),
				pipeline.WithMetadata(e.cfg.Metadata),
			}
			var registry *prometheus.Registry
			if nf.metricsFile != "" {
				registry = prometheus.NewRegistry()
				pipelineOpts = append(pipelineOpts, pipeline.WithMetrics(pipeline.NewMetrics(registry)))
			}
			p, err := pipeline.NewPipeline(e.tables, pipelineOpts...)
			if err != nil {
				return err
			}

			batch, batchErr := p.ProcessBatch(cmd.Context(), docs, opts)
			if err := writeJSON(cmd, batch); err != nil {
				return err
			}
			if registry != nil {
				if err := prometheus.WriteToTextfile(nf.metricsFile, registry); err != nil {
					return fmt.Errorf("writing metrics: %w", err)
				}
				e.logger.Debug("Metrics written", zap.String("path", nf.metricsFile))
			}
			if batchErr != nil {
				return batchErr
			}
			if batch.Summary.Failed > 0 {
				return fmt.Errorf("%d of %d documents failed", batch.Summary.Failed, batch.Summary.TotalDocuments)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&nf.strict, "strict", false, "fail a document on its first structural parse error")
	cmd.Flags().BoolVar(&nf.skipEmpty, "skip-empty", false, "report empty files as skipped instead of failed")
	cmd.Flags().IntVar(&nf.maxPoints, "max-points", 0, "keep at most this many points per file (0 means no limit)")
	cmd.Flags().IntVar(&nf.concurrency, "concurrency", pipeline.DefaultConcurrency, "files processed together")
	cmd.Flags().StringVar(&nf.metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file")
	return cmd
}

// expandGlobs resolves each pattern with doublestar and returns the sorted,
// deduplicated file paths. A pattern without glob syntax is returned as is.
func expandGlobs(patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)
	return slices.Compact(paths), nil
}

func readDocuments(paths []string) ([]pipeline.Document, error) {
	docs := make([]pipeline.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		docs = append(docs, pipeline.Document{Name: filepath.Base(path), Content: string(data)})
	}
	return docs, nil
}
