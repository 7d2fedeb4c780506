// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"cmp"
	"context"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxCommonErrors = 5

// ErrorCount is one distinct error message and how often it occurred.
type ErrorCount struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// Summary aggregates a batch. It never replaces the per-document results.
type Summary struct {
	TotalDocuments  int            `json:"totalDocuments"`
	Succeeded       int            `json:"succeeded"`
	Failed          int            `json:"failed"`
	Skipped         int            `json:"skipped"`
	TotalPoints     int            `json:"totalPoints"`
	EquipmentByType map[string]int `json:"equipmentByType"`
	CommonErrors    []ErrorCount   `json:"commonErrors"`
	Duration        time.Duration  `json:"duration"`
}

// BatchResult holds one result per processed document, in input order.
type BatchResult struct {
	Results []DocumentResult `json:"results"`
	Summary Summary          `json:"summary"`
}

// ProcessBatch processes docs in groups of opts.Concurrency. Documents in a
// group run in parallel; the context is checked only between groups. When it
// is done, the results of the completed groups are returned with ctx.Err().
func (p *Pipeline) ProcessBatch(ctx context.Context, docs []Document, opts Options) (BatchResult, error) {
	start := time.Now()
	width := opts.concurrency()
	results := make([]DocumentResult, len(docs))

	done := 0
	for done < len(docs) {
		if err := ctx.Err(); err != nil {
			batch := p.finishBatch(results[:done], start)
			p.logger.Warn("Batch cancelled",
				zap.Int("processed", done),
				zap.Int("remaining", len(docs)-done),
				zap.Error(err))
			return batch, err
		}

		end := min(done+width, len(docs))
		var g errgroup.Group
		for i := done; i < end; i++ {
			g.Go(func() error {
				results[i] = p.Process(ctx, docs[i], opts)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return p.finishBatch(results[:done], start), err
		}
		done = end
	}

	return p.finishBatch(results, start), nil
}

func (p *Pipeline) finishBatch(results []DocumentResult, start time.Time) BatchResult {
	summary := Summarize(results)
	summary.Duration = time.Since(start)
	p.logger.Info("Batch processed",
		zap.Int("documents", summary.TotalDocuments),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("points", summary.TotalPoints),
		zap.Duration("duration", summary.Duration))
	return BatchResult{Results: results, Summary: summary}
}

// Summarize aggregates document results. Skipped documents are counted but
// not classified.
func Summarize(results []DocumentResult) Summary {
	s := Summary{
		TotalDocuments:  len(results),
		EquipmentByType: make(map[string]int),
		CommonErrors:    []ErrorCount{},
	}
	errCounts := make(map[string]int)
	for _, r := range results {
		switch r.Status {
		case StatusSucceeded:
			s.Succeeded++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
			continue
		}
		s.TotalPoints += len(r.Points)
		if r.Equipment.EquipmentType != "" {
			s.EquipmentByType[r.Equipment.EquipmentType]++
		}
		if r.Error != "" {
			errCounts[r.Error]++
		}
	}

	for msg, n := range errCounts {
		s.CommonErrors = append(s.CommonErrors, ErrorCount{Message: msg, Count: n})
	}
	slices.SortFunc(s.CommonErrors, func(a, b ErrorCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Message, b.Message))
	})
	if len(s.CommonErrors) > maxCommonErrors {
		s.CommonErrors = s.CommonErrors[:maxCommonErrors]
	}
	return s
}
