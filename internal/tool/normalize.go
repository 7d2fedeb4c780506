// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/pipeline"
)

// MetadataNormalizeTrioDocuments describes the normalize_trio_documents tool.
var MetadataNormalizeTrioDocuments = &mcp.Tool{
	Name: "normalize_trio_documents",
	Description: "Parse one or more trio point-list exports of building automation equipment and return, " +
		"per document, the classified equipment type, the BACnet points found and for every point a " +
		"normalized name, a point function (sensor, setpoint, command or status), a confidence score " +
		"and a compliance-scored set of semantic marker tags. " +
		"Documents are named after their equipment (for example VVR_2.1.trio); the name drives classification. " +
		"Problems in one document or point never fail the call: each document carries its own status, " +
		"diagnostics and warnings, and a summary aggregates the batch.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"documents"},
		"properties": map[string]interface{}{
			"documents": map[string]interface{}{
				"type":        "array",
				"description": "Trio documents to process",
				"minItems":    1,
				"items": map[string]interface{}{
					"type":     "object",
					"required": []string{"name", "content"},
					"properties": map[string]interface{}{
						"name": map[string]interface{}{
							"type":        "string",
							"description": "Equipment or file name, e.g. AHU-1.trio",
						},
						"content": map[string]interface{}{
							"type":        "string",
							"description": "Raw trio text",
						},
					},
				},
			},
			"strict_mode": map[string]interface{}{
				"type":        "boolean",
				"description": "Fail a document on its first structural parse error instead of skipping the broken section.",
			},
			"max_points_per_equipment": map[string]interface{}{
				"type":        "integer",
				"minimum":     0,
				"description": "Keep at most this many points per document. 0 means no limit.",
			},
			"skip_empty_files": map[string]interface{}{
				"type":        "boolean",
				"description": "Report empty documents as skipped instead of failed.",
			},
		},
	},
	OutputSchema: map[string]interface{}{
		"type": "object",
	},
}

// InputNormalizeTrioDocuments is the input for the NormalizeTrioDocuments tool.
type InputNormalizeTrioDocuments struct {
	Documents             []pipeline.Document `json:"documents"`
	StrictMode            *bool               `json:"strict_mode,omitempty"`
	MaxPointsPerEquipment *int                `json:"max_points_per_equipment,omitempty"`
	SkipEmptyFiles        *bool               `json:"skip_empty_files,omitempty"`
}

// OutputNormalizeTrioDocuments is the output for the NormalizeTrioDocuments tool.
type OutputNormalizeTrioDocuments struct {
	// Results holds one entry per input document, in input order.
	Results []pipeline.DocumentResult `json:"results"`
	Summary pipeline.Summary          `json:"summary"`
}

// NormalizeTrioDocuments runs the batch pipeline over the provided documents.
// Options left out of the input fall back to the server defaults.
func (h *Handlers) NormalizeTrioDocuments(ctx context.Context, _ *mcp.CallToolRequest, input InputNormalizeTrioDocuments) (*mcp.CallToolResult, OutputNormalizeTrioDocuments, error) {
	if len(input.Documents) == 0 {
		return nil, OutputNormalizeTrioDocuments{}, fmt.Errorf("at least one document is required")
	}
	for i, doc := range input.Documents {
		if doc.Name == "" {
			return nil, OutputNormalizeTrioDocuments{}, fmt.Errorf("documents[%d]: name is required", i)
		}
	}

	opts := h.defaults
	if input.StrictMode != nil {
		opts.StrictMode = *input.StrictMode
	}
	if input.MaxPointsPerEquipment != nil {
		if *input.MaxPointsPerEquipment < 0 {
			return nil, OutputNormalizeTrioDocuments{}, fmt.Errorf("max_points_per_equipment must not be negative")
		}
		opts.MaxPointsPerEquipment = *input.MaxPointsPerEquipment
	}
	if input.SkipEmptyFiles != nil {
		opts.SkipEmptyFiles = *input.SkipEmptyFiles
	}

	batch, err := h.pipeline.ProcessBatch(ctx, input.Documents, opts)
	if err != nil {
		return nil, OutputNormalizeTrioDocuments{}, err
	}
	return nil, OutputNormalizeTrioDocuments{
		Results: batch.Results,
		Summary: batch.Summary,
	}, nil
}
