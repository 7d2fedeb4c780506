// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/classify"
)

// MetadataClassifyEquipment describes the classify_equipment tool.
var MetadataClassifyEquipment = &mcp.Tool{
	Name: "classify_equipment",
	Description: "Classify building automation equipment by name or file name (for example VVR_2.1.trio or AHU-1). " +
		"Known vendor models are tried first, then a dictionary of equipment name prefixes, then name patterns. " +
		"Each result has an equipment type, a confidence between 0 and 1, the rule that matched and up to " +
		"three lower-ranked alternatives. Names nothing matches are reported as Unknown with confidence 0.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"names"},
		"properties": map[string]interface{}{
			"names": map[string]interface{}{
				"type":        "array",
				"description": "Equipment or file names to classify",
				"minItems":    1,
				"items": map[string]interface{}{
					"type": "string",
				},
			},
		},
	},
	OutputSchema: map[string]interface{}{
		"type": "object",
	},
}

// InputClassifyEquipment is the input for the ClassifyEquipment tool.
type InputClassifyEquipment struct {
	Names []string `json:"names"`
}

// OutputClassifyEquipment is the output for the ClassifyEquipment tool.
type OutputClassifyEquipment struct {
	Classifications []classify.Result `json:"classifications"`
}

// ClassifyEquipment classifies each name independently.
func (h *Handlers) ClassifyEquipment(_ context.Context, _ *mcp.CallToolRequest, input InputClassifyEquipment) (*mcp.CallToolResult, OutputClassifyEquipment, error) {
	if len(input.Names) == 0 {
		return nil, OutputClassifyEquipment{}, fmt.Errorf("at least one name is required")
	}

	out := OutputClassifyEquipment{Classifications: make([]classify.Result, 0, len(input.Names))}
	for _, name := range input.Names {
		out.Classifications = append(out.Classifications, h.pipeline.Classifier().Classify(name))
	}
	return nil, out, nil
}
