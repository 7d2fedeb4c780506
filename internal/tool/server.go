// SPDX-License-Identifier: Apache-2.0

// Package tool exposes the trio normalization pipeline as MCP tools.
package tool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/pipeline"
)

const serverName = "trionorm"

// Handlers implements the MCP tools over one pipeline.
type Handlers struct {
	pipeline *pipeline.Pipeline
	defaults pipeline.Options
}

// NewHandlers returns tool handlers that use defaults for options a call
// does not set.
func NewHandlers(p *pipeline.Pipeline, defaults pipeline.Options) *Handlers {
	return &Handlers{pipeline: p, defaults: defaults}
}

// NewServer creates an MCP server with every tool registered.
func NewServer(h *Handlers, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)
	mcp.AddTool(server, MetadataNormalizeTrioDocuments, h.NormalizeTrioDocuments)
	mcp.AddTool(server, MetadataClassifyEquipment, h.ClassifyEquipment)
	return server
}
