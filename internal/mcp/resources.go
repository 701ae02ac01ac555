package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

// --- Resource definitions ---

var resPatterns = mcp.NewResource(
	"liftplan://patterns",
	"Pattern Tables",
	mcp.WithResourceDescription("Weekly volume patterns, session distributions and zone intensities used by the calculator"),
	mcp.WithMIMEType("application/json"),
)

var resRecentPrograms = mcp.NewResource(
	"liftplan://recent_programs",
	"Recent Programs",
	mcp.WithResourceDescription("The 20 most recently stored programs"),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) patterns(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	tables, err := h.ds.Patterns(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, tables)
}

func (h *handlers) recentPrograms(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	programs, err := h.ds.ListPrograms(ctx, "", 20)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, programs)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
