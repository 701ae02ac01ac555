package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/claude/liftplan/internal/engine"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolCalculateProgram = mcp.NewTool("calculate_program",
	mcp.WithDescription("Calculate a 4-week training block. Returns, per lift and week, reps per intensity zone (55/65/75/85/90/95 %1RM), "+
		"the per-session split, ARI (average relative intensity), tonnage and a block summary. Nothing is stored."),
	mcp.WithString("input", mcp.Required(), mcp.Description(`Input document as JSON: {"lifts": {"squat": {"one_rm": 142.5, "rounding": 2.5, "volume": 350, `+
		`"intensity_distribution": {"75_percent": 45, "85_percent": 13, "90_total_reps": 4, "95_total_reps": 0}, `+
		`"volume_pattern_main": "3a", "volume_pattern_8190": "1-3b", "sessions_per_week": 3, "session_distribution": "d25_33_42"}}, "block": "prep"}`)),
)

var toolListPatterns = mcp.NewTool("list_patterns",
	mcp.WithDescription("List the weekly volume patterns, session distributions, zone intensities and allowed rounding increments, with table versions."),
)

var toolListPrograms = mcp.NewTool("list_programs",
	mcp.WithDescription("List stored programs, newest first. Returns id, client, block, lifts and total volume for each."),
	mcp.WithString("client", mcp.Description("Only programs for this client (case-insensitive)")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of programs. Defaults to 20.")),
)

var toolGetProgram = mcp.NewTool("get_program",
	mcp.WithDescription("Fetch one stored program with its input document and calculated block."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Program ID (UUID)")),
)

var toolGetStats = mcp.NewTool("get_stats",
	mcp.WithDescription("Aggregate statistics over stored programs: totals, clients, coaches, failed calculations and programs per block type."),
)

// --- Tool handlers ---

func (h *handlers) calculateProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError("input parameter is required"), nil
	}

	in, err := decodeInput(raw)
	if err != nil {
		return mcp.NewToolResultError("invalid input document: " + err.Error()), nil
	}

	out, err := h.ds.Calculate(ctx, in)
	if err != nil {
		var ee *engine.Error
		if errors.As(err, &ee) {
			return mcp.NewToolResultError(ee.Error()), nil
		}
		h.log.Error("mcp calculate_program", "error", err)
		return mcp.NewToolResultError("calculation failed: " + err.Error()), nil
	}

	return jsonResult(out)
}

func (h *handlers) listPatterns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tables, err := h.ds.Patterns(ctx)
	if err != nil {
		h.log.Error("mcp list_patterns", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(tables)
}

func (h *handlers) listPrograms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}

	programs, err := h.ds.ListPrograms(ctx, req.GetString("client", ""), limit)
	if err != nil {
		h.log.Error("mcp list_programs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(programs)
}

func (h *handlers) getProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid program ID: " + idStr), nil
	}

	program, err := h.ds.GetProgram(ctx, id)
	if err != nil {
		h.log.Error("mcp get_program", "id", id, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(program)
}

func (h *handlers) getStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.GetProgramStats(ctx)
	if err != nil {
		h.log.Error("mcp get_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats)
}

// decodeInput strictly parses an input document.
func decodeInput(raw string) (engine.Input, error) {
	var in engine.Input
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return engine.Input{}, err
	}
	return in, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
