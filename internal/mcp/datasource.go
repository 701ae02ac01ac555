package mcp

import (
	"context"

	"github.com/claude/liftplan/internal/engine"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the calculation and data layer for MCP tools. Both
// Local (in-process) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	Calculate(ctx context.Context, in engine.Input) (*engine.Output, error)
	Patterns(ctx context.Context) (*engine.PatternTables, error)
	ListPrograms(ctx context.Context, client string, limit int) ([]models.ProgramSummary, error)
	GetProgram(ctx context.Context, id uuid.UUID) (*models.ProgramRow, error)
	GetProgramStats(ctx context.Context) (*storage.ProgramStats, error)
}

// ProgramStore is the read side of storage used by Local.
type ProgramStore interface {
	ListPrograms(ctx context.Context, client string, limit int) ([]models.ProgramSummary, error)
	GetProgram(ctx context.Context, id uuid.UUID) (*models.ProgramRow, error)
	GetProgramStats(ctx context.Context) (*storage.ProgramStats, error)
}

// Local serves MCP tools from the server process: the engine runs in-process
// and programs come straight from storage.
type Local struct {
	ProgramStore
	Calc *engine.Calculator
}

// Compile-time checks.
var (
	_ DataSource   = (*Local)(nil)
	_ ProgramStore = (*storage.DB)(nil)
)

func (l *Local) Calculate(ctx context.Context, in engine.Input) (*engine.Output, error) {
	return l.Calc.Calculate(ctx, in)
}

func (l *Local) Patterns(context.Context) (*engine.PatternTables, error) {
	t := engine.Tables()
	return &t, nil
}
