// Package intake turns coach submissions (JSON documents or CSV exports)
// into calculated, stored programs.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/claude/liftplan/internal/engine"
	"github.com/claude/liftplan/internal/models"
)

// Calculator runs the engine. *engine.Calculator satisfies it.
type Calculator interface {
	Calculate(ctx context.Context, in engine.Input) (*engine.Output, error)
}

// Repository persists programs and calculation logs. *storage.DB satisfies it.
type Repository interface {
	InsertProgram(ctx context.Context, row models.ProgramRow) (models.ProgramRow, error)
	InsertCalculationLog(ctx context.Context, l models.CalculationLogRow) (int64, error)
}

// Request is a submission to calculate and store.
type Request struct {
	CoachID    int          `json:"-"`
	ClientName string       `json:"client_name"`
	Block      string       `json:"block"`
	Source     string       `json:"-"`
	Input      engine.Input `json:"input"`
}

// Provider calculates submissions and stores the results.
type Provider struct {
	calc Calculator
	repo Repository
	log  *slog.Logger
}

// NewProvider creates a new intake provider.
func NewProvider(calc Calculator, repo Repository, log *slog.Logger) *Provider {
	return &Provider{calc: calc, repo: repo, log: log}
}

// Save calculates req.Input and stores the program. Engine errors are
// returned unwrapped so callers can inspect them with errors.As. Every
// attempt is recorded in the calculation log.
func (p *Provider) Save(ctx context.Context, req Request) (*models.ProgramRow, error) {
	start := time.Now()
	if req.Source == "" {
		req.Source = models.SourceAPI
	}
	if req.Block != "" {
		req.Input.Block = req.Block
	}

	out, err := p.calc.Calculate(ctx, req.Input)
	if err != nil {
		p.record(ctx, req, start, nil, nil, err)
		return nil, err
	}

	inputJSON, err := json.Marshal(req.Input)
	if err != nil {
		return nil, fmt.Errorf("encoding input: %w", err)
	}
	calculated, err := json.Marshal(out.Calculated)
	if err != nil {
		return nil, fmt.Errorf("encoding calculated program: %w", err)
	}

	row, err := p.repo.InsertProgram(ctx, models.ProgramRow{
		CoachID:    req.CoachID,
		ClientName: req.ClientName,
		Block:      req.Input.Block,
		Source:     req.Source,
		Lifts:      out.Lifts(),
		TotalNL:    out.TotalNL(),
		Input:      inputJSON,
		Calculated: calculated,
	})
	if err != nil {
		p.record(ctx, req, start, out, nil, err)
		return nil, fmt.Errorf("storing program: %w", err)
	}

	p.record(ctx, req, start, out, &row, nil)
	p.log.Info("program stored",
		"id", row.ID,
		"client", row.ClientName,
		"source", row.Source,
		"lifts", row.Lifts,
		"total_nl", row.TotalNL,
	)
	return &row, nil
}

// Ingest parses a CSV export and stores the resulting program.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, req Request) (*models.ProgramRow, error) {
	in, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	req.Input = in
	if req.Source == "" {
		req.Source = models.SourceCSV
	}
	return p.Save(ctx, req)
}

// record writes a calculation log row. Failures are logged, not returned:
// the log must never fail a calculation.
func (p *Provider) record(ctx context.Context, req Request, start time.Time, out *engine.Output, row *models.ProgramRow, calcErr error) {
	ms := int(time.Since(start).Milliseconds())
	l := models.CalculationLogRow{
		CoachID:    req.CoachID,
		Source:     req.Source,
		Status:     models.StatusSuccess,
		Lifts:      len(req.Input.Lifts),
		DurationMs: &ms,
	}
	if out != nil {
		l.TotalNL = out.TotalNL()
	}
	if row != nil {
		l.ProgramID = &row.ID
	}
	if calcErr != nil {
		l.Status = models.StatusError
		kind := "internal"
		var ee *engine.Error
		if errors.As(calcErr, &ee) {
			kind = ee.Kind.String()
		}
		msg := calcErr.Error()
		l.ErrorKind = &kind
		l.ErrorMessage = &msg
	}
	if _, err := p.repo.InsertCalculationLog(ctx, l); err != nil {
		p.log.Warn("calculation log insert failed", "error", err)
	}
}
