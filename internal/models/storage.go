package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Program sources recorded on stored rows.
const (
	SourceAPI    = "api"
	SourceCSV    = "csv"
	SourceUpload = "upload"
)

// ProgramRow is a row of the programs table: the coach's input document and
// the calculated output, both stored as JSONB.
type ProgramRow struct {
	ID         uuid.UUID       `json:"id"`
	CoachID    int             `json:"coach_id"`
	ClientName string          `json:"client_name"`
	Block      string          `json:"block"`
	Source     string          `json:"source"`
	Lifts      []string        `json:"lifts"`
	TotalNL    int             `json:"total_nl"`
	CreatedAt  time.Time       `json:"created_at"`
	Input      json.RawMessage `json:"input"`
	Calculated json.RawMessage `json:"calculated"`
}

// ProgramSummary is the list view of a stored program, without the documents.
type ProgramSummary struct {
	ID         uuid.UUID `json:"id"`
	ClientName string    `json:"client_name"`
	Block      string    `json:"block"`
	Source     string    `json:"source"`
	Lifts      []string  `json:"lifts"`
	TotalNL    int       `json:"total_nl"`
	CreatedAt  time.Time `json:"created_at"`
}

// CalculationLogRow records the outcome of one calculation request.
type CalculationLogRow struct {
	ID           int64      `json:"id"`
	CoachID      int        `json:"coach_id"`
	CreatedAt    time.Time  `json:"created_at"`
	Source       string     `json:"source"`
	Status       string     `json:"status"`
	Lifts        int        `json:"lifts"`
	TotalNL      int        `json:"total_nl"`
	DurationMs   *int       `json:"duration_ms"`
	ProgramID    *uuid.UUID `json:"program_id"`
	ErrorKind    *string    `json:"error_kind"`
	ErrorMessage *string    `json:"error_message"`
}

// Calculation log statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
