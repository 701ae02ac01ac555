package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/liftplan/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InsertProgram stores a calculated program. A zero ID is replaced with a
// fresh UUID; the stored row (with created_at) is returned.
func (db *DB) InsertProgram(ctx context.Context, row models.ProgramRow) (models.ProgramRow, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO programs (id, coach_id, client_name, block, source, lifts, total_nl, input, calculated)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 RETURNING created_at`,
		row.ID, row.CoachID, row.ClientName, row.Block, row.Source, row.Lifts, row.TotalNL,
		row.Input, row.Calculated,
	).Scan(&row.CreatedAt)
	if err != nil {
		return models.ProgramRow{}, fmt.Errorf("inserting program: %w", err)
	}
	return row, nil
}

// GetProgram returns a single stored program with its documents.
func (db *DB) GetProgram(ctx context.Context, id uuid.UUID) (*models.ProgramRow, error) {
	var p models.ProgramRow
	err := db.Pool.QueryRow(ctx,
		`SELECT id, coach_id, client_name, block, source, lifts, total_nl, created_at, input, calculated
		 FROM programs WHERE id = $1`, id,
	).Scan(&p.ID, &p.CoachID, &p.ClientName, &p.Block, &p.Source, &p.Lifts, &p.TotalNL,
		&p.CreatedAt, &p.Input, &p.Calculated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying program %s: %w", id, err)
	}
	return &p, nil
}

// ListPrograms returns the most recent programs, newest first. An empty
// client matches every client; otherwise the match is case-insensitive.
func (db *DB) ListPrograms(ctx context.Context, client string, limit int) ([]models.ProgramSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, client_name, block, source, lifts, total_nl, created_at
		 FROM programs
		 WHERE ($1 = '' OR lower(client_name) = lower($1))
		 ORDER BY created_at DESC
		 LIMIT $2`,
		client, limit)
	if err != nil {
		return nil, fmt.Errorf("querying programs: %w", err)
	}
	defer rows.Close()

	result := []models.ProgramSummary{}
	for rows.Next() {
		var p models.ProgramSummary
		if err := rows.Scan(&p.ID, &p.ClientName, &p.Block, &p.Source, &p.Lifts, &p.TotalNL, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning program: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
