package storage

import (
	"context"
	"fmt"

	"github.com/claude/liftplan/internal/models"
)

// InsertCalculationLog records a calculation outcome and returns its ID.
func (db *DB) InsertCalculationLog(ctx context.Context, l models.CalculationLogRow) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO calculation_logs (coach_id, source, status, lifts, total_nl, duration_ms,
		 program_id, error_kind, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 RETURNING id`,
		l.CoachID, l.Source, l.Status, l.Lifts, l.TotalNL, l.DurationMs,
		l.ProgramID, l.ErrorKind, l.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting calculation log: %w", err)
	}
	return id, nil
}

// QueryCalculationLogs returns the most recent calculation logs.
func (db *DB) QueryCalculationLogs(ctx context.Context, limit int) ([]models.CalculationLogRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, coach_id, created_at, source, status, lifts, total_nl, duration_ms,
		 program_id, error_kind, error_message
		 FROM calculation_logs
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying calculation logs: %w", err)
	}
	defer rows.Close()

	result := []models.CalculationLogRow{}
	for rows.Next() {
		var l models.CalculationLogRow
		if err := rows.Scan(&l.ID, &l.CoachID, &l.CreatedAt, &l.Source, &l.Status,
			&l.Lifts, &l.TotalNL, &l.DurationMs, &l.ProgramID, &l.ErrorKind, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning calculation log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
