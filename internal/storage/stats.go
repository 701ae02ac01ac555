package storage

import (
	"context"
	"fmt"
	"time"
)

// ProgramStats holds aggregate statistics about stored programs.
type ProgramStats struct {
	TotalPrograms   int64        `json:"total_programs"`
	TotalClients    int64        `json:"total_clients"`
	TotalCoaches    int64        `json:"total_coaches"`
	FailedRequests  int64        `json:"failed_requests"`
	EarliestProgram *time.Time   `json:"earliest_program"`
	LatestProgram   *time.Time   `json:"latest_program"`
	ProgramsByBlock []BlockCount `json:"programs_by_block"`
}

// BlockCount is the number of programs stored for one block type.
type BlockCount struct {
	Block string `json:"block"`
	Count int64  `json:"count"`
}

// GetProgramStats returns aggregate statistics across all stored programs.
func (db *DB) GetProgramStats(ctx context.Context) (*ProgramStats, error) {
	stats := &ProgramStats{ProgramsByBlock: []BlockCount{}}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT lower(client_name)), MIN(created_at), MAX(created_at)
		 FROM programs`,
	).Scan(&stats.TotalPrograms, &stats.TotalClients, &stats.EarliestProgram, &stats.LatestProgram)
	if err != nil {
		return nil, fmt.Errorf("counting programs: %w", err)
	}

	err = db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM coaches`).Scan(&stats.TotalCoaches)
	if err != nil {
		return nil, fmt.Errorf("counting coaches: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM calculation_logs WHERE status = 'error'`,
	).Scan(&stats.FailedRequests)
	if err != nil {
		return nil, fmt.Errorf("counting failed calculations: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT block, COUNT(*) FROM programs GROUP BY block ORDER BY COUNT(*) DESC, block`)
	if err != nil {
		return nil, fmt.Errorf("querying programs by block: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bc BlockCount
		if err := rows.Scan(&bc.Block, &bc.Count); err != nil {
			return nil, fmt.Errorf("scanning block count: %w", err)
		}
		stats.ProgramsByBlock = append(stats.ProgramsByBlock, bc)
	}
	return stats, rows.Err()
}
