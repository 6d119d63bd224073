package persist

import (
	"context"
	"fmt"
)

// MatchRepo tracks one server run per row: opened at boot, closed with
// final totals at graceful shutdown.
type MatchRepo struct {
	db *DB
}

func NewMatchRepo(db *DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// Create opens a match row and returns its ID.
func (r *MatchRepo) Create(ctx context.Context, serverName string) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO matches (server_name) VALUES ($1) RETURNING id`,
		serverName,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create match: %w", err)
	}
	return id, nil
}

// Finish stamps the end time and final totals.
func (r *MatchRepo) Finish(ctx context.Context, id int64, ticks, deaths, damage uint64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE matches SET ended_at = now(), ticks = $2, deaths = $3, damage = $4 WHERE id = $1`,
		id, int64(ticks), int64(deaths), int64(damage),
	)
	if err != nil {
		return fmt.Errorf("finish match: %w", err)
	}
	return nil
}
