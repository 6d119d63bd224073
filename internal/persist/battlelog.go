package persist

import (
	"context"
	"fmt"
)

// Battle log event kinds.
const (
	EventDamage = "damage"
	EventDeath  = "death"
	EventSpawn  = "spawn"
)

// BattleRow is one combat event awaiting insertion. ActorID is the
// primary actor (attacker, victim or the spawned one); OtherID is the
// counterpart where the event has one.
type BattleRow struct {
	Tick    uint64
	Event   string
	ActorID uint64
	OtherID uint64
	Amount  int32
	Ranged  bool
	X, Y    float64
}

type BattleLogRepo struct {
	db *DB
}

func NewBattleLogRepo(db *DB) *BattleLogRepo {
	return &BattleLogRepo{db: db}
}

// InsertBatch writes a batch of battle events in a single transaction.
// All-or-nothing: on error the caller keeps its buffer and retries on
// the next flush.
func (r *BattleLogRepo) InsertBatch(ctx context.Context, matchID int64, rows []BattleRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("battle log begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, row := range rows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO battle_log (match_id, tick, event, actor_id, other_id, amount, ranged, x, y)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			matchID, int64(row.Tick), row.Event, int64(row.ActorID), int64(row.OtherID),
			row.Amount, row.Ranged, row.X, row.Y,
		); err != nil {
			return fmt.Errorf("battle log insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}
