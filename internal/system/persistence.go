package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arenago/server/internal/core/event"
	coresys "github.com/arenago/server/internal/core/system"
	"github.com/arenago/server/internal/persist"
	"github.com/arenago/server/internal/world"
)

const flushTimeout = 5 * time.Second

// PersistenceSystem buffers combat events from the bus and batch-writes
// them to the battle log every interval ticks. A failed flush keeps the
// buffer for the next attempt, capped so a dead database cannot grow it
// without bound. Phase 6 (Persist).
type PersistenceSystem struct {
	world   *world.State
	repo    *persist.BattleLogRepo
	matches *persist.MatchRepo
	log     *zap.Logger

	matchID   int64
	tickCount int
	interval  int // flush every N ticks

	buf    []persist.BattleRow
	deaths uint64
	damage uint64
}

// maxBuffered bounds the retry buffer; beyond it the oldest rows are
// dropped with a warning rather than eating memory while the DB is down.
const maxBuffered = 16384

func NewPersistenceSystem(ws *world.State, repo *persist.BattleLogRepo, matches *persist.MatchRepo, bus *event.Bus, log *zap.Logger, matchID int64, intervalTicks int) *PersistenceSystem {
	s := &PersistenceSystem{
		world:    ws,
		repo:     repo,
		matches:  matches,
		log:      log,
		matchID:  matchID,
		interval: intervalTicks,
	}
	event.Subscribe(bus, func(e event.DamageDealt) {
		s.damage += uint64(e.Amount)
		s.push(persist.BattleRow{
			Tick:    e.Tick,
			Event:   persist.EventDamage,
			ActorID: uint64(e.Attacker),
			OtherID: uint64(e.Target),
			Amount:  e.Amount,
			Ranged:  e.Ranged,
		})
	})
	event.Subscribe(bus, func(e event.ActorDied) {
		s.deaths++
		s.push(persist.BattleRow{
			Tick:    e.Tick,
			Event:   persist.EventDeath,
			ActorID: uint64(e.ID),
			OtherID: uint64(e.Killer),
			X:       e.X,
			Y:       e.Y,
		})
	})
	event.Subscribe(bus, func(e event.ActorSpawned) {
		s.push(persist.BattleRow{
			Event:   persist.EventSpawn,
			ActorID: uint64(e.ID),
			X:       e.X,
			Y:       e.Y,
		})
	})
	return s
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.flush()
}

// SaveAll flushes the remaining buffer and closes the match row. Called
// once at graceful shutdown.
func (s *PersistenceSystem) SaveAll() {
	s.flush()
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := s.matches.Finish(ctx, s.matchID, s.world.TickNo(), s.deaths, s.damage); err != nil {
		s.log.Error("結束戰局寫入失敗", zap.Error(err))
		return
	}
	s.log.Info("戰局已歸檔",
		zap.Int64("match", s.matchID),
		zap.Uint64("ticks", s.world.TickNo()),
		zap.Uint64("deaths", s.deaths),
		zap.Uint64("damage", s.damage))
}

func (s *PersistenceSystem) push(row persist.BattleRow) {
	if len(s.buf) >= maxBuffered {
		// 資料庫長時間掛掉時犧牲最舊的紀錄
		drop := len(s.buf) - maxBuffered + 1
		s.buf = append(s.buf[:0], s.buf[drop:]...)
		s.log.Warn("戰鬥紀錄緩衝區已滿，丟棄最舊事件", zap.Int("dropped", drop))
	}
	s.buf = append(s.buf, row)
}

func (s *PersistenceSystem) flush() {
	if len(s.buf) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := s.repo.InsertBatch(ctx, s.matchID, s.buf); err != nil {
		s.log.Error("戰鬥紀錄寫入失敗", zap.Int("筆數", len(s.buf)), zap.Error(err))
		return // keep the buffer, retry next interval
	}
	s.log.Debug("戰鬥紀錄已寫入", zap.Int("筆數", len(s.buf)))
	s.buf = s.buf[:0]
}
