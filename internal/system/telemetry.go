package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/arenago/server/internal/core/event"
	coresys "github.com/arenago/server/internal/core/system"
	"github.com/arenago/server/internal/grid"
	"github.com/arenago/server/internal/telemetry"
	"github.com/arenago/server/internal/world"
)

// TelemetrySystem publishes diagnostic frames to connected websocket
// clients every snapshotEvery ticks. Frames are assembled and marshaled
// on the simulation goroutine; only the encoded bytes cross to the hub,
// so the grid and actor state never leave this side. Phase 5 (Output).
type TelemetrySystem struct {
	world *world.State
	proj  *ProjectileSystem
	hub   *telemetry.Hub
	log   *zap.Logger

	every     int
	tickCount int

	// Rolling totals fed by the event bus; handlers run on the
	// simulation goroutine during dispatch, so plain fields suffice.
	deaths  uint64
	impacts uint64
	sweeps  uint64

	hits   []grid.Hit
	states []telemetry.ActorState
}

func NewTelemetrySystem(ws *world.State, proj *ProjectileSystem, hub *telemetry.Hub, bus *event.Bus, everyTicks int, log *zap.Logger) *TelemetrySystem {
	s := &TelemetrySystem{
		world: ws,
		proj:  proj,
		hub:   hub,
		log:   log,
		every: everyTicks,
	}
	event.Subscribe(bus, func(event.ActorDied) { s.deaths++ })
	event.Subscribe(bus, func(event.ProjectileHit) { s.impacts++ })
	event.Subscribe(bus, func(event.SweepCompleted) { s.sweeps++ })
	return s
}

func (s *TelemetrySystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *TelemetrySystem) Update(dt time.Duration) {
	s.tickCount++
	if s.every <= 0 || s.tickCount%s.every != 0 {
		return
	}
	watches := s.hub.Watches()
	if len(watches) == 0 {
		return // nobody listening, skip assembly entirely
	}
	s.publishStats(len(watches))
	s.publishActors(watches)
}

func (s *TelemetrySystem) publishStats(clients int) {
	snap := s.world.Grid().Stats()
	frame := telemetry.StatsFrame{
		Tick:      s.world.TickNo(),
		Actors:    s.world.Count(),
		Clients:   clients,
		InFlight:  s.proj.InFlight(),
		Cells:     snap.Cells,
		Entities:  snap.Entities,
		Pending:   snap.Pending,
		Queries:   snap.Queries,
		Relocates: snap.Relocates,
		Flushes:   snap.Flushes,
		Purged:    snap.Purged,
		Deaths:    s.deaths,
		Impacts:   s.impacts,
		Sweeps:    s.sweeps,
	}
	data, err := telemetry.Encode(telemetry.FrameStats, frame)
	if err != nil {
		s.log.Error("telemetry stats encode failed", zap.Error(err))
		return
	}
	s.hub.Broadcast(data)
}

// publishActors sends each client its actor feed. The full-world frame is
// marshaled at most once and shared; watched clients get a per-client
// frame narrowed through the spatial index. Watched feeds only carry
// grid-registered actors, so corpses (unregistered at death) appear in
// the full feed but not in narrowed ones.
func (s *TelemetrySystem) publishActors(watches []telemetry.ClientWatch) {
	tick := s.world.TickNo()
	var fullData []byte
	fullTried := false
	for _, w := range watches {
		if !w.Narrow {
			if !fullTried {
				fullTried = true
				fullData = s.encodeFull(tick)
			}
			if fullData != nil {
				w.Client.Send(fullData)
			}
			continue
		}
		if data := s.encodeWatched(tick, w.Watch); data != nil {
			w.Client.Send(data)
		}
	}
}

func (s *TelemetrySystem) encodeFull(tick uint64) []byte {
	s.states = s.states[:0]
	for _, a := range s.world.Actors() {
		s.states = append(s.states, actorState(a))
	}
	data, err := telemetry.Encode(telemetry.FrameActors, telemetry.ActorsFrame{
		Tick:   tick,
		Actors: s.states,
	})
	if err != nil {
		s.log.Error("telemetry actors encode failed", zap.Error(err))
		return nil
	}
	return data
}

func (s *TelemetrySystem) encodeWatched(tick uint64, w telemetry.WatchMsg) []byte {
	s.hits = s.world.Grid().InRangeInto(s.hits[:0], w.X, w.Y, w.Radius, grid.Filter{})
	s.states = s.states[:0]
	for _, hit := range s.hits {
		a := s.world.Get(world.ActorID(hit.ID))
		if a == nil {
			continue
		}
		s.states = append(s.states, actorState(a))
	}
	data, err := telemetry.Encode(telemetry.FrameActors, telemetry.ActorsFrame{
		Tick:    tick,
		Watched: true,
		Actors:  s.states,
	})
	if err != nil {
		s.log.Error("telemetry actors encode failed", zap.Error(err))
		return nil
	}
	return data
}

func actorState(a *world.Actor) telemetry.ActorState {
	return telemetry.ActorState{
		ID:      uint64(a.ID),
		Name:    a.Name,
		Faction: a.Faction,
		Kind:    a.Kind,
		X:       a.X,
		Y:       a.Y,
		HP:      a.HP,
		MaxHP:   a.MaxHP,
		Dead:    a.Dead,
	}
}
