package telemetry

import (
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

// Frames decode in two phases: the envelope first, the typed payload
// after the switch on T. This walks the path a client takes.
func TestEnvelopeTwoPhaseDecode(t *testing.T) {
	frame := StatsFrame{
		Tick:      42,
		Actors:    19,
		Clients:   2,
		InFlight:  3,
		Cells:     11,
		Entities:  19,
		Pending:   4,
		Queries:   1000,
		Relocates: 512,
		Flushes:   64,
		Purged:    1,
		Deaths:    5,
		Impacts:   33,
		Sweeps:    2,
	}
	raw, err := Encode(FrameStats, frame)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var env InEnvelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		t.Fatalf("envelope decode: %v", err)
	}
	if env.T != FrameStats {
		t.Fatalf("envelope type = %q, want %q", env.T, FrameStats)
	}

	var got StatsFrame
	if err := msgpack.Unmarshal(env.D, &got); err != nil {
		t.Fatalf("payload decode: %v", err)
	}
	if got != frame {
		t.Fatalf("payload mismatch:\n got %+v\nwant %+v", got, frame)
	}
}

func TestActorsFrameCarriesDeadFlag(t *testing.T) {
	frame := ActorsFrame{
		Tick:    7,
		Watched: true,
		Actors: []ActorState{
			{ID: 1, Name: "劍士-1", Faction: 1, Kind: 1, X: 100, Y: 200, HP: 80, MaxHP: 100},
			{ID: 2, Name: "野狼-3", Faction: 3, Kind: 2, X: 300, Y: 400, Dead: true},
		},
	}
	raw, err := Encode(FrameActors, frame)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var env InEnvelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		t.Fatalf("envelope decode: %v", err)
	}
	var got ActorsFrame
	if err := msgpack.Unmarshal(env.D, &got); err != nil {
		t.Fatalf("payload decode: %v", err)
	}
	if !got.Watched || len(got.Actors) != 2 {
		t.Fatalf("frame = %+v", got)
	}
	if got.Actors[0].Dead || !got.Actors[1].Dead {
		t.Fatalf("dead flags lost: %+v", got.Actors)
	}
	if got.Actors[0].Name != "劍士-1" || got.Actors[0].HP != 80 {
		t.Fatalf("actor state mangled: %+v", got.Actors[0])
	}
}
