package event

import (
	"testing"

	"github.com/arenago/server/internal/world"
)

func TestBusDeliversAfterSwap(t *testing.T) {
	b := NewBus()
	var got []DamageDealt
	Subscribe(b, func(e DamageDealt) { got = append(got, e) })

	Emit(b, DamageDealt{Attacker: 1, Target: 2, Amount: 7})
	if n := b.DispatchAll(); n != 0 {
		t.Fatalf("event visible before the buffer swap, delivered %d", n)
	}

	b.SwapBuffers()
	if n := b.DispatchAll(); n != 1 {
		t.Fatalf("expected 1 delivery, got %d", n)
	}
	if len(got) != 1 || got[0].Amount != 7 {
		t.Fatalf("handler saw %+v", got)
	}
}

func TestBusKeepsTypesSeparate(t *testing.T) {
	b := NewBus()
	var deaths int
	var hits int
	Subscribe(b, func(ActorDied) { deaths++ })
	Subscribe(b, func(ProjectileHit) { hits++ })

	Emit(b, ActorDied{ID: world.ActorID(3)})
	Emit(b, ActorDied{ID: world.ActorID(4)})
	Emit(b, ProjectileHit{Shooter: world.ActorID(3)})
	b.SwapBuffers()
	b.DispatchAll()

	if deaths != 2 || hits != 1 {
		t.Fatalf("deaths=%d hits=%d", deaths, hits)
	}
}

func TestBusClearsDeliveredEvents(t *testing.T) {
	b := NewBus()
	var count int
	Subscribe(b, func(ActorSpawned) { count++ })

	Emit(b, ActorSpawned{Name: "grunt"})
	b.SwapBuffers()
	b.DispatchAll()
	b.SwapBuffers() // nothing new emitted
	b.DispatchAll()

	if count != 1 {
		t.Fatalf("event redelivered, count=%d", count)
	}
}
