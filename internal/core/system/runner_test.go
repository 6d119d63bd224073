package system

import (
	"testing"
	"time"
)

type recordingSystem struct {
	phase Phase
	tag   string
	out   *[]string
}

func (s *recordingSystem) Phase() Phase { return s.phase }
func (s *recordingSystem) Update(dt time.Duration) {
	*s.out = append(*s.out, s.tag)
}

func TestRunnerExecutesInPhaseOrder(t *testing.T) {
	var got []string
	r := NewRunner()
	r.Register(&recordingSystem{phase: PhaseCleanup, tag: "cleanup", out: &got})
	r.Register(&recordingSystem{phase: PhaseAI, tag: "ai", out: &got})
	r.Register(&recordingSystem{phase: PhaseCombat, tag: "combat", out: &got})
	r.Register(&recordingSystem{phase: PhaseMovement, tag: "movement", out: &got})

	r.Tick(100 * time.Millisecond)
	want := []string{"ai", "movement", "combat", "cleanup"}
	if len(got) != len(want) {
		t.Fatalf("ran %d systems, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order %v, want %v", got, want)
		}
	}
}

func TestRunnerStableWithinPhase(t *testing.T) {
	var got []string
	r := NewRunner()
	r.Register(&recordingSystem{phase: PhaseCombat, tag: "first", out: &got})
	r.Register(&recordingSystem{phase: PhaseCombat, tag: "second", out: &got})
	r.Register(&recordingSystem{phase: PhaseAI, tag: "ai", out: &got})

	r.Tick(time.Millisecond)
	want := []string{"ai", "first", "second"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order %v, want %v", got, want)
		}
	}
}

func TestRunnerRegisterAfterTickResorts(t *testing.T) {
	var got []string
	r := NewRunner()
	r.Register(&recordingSystem{phase: PhaseCombat, tag: "combat", out: &got})
	r.Tick(time.Millisecond)

	r.Register(&recordingSystem{phase: PhaseAI, tag: "ai", out: &got})
	got = got[:0]
	r.Tick(time.Millisecond)
	if len(got) != 2 || got[0] != "ai" || got[1] != "combat" {
		t.Fatalf("late registration not resorted: %v", got)
	}
}
