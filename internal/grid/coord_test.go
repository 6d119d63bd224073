package grid

import (
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		CellSize:      64,
		FlushInterval: 300 * time.Millisecond,
	}
}

func newTestIndex(t *testing.T, cfg Config) *Index {
	t.Helper()
	ix, err := NewIndex(cfg, nil)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return ix
}

func TestWorldToCellFloorsTowardNegative(t *testing.T) {
	ix := newTestIndex(t, testConfig())
	cases := []struct {
		x, y float64
		want CellCoord
	}{
		{0, 0, CellCoord{0, 0}},
		{63.999, 63.999, CellCoord{0, 0}},
		{64, 0, CellCoord{1, 0}}, // edge belongs to the higher column
		{64.001, 0, CellCoord{1, 0}},
		{-0.001, 0, CellCoord{-1, 0}},
		{-64, -64, CellCoord{-1, -1}},
		{-64.001, -0.5, CellCoord{-2, -1}},
		{500, 500, CellCoord{7, 7}},
	}
	for _, c := range cases {
		if got := ix.WorldToCell(c.x, c.y); got != c.want {
			t.Errorf("WorldToCell(%v, %v) = %+v, want %+v", c.x, c.y, got, c.want)
		}
	}
}

func TestWorldToCellAdjacentAcrossEdge(t *testing.T) {
	ix := newTestIndex(t, testConfig())
	lo := ix.WorldToCell(64-0.001, 0)
	hi := ix.WorldToCell(64+0.001, 0)
	if lo == hi {
		t.Fatalf("expected distinct cells across the edge, both %+v", lo)
	}
	if hi.Col-lo.Col != 1 || hi.Row != lo.Row {
		t.Errorf("expected adjacent columns, got %+v and %+v", lo, hi)
	}
}

func TestWorldToCellClampsToBounds(t *testing.T) {
	cfg := testConfig()
	cfg.ClampToBounds = true
	cfg.WorldWidth = 128
	cfg.WorldHeight = 128
	ix := newTestIndex(t, cfg)

	cases := []struct {
		x, y float64
		want CellCoord
	}{
		{-500, -500, CellCoord{0, 0}},
		{5000, 30, CellCoord{1, 0}},
		{30, 5000, CellCoord{0, 1}},
		{127.9, 127.9, CellCoord{1, 1}},
		{128, 128, CellCoord{1, 1}}, // edge clamps back inside
	}
	for _, c := range cases {
		if got := ix.WorldToCell(c.x, c.y); got != c.want {
			t.Errorf("WorldToCell(%v, %v) = %+v, want %+v", c.x, c.y, got, c.want)
		}
	}
}

func TestNewIndexRejectsBadConfig(t *testing.T) {
	bad := []Config{
		{CellSize: 0},
		{CellSize: -5},
		{CellSize: 64, ClampToBounds: true},
		{CellSize: 64, ClampToBounds: true, WorldWidth: 100},
		{CellSize: 64, FlushInterval: -time.Second},
	}
	for i, cfg := range bad {
		if _, err := NewIndex(cfg, nil); err == nil {
			t.Errorf("case %d: expected error for config %+v", i, cfg)
		}
	}
}
