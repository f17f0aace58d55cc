package progression

import "testing"

func TestLevelTierBoundaries(t *testing.T) {
	cases := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{999, 10},
		{1000, 11},
		{1249, 11},
		{1250, 12},
		{4999, 26},
		{5000, 27},
		{5499, 27},
		{5500, 28},
		{10000, 37},
	}
	for _, c := range cases {
		if got := LevelFor(c.xp); got != c.want {
			t.Fatalf("LevelFor(%d) = %d, want %d", c.xp, got, c.want)
		}
	}
}

func TestLevelMonotonic(t *testing.T) {
	prev := LevelFor(0)
	for xp := 1; xp <= 20000; xp++ {
		lvl := LevelFor(xp)
		if lvl < prev {
			t.Fatalf("level decreased at xp=%d: %d -> %d", xp, prev, lvl)
		}
		prev = lvl
	}
}

func TestLevelNegativeClamped(t *testing.T) {
	if got := LevelFor(-500); got != 1 {
		t.Fatalf("LevelFor(-500) = %d, want 1", got)
	}
}

func TestXPForNextLevel(t *testing.T) {
	cases := []struct {
		xp   int
		want int
	}{
		{0, 100},
		{99, 100},
		{100, 200},
		{999, 1000},
		{1000, 1250},
		{4999, 5000},
		{5000, 5500},
	}
	for _, c := range cases {
		if got := XPForNextLevel(c.xp); got != c.want {
			t.Fatalf("XPForNextLevel(%d) = %d, want %d", c.xp, got, c.want)
		}
	}
}

func TestProgressPercent(t *testing.T) {
	if got := ProgressPercent(50); got != 50 {
		t.Fatalf("ProgressPercent(50) = %v, want 50", got)
	}
	if got := ProgressPercent(0); got != 0 {
		t.Fatalf("ProgressPercent(0) = %v, want 0", got)
	}
	for _, xp := range []int{0, 99, 100, 999, 1000, 4999, 5000, 12345} {
		p := ProgressPercent(xp)
		if p < 0 || p >= 100 {
			t.Fatalf("ProgressPercent(%d) = %v, want [0,100)", xp, p)
		}
	}
}
