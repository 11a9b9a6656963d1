package essence

import (
	"math/rand"
	"testing"
)

func TestIndexStartsAtBaseline(t *testing.T) {
	ix := NewIndex(DefaultConfig())
	if ix.Value != 5 {
		t.Fatalf("expected baseline 5, got %f", ix.Value)
	}
}

func TestIndexStaysBounded(t *testing.T) {
	ix := NewIndex(DefaultConfig())
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 100_000; i++ {
		signals := make([]float32, 1+rng.Intn(4))
		for j := range signals {
			signals[j] = rng.Float32()*20 - 10 // deliberately beyond [-5, 5]
		}
		ix.Update(signals)
		if ix.Value < 0 || ix.Value > 10 {
			t.Fatalf("tick %d: essence %f out of [0, 10]", i, ix.Value)
		}
	}
}

func TestIndexDecaysTowardBaseline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Decay = 0.1
	ix := NewIndex(cfg)
	ix.Value = 9

	ix.Update(nil)
	if ix.Value >= 9 || ix.Value <= 5 {
		t.Fatalf("expected decay toward 5, got %f", ix.Value)
	}
}

func TestLockedIndexHoldsExactly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Baseline = 9
	cfg.Locked = true
	ix := NewIndex(cfg)

	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 1000; i++ {
		ix.Update([]float32{rng.Float32()*10 - 5})
		if ix.Value != 9 {
			t.Fatalf("tick %d: locked essence moved to %f", i, ix.Value)
		}
	}
}

func TestInfluence(t *testing.T) {
	cfg := DefaultConfig()
	ix := NewIndex(cfg)

	if inf := ix.Influence(); inf != 0 {
		t.Fatalf("neutral influence should be 0, got %f", inf)
	}
	ix.Value = 10
	if inf := ix.Influence(); inf != 10 {
		t.Fatalf("extreme influence should be 10, got %f", inf)
	}
	ix.Value = 6
	if inf := ix.Influence(); inf != 2 {
		t.Fatalf("influence at 6 should be 2, got %f", inf)
	}
}

func TestComputeDrives(t *testing.T) {
	d := ComputeDrives(2, 0.5)
	if d.Preserve != 0.5 {
		t.Fatalf("preserve at distance 2 should be 0.5, got %f", d.Preserve)
	}
	if d.Curiosity != 0.5 {
		t.Fatalf("curiosity should equal the prompt norm, got %f", d.Curiosity)
	}
}

func TestComputeDrivesIsolated(t *testing.T) {
	d := ComputeDrives(-1, 0)
	if d.Preserve != 0 {
		t.Fatalf("isolated entity must have zero preservation drive, got %f", d.Preserve)
	}
}

func TestComputeDrivesColocated(t *testing.T) {
	d := ComputeDrives(0, 0)
	if d.Preserve != 1e6 {
		t.Fatalf("co-located neighbor should clamp, got %f", d.Preserve)
	}
}
