package geometry

import (
	"math"
	"math/rand"
	"testing"
)

func TestDistance(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, 4}
	if d := Distance(a, b); d != 5 {
		t.Fatalf("expected 5, got %f", d)
	}
}

func TestWrapPeriodic(t *testing.T) {
	bounds := []float32{10, 10}

	pos := []float32{-1, 12}
	WrapPeriodic(pos, bounds, true)
	if pos[0] != 9 || pos[1] != 2 {
		t.Fatalf("expected [9 2], got %v", pos)
	}

	pos = []float32{-1, 12}
	WrapPeriodic(pos, bounds, false)
	if pos[0] != -1 || pos[1] != 12 {
		t.Fatalf("non-periodic wrap should be a no-op, got %v", pos)
	}
}

func TestGridNearestMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, dim := range []int{2, 3} {
		n := 50
		positions := make([][]float32, n)
		for i := range positions {
			p := make([]float32, dim)
			for d := range p {
				p[d] = rng.Float32() * 20
			}
			positions[i] = p
		}

		g := NewGrid(1.5, dim)
		g.Build(positions)

		for i := 0; i < n; i++ {
			wantIdx, wantDist := -1, float32(math.MaxFloat32)
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				if d := Distance(positions[i], positions[j]); d < wantDist {
					wantDist = d
					wantIdx = j
				}
			}
			gotIdx, gotDist := g.Nearest(i)
			if gotDist != wantDist {
				t.Fatalf("dim %d entity %d: grid dist %f, brute force %f (idx %d vs %d)",
					dim, i, gotDist, wantDist, gotIdx, wantIdx)
			}
		}
	}
}

func TestGridNearestSingle(t *testing.T) {
	g := NewGrid(1, 2)
	g.Build([][]float32{{5, 5}})
	if idx, _ := g.Nearest(0); idx != -1 {
		t.Fatalf("single point should have no neighbor, got %d", idx)
	}
}

func TestGridNearestColocated(t *testing.T) {
	g := NewGrid(1, 2)
	g.Build([][]float32{{1, 1}, {1, 1}})
	idx, dist := g.Nearest(0)
	if idx != 1 || dist != 0 {
		t.Fatalf("expected co-located neighbor at distance 0, got idx=%d dist=%f", idx, dist)
	}
}
