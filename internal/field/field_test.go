package field

import (
	"math"
	"testing"
)

func gaussianCfg(sigma, lambda float32) Config {
	return Config{Kernel: KernelGaussian, Sigma: sigma, Lambda: lambda}
}

func TestSingleEntityZeroField(t *testing.T) {
	s := Evaluate(0, [][]float32{{1, 2}}, nil, gaussianCfg(1, 0.5))
	if s.Potential != 0 {
		t.Fatalf("expected zero potential, got %f", s.Potential)
	}
	for d, g := range s.Prompt {
		if g != 0 {
			t.Fatalf("expected zero prompt, got %f at dim %d", g, d)
		}
	}
}

func TestGradientMatchesFiniteDifference(t *testing.T) {
	positions := [][]float32{
		{0.3, 1.1, 2.0},
		{1.7, 0.2, 0.9},
		{2.5, 2.5, 1.1},
	}
	for _, kernel := range []Kernel{KernelGaussian, KernelInverseDistance} {
		cfg := Config{Kernel: kernel, Sigma: 2, Lambda: 1}
		s := Evaluate(0, positions, nil, cfg)

		const h = 1e-2
		for d := range positions[0] {
			bump := func(delta float32) float32 {
				shifted := make([][]float32, len(positions))
				for i, p := range positions {
					shifted[i] = append([]float32(nil), p...)
				}
				shifted[0][d] += delta
				return Evaluate(0, shifted, nil, cfg).Potential
			}
			fd := -(bump(h) - bump(-h)) / (2 * h)
			if diff := math.Abs(float64(fd - s.Prompt[d])); diff > 2e-3 {
				t.Fatalf("%s dim %d: analytic %f, finite difference %f", kernel, d, s.Prompt[d], fd)
			}
		}
	}
}

func TestColocatedPairNoNaN(t *testing.T) {
	positions := [][]float32{{1, 1}, {1, 1}}
	for _, kernel := range []Kernel{KernelGaussian, KernelInverseDistance} {
		s := Evaluate(0, positions, nil, Config{Kernel: kernel, Sigma: 1, Lambda: 1})
		if !s.Degenerate {
			t.Fatalf("%s: co-located pair should flag degeneracy", kernel)
		}
		if math.IsNaN(float64(s.Potential)) || math.IsInf(float64(s.Potential), 0) {
			t.Fatalf("%s: potential is %f", kernel, s.Potential)
		}
		for d, g := range s.Prompt {
			if math.IsNaN(float64(g)) || math.IsInf(float64(g), 0) {
				t.Fatalf("%s: prompt dim %d is %f", kernel, d, g)
			}
			if g != 0 {
				t.Fatalf("%s: co-located gradient contribution should be zero, got %f", kernel, g)
			}
		}
	}
}

func TestAttentionSymmetricPair(t *testing.T) {
	// Two entities at distance 1.0, Gaussian sigma=2, lambda=1.5, unit
	// weights: each entity's distribution over its single neighbor must
	// mirror the other's.
	positions := [][]float32{{0, 0}, {1, 0}}
	cfg := gaussianCfg(2, 1.5)

	s0 := Evaluate(0, positions, nil, cfg)
	s1 := Evaluate(1, positions, nil, cfg)
	pi0 := Attention(0, s0.Scores, cfg.Lambda)
	pi1 := Attention(1, s1.Scores, cfg.Lambda)

	if pi0[1] != pi1[0] {
		t.Fatalf("attention not symmetric: %f vs %f", pi0[1], pi1[0])
	}
	if pi0[1] != 1 {
		t.Fatalf("single neighbor should take all attention, got %f", pi0[1])
	}
	if pi0[0] != 0 || pi1[1] != 0 {
		t.Fatal("self-attention slot must stay zero")
	}
}

func TestAttentionDistribution(t *testing.T) {
	scores := []float32{0, 0.8, 0.2, 0.5}
	pi := Attention(0, scores, 1.5)

	var sum float64
	for j := 1; j < len(pi); j++ {
		sum += float64(pi[j])
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Fatalf("distribution should sum to 1, got %f", sum)
	}
	if !(pi[1] > pi[3] && pi[3] > pi[2]) {
		t.Fatalf("higher score must earn more attention: %v", pi)
	}
}

func TestAttentionSingleEntity(t *testing.T) {
	pi := Attention(0, []float32{0}, 1)
	if len(pi) != 1 || pi[0] != 0 {
		t.Fatalf("expected zero distribution, got %v", pi)
	}
}

func TestKernelValues(t *testing.T) {
	if k := KernelGaussian.Eval(0, 1); k != 1 {
		t.Fatalf("gaussian at zero distance should be 1, got %f", k)
	}
	k1 := KernelGaussian.Eval(1, 2)
	want := float32(math.Exp(-1.0 / 8.0))
	if math.Abs(float64(k1-want)) > 1e-6 {
		t.Fatalf("gaussian(1, 2) = %f, want %f", k1, want)
	}
	if k := KernelInverseDistance.Eval(1, 0); math.Abs(float64(k)-1) > 1e-5 {
		t.Fatalf("inverse distance at 1 should be ~1, got %f", k)
	}
}
