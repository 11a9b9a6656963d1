// Package field computes attraction potentials, attention prompts, and
// neighbor-attention distributions over committed entity positions. All
// functions are pure: they read position snapshots and allocate their own
// outputs, so the per-entity field phase runs lock-free.
package field

import (
	"math"

	"github.com/essencefield/fieldsim/internal/geometry"
)

// #region kernels

// Kernel selects the pairwise attraction kernel.
type Kernel string

const (
	KernelGaussian        Kernel = "gaussian"
	KernelInverseDistance Kernel = "inverse_distance"
)

// invDistEpsilon keeps the inverse-distance kernel finite at zero range.
const invDistEpsilon = 1e-6

// degenerateDistance is the range below which a pair is treated as
// co-located: the kernel saturates at its zero-distance limit and the
// gradient contribution is the zero vector (the direction is undefined).
const degenerateDistance = 1e-6

// Eval returns the kernel value at the given distance.
func (k Kernel) Eval(distance, sigma float32) float32 {
	switch k {
	case KernelInverseDistance:
		return 1 / (distance + invDistEpsilon)
	default:
		s2 := float64(sigma) * float64(sigma)
		return float32(math.Exp(-float64(distance) * float64(distance) / (2 * s2)))
	}
}

// deriv returns dK/dd, the kernel derivative with respect to distance.
func (k Kernel) deriv(distance, sigma float32) float32 {
	switch k {
	case KernelInverseDistance:
		d := float64(distance) + invDistEpsilon
		return float32(-1 / (d * d))
	default:
		s2 := float64(sigma) * float64(sigma)
		kv := math.Exp(-float64(distance) * float64(distance) / (2 * s2))
		return float32(-float64(distance) / s2 * kv)
	}
}

// Valid reports whether k names a known kernel.
func (k Kernel) Valid() bool {
	return k == KernelGaussian || k == KernelInverseDistance
}

// #endregion kernels

// #region config

// Config holds the attraction-field parameters.
type Config struct {
	Kernel Kernel  `json:"kernel"`
	Sigma  float32 `json:"sigma"`  // kernel bandwidth
	Lambda float32 `json:"lambda"` // attention softmax selectivity
}

// #endregion config

// #region evaluation

// Sample is the per-entity field snapshot for one tick: the potential, its
// negative gradient (the attention prompt), the raw pairwise attraction
// scores, and whether any co-located pair was clamped.
type Sample struct {
	Potential  float32
	Prompt     []float32
	Scores     []float32 // attraction score per other entity, self entry zero
	Degenerate bool
}

// Evaluate computes the field sample for entity self against all committed
// positions. weights[j] scales the contribution of entity j; nil means unit
// weights. A single-entity world yields a zero sample.
func Evaluate(self int, positions [][]float32, weights []float32, cfg Config) Sample {
	dim := len(positions[self])
	out := Sample{
		Prompt: make([]float32, dim),
		Scores: make([]float32, len(positions)),
	}
	origin := positions[self]

	for j, other := range positions {
		if j == self {
			continue
		}
		w := float32(1)
		if weights != nil {
			w = weights[j]
		}
		d := geometry.Distance(origin, other)
		kv := cfg.Kernel.Eval(d, cfg.Sigma)
		out.Potential += w * kv
		out.Scores[j] = w * kv

		if d < degenerateDistance {
			// Co-located pair: gradient direction undefined, contribution
			// is the zero-vector limit.
			out.Degenerate = true
			continue
		}
		// Closed-form gradient: dPhi/dx_self = w * K'(d) * (x_self-x_j)/d.
		// The prompt is the negative gradient.
		g := w * cfg.Kernel.deriv(d, cfg.Sigma) / d
		for dd := 0; dd < dim; dd++ {
			out.Prompt[dd] -= g * (origin[dd] - other[dd])
		}
	}
	return out
}

// #endregion evaluation

// #region attention

// Attention converts attraction scores into a neighbor-attention
// distribution via softmax with selectivity lambda. The self entry must be
// zero and is excluded; its output slot stays zero. Empty or
// single-entity inputs yield a zero distribution.
func Attention(self int, scores []float32, lambda float32) []float32 {
	out := make([]float32, len(scores))
	if len(scores) < 2 {
		return out
	}

	maxScore := float32(math.Inf(-1))
	for j, s := range scores {
		if j == self {
			continue
		}
		if s > maxScore {
			maxScore = s
		}
	}

	var sum float64
	for j, s := range scores {
		if j == self {
			continue
		}
		e := math.Exp(float64(lambda) * float64(s-maxScore))
		out[j] = float32(e)
		sum += e
	}
	if sum <= 0 {
		for j := range out {
			out[j] = 0
		}
		return out
	}
	for j := range out {
		if j == self {
			continue
		}
		out[j] = float32(float64(out[j]) / sum)
	}
	return out
}

// #endregion attention
