package trace

import (
	"math"

	"github.com/essencefield/fieldsim/internal/sim"
)

// #region metrics-type

// Metrics are the per-tick aggregates over all entities.
type Metrics struct {
	Tick              uint64
	AttentionEntropy  float32 // mean activation entropy
	MemoryDiversity   float32 // mean cluster-signal deviation
	VelocityStability float32 // 1 / (1 + cv of speeds)
	IdentityCoherence float32 // 1 / (1 + cv of state norms)
	ClusterStability  float32 // mean cluster count, normalized to ~10
	AffectiveStrength float32 // mean signal magnitude
	AverageEssence    float32
}

// #endregion metrics-type

// #region aggregate

// Aggregate computes the tick metrics from one tick's trace records.
func Aggregate(records []sim.TraceRecord) Metrics {
	var m Metrics
	n := len(records)
	if n == 0 {
		m.AverageEssence = 5
		m.VelocityStability = 1
		return m
	}
	m.Tick = records[0].Tick

	speeds := make([]float32, n)
	norms := make([]float32, n)
	for i, r := range records {
		speeds[i] = r.Speed
		norms[i] = r.StateNorm
		m.AttentionEntropy += r.ActivationEntropy
		m.MemoryDiversity += r.SignalStd
		m.ClusterStability += float32(r.Clusters)
		m.AffectiveStrength += r.SignalMeanAbs
		m.AverageEssence += r.Essence
	}
	fn := float32(n)
	m.AttentionEntropy /= fn
	m.MemoryDiversity /= fn
	m.ClusterStability /= fn * 10
	m.AffectiveStrength /= fn
	m.AverageEssence /= fn

	m.VelocityStability = inverseCV(speeds, 1)
	m.IdentityCoherence = inverseCV(norms, 0)
	return m
}

// inverseCV returns 1/(1 + stddev/mean), or fallback when the mean is
// effectively zero.
func inverseCV(values []float32, fallback float32) float32 {
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	mean := sum / float64(len(values))
	if mean <= 1e-6 {
		return fallback
	}
	var variance float64
	for _, v := range values {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return float32(1 / (1 + math.Sqrt(variance)/mean))
}

// #endregion aggregate
