// Package essence derives the well-being scalar and baseline drives from
// committed field and cluster state.
package essence

// #region config

// Config holds essence-index parameters.
type Config struct {
	Baseline        float32 `json:"baseline"`         // neutral value, typically 5
	Decay           float32 `json:"decay"`            // pull toward baseline per tick
	ExperienceScale float32 `json:"experience_scale"` // scaling of the signal delta
	Locked          bool    `json:"locked"`           // ablation: hold the index constant
}

// DefaultConfig returns the standard essence parameters.
func DefaultConfig() Config {
	return Config{
		Baseline:        5,
		Decay:           0.001,
		ExperienceScale: 1,
	}
}

// #endregion config

// #region index

// Index tracks one entity's well-being in [0, 10]. 0 is dread, 10 is
// joyous, Baseline is neutral.
type Index struct {
	Value float32
	cfg   Config
}

// NewIndex creates an index at the configured baseline.
func NewIndex(cfg Config) Index {
	return Index{Value: cfg.Baseline, cfg: cfg}
}

// Update applies one tick of decay toward baseline plus the experience
// delta derived from the mean active-cluster signal, then clamps to
// [0, 10]. Locked mode is a no-op, not a separate code path at call sites.
func (ix *Index) Update(signals []float32) {
	if ix.cfg.Locked {
		return
	}

	var mean float32
	if len(signals) > 0 {
		var sum float32
		for _, s := range signals {
			sum += s
		}
		mean = sum / float32(len(signals))
	}
	if mean > 5 {
		mean = 5
	} else if mean < -5 {
		mean = -5
	}

	ix.Value += (ix.cfg.Baseline-ix.Value)*ix.cfg.Decay + mean*ix.cfg.ExperienceScale
	if ix.Value > 10 {
		ix.Value = 10
	} else if ix.Value < 0 {
		ix.Value = 0
	}
}

// Influence returns the decision-modulation factor 2*|E - baseline|:
// 0 at neutral, 10 at either extreme for the standard baseline of 5.
func (ix Index) Influence() float32 {
	return 2 * ix.Extremity()
}

// Extremity returns the distance from baseline.
func (ix Index) Extremity() float32 {
	d := ix.Value - ix.cfg.Baseline
	if d < 0 {
		d = -d
	}
	return d
}

// Locked reports whether the index is held constant.
func (ix Index) Locked() bool { return ix.cfg.Locked }

// #endregion index

// #region drives

// Drives are the per-tick baseline drives. Both are derived values with no
// persisted state.
type Drives struct {
	Preserve  float32 // 1 / nearest-neighbor distance
	Curiosity float32 // magnitude of the attention prompt
}

// ComputeDrives derives the baseline drives from the nearest-neighbor
// distance and the attention-prompt norm. Isolated entities (negative
// nearestDist by convention) yield a zero preservation drive rather than a
// division fault; co-located neighbors clamp to the degenerate-distance
// limit.
func ComputeDrives(nearestDist, promptNorm float32) Drives {
	var preserve float32
	switch {
	case nearestDist < 0:
		preserve = 0
	case nearestDist < 1e-6:
		preserve = 1e6
	default:
		preserve = 1 / nearestDist
	}
	return Drives{Preserve: preserve, Curiosity: promptNorm}
}

// #endregion drives
