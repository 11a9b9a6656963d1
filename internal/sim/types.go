package sim

import (
	"math/rand"

	"github.com/essencefield/fieldsim/internal/essence"
	"github.com/essencefield/fieldsim/internal/field"
	"github.com/essencefield/fieldsim/internal/geometry"
	"github.com/essencefield/fieldsim/internal/memory"
	"github.com/essencefield/fieldsim/internal/policy"
)

// #region state-vector

// StateVector is an entity's internal state: long-term memory, current
// context, and persistent traits. Owned exclusively by its entity.
type StateVector struct {
	Memory  []float32
	Context []float32
	Traits  []float32
}

// NewStateVector creates a zero state of the configured dimensions.
func NewStateVector(cfg StateConfig) StateVector {
	return StateVector{
		Memory:  make([]float32, cfg.MemoryDim),
		Context: make([]float32, cfg.ContextDim),
		Traits:  make([]float32, 10),
	}
}

// Update applies the state law
// s(t+dt) = alpha*s(t) + beta*attended + gamma*memInput per element, then
// blends half the refreshed memory into the context vector.
func (s *StateVector) Update(attended, memInput []float32, cfg StateConfig) {
	for i := range s.Memory {
		var att, mem float32
		if i < len(attended) {
			att = cfg.BetaAttention * attended[i]
		}
		if i < len(memInput) {
			mem = cfg.GammaMemory * memInput[i]
		}
		s.Memory[i] = cfg.Alpha*s.Memory[i] + att + mem
	}
	for i := range s.Context {
		if i < len(s.Memory) {
			s.Context[i] = 0.5*s.Context[i] + 0.5*s.Memory[i]
		}
	}
}

// Norm returns the memory-vector norm, used for identity-coherence
// metrics.
func (s StateVector) Norm() float32 {
	return geometry.Norm(s.Memory)
}

// #endregion state-vector

// #region entity

// Entity is one embodied agent. Entities are created at init and never
// destroyed during a run; the orchestrator mutates each exactly once per
// tick.
type Entity struct {
	ID       int
	Pose     geometry.Pose
	Velocity []float32
	State    StateVector
	Memory   *memory.Graph
	Essence  essence.Index
	Drives   essence.Drives
	Response policy.Response

	rng *rand.Rand // private stream; keeps the sensing phase order-free

	// Per-tick scratch, written in the field phase and read in later
	// phases of the same tick.
	sample    field.Sample
	attention []float32
	stimulus  []float32
	nearest   float32 // -1 when isolated
	budgetHit bool    // soft-budget warning already emitted
}

// #endregion entity

// #region trace

// TraceRecord is the per-entity, per-tick record handed to the external
// metrics collaborator.
type TraceRecord struct {
	Tick        uint64
	EntityID    int
	Position    []float32
	Velocity    []float32
	Speed       float32
	Potential   float32
	Essence     float32
	Preserve    float32
	Curiosity   float32
	Outcomes    [3]string  // per behavioral dimension
	Dominant    [3]float32 // dominant signal per dimension
	MemoryNodes int
	Clusters    int

	// Per-entity metric inputs for the external metrics collaborator.
	StateNorm         float32
	ActivationEntropy float32
	SignalStd         float32
	SignalMeanAbs     float32
}

// WarningKind classifies recovered per-tick conditions.
type WarningKind string

const (
	WarnNumericDegeneracy  WarningKind = "numeric_degeneracy"
	WarnResourceExhaustion WarningKind = "resource_exhaustion"
)

// Warning is a non-fatal trace event. The run always continues past one.
type Warning struct {
	Tick     uint64
	EntityID int
	Kind     WarningKind
	Detail   string
}

// StepResult is the output of one committed tick.
type StepResult struct {
	Tick     uint64
	Records  []TraceRecord
	Warnings []Warning
}

// #endregion trace

// #region snapshot

// Snapshot is a read-only view of one entity for external reporting.
type Snapshot struct {
	EntityID    int
	Position    []float32
	Velocity    []float32
	Essence     float32
	Drives      essence.Drives
	MemoryNodes int
	Clusters    int
}

// #endregion snapshot
