// Package sim owns the entities and sequences the per-tick phases of the
// simulation: field evaluation, memory recording, essence and response
// derivation, and perpetual-velocity integration. Each phase runs in
// parallel across entities against the previous phase's committed state; a
// barrier separates phases so phase N+1 never starts before phase N has
// committed for every entity.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sync"

	"github.com/essencefield/fieldsim/internal/essence"
	"github.com/essencefield/fieldsim/internal/field"
	"github.com/essencefield/fieldsim/internal/geometry"
	"github.com/essencefield/fieldsim/internal/memory"
	"github.com/essencefield/fieldsim/internal/policy"
)

// #region sim-struct

// Sim is one simulation instance. All mutation happens inside Step; between
// Steps the state is fully committed and resumable.
type Sim struct {
	cfg      Config
	log      *slog.Logger
	pol      policy.Policy
	entities []*Entity
	grid     *geometry.Grid
	tick     uint64

	workers   int
	positions [][]float32 // per-tick committed snapshot
}

// #endregion sim-struct

// #region constructor

// New validates cfg, seeds the world, and returns a ready simulation.
// logger may be nil; the core then logs through slog.Default.
func New(cfg Config, logger *slog.Logger) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > cfg.Entities {
		workers = cfg.Entities
	}

	s := &Sim{
		cfg:       cfg,
		log:       logger,
		pol:       policy.NewDeterministic(cfg.TieEpsilon),
		grid:      geometry.NewGrid(cfg.Field.Sigma, cfg.Dimension),
		workers:   workers,
		positions: make([][]float32, cfg.Entities),
	}

	// Master stream seeds positions and the per-entity streams in
	// ascending id order, so world creation is reproducible.
	master := rand.New(rand.NewSource(cfg.Seed))
	for id := 0; id < cfg.Entities; id++ {
		pose := geometry.NewPose(cfg.Dimension)
		for d := 0; d < cfg.Dimension; d++ {
			pose.Position[d] = master.Float32() * cfg.Bounds[d]
		}
		pose.Orientation[1] = master.Float32()*2 - 1

		e := &Entity{
			ID:       id,
			Pose:     pose,
			Velocity: make([]float32, cfg.Dimension),
			State:    NewStateVector(cfg.State),
			Memory:   memory.NewGraph(cfg.Memory),
			Essence:  essence.NewIndex(cfg.Essence),
			rng:      rand.New(rand.NewSource(master.Int63())),
			nearest:  -1,
		}
		s.entities = append(s.entities, e)
		s.positions[id] = make([]float32, cfg.Dimension)
	}

	s.log.Info("simulation initialized",
		"name", cfg.Name,
		"entities", cfg.Entities,
		"dimension", cfg.Dimension,
		"kernel", string(cfg.Field.Kernel),
		"seed", cfg.Seed,
	)
	return s, nil
}

// SetPolicy swaps the response policy. The orchestrator is agnostic to the
// implementation; this is how a learned policy is substituted.
func (s *Sim) SetPolicy(p policy.Policy) { s.pol = p }

// #endregion constructor

// #region step

// Step advances the world by exactly one tick and returns the per-entity
// trace records and any recovered warnings. A canceled context returns
// before any mutation, leaving the previous tick fully committed.
func (s *Sim) Step(ctx context.Context) (StepResult, error) {
	if err := ctx.Err(); err != nil {
		return StepResult{}, err
	}

	// Commit a geometry snapshot: every field read this tick sees the
	// previous tick's positions, no feedback within the tick.
	for i, e := range s.entities {
		copy(s.positions[i], e.Pose.Position)
	}
	s.grid.Build(s.positions)

	// Phase 1: field, attention, drives, sensing. Lock-free; reads the
	// snapshot only, writes per-entity scratch.
	s.forEach(func(e *Entity) {
		e.sample = field.Evaluate(e.ID, s.positions, nil, s.cfg.Field)
		e.attention = field.Attention(e.ID, e.sample.Scores, s.cfg.Field.Lambda)

		if idx, dist := s.grid.Nearest(e.ID); idx >= 0 {
			e.nearest = dist
		} else {
			e.nearest = -1
		}
		e.Drives = essence.ComputeDrives(e.nearest, geometry.Norm(e.sample.Prompt))
		e.stimulus = s.sense(e)
	})

	// Phase 2: memory recording and cluster signals. Each entity owns its
	// graph exclusively, so the phase parallelizes without shared mutation.
	var recordErr error
	var recordMu sync.Mutex
	s.forEach(func(e *Entity) {
		if _, _, err := e.Memory.Record(e.stimulus, s.tick); err != nil {
			recordMu.Lock()
			if recordErr == nil {
				recordErr = fmt.Errorf("entity %d: %w", e.ID, err)
			}
			recordMu.Unlock()
			return
		}
		e.Memory.UpdateSignals()
	})
	if recordErr != nil {
		return StepResult{}, recordErr
	}

	// Phase 3: state, essence, response.
	s.forEach(func(e *Entity) {
		e.State.Update(s.attendedInput(e), e.stimulus, s.cfg.State)

		clusters := e.Memory.Clusters()
		signals := make([]float32, len(clusters))
		for i, c := range clusters {
			signals[i] = c.Signal
		}
		e.Essence.Update(signals)
		e.Response = s.pol.Respond(clusters, e.Essence.Influence())
	})

	// Phase 4: integration and memory decay.
	s.forEach(func(e *Entity) {
		accel := geometry.Copy(e.sample.Prompt)
		geometry.Scale(accel, s.cfg.Dynamics.PromptGain)
		integrate(e.Pose.Position, e.Velocity, accel, s.cfg.Dynamics)
		geometry.WrapPeriodic(e.Pose.Position, s.cfg.Bounds, s.cfg.Periodic)
		e.Memory.Decay(s.cfg.Memory.Alpha)
	})

	// Commit: trace emission in ascending entity id, the fixed order that
	// keeps run output deterministic.
	result := StepResult{Tick: s.tick}
	for _, e := range s.entities {
		result.Records = append(result.Records, s.record(e))
		result.Warnings = append(result.Warnings, s.warnings(e)...)
	}
	s.tick++
	return result, nil
}

// Run advances the configured number of ticks, invoking onStep after each
// committed tick. It stops cleanly at a tick boundary when ctx is canceled
// or onStep returns an error; the simulation remains resumable.
func (s *Sim) Run(ctx context.Context, onStep func(StepResult) error) error {
	for i := 0; i < s.cfg.Ticks; i++ {
		res, err := s.Step(ctx)
		if err != nil {
			return err
		}
		if onStep != nil {
			if err := onStep(res); err != nil {
				return err
			}
		}
	}
	return nil
}

// #endregion step

// #region sense

// sense draws the tick's stimulus from the entity's private stream and
// tilts it along the attention-prompt direction, so field state shapes
// what gets remembered.
func (s *Sim) sense(e *Entity) []float32 {
	dim := s.cfg.Memory.EventDim
	stim := make([]float32, dim)
	for d := range stim {
		stim[d] = e.rng.Float32()*0.2 - 0.1
	}
	if n := geometry.Norm(e.sample.Prompt); n > 0 {
		for d := 0; d < dim && d < len(e.sample.Prompt); d++ {
			stim[d] += 0.05 * e.sample.Prompt[d] / n
		}
	}
	return stim
}

// attendedInput is the attention-weighted displacement toward the rest of
// the field, the context signal the state law integrates. Reads the tick's
// position snapshot, so it stays valid across the phase barrier.
func (s *Sim) attendedInput(e *Entity) []float32 {
	out := make([]float32, s.cfg.Dimension)
	self := s.positions[e.ID]
	for j, w := range e.attention {
		if j == e.ID || w == 0 {
			continue
		}
		for d := range out {
			out[d] += w * (s.positions[j][d] - self[d])
		}
	}
	return out
}

// #endregion sense

// #region trace

func (s *Sim) record(e *Entity) TraceRecord {
	rec := TraceRecord{
		Tick:        s.tick,
		EntityID:    e.ID,
		Position:    geometry.Copy(e.Pose.Position),
		Velocity:    geometry.Copy(e.Velocity),
		Speed:       geometry.Norm(e.Velocity),
		Potential:   e.sample.Potential,
		Essence:     e.Essence.Value,
		Preserve:    e.Drives.Preserve,
		Curiosity:   e.Drives.Curiosity,
		Dominant:    e.Response.DominantSignals,
		MemoryNodes: e.Memory.Size(),
		Clusters:    e.Memory.ClusterCount(),

		StateNorm:         e.State.Norm(),
		ActivationEntropy: e.Memory.ActivationEntropy(),
	}
	rec.SignalStd, rec.SignalMeanAbs = e.Memory.SignalStats()
	for d, o := range e.Response.Outcomes {
		rec.Outcomes[d] = o.String()
	}
	return rec
}

func (s *Sim) warnings(e *Entity) []Warning {
	var out []Warning
	if e.sample.Degenerate {
		out = append(out, Warning{
			Tick: s.tick, EntityID: e.ID,
			Kind:   WarnNumericDegeneracy,
			Detail: "co-located pair: kernel clamped, gradient contribution zeroed",
		})
	}
	if e.Memory.OverBudget() && !e.budgetHit {
		e.budgetHit = true
		out = append(out, Warning{
			Tick: s.tick, EntityID: e.ID,
			Kind:   WarnResourceExhaustion,
			Detail: fmt.Sprintf("memory graph at %d nodes, soft budget %d", e.Memory.Size(), s.cfg.Memory.SoftBudget),
		})
	}
	for _, w := range out {
		s.log.Warn("tick event", "kind", string(w.Kind), "entity", w.EntityID, "tick", w.Tick, "detail", w.Detail)
	}
	return out
}

// #endregion trace

// #region query

// Tick returns the number of committed ticks.
func (s *Sim) Tick() uint64 { return s.tick }

// EntityCount returns the configured entity count.
func (s *Sim) EntityCount() int { return len(s.entities) }

// Snapshot returns a read-only copy of one entity's observable state.
func (s *Sim) Snapshot(id int) (Snapshot, error) {
	if id < 0 || id >= len(s.entities) {
		return Snapshot{}, fmt.Errorf("entity %d out of range [0, %d)", id, len(s.entities))
	}
	e := s.entities[id]
	return Snapshot{
		EntityID:    e.ID,
		Position:    geometry.Copy(e.Pose.Position),
		Velocity:    geometry.Copy(e.Velocity),
		Essence:     e.Essence.Value,
		Drives:      e.Drives,
		MemoryNodes: e.Memory.Size(),
		Clusters:    e.Memory.ClusterCount(),
	}, nil
}

// CompactMemory folds near-duplicate dormant memory nodes across all
// entities. Explicit and operator-invoked only; the core never compacts on
// its own, since exhaustion is reported, not silently recovered.
func (s *Sim) CompactMemory(mergeSimilarity float32) int {
	folded := 0
	for _, e := range s.entities {
		folded += e.Memory.Compact(mergeSimilarity)
	}
	if folded > 0 {
		s.log.Info("memory compaction", "folded", folded)
	}
	return folded
}

// #endregion query

// #region workers

// forEach fans fn across the worker pool and waits for every entity: one
// phase, one barrier.
func (s *Sim) forEach(fn func(e *Entity)) {
	if s.workers <= 1 {
		for _, e := range s.entities {
			fn(e)
		}
		return
	}
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for i := start; i < len(s.entities); i += s.workers {
				fn(s.entities[i])
			}
		}(w)
	}
	wg.Wait()
}

// #endregion workers
