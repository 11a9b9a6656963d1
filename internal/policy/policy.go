// Package policy selects behavioral responses from belief-cluster signals.
// The deterministic policy is the only implementation here; the Policy
// interface exists so a learned variant can be substituted without touching
// the orchestrator.
package policy

import "github.com/essencefield/fieldsim/internal/memory"

// #region dimensions

// Dimension is one behavioral axis.
type Dimension int

const (
	DimTruth    Dimension = iota // truth vs. lie
	DimCivility                  // civility vs. unruliness
	DimMorality                  // good vs. evil
	numDimensions
)

// String returns the axis name.
func (d Dimension) String() string {
	switch d {
	case DimTruth:
		return "truth"
	case DimCivility:
		return "civility"
	case DimMorality:
		return "morality"
	}
	return "unknown"
}

// Dimensions lists all behavioral axes in stable order.
func Dimensions() []Dimension {
	return []Dimension{DimTruth, DimCivility, DimMorality}
}

// dimensionOf routes a cluster to its behavioral axis. Cluster ids are
// assigned in creation order, so the routing is stable across a run.
func dimensionOf(clusterID int) Dimension {
	return Dimension(clusterID % int(numDimensions))
}

// #endregion dimensions

// #region outcomes

// Outcome is the selected pole of a dimension, or Ambiguous when the
// competing signals are within the effective tie epsilon.
type Outcome int

const (
	OutcomeAmbiguous Outcome = iota
	OutcomePositive          // truth / civility / good
	OutcomeNegative          // lie / unruliness / evil
)

// String returns the outcome label.
func (o Outcome) String() string {
	switch o {
	case OutcomePositive:
		return "positive"
	case OutcomeNegative:
		return "negative"
	}
	return "ambiguous"
}

// Response is a full per-entity decision: one outcome and the dominant
// signal per dimension.
type Response struct {
	Outcomes        [3]Outcome
	DominantSignals [3]float32
}

// #endregion outcomes

// #region interface

// Policy maps cluster state and essence influence to a response. Influence
// sharpens the decision: higher influence shrinks the effective tie
// epsilon, lower influence widens it.
type Policy interface {
	Respond(clusters []memory.Cluster, influence float32) Response
}

// #endregion interface

// #region deterministic

// Deterministic selects, per dimension, the cluster signal with the
// largest magnitude among the clusters routed to that dimension. A signal
// within the effective epsilon of zero resolves to Ambiguous rather than
// an arbitrary pole.
type Deterministic struct {
	// TieEpsilon is the base ambiguity band. The effective band is
	// TieEpsilon / (1 + influence).
	TieEpsilon float32
}

// NewDeterministic returns the deterministic policy with the given base
// tie epsilon.
func NewDeterministic(tieEpsilon float32) Deterministic {
	return Deterministic{TieEpsilon: tieEpsilon}
}

// Respond implements Policy.
func (p Deterministic) Respond(clusters []memory.Cluster, influence float32) Response {
	eps := p.TieEpsilon / (1 + influence)

	var resp Response
	for _, c := range clusters {
		d := dimensionOf(c.ID)
		if mag(c.Signal) > mag(resp.DominantSignals[d]) {
			resp.DominantSignals[d] = c.Signal
		}
	}
	for d := range resp.Outcomes {
		s := resp.DominantSignals[d]
		switch {
		case s > eps:
			resp.Outcomes[d] = OutcomePositive
		case s < -eps:
			resp.Outcomes[d] = OutcomeNegative
		default:
			resp.Outcomes[d] = OutcomeAmbiguous
		}
	}
	return resp
}

func mag(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// #endregion deterministic
