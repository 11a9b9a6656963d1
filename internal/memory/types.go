// Package memory implements the append-only memory graph and belief-cluster
// index. Nodes are never deleted: forgetting is a decayed activation value,
// not removal, so node indices are stable for the lifetime of a run.
package memory

// #region node

// Valence is the fixed affective sign of a node, assigned at recording time.
type Valence int8

const (
	ValenceNegative Valence = -1
	ValenceNeutral  Valence = 0
	ValencePositive Valence = 1
)

// Node is one recorded experience. Activation decays geometrically each tick
// and can be raised again by similar later events; CreatedAt and Event never
// change after recording.
type Node struct {
	Event      []float32
	Activation float32
	CreatedAt  uint64 // tick index
	Cluster    int    // primary cluster id, -1 while unassigned
	Valence    Valence
	Merged     bool // folded into an earlier near-duplicate by Compact
}

// Edge is a directed association between two nodes.
type Edge struct {
	Src, Dst int
}

// #endregion node

// #region cluster

// Cluster groups semantically similar nodes and carries their aggregate
// affective signal. The centroid is maintained incrementally as members
// join, so assignment scans O(clusters) centroids rather than O(nodes).
type Cluster struct {
	ID       int
	Members  []int
	Centroid []float32
	Weight   float32 // cumulative membership weight
	Signal   float32 // affective signal, clamped to [-5, +5]
}

// #endregion cluster

// #region config

// Config holds the memory-graph parameters. Validation happens once at
// simulation init; the graph assumes a valid config afterwards.
type Config struct {
	EventDim int     `json:"event_dim"`
	Tau      float32 `json:"tau"`         // cluster similarity threshold, [0, 1]
	Alpha    float32 `json:"decay_alpha"` // activation decay per tick, (0, 1]

	// ReactivationBoost raises existing members' activation when a similar
	// event joins their cluster. Zero disables reactivation on record;
	// Reactivate remains available either way.
	ReactivationBoost float32 `json:"reactivation_boost"`

	// SoftBudget is the node count past which the graph reports exhaustion.
	// It never triggers deletion. Zero means unbudgeted.
	SoftBudget int `json:"soft_budget"`
}

// activeFloor is the activation below which a node is dormant: it no longer
// contributes to cluster signals but stays addressable.
const activeFloor = 0.01

// #endregion config
