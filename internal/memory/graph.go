package memory

import (
	"fmt"
	"math"
)

// #region graph

// Graph owns all memory nodes and belief clusters of one entity. It is not
// safe for concurrent use; the orchestrator gives each entity exclusive
// ownership of its graph during the recording phase.
type Graph struct {
	cfg      Config
	nodes    []Node
	edges    []Edge
	clusters []Cluster // index == cluster id, ascending creation order
}

// NewGraph creates an empty graph for the given config.
func NewGraph(cfg Config) *Graph {
	return &Graph{cfg: cfg}
}

// Size returns the total node count, including dormant and merged nodes.
func (g *Graph) Size() int { return len(g.nodes) }

// ClusterCount returns the number of belief clusters created so far.
func (g *Graph) ClusterCount() int { return len(g.clusters) }

// Node returns the node at idx.
func (g *Graph) Node(idx int) Node { return g.nodes[idx] }

// Clusters returns the cluster table in ascending id order. The returned
// slice aliases internal state; callers must not mutate it.
func (g *Graph) Clusters() []Cluster { return g.clusters }

// OverBudget reports whether the node count has passed the soft budget.
func (g *Graph) OverBudget() bool {
	return g.cfg.SoftBudget > 0 && len(g.nodes) > g.cfg.SoftBudget
}

// #endregion graph

// #region record

// Record appends a node for event at the given tick, assigns it to the
// best-matching cluster (creating a singleton cluster when no similarity
// exceeds tau), and returns the node index and cluster id.
//
// Assignment compares the event against O(clusters) centroids. When the
// winning centroid similarity is within the disambiguation band around tau,
// the exact mean-over-members similarity is recomputed for that cluster
// before deciding.
func (g *Graph) Record(event []float32, tick uint64) (nodeIdx, clusterID int, err error) {
	if len(event) != g.cfg.EventDim {
		return 0, 0, fmt.Errorf("event dimension %d, graph expects %d", len(event), g.cfg.EventDim)
	}

	node := Node{
		Event:      append([]float32(nil), event...),
		Activation: 1,
		CreatedAt:  tick,
		Cluster:    -1,
		Valence:    valenceOf(event),
	}
	nodeIdx = len(g.nodes)
	g.nodes = append(g.nodes, node)

	clusterID = g.assign(nodeIdx)
	return nodeIdx, clusterID, nil
}

// disambiguationBand is the centroid-similarity margin around tau inside
// which assignment falls back to the exact per-member mean.
const disambiguationBand = 0.05

func (g *Graph) assign(nodeIdx int) int {
	event := g.nodes[nodeIdx].Event

	best := -1
	bestSim := g.cfg.Tau
	for i := range g.clusters {
		sim := CosineSimilarity(event, g.clusters[i].Centroid)
		if sim > bestSim {
			bestSim = sim
			best = i
		}
	}

	if best >= 0 && bestSim < g.cfg.Tau+disambiguationBand {
		// Centroid score is marginal; confirm against the members.
		if g.memberMeanSimilarity(best, event) <= g.cfg.Tau {
			best = -1
		}
	}

	if best < 0 {
		best = len(g.clusters)
		g.clusters = append(g.clusters, Cluster{
			ID:       best,
			Centroid: make([]float32, g.cfg.EventDim),
		})
	}

	c := &g.clusters[best]
	// Incremental centroid: weighted running mean over member events.
	for d := range c.Centroid {
		c.Centroid[d] = (c.Centroid[d]*c.Weight + event[d]) / (c.Weight + 1)
	}
	// Temporal association with the cluster's most recent member.
	if n := len(c.Members); n > 0 {
		g.edges = append(g.edges, Edge{Src: c.Members[n-1], Dst: nodeIdx})
		if g.cfg.ReactivationBoost > 0 {
			g.reactivateMembers(best, g.cfg.ReactivationBoost)
		}
	}
	c.Members = append(c.Members, nodeIdx)
	c.Weight++
	g.nodes[nodeIdx].Cluster = best
	return best
}

func (g *Graph) memberMeanSimilarity(clusterID int, event []float32) float32 {
	c := g.clusters[clusterID]
	if len(c.Members) == 0 {
		return 0
	}
	var total float32
	for _, idx := range c.Members {
		total += CosineSimilarity(event, g.nodes[idx].Event)
	}
	return total / float32(len(c.Members))
}

func valenceOf(event []float32) Valence {
	if len(event) == 0 {
		return ValenceNeutral
	}
	switch {
	case event[0] > 0.5:
		return ValencePositive
	case event[0] < -0.5:
		return ValenceNegative
	default:
		return ValenceNeutral
	}
}

// #endregion record

// #region decay

// minActivation is the smallest positive float32. Decay pins underflowed
// activations here so a node is dormant, never exactly zero.
const minActivation = math.SmallestNonzeroFloat32

// Decay multiplies every node's activation by alpha. Activations stay
// strictly positive for alpha > 0 even when the multiply underflows;
// alpha == 1 is the no-decay ablation.
func (g *Graph) Decay(alpha float32) {
	if alpha == 1 {
		return
	}
	for i := range g.nodes {
		a := g.nodes[i].Activation * alpha
		if a == 0 && alpha > 0 && g.nodes[i].Activation > 0 {
			a = minActivation
		}
		g.nodes[i].Activation = a
	}
}

// Reactivate raises the activation of every member of a cluster by amount,
// capped at 1. Dormant nodes return to signal-bearing without changing
// identity or creation timestamp.
func (g *Graph) Reactivate(clusterID int, amount float32) {
	g.reactivateMembers(clusterID, amount)
}

func (g *Graph) reactivateMembers(clusterID int, amount float32) {
	for _, idx := range g.clusters[clusterID].Members {
		a := g.nodes[idx].Activation + amount
		if a > 1 {
			a = 1
		}
		g.nodes[idx].Activation = a
	}
}

// #endregion decay

// #region signals

// UpdateSignals recomputes every cluster's affective signal from its
// active, unmerged members: the activation-weighted valence mean, clamped
// to [-5, +5]. Clusters with no active members hold a zero signal.
func (g *Graph) UpdateSignals() {
	for i := range g.clusters {
		c := &g.clusters[i]
		var sum float32
		active := 0
		for _, idx := range c.Members {
			n := g.nodes[idx]
			if n.Merged || n.Activation <= activeFloor {
				continue
			}
			sum += n.Activation * float32(n.Valence)
			active++
		}
		if active == 0 {
			c.Signal = 0
			continue
		}
		sig := sum / float32(active)
		if sig > 5 {
			sig = 5
		} else if sig < -5 {
			sig = -5
		}
		c.Signal = sig
	}
}

// #endregion signals

// #region compact

// Compact folds near-duplicate dormant nodes into their earliest
// representative within each cluster. Folded nodes stay in the arena with
// their identity intact; they are only excluded from signal computation.
// This is the explicit, opt-in answer to unbounded growth; it is never run
// automatically. Returns the number of nodes folded.
func (g *Graph) Compact(mergeSimilarity float32) int {
	folded := 0
	for ci := range g.clusters {
		members := g.clusters[ci].Members
		for i := 0; i < len(members); i++ {
			keeper := &g.nodes[members[i]]
			if keeper.Merged || keeper.Activation > activeFloor {
				continue
			}
			for j := i + 1; j < len(members); j++ {
				cand := &g.nodes[members[j]]
				if cand.Merged || cand.Activation > activeFloor {
					continue
				}
				if CosineSimilarity(keeper.Event, cand.Event) < mergeSimilarity {
					continue
				}
				keeper.Activation += cand.Activation
				cand.Merged = true
				folded++
			}
		}
	}
	return folded
}

// #endregion compact

// #region stats

// ActivationEntropy returns the Shannon entropy of the normalized
// activation distribution over all nodes. Empty or fully-dormant graphs
// yield 0.
func (g *Graph) ActivationEntropy() float32 {
	var sum float64
	for i := range g.nodes {
		sum += float64(g.nodes[i].Activation)
	}
	if sum <= 1e-6 {
		return 0
	}
	var entropy float64
	for i := range g.nodes {
		p := float64(g.nodes[i].Activation) / sum
		if p > 1e-6 {
			entropy -= p * math.Log(p)
		}
	}
	return float32(entropy)
}

// SignalStats returns the standard deviation and mean magnitude of the
// cluster affective signals. Fewer than two clusters yield a zero
// deviation.
func (g *Graph) SignalStats() (std, meanAbs float32) {
	n := len(g.clusters)
	if n == 0 {
		return 0, 0
	}
	var sum, sumAbs float64
	for i := range g.clusters {
		s := float64(g.clusters[i].Signal)
		sum += s
		sumAbs += math.Abs(s)
	}
	mean := sum / float64(n)
	meanAbs = float32(sumAbs / float64(n))
	if n < 2 {
		return 0, meanAbs
	}
	var variance float64
	for i := range g.clusters {
		d := float64(g.clusters[i].Signal) - mean
		variance += d * d
	}
	return float32(math.Sqrt(variance / float64(n))), meanAbs
}

// #endregion stats

// #region similarity

// CosineSimilarity returns the cosine of the angle between two vectors.
// Zero-norm or mismatched inputs yield 0 (defined degeneracy, not an error).
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return float32(dot / denom)
}

// #endregion similarity
