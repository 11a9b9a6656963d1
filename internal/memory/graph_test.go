package memory

import (
	"math/rand"
	"testing"
)

func testConfig() Config {
	return Config{EventDim: 3, Tau: 0.7, Alpha: 0.9}
}

func TestRecordCreatesSingletonCluster(t *testing.T) {
	g := NewGraph(testConfig())
	idx, cid, err := g.Record([]float32{1, 0, 0}, 0)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if idx != 0 || cid != 0 {
		t.Fatalf("expected node 0 in cluster 0, got %d/%d", idx, cid)
	}
	if g.Size() != 1 || g.ClusterCount() != 1 {
		t.Fatalf("expected 1 node, 1 cluster, got %d/%d", g.Size(), g.ClusterCount())
	}
	if n := g.Node(0); n.Activation != 1 || n.CreatedAt != 0 || n.Cluster != 0 {
		t.Fatalf("unexpected node state: %+v", n)
	}
}

func TestIdenticalEventJoinsCentroidCluster(t *testing.T) {
	g := NewGraph(testConfig())
	event := []float32{1, 0, 0}
	if _, _, err := g.Record(event, 0); err != nil {
		t.Fatalf("record: %v", err)
	}
	// An event identical to the centroid has similarity 1.0 > any tau < 1.
	_, cid, err := g.Record(event, 1)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if cid != 0 {
		t.Fatalf("identical event should join cluster 0, got %d", cid)
	}
	if g.ClusterCount() != 1 {
		t.Fatalf("expected a single cluster, got %d", g.ClusterCount())
	}
}

func TestDissimilarEventCreatesNewCluster(t *testing.T) {
	g := NewGraph(testConfig())
	g.Record([]float32{1, 0, 0}, 0)
	_, cid, _ := g.Record([]float32{0, 1, 0}, 1) // orthogonal, similarity 0
	if cid != 1 {
		t.Fatalf("orthogonal event should open cluster 1, got %d", cid)
	}
}

func TestDecayShrinksButNeverZeroes(t *testing.T) {
	g := NewGraph(testConfig())
	g.Record([]float32{1, 0, 0}, 0)

	prev := g.Node(0).Activation
	for i := 0; i < 100; i++ {
		g.Decay(0.5)
		a := g.Node(0).Activation
		if a >= prev {
			t.Fatalf("tick %d: activation did not shrink: %g -> %g", i, prev, a)
		}
		if a <= 0 {
			t.Fatalf("tick %d: activation reached %g, must stay positive", i, a)
		}
		prev = a
	}

	// Past float32 underflow the activation pins at the smallest positive
	// value; it still never touches zero.
	for i := 0; i < 5000; i++ {
		g.Decay(0.5)
		if a := g.Node(0).Activation; a <= 0 {
			t.Fatalf("tick %d: activation reached %g after underflow", i, a)
		}
	}
}

func TestDecayAlphaOneIsNoOp(t *testing.T) {
	g := NewGraph(testConfig())
	g.Record([]float32{1, 0, 0}, 0)
	g.Decay(1)
	if a := g.Node(0).Activation; a != 1 {
		t.Fatalf("alpha=1 must not change activation, got %g", a)
	}
}

func TestNoDeletion(t *testing.T) {
	g := NewGraph(testConfig())
	rng := rand.New(rand.NewSource(3))
	last := 0
	for tick := uint64(0); tick < 500; tick++ {
		event := []float32{rng.Float32()*2 - 1, rng.Float32(), rng.Float32()}
		if _, _, err := g.Record(event, tick); err != nil {
			t.Fatalf("record: %v", err)
		}
		g.Decay(0.9)
		g.UpdateSignals()
		if g.Size() < last {
			t.Fatalf("graph shrank: %d -> %d", last, g.Size())
		}
		last = g.Size()
	}
	if g.Size() != 500 {
		t.Fatalf("expected 500 nodes, got %d", g.Size())
	}
}

func TestValenceAssignedAtRecordTime(t *testing.T) {
	g := NewGraph(testConfig())
	cases := []struct {
		event []float32
		want  Valence
	}{
		{[]float32{0.9, 0, 0}, ValencePositive},
		{[]float32{-0.9, 0, 0}, ValenceNegative},
		{[]float32{0.1, 0, 0}, ValenceNeutral},
	}
	for i, c := range cases {
		idx, _, _ := g.Record(c.event, uint64(i))
		if got := g.Node(idx).Valence; got != c.want {
			t.Fatalf("event %v: valence %d, want %d", c.event, got, c.want)
		}
	}
}

func TestUpdateSignalsClamped(t *testing.T) {
	g := NewGraph(testConfig())
	for i := 0; i < 10; i++ {
		g.Record([]float32{0.9, 0.1, 0.1}, uint64(i))
	}
	g.UpdateSignals()
	c := g.Clusters()[0]
	if c.Signal <= 0 || c.Signal > 5 {
		t.Fatalf("positive cluster signal out of range: %f", c.Signal)
	}
}

func TestDormantNodesExcludedFromSignal(t *testing.T) {
	g := NewGraph(testConfig())
	g.Record([]float32{0.9, 0, 0}, 0)
	for i := 0; i < 2000; i++ {
		g.Decay(0.9)
	}
	g.UpdateSignals()
	if sig := g.Clusters()[0].Signal; sig != 0 {
		t.Fatalf("dormant-only cluster should have zero signal, got %f", sig)
	}
}

func TestReactivation(t *testing.T) {
	g := NewGraph(testConfig())
	idx, cid, _ := g.Record([]float32{0.9, 0, 0}, 0)
	for i := 0; i < 2000; i++ {
		g.Decay(0.9)
	}
	dormant := g.Node(idx)
	if dormant.Activation > activeFloor {
		t.Fatalf("node should be dormant, activation %g", dormant.Activation)
	}

	g.Reactivate(cid, 0.5)
	woken := g.Node(idx)
	if woken.Activation <= activeFloor {
		t.Fatalf("reactivation failed, activation %g", woken.Activation)
	}
	if woken.CreatedAt != dormant.CreatedAt {
		t.Fatal("reactivation must not alter the creation timestamp")
	}
}

func TestCompactFoldsDormantDuplicates(t *testing.T) {
	g := NewGraph(testConfig())
	for i := 0; i < 4; i++ {
		g.Record([]float32{0.9, 0.1, 0}, uint64(i))
	}
	for i := 0; i < 2000; i++ {
		g.Decay(0.9)
	}

	folded := g.Compact(0.99)
	if folded != 3 {
		t.Fatalf("expected 3 folds, got %d", folded)
	}
	if g.Size() != 4 {
		t.Fatalf("compaction must not delete nodes, size %d", g.Size())
	}
	merged := 0
	for i := 0; i < g.Size(); i++ {
		if g.Node(i).Merged {
			merged++
		}
	}
	if merged != 3 {
		t.Fatalf("expected 3 merged nodes, got %d", merged)
	}
}

func TestCompactSkipsActiveNodes(t *testing.T) {
	g := NewGraph(testConfig())
	g.Record([]float32{0.9, 0.1, 0}, 0)
	g.Record([]float32{0.9, 0.1, 0}, 1)
	if folded := g.Compact(0.99); folded != 0 {
		t.Fatalf("active nodes must not fold, got %d", folded)
	}
}

func TestRecordDimensionMismatch(t *testing.T) {
	g := NewGraph(testConfig())
	if _, _, err := g.Record([]float32{1, 0}, 0); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestSoftBudget(t *testing.T) {
	cfg := testConfig()
	cfg.SoftBudget = 2
	g := NewGraph(cfg)
	g.Record([]float32{1, 0, 0}, 0)
	g.Record([]float32{1, 0, 0}, 1)
	if g.OverBudget() {
		t.Fatal("at budget is not over budget")
	}
	g.Record([]float32{1, 0, 0}, 2)
	if !g.OverBudget() {
		t.Fatal("expected over budget at 3 nodes")
	}
}

func TestCosineSimilarityDegeneracy(t *testing.T) {
	if s := CosineSimilarity([]float32{0, 0}, []float32{1, 0}); s != 0 {
		t.Fatalf("zero-norm similarity should be 0, got %f", s)
	}
	if s := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); s != 0 {
		t.Fatalf("mismatched lengths should be 0, got %f", s)
	}
	if s := CosineSimilarity([]float32{1, 0}, []float32{1, 0}); s != 1 {
		t.Fatalf("identical vectors should be 1, got %f", s)
	}
}
