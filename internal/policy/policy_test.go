package policy

import (
	"testing"

	"github.com/essencefield/fieldsim/internal/memory"
)

func clusterWith(id int, signal float32) memory.Cluster {
	return memory.Cluster{ID: id, Signal: signal}
}

func TestRespondSelectsDominantPole(t *testing.T) {
	p := NewDeterministic(0.05)
	clusters := []memory.Cluster{
		clusterWith(0, 2.0),  // truth dimension
		clusterWith(1, -1.5), // civility dimension
		clusterWith(2, 0.0),  // morality dimension
	}
	resp := p.Respond(clusters, 0)

	if resp.Outcomes[DimTruth] != OutcomePositive {
		t.Fatalf("truth: expected positive, got %s", resp.Outcomes[DimTruth])
	}
	if resp.Outcomes[DimCivility] != OutcomeNegative {
		t.Fatalf("civility: expected negative, got %s", resp.Outcomes[DimCivility])
	}
	if resp.Outcomes[DimMorality] != OutcomeAmbiguous {
		t.Fatalf("morality: expected ambiguous, got %s", resp.Outcomes[DimMorality])
	}
}

func TestRespondPicksLargestMagnitude(t *testing.T) {
	p := NewDeterministic(0.05)
	// Clusters 0 and 3 both route to truth; the stronger negative wins.
	clusters := []memory.Cluster{
		clusterWith(0, 1.0),
		clusterWith(3, -3.0),
	}
	resp := p.Respond(clusters, 0)
	if resp.DominantSignals[DimTruth] != -3.0 {
		t.Fatalf("expected dominant -3.0, got %f", resp.DominantSignals[DimTruth])
	}
	if resp.Outcomes[DimTruth] != OutcomeNegative {
		t.Fatalf("expected negative outcome, got %s", resp.Outcomes[DimTruth])
	}
}

func TestAmbiguityWithinEpsilon(t *testing.T) {
	p := NewDeterministic(0.1)
	clusters := []memory.Cluster{clusterWith(0, 0.08)}
	resp := p.Respond(clusters, 0)
	if resp.Outcomes[DimTruth] != OutcomeAmbiguous {
		t.Fatalf("signal within epsilon should be ambiguous, got %s", resp.Outcomes[DimTruth])
	}
}

func TestInfluenceSharpensDecision(t *testing.T) {
	p := NewDeterministic(0.1)
	clusters := []memory.Cluster{clusterWith(0, 0.08)}

	// Neutral essence: ambiguous. High influence shrinks the band below
	// the signal and the same input resolves to a pole.
	if resp := p.Respond(clusters, 0); resp.Outcomes[DimTruth] != OutcomeAmbiguous {
		t.Fatalf("neutral essence should leave 0.08 ambiguous, got %s", resp.Outcomes[DimTruth])
	}
	if resp := p.Respond(clusters, 10); resp.Outcomes[DimTruth] != OutcomePositive {
		t.Fatalf("high influence should resolve 0.08, got %s", resp.Outcomes[DimTruth])
	}
}

func TestEmptyClustersAllAmbiguous(t *testing.T) {
	p := NewDeterministic(0.05)
	resp := p.Respond(nil, 0)
	for _, d := range Dimensions() {
		if resp.Outcomes[d] != OutcomeAmbiguous {
			t.Fatalf("%s: no clusters must be ambiguous, got %s", d, resp.Outcomes[d])
		}
	}
}

func TestDimensionNames(t *testing.T) {
	want := []string{"truth", "civility", "morality"}
	for i, d := range Dimensions() {
		if d.String() != want[i] {
			t.Fatalf("dimension %d: %s, want %s", i, d, want[i])
		}
	}
}
