package onemax

import (
	"context"
	"testing"

	"github.com/GoSim-25-26J-441/evolution-core/internal/evolution"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
)

func TestNewRejectsZeroWidth(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("Expected error for zero width")
	}
}

func TestOperators(t *testing.T) {
	ops, err := New(64)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	w := evolution.NewWorker(0, 7)

	a := evolution.Individual[Bits]{Value: ops.Create(w)}
	if len(a.Value) != 64 {
		t.Fatalf("Expected 64 bits, got %d", len(a.Value))
	}
	a.Fitness = ops.Evaluate(&a, w)
	if a.Fitness != int64(a.Value.Count()) {
		t.Errorf("Expected fitness %d, got %d", a.Value.Count(), a.Fitness)
	}

	clone := evolution.Individual[Bits]{Value: make(Bits, 0, 64)}
	clone.Value = ops.Clone(clone.Value, a.Value, w)
	if clone.Value.String() != a.Value.String() {
		t.Fatalf("Clone differs: %s vs %s", clone.Value, a.Value)
	}
	clone.Value[0] = !clone.Value[0]
	if clone.Value[0] == a.Value[0] {
		t.Error("Clone shares storage with its source")
	}

	m := evolution.Individual[Bits]{Value: ops.Clone(nil, a.Value, w)}
	ops.Mutate(&m, w)
	diff := 0
	for i := range m.Value {
		if m.Value[i] != a.Value[i] {
			diff++
		}
	}
	if diff != 1 {
		t.Errorf("Expected mutate to flip 1 bit, flipped %d", diff)
	}
}

func TestRecombineTakesBitsFromParents(t *testing.T) {
	ops, _ := New(32)
	w := evolution.NewWorker(1, 11)
	zeros := evolution.Individual[Bits]{Value: make(Bits, 32)}
	ones := evolution.Individual[Bits]{Value: make(Bits, 32)}
	for i := range ones.Value {
		ones.Value[i] = true
	}

	child := evolution.Individual[Bits]{}
	ops.Recombine(&zeros, &ones, &child, w)
	if len(child.Value) != 32 {
		t.Fatalf("Expected child width 32, got %d", len(child.Value))
	}
	n := child.Value.Count()
	if n == 0 || n == 32 {
		t.Errorf("Expected a mix of both parents, got %d set bits", n)
	}
}

func TestEvolveFindsAllOnes(t *testing.T) {
	ops, _ := New(32)
	cfg, err := evolution.NewConfigBuilder().
		PopulationSize(40).
		GenerationLimit(300).
		MutationProbability(0.3).
		DeathPercentage(0.5).
		Workers(2).
		Seed(5).
		Flags(evolution.FlagRecombination | evolution.FlagMutation | evolution.FlagKeepLastGeneration | evolution.FlagSortMax).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	best, _, err := evolution.Evolve[Bits](context.Background(), cfg, ops, evolution.WithLogger(logger.Discard()))
	if err != nil {
		t.Fatalf("Evolve failed: %v", err)
	}
	if best.Fitness < 30 {
		t.Errorf("Expected best fitness >= 30, got %d (%s)", best.Fitness, best.Value)
	}
}
