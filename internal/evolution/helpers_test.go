package evolution

import (
	"math/bits"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
	"github.com/stretchr/testify/require"
)

// bitOps evolves bit strings of width bits stored in a uint64. Fitness is
// the number of set bits.
type bitOps struct {
	width uint

	creates    atomic.Int64
	destroys   atomic.Int64
	mutates    atomic.Int64
	recombines atomic.Int64
	sameParent atomic.Int64

	mu      sync.Mutex
	allowed map[*Individual[uint64]]bool
	foreign int
}

func newBitOps(width uint) *bitOps {
	return &bitOps{width: width}
}

func (o *bitOps) mask() uint64 {
	if o.width >= 64 {
		return ^uint64(0)
	}
	return 1<<o.width - 1
}

func (o *bitOps) Create(w *Worker) uint64 {
	o.creates.Add(1)
	return w.Rand().Uint64() & o.mask()
}

func (o *bitOps) Clone(dst, src uint64, w *Worker) uint64 {
	return src
}

func (o *bitOps) Destroy(v uint64, w *Worker) {
	o.destroys.Add(1)
}

func (o *bitOps) Mutate(iv *Individual[uint64], w *Worker) {
	o.mutates.Add(1)
	iv.Value ^= 1 << uint(w.Rand().Intn(int(o.width)))
}

func (o *bitOps) Evaluate(iv *Individual[uint64], w *Worker) int64 {
	return int64(bits.OnesCount64(iv.Value))
}

func (o *bitOps) Recombine(a, b, dst *Individual[uint64], w *Worker) {
	o.recombines.Add(1)
	if a == b {
		o.sameParent.Add(1)
	}
	o.mu.Lock()
	if o.allowed != nil && (!o.allowed[a] || !o.allowed[b]) {
		o.foreign++
	}
	o.mu.Unlock()
	mask := w.Rand().Uint64()
	dst.Value = (a.Value&mask | b.Value&^mask) & o.mask()
}

// allowParents records the individuals recombination may draw from.
func (o *bitOps) allowParents(parents []*Individual[uint64]) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.allowed = make(map[*Individual[uint64]]bool, len(parents))
	for _, p := range parents {
		o.allowed[p] = true
	}
}

type builderFn func(b *ConfigBuilder) *ConfigBuilder

func buildConfig(t testing.TB, fn builderFn) Config {
	t.Helper()
	b := NewConfigBuilder().
		PopulationSize(20).
		GenerationLimit(10).
		MutationProbability(0.2).
		DeathPercentage(0.5).
		Seed(42)
	cfg, err := fn(b).Build()
	require.NoError(t, err)
	return cfg
}

func newTestEngine(t testing.TB, cfg Config, ops Operators[uint64], opts ...Option) *Engine[uint64] {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Discard())}, opts...)
	e, err := New(cfg, ops, opts...)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func fitnesses[T any](pop []*Individual[T]) []int64 {
	out := make([]int64, len(pop))
	for i, iv := range pop {
		out[i] = iv.Fitness
	}
	return out
}

func requireOrdered[T any](t *testing.T, cfg Config, pop []*Individual[T]) {
	t.Helper()
	for i := 1; i < len(pop); i++ {
		require.Falsef(t, cfg.Better(pop[i].Fitness, pop[i-1].Fitness),
			"slot %d (fitness %d) is better than slot %d (fitness %d)", i, pop[i].Fitness, i-1, pop[i-1].Fitness)
	}
}
