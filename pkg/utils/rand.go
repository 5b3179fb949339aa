package utils

import (
	"math/rand"
	"time"
)

// RandSource wraps a math/rand generator. It is not safe for concurrent use;
// give every goroutine its own source.
type RandSource struct {
	rng  *rand.Rand
	seed int64
}

// NewRandSource creates a new random source with the given seed.
// A zero seed is replaced by the current time.
func NewRandSource(seed int64) *RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return newExactRandSource(seed)
}

// NewWorkerRandSource creates the private source of worker index.
// Sources of different workers sharing a base seed are decorrelated by
// XOR-ing the index into it. A zero base is replaced by the current time.
func NewWorkerRandSource(base int64, index int) *RandSource {
	if base == 0 {
		base = time.Now().UnixNano()
	}
	return newExactRandSource(base ^ int64(index))
}

func newExactRandSource(seed int64) *RandSource {
	return &RandSource{
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the seed the source was created with.
func (r *RandSource) Seed() int64 {
	return r.seed
}

// Float64 returns a random float64 in [0.0, 1.0)
func (r *RandSource) Float64() float64 {
	return r.rng.Float64()
}

// Intn returns a random int in [0, n)
func (r *RandSource) Intn(n int) int {
	return r.rng.Intn(n)
}

// Uint64 returns a uniformly distributed 64-bit value.
func (r *RandSource) Uint64() uint64 {
	return r.rng.Uint64()
}

// Perm returns a random permutation of [0, n).
func (r *RandSource) Perm(n int) []int {
	return r.rng.Perm(n)
}

// Shuffle randomizes the order of n elements using swap.
func (r *RandSource) Shuffle(n int, swap func(i, j int)) {
	r.rng.Shuffle(n, swap)
}

// BernoulliBool returns true with probability p, false otherwise
func (r *RandSource) BernoulliBool(p float64) bool {
	return r.rng.Float64() < p
}

// Global default random source
var defaultRand = NewRandSource(0)

// SetSeed sets the seed for the default random source
func SetSeed(seed int64) {
	defaultRand = NewRandSource(seed)
}

// Float64 returns a random float64 from the default source
func Float64() float64 {
	return defaultRand.Float64()
}

// Intn returns a random int from the default source
func Intn(n int) int {
	return defaultRand.Intn(n)
}
