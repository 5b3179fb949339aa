package evolution

import "github.com/GoSim-25-26J-441/evolution-core/pkg/utils"

// Individual pairs a candidate with its fitness. Fitness always holds the
// value Evaluate last returned for the current Value.
type Individual[T any] struct {
	Value   T
	Fitness int64
}

// Worker is the per-worker context handed to every operator call. Its
// random source belongs to one goroutine and must not be shared.
type Worker struct {
	index int
	rand  *utils.RandSource
}

// NewWorker creates the context of worker index with a source seeded by
// seed ^ index.
func NewWorker(index int, seed int64) *Worker {
	return &Worker{
		index: index,
		rand:  utils.NewWorkerRandSource(seed, index),
	}
}

// Index returns the worker index in [0, workers).
func (w *Worker) Index() int {
	return w.index
}

// Rand returns the worker's private random source.
func (w *Worker) Rand() *utils.RandSource {
	return w.rand
}
