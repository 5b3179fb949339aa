package evolution

// Operators is the problem-specific half of an engine. Every call receives
// the context of the worker making it; calls made with different workers run
// concurrently, calls with the same worker never do.
type Operators[T any] interface {
	// Create returns a new random candidate.
	Create(w *Worker) T
	// Clone deep-copies src and returns the copy. dst is the candidate
	// being overwritten; implementations may reuse its storage.
	Clone(dst, src T, w *Worker) T
	// Destroy releases a candidate that is no longer referenced.
	Destroy(v T, w *Worker)
	// Mutate perturbs iv.Value in place.
	Mutate(iv *Individual[T], w *Worker)
	// Evaluate returns the fitness of iv.Value.
	Evaluate(iv *Individual[T], w *Worker) int64
	// Recombine writes a child of a and b into dst.Value.
	Recombine(a, b, dst *Individual[T], w *Worker)
}

// Continuer is implemented by operator sets that carry their own
// continuation predicate. It is consulted once per generation, and only with
// FlagAbortRequirement.
type Continuer[T any] interface {
	Continue(e *Engine[T]) bool
}

// Funcs adapts plain functions to Operators. DestroyFunc may be nil; every
// other function must be set for the strategies that use it.
type Funcs[T any] struct {
	CreateFunc    func(w *Worker) T
	CloneFunc     func(dst, src T, w *Worker) T
	DestroyFunc   func(v T, w *Worker)
	MutateFunc    func(iv *Individual[T], w *Worker)
	EvaluateFunc  func(iv *Individual[T], w *Worker) int64
	RecombineFunc func(a, b, dst *Individual[T], w *Worker)
}

func (f Funcs[T]) Create(w *Worker) T { return f.CreateFunc(w) }

func (f Funcs[T]) Clone(dst, src T, w *Worker) T { return f.CloneFunc(dst, src, w) }

func (f Funcs[T]) Destroy(v T, w *Worker) {
	if f.DestroyFunc != nil {
		f.DestroyFunc(v, w)
	}
}

func (f Funcs[T]) Mutate(iv *Individual[T], w *Worker) { f.MutateFunc(iv, w) }

func (f Funcs[T]) Evaluate(iv *Individual[T], w *Worker) int64 { return f.EvaluateFunc(iv, w) }

func (f Funcs[T]) Recombine(a, b, dst *Individual[T], w *Worker) { f.RecombineFunc(a, b, dst, w) }
