package evolution

import "github.com/GoSim-25-26J-441/evolution-core/pkg/utils"

// generationFunc returns the per-worker job of the configured strategy.
func (e *Engine[T]) generationFunc() func(*task[T]) {
	switch e.cfg.Strategy() {
	case StrategyGreedy:
		return e.greedyStep
	case StrategyRecombination:
		return e.recombine
	default:
		if e.oneToOne {
			return e.mutateOneToOne
		}
		return e.mutateRandom
	}
}

// randomFill creates and evaluates every slot of the task range.
func (e *Engine[T]) randomFill(t *task[T]) {
	w := t.worker
	for j := t.rng.Start; j < t.rng.End; j++ {
		iv := e.pop.at(j)
		iv.Value = e.ops.Create(w)
		iv.Fitness = e.ops.Evaluate(iv, w)
		e.status.slot(e.phase, e.info.Generations, w.index, j, iv.Fitness)
	}
}

// recombine fills the task range with children of two distinct parents drawn
// from the parent pool. A child counts as an improvement when it beats both
// parents.
func (e *Engine[T]) recombine(t *task[T]) {
	debugAssert(e.parents >= 2, "recombination needs at least 2 parents, have %d", e.parents)
	if e.parents == 0 {
		return
	}
	w := t.worker
	for j := t.rng.Start; j < t.rng.End; j++ {
		a, b := pickParents(w.rand, e.parents)
		pa, pb, child := e.pop.at(a), e.pop.at(b), e.pop.at(j)

		e.ops.Recombine(pa, pb, child, w)
		if e.mutates(w) {
			e.ops.Mutate(child, w)
		}
		child.Fitness = e.ops.Evaluate(child, w)

		if e.cfg.Better(child.Fitness, pa.Fitness) && e.cfg.Better(child.Fitness, pb.Fitness) {
			t.improvements++
		}
		e.status.slot(e.phase, e.info.Generations+1, w.index, j, child.Fitness)
	}
}

// pickParents draws two distinct indices uniformly from [0, n). With fewer
// than two candidates both indices are 0.
func pickParents(r *utils.RandSource, n int) (int, int) {
	if n < 2 {
		return 0, 0
	}
	a := r.Intn(n)
	b := r.Intn(n - 1)
	if b >= a {
		b++
	}
	return a, b
}

// mutates decides whether a recombined child is mutated: always with
// FlagAlwaysMutate, never without FlagMutation, otherwise with one draw
// against the precomputed threshold.
func (e *Engine[T]) mutates(w *Worker) bool {
	switch {
	case e.cfg.flags.Has(FlagAlwaysMutate):
		return true
	case !e.cfg.flags.Has(FlagMutation):
		return false
	default:
		return w.rand.Uint64()>>(64-mutationResolution) < e.cfg.mutationThreshold
	}
}

// mutateOneToOne derives offspring slot j from parent j - offspring.Start.
func (e *Engine[T]) mutateOneToOne(t *task[T]) {
	w := t.worker
	for j := t.rng.Start; j < t.rng.End; j++ {
		src, child := e.pop.at(j-e.offspring.Start), e.pop.at(j)
		e.mutateFrom(t, src, child)
		e.status.slot(e.phase, e.info.Generations+1, w.index, j, child.Fitness)
	}
}

// mutateRandom derives every offspring slot from a uniformly drawn parent.
func (e *Engine[T]) mutateRandom(t *task[T]) {
	debugAssert(e.parents >= 1, "mutation needs at least 1 parent, have %d", e.parents)
	if e.parents == 0 {
		return
	}
	w := t.worker
	for j := t.rng.Start; j < t.rng.End; j++ {
		src, child := e.pop.at(w.rand.Intn(e.parents)), e.pop.at(j)
		e.mutateFrom(t, src, child)
		e.status.slot(e.phase, e.info.Generations+1, w.index, j, child.Fitness)
	}
}

func (e *Engine[T]) mutateFrom(t *task[T], src, child *Individual[T]) {
	w := t.worker
	child.Value = e.ops.Clone(child.Value, src.Value, w)
	e.ops.Mutate(child, w)
	child.Fitness = e.ops.Evaluate(child, w)
	if e.cfg.Better(child.Fitness, src.Fitness) {
		t.improvements++
	}
}

// greedyFill creates the worker triple and then replaces the trial slot
// greedy_individuals times, keeping the best candidate in the best slot.
func (e *Engine[T]) greedyFill(t *task[T]) {
	w := t.worker
	for j := t.rng.Start; j < t.rng.End; j++ {
		iv := e.pop.at(j)
		iv.Value = e.ops.Create(w)
		iv.Fitness = e.ops.Evaluate(iv, w)
	}

	best, trial := e.pop.at(t.rng.Start), e.pop.at(t.rng.Start+1)
	for k := 0; k < e.cfg.greedyIndividuals; k++ {
		e.ops.Destroy(trial.Value, w)
		trial.Value = e.ops.Create(w)
		trial.Fitness = e.ops.Evaluate(trial, w)
		if e.cfg.Better(trial.Fitness, best.Fitness) {
			best.Value = e.ops.Clone(best.Value, trial.Value, w)
			best.Fitness = trial.Fitness
			t.improvements++
		}
		e.status.slot(e.phase, 0, w.index, t.rng.Start+1, trial.Fitness)
	}
}

// greedyStep runs greedy_size mutation trials from the worker's best
// candidate and promotes the generation best when it beats the best.
func (e *Engine[T]) greedyStep(t *task[T]) {
	w := t.worker
	best := e.pop.at(t.rng.Start)
	genBest := e.pop.at(t.rng.Start + 1)
	scratch := e.pop.at(t.rng.Start + 2)

	genBest.Value = e.ops.Clone(genBest.Value, best.Value, w)
	genBest.Fitness = best.Fitness

	for k := 0; k < e.cfg.greedySize; k++ {
		scratch.Value = e.ops.Clone(scratch.Value, best.Value, w)
		e.ops.Mutate(scratch, w)
		scratch.Fitness = e.ops.Evaluate(scratch, w)
		if e.cfg.Better(scratch.Fitness, genBest.Fitness) {
			genBest.Value = e.ops.Clone(genBest.Value, scratch.Value, w)
			genBest.Fitness = scratch.Fitness
			t.improvements++
		}
		e.status.slot(e.phase, e.info.Generations+1, w.index, t.rng.Start+2, scratch.Fitness)
	}

	if e.cfg.Better(genBest.Fitness, best.Fitness) {
		best.Value = e.ops.Clone(best.Value, genBest.Value, w)
		best.Fitness = genBest.Fitness
	}
}

// broadcastBest copies the best of all worker best slots into every other
// worker's best and generation-best slots. It runs on the controller after
// the workers joined.
func (e *Engine[T]) broadcastBest() {
	winner := 0
	for i := 1; i < e.cfg.workers; i++ {
		if e.cfg.Better(e.pop.at(3*i).Fitness, e.pop.at(3*winner).Fitness) {
			winner = i
		}
	}
	src := e.pop.at(3 * winner)
	for i := 0; i < e.cfg.workers; i++ {
		if i == winner {
			continue
		}
		w := e.workers[i]
		for _, dst := range []*Individual[T]{e.pop.at(3 * i), e.pop.at(3*i + 1)} {
			dst.Value = e.ops.Clone(dst.Value, src.Value, w)
			dst.Fitness = src.Fitness
		}
	}
}
