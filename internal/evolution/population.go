package evolution

// population stores capacity = size*multiplier individuals. Logical indices
// [0, size) address the current generation and [size, 2*size) the offspring
// generation. front is the physical offset of the current generation, so
// swapping generations is a single toggle.
type population[T any] struct {
	arena []Individual[T]
	slots []*Individual[T]
	size  int
	front int
}

func newPopulation[T any](size, multiplier int) *population[T] {
	p := &population[T]{
		arena: make([]Individual[T], size*multiplier),
		slots: make([]*Individual[T], size*multiplier),
		size:  size,
	}
	for i := range p.arena {
		p.slots[i] = &p.arena[i]
	}
	return p
}

func (p *population[T]) capacity() int {
	return len(p.slots)
}

// at returns the individual at logical index i.
func (p *population[T]) at(i int) *Individual[T] {
	if i < p.size {
		return p.slots[p.front+i]
	}
	return p.slots[p.size-p.front+i-p.size]
}

// current returns the slot table view of the current generation. Sorting it
// reorders the current generation.
func (p *population[T]) current() []*Individual[T] {
	return p.slots[p.front : p.front+p.size]
}

// swap makes the offspring generation current.
func (p *population[T]) swap() {
	if p.capacity() < 2*p.size {
		return
	}
	p.front = p.size - p.front
}
