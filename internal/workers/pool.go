package workers

// Pool is a fixed set of slots owned by one controller.
type Pool struct {
	slots []*Slot
}

// NewPool starts n slots.
func NewPool(n int) *Pool {
	p := &Pool{slots: make([]*Slot, n)}
	for i := range p.slots {
		p.slots[i] = NewSlot(i)
	}
	return p
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return len(p.slots)
}

// Slot returns slot i.
func (p *Pool) Slot(i int) *Slot {
	return p.slots[i]
}

// JoinAll joins every slot in index order. When more than one bound function
// panicked, the first panic (by slot index) is re-raised after all slots have
// been joined.
func (p *Pool) JoinAll() {
	var first any
	for _, s := range p.slots {
		func() {
			defer func() {
				if r := recover(); r != nil && first == nil {
					first = r
				}
			}()
			s.Join()
		}()
	}
	if first != nil {
		panic(first)
	}
}

// Close closes every slot.
func (p *Pool) Close() {
	for _, s := range p.slots {
		func() {
			defer func() { _ = recover() }()
			s.Close()
		}()
	}
}
