// Package onemax is the bit-string demo problem: maximise the number of set
// bits.
package onemax

import (
	"fmt"

	"github.com/GoSim-25-26J-441/evolution-core/internal/evolution"
)

// Bits is a candidate bit string.
type Bits []bool

// Count returns the number of set bits.
func (b Bits) Count() int {
	n := 0
	for _, bit := range b {
		if bit {
			n++
		}
	}
	return n
}

func (b Bits) String() string {
	out := make([]byte, len(b))
	for i, bit := range b {
		out[i] = '0'
		if bit {
			out[i] = '1'
		}
	}
	return string(out)
}

// Operators evolves bit strings of a fixed width. Fitness is the number of
// set bits, so engines must be configured with evolution.FlagSortMax.
type Operators struct {
	width int
}

var _ evolution.Operators[Bits] = (*Operators)(nil)

func New(width int) (*Operators, error) {
	if width < 1 {
		return nil, fmt.Errorf("onemax: width must be positive, got %d", width)
	}
	return &Operators{width: width}, nil
}

func (o *Operators) Width() int {
	return o.width
}

func (o *Operators) Create(w *evolution.Worker) Bits {
	b := make(Bits, o.width)
	r := w.Rand()
	for i := range b {
		b[i] = r.BernoulliBool(0.5)
	}
	return b
}

func (o *Operators) Clone(dst, src Bits, w *evolution.Worker) Bits {
	return append(dst[:0], src...)
}

func (o *Operators) Destroy(v Bits, w *evolution.Worker) {}

// Mutate flips one random bit.
func (o *Operators) Mutate(iv *evolution.Individual[Bits], w *evolution.Worker) {
	i := w.Rand().Intn(len(iv.Value))
	iv.Value[i] = !iv.Value[i]
}

func (o *Operators) Evaluate(iv *evolution.Individual[Bits], w *evolution.Worker) int64 {
	return int64(iv.Value.Count())
}

// Recombine takes every bit from a or b with equal probability.
func (o *Operators) Recombine(a, b, dst *evolution.Individual[Bits], w *evolution.Worker) {
	if len(dst.Value) != o.width {
		dst.Value = make(Bits, o.width)
	}
	r := w.Rand()
	for i := range dst.Value {
		if r.BernoulliBool(0.5) {
			dst.Value[i] = a.Value[i]
		} else {
			dst.Value[i] = b.Value[i]
		}
	}
}
