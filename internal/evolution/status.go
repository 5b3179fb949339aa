package evolution

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// statusPrinter serialises per-slot status lines written by concurrent
// workers. A nil printer prints nothing.
type statusPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	newline bool
	dirty   bool
}

func newStatusPrinter(flags Flag, w io.Writer) *statusPrinter {
	if !flags.Has(FlagVerboseOneline) && !flags.Has(FlagVerboseUltra) {
		return nil
	}
	if w == nil {
		w = os.Stderr
	}
	return &statusPrinter{w: w, newline: flags.Has(FlagVerboseUltra)}
}

func (p *statusPrinter) slot(phase string, generation, worker, slot int, fitness int64) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	end := "\r"
	if p.newline {
		end = "\n"
	}
	fmt.Fprintf(p.w, "%s gen=%d worker=%d slot=%d fitness=%d%s", phase, generation, worker, slot, fitness, end)
	p.dirty = !p.newline
}

// finish terminates a pending rewritten line.
func (p *statusPrinter) finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dirty {
		fmt.Fprintln(p.w)
		p.dirty = false
	}
}
