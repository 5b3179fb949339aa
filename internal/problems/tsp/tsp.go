// Package tsp is the route demo problem: find a short round trip through
// every city of a random symmetric distance matrix, starting and ending at a
// fixed start city.
package tsp

import (
	"fmt"

	"github.com/GoSim-25-26J-441/evolution-core/internal/evolution"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/utils"
)

// Problem is an immutable distance matrix shared by all workers.
type Problem struct {
	distances [][]int64
	start     int
}

// NewProblem creates n cities with random symmetric distances in [1, n] and
// a random start city.
func NewProblem(n int, seed int64) (*Problem, error) {
	if n < 2 {
		return nil, fmt.Errorf("tsp: need at least 2 cities, got %d", n)
	}
	r := utils.NewRandSource(seed)
	d := make([][]int64, n)
	for i := range d {
		d[i] = make([]int64, n)
	}
	for x := 0; x < n; x++ {
		for y := x + 1; y < n; y++ {
			dist := int64(r.Intn(n) + 1)
			d[x][y], d[y][x] = dist, dist
		}
	}
	return &Problem{distances: d, start: r.Intn(n)}, nil
}

// NewProblemFromMatrix wraps an existing square symmetric matrix.
func NewProblemFromMatrix(distances [][]int64, start int) (*Problem, error) {
	n := len(distances)
	if n < 2 {
		return nil, fmt.Errorf("tsp: need at least 2 cities, got %d", n)
	}
	if start < 0 || start >= n {
		return nil, fmt.Errorf("tsp: start city %d out of range [0,%d)", start, n)
	}
	for i, row := range distances {
		if len(row) != n {
			return nil, fmt.Errorf("tsp: row %d has %d columns, want %d", i, len(row), n)
		}
		for j := range row {
			if row[j] != distances[j][i] {
				return nil, fmt.Errorf("tsp: distance matrix is not symmetric at (%d,%d)", i, j)
			}
		}
	}
	return &Problem{distances: distances, start: start}, nil
}

func (p *Problem) Cities() int {
	return len(p.distances)
}

func (p *Problem) Start() int {
	return p.start
}

func (p *Problem) Distance(a, b int) int64 {
	return p.distances[a][b]
}

// Route is a tour as the sequence of visited cities. Route[0] is the start
// city; the closing road back to it is implied.
type Route []int

// Length returns the total distance of the round trip.
func (p *Problem) Length(r Route) int64 {
	var total int64
	for i := 1; i < len(r); i++ {
		total += p.distances[r[i-1]][r[i]]
	}
	if len(r) > 0 {
		total += p.distances[r[len(r)-1]][r[0]]
	}
	return total
}

// Road is one leg of a tour.
type Road struct {
	From     int   `json:"from"`
	To       int   `json:"to"`
	Distance int64 `json:"distance"`
}

// Tour is the printable form of a route.
type Tour struct {
	Cities []int  `json:"cities"`
	Roads  []Road `json:"roads"`
	Length int64  `json:"length"`
}

// Describe expands r into its roads.
func (p *Problem) Describe(r Route) Tour {
	t := Tour{Cities: append([]int(nil), r...), Roads: make([]Road, len(r))}
	for i, from := range r {
		to := r[(i+1)%len(r)]
		t.Roads[i] = Road{From: from, To: to, Distance: p.distances[from][to]}
		t.Length += t.Roads[i].Distance
	}
	return t
}

// Valid reports whether r visits every city exactly once starting at the
// start city.
func (p *Problem) Valid(r Route) bool {
	if len(r) != p.Cities() || r[0] != p.start {
		return false
	}
	seen := make([]bool, len(r))
	for _, c := range r {
		if c < 0 || c >= len(r) || seen[c] {
			return false
		}
		seen[c] = true
	}
	return true
}

// scratch is the per-worker working memory of the operators.
type scratch struct {
	visited []bool
	succA   []int
	succB   []int
}

// Operators evolves routes of one Problem. Fitness is the route length, so
// engines must minimise (no evolution.FlagSortMax).
type Operators struct {
	p       *Problem
	scratch []*scratch
}

var _ evolution.Operators[Route] = (*Operators)(nil)

// NewOperators allocates scratch buffers for workers workers.
func NewOperators(p *Problem, workers int) *Operators {
	o := &Operators{p: p, scratch: make([]*scratch, workers)}
	n := p.Cities()
	for i := range o.scratch {
		o.scratch[i] = &scratch{
			visited: make([]bool, n),
			succA:   make([]int, n),
			succB:   make([]int, n),
		}
	}
	return o
}

func (o *Operators) Problem() *Problem {
	return o.p
}

// Create returns a random tour from the start city.
func (o *Operators) Create(w *evolution.Worker) Route {
	n := o.p.Cities()
	r := make(Route, 0, n)
	r = append(r, o.p.start)
	for _, c := range w.Rand().Perm(n) {
		if c != o.p.start {
			r = append(r, c)
		}
	}
	return r
}

func (o *Operators) Clone(dst, src Route, w *evolution.Worker) Route {
	return append(dst[:0], src...)
}

func (o *Operators) Destroy(v Route, w *evolution.Worker) {}

// Mutate re-randomises the order of a random run of at least two cities,
// keeping the start city and the cities around the run in place.
func (o *Operators) Mutate(iv *evolution.Individual[Route], w *evolution.Worker) {
	r := iv.Value
	movable := len(r) - 1
	if movable < 2 {
		return
	}
	rng := w.Rand()
	length := 2 + rng.Intn(movable-1)
	start := 1 + rng.Intn(movable-length+1)
	seg := r[start : start+length]
	rng.Shuffle(len(seg), func(i, j int) { seg[i], seg[j] = seg[j], seg[i] })
}

func (o *Operators) Evaluate(iv *evolution.Individual[Route], w *evolution.Worker) int64 {
	return o.p.Length(iv.Value)
}

// Recombine builds a child from the start city by following, at every city,
// the shorter of the two parents' next roads to a city not yet visited. When
// both parents lead to visited cities the nearest unvisited city is taken.
func (o *Operators) Recombine(a, b, dst *evolution.Individual[Route], w *evolution.Worker) {
	s := o.scratch[w.Index()]
	n := o.p.Cities()
	successors(a.Value, s.succA)
	successors(b.Value, s.succB)
	clear(s.visited)

	child := dst.Value[:0]
	cur := o.p.start
	for {
		child = append(child, cur)
		s.visited[cur] = true
		if len(child) == n {
			break
		}
		next := -1
		for _, cand := range [2]int{s.succA[cur], s.succB[cur]} {
			if s.visited[cand] {
				continue
			}
			if next < 0 || o.p.distances[cur][cand] < o.p.distances[cur][next] {
				next = cand
			}
		}
		if next < 0 {
			next = o.nearestUnvisited(cur, s.visited)
		}
		cur = next
	}
	dst.Value = child
}

func (o *Operators) nearestUnvisited(from int, visited []bool) int {
	best := -1
	for c, seen := range visited {
		if seen {
			continue
		}
		if best < 0 || o.p.distances[from][c] < o.p.distances[from][best] {
			best = c
		}
	}
	return best
}

// successors writes the city following each city of r into succ.
func successors(r Route, succ []int) {
	for i, c := range r {
		succ[c] = r[(i+1)%len(r)]
	}
}
