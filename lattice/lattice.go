package lattice

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Lattice is a recombining binomial tree stored as a triangle.
//
// Node (i, j) is state i at step j, with 0 <= i <= j <= Steps(). State 0 is the
// top of the tree (no down-moves). Entries with i > j do not exist; accessing
// them panics rather than returning a zero that could be mistaken for a rate.
type Lattice struct {
	steps int
	nodes []float64
}

// NewLattice allocates a zero-filled lattice covering steps 0..steps.
func NewLattice(steps int) *Lattice {
	if steps < 0 {
		panic(fmt.Sprintf("lattice: negative steps %d", steps))
	}
	return &Lattice{
		steps: steps,
		nodes: make([]float64, (steps+1)*(steps+2)/2),
	}
}

// Steps returns the index of the last column.
func (l *Lattice) Steps() int {
	return l.steps
}

func (l *Lattice) index(i, j int) int {
	if j < 0 || j > l.steps || i < 0 || i > j {
		panic(fmt.Sprintf("lattice: node (%d,%d) outside triangle of %d steps", i, j, l.steps))
	}
	return j*(j+1)/2 + i
}

// At returns the value at node (i, j).
func (l *Lattice) At(i, j int) float64 {
	return l.nodes[l.index(i, j)]
}

// Set stores v at node (i, j).
func (l *Lattice) Set(i, j int, v float64) {
	l.nodes[l.index(i, j)] = v
}

// Column returns the j+1 values of step j. The slice aliases the lattice.
func (l *Lattice) Column(j int) []float64 {
	start := l.index(0, j)
	return l.nodes[start : start+j+1]
}

// ColumnSum returns the sum of all states at step j.
func (l *Lattice) ColumnSum(j int) float64 {
	return floats.Sum(l.Column(j))
}

// Root returns the value at node (0, 0).
func (l *Lattice) Root() float64 {
	return l.nodes[0]
}
