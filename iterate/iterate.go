// Package iterate holds the primal/dual state that persists across RTI
// cycles (the warm start) and the snapshot/restore helper spec.md §9
// calls for explicitly: "An implementer may offer a snapshot/restore
// helper using an additional pre-allocated iterate slot."
package iterate

import (
	"github.com/gonmpc/rti/arena"
	"github.com/gonmpc/rti/dims"
)

// Iterate is the stacked primal/dual trajectory: ux[i] holds stage i's
// (u,x) primal block, pi[i] its costate (equality multiplier) and
// lam[i] its inequality/bound multipliers.
type Iterate struct {
	Ux  [][]float64
	Pi  [][]float64
	Lam [][]float64
}

// NewInArena carves an Iterate sized for d out of a, zero-initialized.
func NewInArena(a *arena.Arena, d dims.Dims) *Iterate {
	it := &Iterate{
		Ux:  make([][]float64, d.N+1),
		Pi:  make([][]float64, d.N),
		Lam: make([][]float64, d.N+1),
	}
	for i := 0; i <= d.N; i++ {
		it.Ux[i] = a.Float64Slice(d.Nv[i])
		it.Lam[i] = a.Float64Slice(2 * (d.Nq[i] + d.Ns[i]))
	}
	for i := 0; i < d.N; i++ {
		it.Pi[i] = a.Float64Slice(d.Nx[i+1])
	}
	return it
}

// Size returns the arena footprint of NewInArena(_, d).
func Size(d dims.Dims) int {
	total := 0
	for i := 0; i <= d.N; i++ {
		total += arena.SizeFloat64(d.Nv[i])
		total += arena.SizeFloat64(2 * (d.Nq[i] + d.Ns[i]))
	}
	for i := 0; i < d.N; i++ {
		total += arena.SizeFloat64(d.Nx[i+1])
	}
	return total
}

// CopyInto overwrites dst's contents with it's, element-wise: both must
// have been built from identical Dims (same slice lengths), which
// rti.NewMemoryInArena guarantees for its Iterate and Backup.
func (it *Iterate) CopyInto(dst *Iterate) {
	for i := range it.Ux {
		copy(dst.Ux[i], it.Ux[i])
	}
	for i := range it.Pi {
		copy(dst.Pi[i], it.Pi[i])
	}
	for i := range it.Lam {
		copy(dst.Lam[i], it.Lam[i])
	}
}

// X returns stage i's state sub-slice of the stacked (u,x) block,
// assuming the caller's convention of u followed by x (nu[i] then
// nx[i] entries) — the convention spec.md §3 documents ("ux[i]
// (stacked u,x per stage)").
func (it *Iterate) X(i, nu int) []float64 {
	return it.Ux[i][nu:]
}

// U returns stage i's control sub-slice.
func (it *Iterate) U(i, nu int) []float64 {
	return it.Ux[i][:nu]
}
