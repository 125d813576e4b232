// Package advance implements the AS-RTI advancement strategies
// spec.md §4.5 runs before the level-specific inner loop: moving the
// stage-0 initial-state box constraint to an estimate of the next
// measurement.
package advance

import (
	"errors"

	"github.com/gonmpc/rti/iterate"
	"github.com/gonmpc/rti/nlp"
)

// Strategy enumerates the as_rti_advancement_strategy option values.
type Strategy int

const (
	NoAdvance Strategy = iota
	ShiftAdvance
	SimulateAdvance
)

// Advance writes the requested delta-x0 (relative to it's current
// stage-0 state, per qp.DenseSolver's Lb[0]/Ub[0] convention) into
// lb0/ub0, both sized nx[0]. dyn is only used by SimulateAdvance.
func Advance(strategy Strategy, it *iterate.Iterate, nu0 int, dyn nlp.Dynamics, lb0, ub0 []float64) error {
	switch strategy {
	case NoAdvance:
		for i := range lb0 {
			lb0[i], ub0[i] = 0, 0
		}
		return nil
	case ShiftAdvance:
		x1 := stage1State(it, len(lb0))
		x0 := it.X(0, nu0)
		for i := range lb0 {
			d := x1[i] - x0[i]
			lb0[i], ub0[i] = d, d
		}
		return nil
	case SimulateAdvance:
		return simulateAdvance(it, nu0, dyn, lb0, ub0)
	default:
		return errInvalidStrategy
	}
}

// simulateAdvance evaluates phi(x0,u0) via the dynamics callback (which
// returns phi - x_next) and adds the current x1 to recover phi, then
// sets the stage-0 delta to (phi - x0), per spec.md §4.5: "evaluate
// phi(x[0], u[0]) via the dynamics callback, add the current x[1] to
// the returned dyn_fun, then set lbx[0] = ubx[0] = that sum."
func simulateAdvance(it *iterate.Iterate, nu0 int, dyn nlp.Dynamics, lb0, ub0 []float64) error {
	x0 := it.X(0, nu0)
	u0 := it.U(0, nu0)
	x1 := stage1State(it, len(lb0))
	if err := dyn.ComputeFun(0, x0, u0, x1); err != nil {
		return err
	}
	dynFun := dyn.MemoryGetFunPtr(0) // phi(x0,u0) - x1
	for i := range lb0 {
		phi := dynFun[i] + x1[i]
		d := phi - x0[i]
		lb0[i], ub0[i] = d, d
	}
	return nil
}

// stage1State returns stage 1's state: the trailing nx entries of its
// stacked (u,x) block. Stage 1's nu can differ from stage 0's (it is 0
// when stage 1 is the terminal stage), so nu0 is not used as the offset.
func stage1State(it *iterate.Iterate, nx int) []float64 {
	return it.Ux[1][len(it.Ux[1])-nx:]
}

var errInvalidStrategy = errors.New("advance: invalid strategy")
