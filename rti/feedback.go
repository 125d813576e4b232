package rti

import (
	"math"
	"time"

	"github.com/gonmpc/rti/qp"
)

// feedback implements spec.md §4.4: approximate the QP RHS, solve the
// (already condensed, unless this is the PREPARATION_AND_FEEDBACK
// path) QP, and apply the accepted step via globalization.
func (drv *Driver) feedback() error {
	t0 := time.Now()

	// When rti_phase == PREPARATION_AND_FEEDBACK, preparationStandard's
	// own linearize() call already refreshed the gradient/residual, so
	// approximateRHS would be redundant.
	precondensed := drv.Opts.RtiPhase != PreparationAndFeedback
	if precondensed {
		if err := drv.approximateRHS(); err != nil {
			return err
		}
	}

	// spec.md §4.4 step 2: log NLP residuals at the pre-solve iterate,
	// before iter is incremented.
	if err := drv.maybeLogNLPResidual(0, false); err != nil {
		return err
	}

	drv.Mem.Iter++

	tr := time.Now()
	var regErr error
	if precondensed {
		regErr = drv.Reg.RegularizeRHS(drv.QPIn)
	} else {
		regErr = drv.Reg.Regularize(drv.QPIn)
	}
	drv.Timings.TimeReg += time.Since(tr).Seconds()
	if regErr != nil {
		return regErr
	}

	// spec.md §4.4 step 5: on the very first call, temporarily disable
	// the QP solver's warm start unless warm_start_first_qp says
	// otherwise, then restore the steady-state setting afterwards.
	if drv.Mem.IsFirstCall && !drv.Opts.WarmStartFirstQp {
		if err := drv.Solver.OptsSet("warm_start", 0); err != nil {
			return err
		}
	}

	tq := time.Now()
	if err := drv.Solver.Solve(drv.QPIn, drv.QPOut, precondensed); err != nil {
		drv.Timings.TimeQpSol += time.Since(tq).Seconds()
		return err
	}
	drv.Timings.TimeQpSol += time.Since(tq).Seconds()

	if drv.Mem.IsFirstCall && !drv.Opts.WarmStartFirstQp {
		if err := drv.Solver.OptsSet("warm_start", drv.Opts.QpWarmStart); err != nil {
			return err
		}
	}

	drv.Mem.Stats.SetQPOutcome(0, drv.QPOut.Status, drv.QPOut.Iter)

	if !qp.Acceptable(drv.QPOut.Status) {
		drv.Mem.Status = StatusQPFailure
		drv.Timings.TimeFeedback += time.Since(t0).Seconds()
		return nil
	}

	// spec.md §4.4 step 9: the ext_qp_res columns (EvalKKTResidual's
	// quad), logged before globalization mutates the iterate.
	drv.maybeLogQPResidual(0)

	if err := drv.Reg.CorrectDualSol(drv.QPIn, drv.QPOut); err != nil {
		return err
	}

	tg := time.Now()
	drv.Glob.FindAcceptableIterate(drv.D, drv.Mem.Iterate, drv.QPOut)
	drv.Timings.TimeGlob += time.Since(tg).Seconds()

	drv.Mem.Status = StatusSuccess
	drv.Mem.IsFirstCall = false

	// spec.md §4.4 step 11: re-evaluate at the new iterate unless
	// rti_log_only_available_residuals says to skip the extra pass.
	if err := drv.maybeLogNLPResidual(0, true); err != nil {
		return err
	}

	drv.Timings.TimeFeedback += time.Since(t0).Seconds()
	return nil
}

// maybeLogQPResidual writes the ext_qp_res quad for row, taken from
// EvalKKTResidual on the current qp_in/iterate (not a residual of the
// QP solution), a no-op unless both the option and the stats table
// (sized at memory_assign) have the columns enabled.
func (drv *Driver) maybeLogQPResidual(row int) {
	if !drv.Opts.ExtQpRes {
		return
	}
	off := drv.Mem.Stats.QPResidualOffset()
	if off < 0 {
		return
	}
	stat, eq, ineq, comp := drv.EvalKKTResidual()
	drv.Mem.Stats.SetResidualQuad(row, off, stat, eq, ineq, comp)
}

// maybeLogNLPResidual writes the rti_log_residuals quad for row, a
// no-op unless both the option and the stats table have the columns
// enabled. When reevaluate is set (spec.md §4.4 step 11) it refreshes
// the RHS at the new iterate first, unless
// rti_log_only_available_residuals says to reuse whatever is already
// in qp_in rather than pay for the extra evaluation.
func (drv *Driver) maybeLogNLPResidual(row int, reevaluate bool) error {
	if !drv.Opts.RtiLogResiduals {
		return nil
	}
	off := drv.Mem.Stats.NLPResidualOffset()
	if off < 0 {
		return nil
	}
	if reevaluate && !drv.Opts.RtiLogOnlyAvailableResiduals {
		if err := drv.approximateRHS(); err != nil {
			return err
		}
	}
	stat, eq, ineq, comp := drv.EvalKKTResidual()
	drv.Mem.Stats.SetResidualQuad(row, off, stat, eq, ineq, comp)
	return nil
}

// EvalKKTResidual computes the infinity-norm stationarity/equality/
// inequality/complementarity residuals of the current iterate
// (spec.md §4.7). stat combines the bare cost gradient with the
// costate-transported dyn_adj/ineq_adj terms every Dynamics/Constraints
// collaborator exposes via MemoryGetAdjPtr, matching the Glossary's
// "infinity-norm of stationarity ... violations" (a Lagrangian-gradient
// quantity, not a bare cost gradient). ineq is always zero: DenseSolver
// reports general inequality activity only as a bound-violation count,
// not a residual vector, so there is nothing to take a norm of here.
func (drv *Driver) EvalKKTResidual() (stat, eq, ineq, comp float64) {
	d := drv.D
	it := drv.Mem.Iterate
	for i := 0; i <= d.N; i++ {
		for _, g := range drv.QPIn.Grad[i] {
			stat = math.Max(stat, math.Abs(g))
		}
		for _, a := range drv.Cons[i].MemoryGetAdjPtr(i) {
			stat = math.Max(stat, math.Abs(a))
		}
	}
	for k := 0; k < d.N; k++ {
		for _, a := range drv.Dyn[k].MemoryGetAdjPtr(k) {
			stat = math.Max(stat, math.Abs(a))
		}
		for _, b := range drv.QPIn.B0[k] {
			eq = math.Max(eq, math.Abs(b))
		}
	}
	for i := 0; i <= d.N; i++ {
		for _, l := range it.Lam[i] {
			if l < 0 {
				comp = math.Max(comp, -l)
			}
		}
	}
	return stat, eq, ineq, comp
}

// StepUpdate is a thin alias over the feedback step's globalization
// call for callers that want to apply a pre-computed QP step directly
// (spec.md §6's description of find_acceptable_iterate as a standalone
// entry point).
func (drv *Driver) StepUpdate() (status int, stepSize float64) {
	return drv.Glob.FindAcceptableIterate(drv.D, drv.Mem.Iterate, drv.QPOut)
}
