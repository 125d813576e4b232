package rti

import (
	"time"

	"github.com/gonmpc/rti/advance"
	"github.com/gonmpc/rti/qp"
	"github.com/sirupsen/logrus"
)

// levelLabel names an as_rti_level for logging. acados's own C source
// prints "B-iter" for both LEVEL_B and LEVEL_C (a copy-paste bug) —
// logged here under its actual level name instead, since nothing in
// this driver depends on the label text.
func levelLabel(level Level) string {
	switch level {
	case LevelA:
		return "A-iter"
	case LevelB:
		return "B-iter"
	case LevelC:
		return "C-iter"
	case LevelD:
		return "D-iter"
	default:
		return "iter"
	}
}

// preparationASRTI implements spec.md §4.5: the stage-0 advancement
// step followed by one of the four as_rti_level inner loops, then the
// shared standard-LHS preparation tail every level ends with.
func (drv *Driver) preparationASRTI() error {
	if err := drv.checkLevelPreconditions(); err != nil {
		return err
	}

	// spec.md §9: LEVEL_A/B/C each build on an iterate backed up or
	// iterated on by a previous call; on the very first call there is
	// none, so they fall back to behaving exactly like STANDARD
	// preparation (acados's as_rti_sanity_checks "else" branch), after
	// which LEVEL_A still saves the backup the next call restores. LEVEL_D
	// has no such dependency — its inner loop runs from the current
	// iterate regardless — so it is never gated on is_first_call.
	if drv.Opts.AsRtiLevel != LevelD && drv.Mem.IsFirstCall {
		if err := drv.preparationStandard(); err != nil {
			return err
		}
		if drv.Opts.AsRtiLevel == LevelA {
			drv.Mem.Iterate.CopyInto(drv.Mem.Backup)
		}
		return nil
	}

	t0 := time.Now()
	drv.Timings.resetSubTimers()
	drv.Mem.Iter = 0
	drv.Mem.Status = StatusSuccess

	nu0 := drv.D.Nu[0]
	lb0 := drv.QPIn.Lb[0][nu0:]
	ub0 := drv.QPIn.Ub[0][nu0:]
	ta := time.Now()
	err := advance.Advance(drv.Opts.AsRtiAdvancementStrategy, drv.Mem.Iterate, nu0, drv.Dyn[0], lb0, ub0)
	drv.Timings.TimeLin += time.Since(ta).Seconds()
	if err != nil {
		return err
	}

	switch drv.Opts.AsRtiLevel {
	case LevelA:
		if err := drv.levelA(); err != nil {
			return err
		}
	case LevelB:
		if err := drv.innerLoop(false); err != nil {
			return err
		}
	case LevelC:
		if err := drv.innerLoop(true); err != nil {
			return err
		}
	case LevelD:
		if err := drv.levelD(); err != nil {
			return err
		}
	}

	if err := drv.linearize(); err != nil {
		return err
	}
	drv.QPIn.AddLevenbergMarquardt(1.0)

	if drv.Opts.RtiPhase == Preparation {
		tr := time.Now()
		if err := drv.Reg.RegularizeLHS(drv.QPIn); err != nil {
			return err
		}
		drv.Timings.TimeReg += time.Since(tr).Seconds()

		tc := time.Now()
		if err := drv.Solver.CondenseLHS(drv.QPIn); err != nil {
			return err
		}
		drv.Timings.TimeQpSol += time.Since(tc).Seconds()
	}

	if drv.Opts.AsRtiLevel == LevelA {
		drv.Mem.Iterate.CopyInto(drv.Mem.Backup)
	}

	drv.Timings.TimePreparation += time.Since(t0).Seconds()
	return nil
}

// checkLevelPreconditions enforces the two AS-RTI hard errors spec.md
// §4.5 lists beyond Precompute's nx[0]==nx[1] check.
func (drv *Driver) checkLevelPreconditions() error {
	if drv.Opts.AsRtiLevel == LevelB && drv.D.HasSoftConstraints() {
		return ErrSoftConstraintsUnsupported
	}
	if drv.Opts.AsRtiLevel == LevelC {
		for i := 0; i <= drv.D.N; i++ {
			if drv.Cons[i].NgIneq(i) > 0 {
				return ErrNonlinearInequality
			}
		}
	}
	return nil
}

// levelA restores the backup iterate saved by the previous preparation
// and runs a single RHS-only feedback pass against it, matching
// spec.md §4.5's LEVEL_A description: "restore backup, execute
// feedback steps 1-10 with RHS-only regularization."
func (drv *Driver) levelA() error {
	drv.Mem.Backup.CopyInto(drv.Mem.Iterate)
	_, err := drv.solveOneQPIteration(false, 0)
	return err
}

// innerLoop runs as_rti_iter QP solves, stopping early on a QP
// failure. When fullOrder is false (LEVEL_B), only the RHS is
// refreshed between solves and the previously condensed LHS is reused
// ("zero-order"); when true (LEVEL_C), the Hessian and Jacobian blocks
// already in qp_in are regularized and condensed again before each
// solve, without relinearizing them ("full-order").
func (drv *Driver) innerLoop(fullOrder bool) error {
	label := levelLabel(drv.Opts.AsRtiLevel)
	for iter := 0; iter < drv.Opts.AsRtiIter; iter++ {
		logrus.Debugf("[rti] %s %d/%d", label, iter+1, drv.Opts.AsRtiIter)
		ok, err := drv.solveOneQPIteration(fullOrder, iter)
		if err != nil || !ok {
			return err
		}
	}
	return nil
}

// levelD runs as_rti_iter full SQP iterations: relinearize, add
// Levenberg-Marquardt, regularize, condense, solve, and apply
// globalization every iteration (spec.md §4.5's LEVEL_D).
func (drv *Driver) levelD() error {
	label := levelLabel(LevelD)
	for iter := 0; iter < drv.Opts.AsRtiIter; iter++ {
		logrus.Debugf("[rti] %s %d/%d", label, iter+1, drv.Opts.AsRtiIter)
		if err := drv.linearize(); err != nil {
			return err
		}
		drv.QPIn.AddLevenbergMarquardt(1.0)
		ok, err := drv.solveOneQPIteration(true, iter)
		if err != nil || !ok {
			return err
		}
	}
	return nil
}

// solveOneQPIteration is the shared body of one AS-RTI inner
// iteration: optionally relinearize/recondense the LHS, refresh the
// RHS, regularize, solve, apply globalization, and record the
// iteration's (qp_status, qp_iter) into row. ok is false when the QP
// solve itself failed, signalling the caller to stop iterating.
func (drv *Driver) solveOneQPIteration(recondense bool, row int) (ok bool, err error) {
	if recondense {
		tc := time.Now()
		if err := drv.Reg.RegularizeLHS(drv.QPIn); err != nil {
			return false, err
		}
		if err := drv.Solver.CondenseLHS(drv.QPIn); err != nil {
			return false, err
		}
		drv.Timings.TimeQpSol += time.Since(tc).Seconds()
	}

	if err := drv.approximateRHS(); err != nil {
		return false, err
	}
	if err := drv.maybeLogNLPResidual(row, false); err != nil {
		return false, err
	}

	tr := time.Now()
	if err := drv.Reg.RegularizeRHS(drv.QPIn); err != nil {
		return false, err
	}
	drv.Timings.TimeReg += time.Since(tr).Seconds()

	tq := time.Now()
	if err := drv.Solver.Solve(drv.QPIn, drv.QPOut, true); err != nil {
		return false, err
	}
	drv.Timings.TimeQpSol += time.Since(tq).Seconds()
	drv.Mem.Stats.SetQPOutcome(row, drv.QPOut.Status, drv.QPOut.Iter)

	if !qp.Acceptable(drv.QPOut.Status) {
		drv.Mem.Status = StatusQPFailure
		return false, nil
	}

	drv.maybeLogQPResidual(row)

	if err := drv.Reg.CorrectDualSol(drv.QPIn, drv.QPOut); err != nil {
		return false, err
	}

	tg := time.Now()
	drv.Glob.FindAcceptableIterate(drv.D, drv.Mem.Iterate, drv.QPOut)
	drv.Timings.TimeGlob += time.Since(tg).Seconds()

	if err := drv.maybeLogNLPResidual(row, true); err != nil {
		return false, err
	}
	return true, nil
}
