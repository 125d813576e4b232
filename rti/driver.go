// Package rti implements the RTI driver of spec.md §1: the
// orchestration of linearize → regularize → condense → solve QP →
// update step, including its AS-RTI advanced variants.
package rti

import (
	"time"

	"github.com/gonmpc/rti/dims"
	"github.com/gonmpc/rti/globalization"
	"github.com/gonmpc/rti/nlp"
	"github.com/gonmpc/rti/qp"
	"gonum.org/v1/gonum/mat"
)

// Driver owns the collaborators and orchestrates one control cycle's
// worth of preparation/feedback work (spec.md §2's seven leaf
// components, wired together).
type Driver struct {
	D    dims.Dims
	Opts Options

	Dyn  []nlp.Dynamics
	Cost []nlp.Cost
	Cons []nlp.Constraints

	Reg    qp.Regularizer
	Solver qp.Solver
	Glob   globalization.Globalization

	QPIn  *qp.In
	QPOut *qp.Out

	Mem *Memory

	Timings Timings

	lmFactor float64
}

// Precompute validates dims/opts and builds the per-cycle QP scratch
// (spec.md §3 lifecycle: "Constructed by opts_assign -> memory_assign
// -> workspace_assign -> precompute"; Memory here is built by the
// caller via NewMemoryInArena and handed in, the arena-assignment step
// of that sequence).
func Precompute(d dims.Dims, opts Options, dyn []nlp.Dynamics, cost []nlp.Cost, cons []nlp.Constraints,
	reg qp.Regularizer, solver qp.Solver, glob globalization.Globalization, mem *Memory) (*Driver, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.AsRtiLevel != StandardRTI {
		if err := d.RequireShiftable(); err != nil {
			return nil, ErrDimensionMismatch
		}
	}
	if opts.AsRtiLevel == LevelB && d.HasSoftConstraints() {
		return nil, ErrSoftConstraintsUnsupported
	}
	if len(dyn) != d.N || len(cost) != d.N+1 || len(cons) != d.N+1 {
		return nil, ErrDimensionMismatch
	}
	return &Driver{
		D: d, Opts: opts,
		Dyn: dyn, Cost: cost, Cons: cons,
		Reg: reg, Solver: solver, Glob: glob,
		QPIn:  qp.NewIn(d),
		QPOut: qp.NewOut(d),
		Mem:   mem,
	}, nil
}

// IsRealTimeAlgorithm always returns true (spec.md §4.7).
func (drv *Driver) IsRealTimeAlgorithm() bool { return true }

// Terminate releases QP-solver resources (spec.md §6).
func (drv *Driver) Terminate() error { return drv.Solver.Terminate() }

// MemoryResetQpSolver resets the QP solver's memory and forces
// is_first_call back to true (spec.md §4.7).
func (drv *Driver) MemoryResetQpSolver() error {
	drv.Mem.IsFirstCall = true
	return drv.Solver.MemoryReset()
}

// Evaluate dispatches on rti_phase per spec.md §4.6's table.
func (drv *Driver) Evaluate() error {
	t0 := time.Now()
	defer func() { drv.Timings.TimeTot += time.Since(t0).Seconds() }()

	switch drv.Opts.RtiPhase {
	case Feedback:
		return drv.feedback()
	case Preparation:
		if drv.Opts.AsRtiLevel == StandardRTI {
			return drv.preparationStandard()
		}
		return drv.preparationASRTI()
	case PreparationAndFeedback:
		if drv.Opts.AsRtiLevel != StandardRTI {
			return ErrPreparationAndFeedbackWithASRTI
		}
		if err := drv.preparationStandard(); err != nil {
			return err
		}
		return drv.feedback()
	default:
		return ErrInvalidPhase
	}
}

// preparationStandard implements spec.md §4.3.
func (drv *Driver) preparationStandard() error {
	t0 := time.Now()
	drv.Timings.resetSubTimers()
	drv.Mem.Iter = 0

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

	drv.Timings.TimePreparation += time.Since(t0).Seconds()
	return nil
}

// linearize evaluates cost/dynamics Jacobians, Hessian approximations,
// and the dynamics residual into qp_in (spec.md §4.3 step 3). Each
// stage's costate it.Pi[i] is passed as the adjoint seed, so the
// dynamics' adjoint products are refreshed along with the Jacobian
// blocks and residual.
func (drv *Driver) linearize() error {
	t0 := time.Now()
	defer func() { drv.Timings.TimeLin += time.Since(t0).Seconds() }()

	d := drv.D
	it := drv.Mem.Iterate
	for i := 0; i <= d.N; i++ {
		x := it.X(i, d.Nu[i])
		u := it.U(i, d.Nu[i])

		copySym(drv.QPIn.Hess[i], drv.Cost[i].Hessian(i))
		if err := drv.Cost[i].ComputeGradient(i, x, u); err != nil {
			return err
		}
		copy(drv.QPIn.Grad[i], drv.Cost[i].MemoryGetGradPtr(i))

		if d.Nq[i] > 0 {
			if err := drv.Cons[i].UpdateQPMatrices(i, x, u); err != nil {
				return err
			}
		}

		if i < d.N {
			xNext := it.X(i+1, d.Nu[i+1])
			// it.Pi[i] is the costate from the last accepted QP step (zero
			// before the first one); reused as the adjoint seed rather than
			// allocated fresh, keeping this call on the zero-heap-allocation
			// control cycle.
			if err := drv.Dyn[i].ComputeFunAndAdj(i, x, u, xNext, it.Pi[i]); err != nil {
				return err
			}
			a, b := drv.Dyn[i].Jacobians(i)
			drv.QPIn.A[i].Copy(a)
			drv.QPIn.B[i].Copy(b)
			copy(drv.QPIn.B0[i], drv.Dyn[i].MemoryGetFunPtr(i))
		}
	}
	return nil
}

// approximateRHS refreshes the gradient and dynamics residual only,
// leaving the Jacobian/Hessian blocks (and hence the condensed LHS)
// untouched — spec.md §4.4 step 1's "Approximate QP right-hand side
// vectors for SQP".
func (drv *Driver) approximateRHS() error {
	t0 := time.Now()
	defer func() { drv.Timings.TimeLin += time.Since(t0).Seconds() }()

	d := drv.D
	it := drv.Mem.Iterate
	for i := 0; i <= d.N; i++ {
		x := it.X(i, d.Nu[i])
		u := it.U(i, d.Nu[i])

		if err := drv.Cost[i].ComputeGradient(i, x, u); err != nil {
			return err
		}
		copy(drv.QPIn.Grad[i], drv.Cost[i].MemoryGetGradPtr(i))

		if i < d.N {
			xNext := it.X(i+1, d.Nu[i+1])
			if err := drv.Dyn[i].ComputeFun(i, x, u, xNext); err != nil {
				return err
			}
			copy(drv.QPIn.B0[i], drv.Dyn[i].MemoryGetFunPtr(i))
		}
	}
	return nil
}

func copySym(dst, src *mat.SymDense) {
	n := src.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			dst.SetSym(i, j, src.At(i, j))
		}
	}
}
