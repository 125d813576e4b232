// Package qp defines the linearized, stage-structured subproblem the
// RTI driver builds and hands to a condensing QP solver (spec.md §3/§6),
// plus the Regularizer and Solver collaborator interfaces and a small
// dense reference Solver used by tests and the demo CLI.
//
// Field names loosely track acados's blasfeo-backed naming (RSQrq,
// BAbt, DCt) but store plain gonum types rather than packed blas
// buffers — condensing here runs through gonum/mat, not a BLAS kernel,
// since writing a competing dense QP solver is out of scope (spec.md §1
// treats the condensing solver as an external collaborator).
package qp

import (
	"fmt"
	"math"

	"github.com/gonmpc/rti/dims"
	"gonum.org/v1/gonum/mat"
)

// Status codes for a QP solve. Only Success and MaxIter are acceptable
// outcomes to the RTI driver (spec.md §4.4 step 7); anything else is a
// QP_FAILURE.
const (
	Success = iota
	MaxIter
	MinStep
	NaNDetected
	NoProgress
)

// Acceptable reports whether status is one of the RTI-tolerable
// outcomes (spec.md §7: "MAXITER from the QP is not surfaced as
// failure; the step is taken anyway").
func Acceptable(status int) bool {
	return status == Success || status == MaxIter
}

// In is the linearized stage-structured QP: the acados "qp_in".
type In struct {
	D dims.Dims

	// Cost: Hess[i] is the (possibly Levenberg-Marquardt-damped,
	// regularized, condensed) Hessian approximation of stage i's
	// stacked (u,x) block; Grad[i] its gradient ("RSQrq" in acados).
	Hess []*mat.SymDense
	Grad [][]float64

	// Dynamics: x_{k+1} = A[k]*x_k + B[k]*u_k + B0[k], k=0..N-1
	// ("BAbt" in acados).
	A  []*mat.Dense
	B  []*mat.Dense
	B0 [][]float64

	// General (possibly soft) inequality constraints:
	// Lg[k] <= Cg[k]*x_k + Dg[k]*u_k <= Ug[k] ("DCt" in acados).
	Cg []*mat.Dense
	Dg []*mat.Dense
	Lg [][]float64
	Ug [][]float64

	// Box constraints on the stacked (u,x) primal block.
	Lb [][]float64
	Ub [][]float64

	// lmFactor is the last-applied Levenberg-Marquardt damping factor;
	// zero until AddLevenbergMarquardt is first called (it is not reset
	// between cycles).
	lmFactor float64
}

// NewIn allocates an In matching d. Unlike the arena-backed Iterate and
// stats.Table, qp.In's matrices are sized per the caller's problem and
// rebuilt at Precompute time once the integrator/cost/constraint
// collaborators are known — they do not need to live in the
// steady-state hot-path arena because they are rebuilt by reference
// (their backing arrays persist; only their *contents* mutate on every
// Evaluate call), matching acados's "qp_in" which is itself arena-owned
// but never reallocated after memory_assign.
func NewIn(d dims.Dims) *In {
	in := &In{
		D:    d,
		Hess: make([]*mat.SymDense, d.N+1),
		Grad: make([][]float64, d.N+1),
		A:    make([]*mat.Dense, d.N),
		B:    make([]*mat.Dense, d.N),
		B0:   make([][]float64, d.N),
		Cg:   make([]*mat.Dense, d.N+1),
		Dg:   make([]*mat.Dense, d.N+1),
		Lg:   make([][]float64, d.N+1),
		Ug:   make([][]float64, d.N+1),
		Lb:   make([][]float64, d.N+1),
		Ub:   make([][]float64, d.N+1),
	}
	for i := 0; i <= d.N; i++ {
		in.Hess[i] = mat.NewSymDense(d.Nv[i], nil)
		in.Grad[i] = make([]float64, d.Nv[i])
		in.Lb[i] = make([]float64, d.Nv[i])
		in.Ub[i] = make([]float64, d.Nv[i])
		// Boxes start unbounded, except stage 0's x sub-block, which holds
		// the requested initial-state step and starts at 0 (see DenseSolver).
		for j := range in.Lb[i] {
			if i == 0 && j >= d.Nu[0] {
				continue
			}
			in.Lb[i][j], in.Ub[i][j] = math.Inf(-1), math.Inf(1)
		}
		if d.Nq[i] > 0 {
			in.Cg[i] = mat.NewDense(d.Nq[i], d.Nx[i], nil)
			in.Dg[i] = mat.NewDense(d.Nq[i], d.Nu[i], nil)
			in.Lg[i] = make([]float64, d.Nq[i])
			in.Ug[i] = make([]float64, d.Nq[i])
		}
	}
	for k := 0; k < d.N; k++ {
		in.A[k] = mat.NewDense(d.Nx[k+1], d.Nx[k], nil)
		in.B[k] = mat.NewDense(d.Nx[k+1], d.Nu[k], nil)
		in.B0[k] = make([]float64, d.Nx[k+1])
	}
	return in
}

// AddLevenbergMarquardt adds factor*I to every stage Hessian block
// (spec.md §4.3 step 4). Called once per preparation, before
// regularization/condensing.
func (in *In) AddLevenbergMarquardt(factor float64) {
	in.lmFactor = factor
	for i := 0; i <= in.D.N; i++ {
		h := in.Hess[i]
		n := h.SymmetricDim()
		for j := 0; j < n; j++ {
			h.SetSym(j, j, h.At(j, j)+factor)
		}
	}
}

// Out is the QP solution: the acados "qp_out".
type Out struct {
	Ux     [][]float64
	Pi     [][]float64
	Lam    [][]float64
	Status int
	Iter   int
}

// NewOut allocates an Out matching d.
func NewOut(d dims.Dims) *Out {
	out := &Out{
		Ux:  make([][]float64, d.N+1),
		Pi:  make([][]float64, d.N),
		Lam: make([][]float64, d.N+1),
	}
	for i := 0; i <= d.N; i++ {
		out.Ux[i] = make([]float64, d.Nv[i])
		out.Lam[i] = make([]float64, 2*(d.Nq[i]+d.Ns[i]))
	}
	for k := 0; k < d.N; k++ {
		out.Pi[k] = make([]float64, d.Nx[k+1])
	}
	return out
}

// Regularizer is the "regularize" collaborator of spec.md §6.
type Regularizer interface {
	// Regularize performs full (LHS+RHS) regularization, used by the
	// PREPARATION_AND_FEEDBACK path.
	Regularize(in *In) error
	// RegularizeLHS regularizes only the Hessian blocks.
	RegularizeLHS(in *In) error
	// RegularizeRHS regularizes only the gradient/offset vectors.
	RegularizeRHS(in *In) error
	// CorrectDualSol restores/corrects the dual solution after a solve,
	// e.g. undoing a regularization-induced shift in the multipliers.
	CorrectDualSol(in *In, out *Out) error
}

// Solver is the "qp_solver" collaborator of spec.md §6. CondenseLHS
// performs the partial elimination of state variables spec.md §4.3
// calls condensing; Solve expects the LHS to already be condensed
// unless precondensedLHS is false, in which case it condenses as part
// of the call (the PREPARATION_AND_FEEDBACK path).
type Solver interface {
	OptsSet(field string, value any) error
	CondenseLHS(in *In) error
	Solve(in *In, out *Out, precondensedLHS bool) error
	MemoryReset() error
	Terminate() error
	DimsGetNg(stage int) int
}

// errf formats an error with the package's "qp: " prefix, used
// uniformly across this package's solver/regularizer implementations.
func errf(format string, args ...any) error { return fmt.Errorf("qp: "+format, args...) }
