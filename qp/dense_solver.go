package qp

import (
	"github.com/gonmpc/rti/dims"
	"gonum.org/v1/gonum/mat"
)

// DenseSolver is a reference Solver: a full-space KKT factorization
// over the stacked primal/costate vector, with the stage-0 state
// eliminated via its box-equality constraint. It is a stand-in good
// enough to drive and test the RTI loop end-to-end; it does not
// implement the Schur-complement elimination of interior states real
// condensing QP solvers use (spec.md §1 scopes the condensing solver
// itself out — only its interface is specified), nor does it run an
// active-set or interior-point method over the general/box
// inequalities: it solves the equality-constrained (dynamics-only)
// system and reports a bound-violation count through the QP status
// instead of enforcing activity.
//
// Convention: Lb[0]/Ub[0]'s x-sub-block (indices nu[0]..nv[0]) encode
// the desired *step* Δx0 the caller wants stage 0's state to take
// (e.g. 0 for an unmoved initial state, or the advancement delta
// computed by the advance package), not an absolute value — this
// solver eliminates Δx0 exactly rather than searching for it, matching
// the OCP convention that the initial state is always an equality.
type DenseSolver struct {
	d          dims.Dims
	zOffset    []int // per stage, offset of that stage's unknowns in z (stage 0 only contributes its u-block)
	zDim       []int // per stage, number of unknowns contributed (Nv, except Nu for stage 0)
	piOffset   []int // per stage k=0..N-1, offset of pi_k in the stacked vector
	totalZ     int
	totalPi    int
	lu         mat.LU
	factored   bool
	warmStart  int
	lastStatus int
}

// NewDenseSolver builds a DenseSolver sized for d.
func NewDenseSolver(d dims.Dims) *DenseSolver {
	s := &DenseSolver{
		d:        d,
		zOffset:  make([]int, d.N+1),
		zDim:     make([]int, d.N+1),
		piOffset: make([]int, d.N),
	}
	off := 0
	for i := 0; i <= d.N; i++ {
		s.zOffset[i] = off
		n := d.Nv[i]
		if i == 0 {
			n = d.Nu[0]
		}
		s.zDim[i] = n
		off += n
	}
	s.totalZ = off
	poff := 0
	for k := 0; k < d.N; k++ {
		s.piOffset[k] = s.totalZ + poff
		poff += d.Nx[k+1]
	}
	s.totalPi = poff
	return s
}

// OptsSet accepts "warm_start" (int: 0 disables warm start for the
// next Solve call, matching spec.md §4.4 step 5's QP-solver warm-start
// toggle) and ignores unrecognized fields, mirroring acados's
// forwarding setter.
func (s *DenseSolver) OptsSet(field string, value any) error {
	switch field {
	case "warm_start":
		v, ok := value.(int)
		if !ok {
			return errf("dense solver: warm_start expects int, got %T", value)
		}
		s.warmStart = v
	}
	return nil
}

func (s *DenseSolver) kktDim() int { return s.totalZ + s.totalPi }

// CondenseLHS factorizes the LHS of the equality-constrained KKT
// system built from the current Hessian and dynamics Jacobians. It
// must be called again whenever those change (i.e. every preparation).
func (s *DenseSolver) CondenseLHS(in *In) error {
	n := s.kktDim()
	K := mat.NewDense(n, n, nil)
	d := s.d

	// H block (stage 0 contributes only its u-u sub-block).
	for i := 0; i <= d.N; i++ {
		h := in.Hess[i]
		// stage 0 only contributes its top-left Nu0 x Nu0 (u-u) block,
		// since its x-block is eliminated via the initial-state equality
		dim := s.zDim[i]
		base := s.zOffset[i]
		for r := 0; r < dim; r++ {
			for c := 0; c < dim; c++ {
				K.Set(base+r, base+c, h.At(r, c))
			}
		}
	}

	// Dynamics equality rows/cols: A_k x_k + B_k u_k - x_{k+1} = -b0_k.
	for k := 0; k < d.N; k++ {
		pRow := s.piOffset[k]
		nu := d.Nu[k]
		// B_k block acts on u_k, always present in z.
		Bk := in.B[k]
		uBase := s.zOffset[k]
		for r := 0; r < d.Nx[k+1]; r++ {
			for c := 0; c < nu; c++ {
				v := Bk.At(r, c)
				K.Set(pRow+r, uBase+c, v)
				K.Set(uBase+c, pRow+r, v)
			}
		}
		// A_k block acts on x_k, present in z only for k>=1 (stage 0's
		// x is eliminated).
		if k >= 1 {
			Ak := in.A[k]
			xBase := s.zOffset[k] + nu
			for r := 0; r < d.Nx[k+1]; r++ {
				for c := 0; c < d.Nx[k]; c++ {
					v := Ak.At(r, c)
					K.Set(pRow+r, xBase+c, v)
					K.Set(xBase+c, pRow+r, v)
				}
			}
		}
		// -I block acts on x_{k+1}.
		x1Base := s.zOffset[k+1] + d.Nu[k+1]
		for r := 0; r < d.Nx[k+1]; r++ {
			K.Set(pRow+r, x1Base+r, -1)
			K.Set(x1Base+r, pRow+r, -1)
		}
	}

	lu := &s.lu
	lu.Factorize(K)
	s.factored = true
	return nil
}

// Solve builds the RHS from the current gradient and dynamics offsets
// (folding in the stage-0 elimination) and solves the KKT system,
// reusing the LHS factorization when precondensedLHS is true.
func (s *DenseSolver) Solve(in *In, out *Out, precondensedLHS bool) error {
	if !precondensedLHS {
		if err := s.CondenseLHS(in); err != nil {
			return err
		}
	}
	if !s.factored {
		return errf("dense solver: Solve called before CondenseLHS")
	}
	d := s.d
	n := s.kktDim()
	rhs := mat.NewVecDense(n, nil)

	dx0 := deltaX0(in)

	for i := 0; i <= d.N; i++ {
		g := in.Grad[i]
		base := s.zOffset[i]
		dim := s.zDim[i]
		for r := 0; r < dim; r++ {
			rhs.SetVec(base+r, -g[r])
		}
		if i == 0 && d.Nx[0] > 0 {
			// Fold the eliminated x0 cross term into u0's gradient:
			// g_u0' = g_u0 + Hux0 * dx0.
			h := in.Hess[0]
			for r := 0; r < d.Nu[0]; r++ {
				sum := rhs.AtVec(base + r)
				for c := 0; c < d.Nx[0]; c++ {
					sum -= h.At(r, d.Nu[0]+c) * dx0[c]
				}
				rhs.SetVec(base+r, sum)
			}
		}
	}
	for k := 0; k < d.N; k++ {
		pRow := s.piOffset[k]
		b0 := in.B0[k]
		for r := 0; r < d.Nx[k+1]; r++ {
			val := -b0[r]
			if k == 0 {
				// x_0's contribution A_0 * dx0 moves to the RHS since
				// x_0 is eliminated rather than solved for.
				A0 := in.A[0]
				for c := 0; c < d.Nx[0]; c++ {
					val -= A0.At(r, c) * dx0[c]
				}
			}
			rhs.SetVec(pRow+r, val)
		}
	}

	var sol mat.VecDense
	if err := sol.SolveVec(&s.lu, rhs); err != nil {
		out.Status = NoProgress
		s.lastStatus = out.Status
		return nil
	}

	violations := 0
	for i := 0; i <= d.N; i++ {
		base := s.zOffset[i]
		dim := s.zDim[i]
		step := out.Ux[i]
		if i == 0 {
			for r := 0; r < d.Nu[0]; r++ {
				step[r] = sol.AtVec(base + r)
			}
			for r := 0; r < d.Nx[0]; r++ {
				step[d.Nu[0]+r] = dx0[r]
			}
		} else {
			for r := 0; r < dim; r++ {
				step[r] = sol.AtVec(base + r)
			}
		}
		violations += countBoundViolations(step, in.Lb[i], in.Ub[i])
	}
	for k := 0; k < d.N; k++ {
		pBase := s.piOffset[k]
		for r := 0; r < d.Nx[k+1]; r++ {
			out.Pi[k][r] = sol.AtVec(pBase + r)
		}
	}
	for i := range out.Lam {
		for j := range out.Lam[i] {
			out.Lam[i][j] = 0
		}
	}

	if violations > 0 {
		out.Status = NoProgress
	} else {
		out.Status = Success
	}
	out.Iter = 1
	s.lastStatus = out.Status
	return nil
}

func deltaX0(in *In) []float64 {
	nu := in.D.Nu[0]
	nx := in.D.Nx[0]
	if nx == 0 {
		return nil
	}
	// Lb[0]==Ub[0] on the x-sub-block by construction (the caller sets
	// an equality box); either bound carries the requested delta.
	return in.Lb[0][nu : nu+nx]
}

func countBoundViolations(step, lb, ub []float64) int {
	n := 0
	const tol = 1e-6
	for i := range step {
		if lb != nil && step[i] < lb[i]-tol {
			n++
		}
		if ub != nil && step[i] > ub[i]+tol {
			n++
		}
	}
	return n
}

// MemoryReset clears warm-start state, matching
// spec.md §4.7 ("memory_reset_qp_solver: reset the QP solver's
// internal memory").
func (s *DenseSolver) MemoryReset() error {
	s.factored = false
	s.warmStart = 1
	return nil
}

// Terminate releases solver-owned resources. DenseSolver holds none
// beyond Go-GC'd slices, so this is a no-op kept to satisfy the
// Solver interface and spec.md §6's "terminate" entry.
func (s *DenseSolver) Terminate() error { return nil }

// DimsGetNg returns the general-constraint count at a stage.
func (s *DenseSolver) DimsGetNg(stage int) int {
	if stage < 0 || stage > s.d.N {
		return 0
	}
	return s.d.Nq[stage]
}

var _ Solver = (*DenseSolver)(nil)
