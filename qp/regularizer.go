package qp

// ConvexifyRegularizer is a reference Regularizer that raises every
// Hessian diagonal entry that falls below MinEig to MinEig
// ("convexification" in the sense acados's project/mirror
// regularization schemes use, simplified to a clamp). RegularizeRHS and
// CorrectDualSol are no-ops: the dense KKT solve in DenseSolver never
// shifts the RHS or multipliers the way a primal-dual interior method
// would, so there is nothing to correct.
type ConvexifyRegularizer struct {
	MinEig float64
}

// NewConvexifyRegularizer builds a ConvexifyRegularizer with the given
// minimum eigenvalue floor on the Hessian diagonal.
func NewConvexifyRegularizer(minEig float64) *ConvexifyRegularizer {
	return &ConvexifyRegularizer{MinEig: minEig}
}

func (r *ConvexifyRegularizer) clampDiagonal(in *In) {
	for i := 0; i <= in.D.N; i++ {
		h := in.Hess[i]
		n := h.SymmetricDim()
		for j := 0; j < n; j++ {
			if v := h.At(j, j); v < r.MinEig {
				h.SetSym(j, j, r.MinEig)
			}
		}
	}
}

// RegularizeLHS clamps every Hessian diagonal entry to at least MinEig.
func (r *ConvexifyRegularizer) RegularizeLHS(in *In) error {
	r.clampDiagonal(in)
	return nil
}

// RegularizeRHS is a no-op for this regularizer; see the type doc.
func (r *ConvexifyRegularizer) RegularizeRHS(in *In) error { return nil }

// Regularize performs the combined LHS+RHS pass (PREPARATION_AND_FEEDBACK).
func (r *ConvexifyRegularizer) Regularize(in *In) error {
	return r.RegularizeLHS(in)
}

// CorrectDualSol is a no-op for this regularizer; see the type doc.
func (r *ConvexifyRegularizer) CorrectDualSol(in *In, out *Out) error { return nil }

var _ Regularizer = (*ConvexifyRegularizer)(nil)
