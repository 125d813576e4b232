// Package nlp defines the per-stage collaborator interfaces the RTI
// driver calls into while linearizing the OCP (dynamics, cost,
// constraints), plus reference implementations used by the demo CLI
// and tests: a time-invariant linear plant (LQR) and a swinging
// pendulum integrated with RK4.
package nlp

import "gonum.org/v1/gonum/mat"

// Dynamics is the per-stage "dynamics[i]" collaborator of spec.md §6.
// ComputeFun/ComputeFunAndAdj mirror the named methods; Jacobians
// supplements them with direct access to the last-computed state and
// control sensitivity blocks, since the driver needs dense A/B
// matrices to assemble qp.In and the spec's collaborator table assumes
// those live behind the same opaque pointer acados calls
// memory_get_jac_ptr.
type Dynamics interface {
	// ComputeFun evaluates phi(x,u) - xNext and stores it, retrievable
	// via MemoryGetFunPtr. Only a function evaluation; no derivatives.
	ComputeFun(stage int, x, u, xNext []float64) error
	// ComputeFunAndAdj evaluates the same residual as ComputeFun, and
	// additionally refreshes the Jacobian blocks Jacobians returns and
	// the adjoint product (Jacobian-transpose times seed, stacked
	// u-then-x) retrievable via MemoryGetAdjPtr.
	ComputeFunAndAdj(stage int, x, u, xNext, seed []float64) error
	MemoryGetFunPtr(stage int) []float64
	MemoryGetAdjPtr(stage int) []float64
	// Jacobians returns the state and control Jacobian blocks last
	// computed by ComputeFunAndAdj.
	Jacobians(stage int) (a, b *mat.Dense)
}

// Cost is the per-stage "cost[i]" collaborator. Hessian supplements
// the spec's two named methods the same way Dynamics.Jacobians does:
// the Gauss-Newton Hessian approximation has to come from somewhere,
// and acados's least-squares cost modules expose it alongside the
// gradient.
type Cost interface {
	ComputeGradient(stage int, x, u []float64) error
	MemoryGetGradPtr(stage int) []float64
	Hessian(stage int) *mat.SymDense
}

// Constraints is the per-stage "constraints[i]" collaborator. NgIneq
// reports how many of the DimsGet("ng", *) general constraints are
// genuinely nonlinear (as opposed to linear rows that a zero/full-order
// update can safely reuse); the rti package uses it to enforce
// LEVEL_C's "forbidden if inequality constraints are nonlinear"
// precondition from spec.md §4.5.
type Constraints interface {
	UpdateQPMatrices(stage int, x, u []float64) error
	MemoryGetAdjPtr(stage int) []float64
	DimsGet(stage int, field string) int
	NgIneq(stage int) int
}
