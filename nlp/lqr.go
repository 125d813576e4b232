package nlp

import "gonum.org/v1/gonum/mat"

// LinearDynamics is a time-invariant linear plant x_{k+1} = A*x_k +
// B*u_k, the reference Dynamics collaborator for the tiny-LQR test
// scenario spec.md §8 names ("Tiny LQR, N=3, nx=nu=1 ... STANDARD
// RTI"). Being time-invariant, its Jacobians never depend on stage or
// iterate.
type LinearDynamics struct {
	a, b   *mat.Dense
	nx, nu int
	fun    [][]float64
	adj    [][]float64
}

// NewLinearDynamics builds a LinearDynamics with per-stage scratch
// buffers for stages transitions (stages == dims.Dims.N).
func NewLinearDynamics(a, b *mat.Dense, stages int) *LinearDynamics {
	nx, _ := a.Dims()
	_, nu := b.Dims()
	d := &LinearDynamics{
		a: a, b: b, nx: nx, nu: nu,
		fun: make([][]float64, stages),
		adj: make([][]float64, stages),
	}
	for k := range d.fun {
		d.fun[k] = make([]float64, nx)
		d.adj[k] = make([]float64, nu+nx)
	}
	return d
}

func (d *LinearDynamics) evalPhi(x, u []float64) []float64 {
	phi := make([]float64, d.nx)
	for r := 0; r < d.nx; r++ {
		v := 0.0
		for c := 0; c < d.nx; c++ {
			v += d.a.At(r, c) * x[c]
		}
		for c := 0; c < d.nu; c++ {
			v += d.b.At(r, c) * u[c]
		}
		phi[r] = v
	}
	return phi
}

// ComputeFun evaluates phi(x,u) - xNext for stage.
func (d *LinearDynamics) ComputeFun(stage int, x, u, xNext []float64) error {
	phi := d.evalPhi(x, u)
	for i := range phi {
		d.fun[stage][i] = phi[i] - xNext[i]
	}
	return nil
}

// ComputeFunAndAdj evaluates the residual and the adjoint product
// [B^T*seed; A^T*seed] (Jacobians never change, being time-invariant).
func (d *LinearDynamics) ComputeFunAndAdj(stage int, x, u, xNext, seed []float64) error {
	if err := d.ComputeFun(stage, x, u, xNext); err != nil {
		return err
	}
	adj := d.adj[stage]
	for c := 0; c < d.nu; c++ {
		v := 0.0
		for r := 0; r < d.nx; r++ {
			v += d.b.At(r, c) * seed[r]
		}
		adj[c] = v
	}
	for c := 0; c < d.nx; c++ {
		v := 0.0
		for r := 0; r < d.nx; r++ {
			v += d.a.At(r, c) * seed[r]
		}
		adj[d.nu+c] = v
	}
	return nil
}

func (d *LinearDynamics) MemoryGetFunPtr(stage int) []float64 { return d.fun[stage] }
func (d *LinearDynamics) MemoryGetAdjPtr(stage int) []float64 { return d.adj[stage] }
func (d *LinearDynamics) Jacobians(stage int) (*mat.Dense, *mat.Dense) {
	return d.a, d.b
}

var _ Dynamics = (*LinearDynamics)(nil)

// QuadraticCost is a fixed-weight least-squares tracking cost:
// 0.5*(x-xref)'Q(x-xref) + 0.5*(u-uref)'R(u-uref), the reference Cost
// collaborator. Its Hessian is constant (block-diag(R,Q), u-then-x per
// the ux stacking convention; Q alone at the terminal stage, which has
// no control) so ComputeGradient only needs to touch the gradient
// buffer.
type QuadraticCost struct {
	q, r   *mat.SymDense
	xref   []float64
	uref   []float64
	nx, nu int
	hess   *mat.SymDense
	grad   [][]float64
}

// NewQuadraticCost builds a QuadraticCost with stages+1 stage slots
// (stages == dims.Dims.N; there is one cost per stage 0..N).
func NewQuadraticCost(q, r *mat.SymDense, xref, uref []float64, stages int) *QuadraticCost {
	nx := q.SymmetricDim()
	nu := r.SymmetricDim()
	hess := mat.NewSymDense(nu+nx, nil)
	for i := 0; i < nu; i++ {
		for j := i; j < nu; j++ {
			hess.SetSym(i, j, r.At(i, j))
		}
	}
	for i := 0; i < nx; i++ {
		for j := i; j < nx; j++ {
			hess.SetSym(nu+i, nu+j, q.At(i, j))
		}
	}
	c := &QuadraticCost{q: q, r: r, xref: xref, uref: uref, nx: nx, nu: nu, hess: hess,
		grad: make([][]float64, stages+1)}
	for k := range c.grad {
		if k == stages {
			c.grad[k] = make([]float64, nx) // terminal stage: x only
			continue
		}
		c.grad[k] = make([]float64, nu+nx)
	}
	return c
}

// ComputeGradient writes R*(u-uref) then Q*(x-xref) into the stage's
// gradient buffer; at the terminal stage it writes only Q*(x-xref).
func (c *QuadraticCost) ComputeGradient(stage int, x, u []float64) error {
	g := c.grad[stage]
	nu := len(g) - c.nx // 0 at the terminal stage
	for r := 0; r < nu; r++ {
		v := 0.0
		for k := 0; k < nu; k++ {
			v += c.r.At(r, k) * (u[k] - c.uref[k])
		}
		g[r] = v
	}
	for r := 0; r < c.nx; r++ {
		v := 0.0
		for k := 0; k < c.nx; k++ {
			v += c.q.At(r, k) * (x[k] - c.xref[k])
		}
		g[nu+r] = v
	}
	return nil
}

func (c *QuadraticCost) MemoryGetGradPtr(stage int) []float64 { return c.grad[stage] }
func (c *QuadraticCost) Hessian(stage int) *mat.SymDense {
	if stage == len(c.grad)-1 {
		return c.q
	}
	return c.hess
}

var _ Cost = (*QuadraticCost)(nil)
