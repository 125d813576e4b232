package nlp

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// PendulumDynamics is a torque-actuated pendulum, theta'' = -g/l*sin(theta)
// + u, integrated with fixed-step RK4 — the swing-equation used by
// spec.md §8's pendulum swing-up scenario. Unlike LinearDynamics its
// Jacobian varies with the operating point, so ComputeFunAndAdj
// refreshes it every call via central-difference Jacobian estimation
// (gonum/diff/fd), the same tool godesim's implicit solver uses to
// linearize around a guess state.
type PendulumDynamics struct {
	g, l, dt float64
	substeps int

	fun [][]float64
	adj [][]float64
	a   []*mat.Dense
	b   []*mat.Dense
}

// NewPendulumDynamics builds a PendulumDynamics for the given gravity,
// length, step dt split into substeps RK4 sub-intervals, with scratch
// for stages transitions.
func NewPendulumDynamics(g, l, dt float64, substeps, stages int) *PendulumDynamics {
	d := &PendulumDynamics{g: g, l: l, dt: dt, substeps: substeps,
		fun: make([][]float64, stages),
		adj: make([][]float64, stages),
		a:   make([]*mat.Dense, stages),
		b:   make([]*mat.Dense, stages),
	}
	for k := range d.fun {
		d.fun[k] = make([]float64, 2)
		d.adj[k] = make([]float64, 1+2)
		d.a[k] = mat.NewDense(2, 2, nil)
		d.b[k] = mat.NewDense(2, 1, nil)
	}
	return d
}

func (d *PendulumDynamics) ode(x []float64, u float64) []float64 {
	return []float64{x[1], -d.g/d.l*math.Sin(x[0]) + u}
}

// rk4 integrates one shooting interval of length d.dt, zero-order hold
// on u, the way godesim's RK4Solver advances a fixed-step ODE.
func (d *PendulumDynamics) rk4(x []float64, u float64) []float64 {
	h := d.dt / float64(d.substeps)
	y := append([]float64(nil), x...)
	for s := 0; s < d.substeps; s++ {
		k1 := d.ode(y, u)
		y2 := []float64{y[0] + 0.5*h*k1[0], y[1] + 0.5*h*k1[1]}
		k2 := d.ode(y2, u)
		y3 := []float64{y[0] + 0.5*h*k2[0], y[1] + 0.5*h*k2[1]}
		k3 := d.ode(y3, u)
		y4 := []float64{y[0] + h*k3[0], y[1] + h*k3[1]}
		k4 := d.ode(y4, u)
		y[0] += h / 6 * (k1[0] + 2*k2[0] + 2*k3[0] + k4[0])
		y[1] += h / 6 * (k1[1] + 2*k2[1] + 2*k3[1] + k4[1])
	}
	return y
}

func (d *PendulumDynamics) ComputeFun(stage int, x, u, xNext []float64) error {
	phi := d.rk4(x, u[0])
	d.fun[stage][0] = phi[0] - xNext[0]
	d.fun[stage][1] = phi[1] - xNext[1]
	return nil
}

// ComputeFunAndAdj evaluates the residual and re-linearizes about
// (x,u) via a central-difference Jacobian of the combined map
// z=[x;u] -> rk4(x,u).
func (d *PendulumDynamics) ComputeFunAndAdj(stage int, x, u, xNext, seed []float64) error {
	if err := d.ComputeFun(stage, x, u, xNext); err != nil {
		return err
	}
	z := []float64{x[0], x[1], u[0]}
	jac := mat.NewDense(2, 3, nil)
	fd.Jacobian(jac, func(y, zz []float64) {
		phi := d.rk4(zz[:2], zz[2])
		y[0], y[1] = phi[0], phi[1]
	}, z, &fd.JacobianSettings{Formula: fd.Central})

	a, b := d.a[stage], d.b[stage]
	for r := 0; r < 2; r++ {
		a.Set(r, 0, jac.At(r, 0))
		a.Set(r, 1, jac.At(r, 1))
		b.Set(r, 0, jac.At(r, 2))
	}

	adj := d.adj[stage]
	adj[0] = b.At(0, 0)*seed[0] + b.At(1, 0)*seed[1]
	adj[1] = a.At(0, 0)*seed[0] + a.At(1, 0)*seed[1]
	adj[2] = a.At(0, 1)*seed[0] + a.At(1, 1)*seed[1]
	return nil
}

func (d *PendulumDynamics) MemoryGetFunPtr(stage int) []float64 { return d.fun[stage] }
func (d *PendulumDynamics) MemoryGetAdjPtr(stage int) []float64 { return d.adj[stage] }
func (d *PendulumDynamics) Jacobians(stage int) (*mat.Dense, *mat.Dense) {
	return d.a[stage], d.b[stage]
}

var _ Dynamics = (*PendulumDynamics)(nil)

// NoConstraints is the reference Constraints collaborator for problems
// with no general inequality constraints (ng[i] == 0 at every stage) —
// both LQR and pendulum scenarios in spec.md §8 use only box bounds,
// which the driver applies directly rather than through this
// collaborator.
type NoConstraints struct{}

func (NoConstraints) UpdateQPMatrices(stage int, x, u []float64) error { return nil }
func (NoConstraints) MemoryGetAdjPtr(stage int) []float64              { return nil }
func (NoConstraints) DimsGet(stage int, field string) int              { return 0 }
func (NoConstraints) NgIneq(stage int) int                             { return 0 }

var _ Constraints = NoConstraints{}
