package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendulumDynamics_RestAtBottomIsFixedPoint(t *testing.T) {
	d := NewPendulumDynamics(9.8, 1.0, 0.1, 4, 1)
	x := []float64{0, 0}
	xNext := []float64{0, 0}
	assert.NoError(t, d.ComputeFun(0, x, []float64{0}, xNext))
	fun := d.MemoryGetFunPtr(0)
	assert.InDelta(t, 0, fun[0], 1e-9)
	assert.InDelta(t, 0, fun[1], 1e-9)
}

func TestPendulumDynamics_SwingsUnderGravity(t *testing.T) {
	d := NewPendulumDynamics(9.8, 1.0, 0.1, 8, 1)
	x := []float64{0.2, 0}
	xNext := []float64{0, 0}
	assert.NoError(t, d.ComputeFun(0, x, []float64{0}, xNext))
	phi := d.rk4(x, 0)
	// displaced pendulum accelerates back toward theta=0
	assert.Less(t, phi[1], 0.0)
}

func TestPendulumDynamics_JacobianLinearizesSmallAngle(t *testing.T) {
	d := NewPendulumDynamics(9.8, 1.0, 0.01, 4, 1)
	x := []float64{0, 0}
	xNext := make([]float64, 2)
	assert.NoError(t, d.ComputeFunAndAdj(0, x, []float64{0}, xNext, []float64{1, 0}))
	a, b := d.Jacobians(0)
	// at theta=0, d(thetadot_next)/d(theta) ~ -g/l*dt (linearized)
	assert.InDelta(t, 0.99951, a.At(0, 0), 1e-6) // d(theta_next)/d(theta) = cos(sqrt(g/l)*dt)
	assert.Less(t, a.At(1, 0), 0.0)        // restoring term
	assert.Greater(t, b.At(1, 0), 0.0)     // torque increases angular accel
}

func TestPendulumDynamics_AdjointProductMatchesJacobian(t *testing.T) {
	d := NewPendulumDynamics(9.8, 1.0, 0.05, 4, 1)
	x := []float64{0.3, 0.1}
	xNext := make([]float64, 2)
	seed := []float64{1, 2}
	assert.NoError(t, d.ComputeFunAndAdj(0, x, []float64{0.4}, xNext, seed))
	a, b := d.Jacobians(0)
	adj := d.MemoryGetAdjPtr(0)
	wantU := b.At(0, 0)*seed[0] + b.At(1, 0)*seed[1]
	wantX0 := a.At(0, 0)*seed[0] + a.At(1, 0)*seed[1]
	wantX1 := a.At(0, 1)*seed[0] + a.At(1, 1)*seed[1]
	assert.InDelta(t, wantU, adj[0], 1e-12)
	assert.InDelta(t, wantX0, adj[1], 1e-12)
	assert.InDelta(t, wantX1, adj[2], 1e-12)
}

func TestNoConstraints_AllZero(t *testing.T) {
	var c NoConstraints
	assert.NoError(t, c.UpdateQPMatrices(0, nil, nil))
	assert.Nil(t, c.MemoryGetAdjPtr(0))
	assert.Equal(t, 0, c.DimsGet(0, "ng"))
	assert.Equal(t, 0, c.NgIneq(0))
}
