package qp

import (
	"testing"

	"github.com/gonmpc/rti/dims"
	"github.com/stretchr/testify/assert"
)

// oneStageDims builds a single-shooting-interval problem: nx=1, nu=1 at
// stage 0, nx=1 at stage 1 (terminal), enough to exercise the stage-0
// elimination and a single dynamics row end to end.
func oneStageDims() dims.Dims {
	d := dims.New(1)
	d.Nx[0], d.Nu[0], d.Nv[0] = 1, 1, 2
	d.Nx[1], d.Nu[1], d.Nv[1] = 1, 0, 1
	return d
}

func identityDynamics(in *In) {
	// x1 = x0 + u0 (a trivial integrator)
	in.A[0].Set(0, 0, 1)
	in.B[0].Set(0, 0, 1)
	in.B0[0][0] = 0
}

func TestDenseSolver_ZeroGradientZeroDx0_ZeroStep(t *testing.T) {
	d := oneStageDims()
	in := NewIn(d)
	identityDynamics(in)
	// Hess = identity on both stages, Grad = 0.
	in.Hess[0].SetSym(0, 0, 1)
	in.Hess[0].SetSym(1, 1, 1)
	in.Hess[1].SetSym(0, 0, 1)
	// dx0 = 0, encoded as equal Lb/Ub on the x sub-block (index nu=1).
	in.Lb[0][1], in.Ub[0][1] = 0, 0

	s := NewDenseSolver(d)
	out := NewOut(d)
	assert.NoError(t, s.CondenseLHS(in))
	assert.NoError(t, s.Solve(in, out, true))

	assert.Equal(t, Success, out.Status)
	assert.InDelta(t, 0, out.Ux[0][0], 1e-9) // step in u0
	assert.InDelta(t, 0, out.Ux[0][1], 1e-9) // dx0
	assert.InDelta(t, 0, out.Ux[1][0], 1e-9) // step in x1
}

func TestDenseSolver_GradientDrivesStep(t *testing.T) {
	d := oneStageDims()
	in := NewIn(d)
	identityDynamics(in)
	in.Hess[0].SetSym(0, 0, 2) // u-u
	in.Hess[0].SetSym(1, 1, 2) // x-x
	in.Hess[1].SetSym(0, 0, 2)
	in.Grad[0][0] = -4 // pushes u0 toward a positive step
	in.Lb[0][1], in.Ub[0][1] = 0, 0

	s := NewDenseSolver(d)
	out := NewOut(d)
	assert.NoError(t, s.Solve(in, out, false))

	assert.Equal(t, Success, out.Status)
	assert.Greater(t, out.Ux[0][0], 0.0)
	// dynamics: step in x1 must equal step in u0 (A=I, B=I, dx0=0)
	assert.InDelta(t, out.Ux[0][0], out.Ux[1][0], 1e-9)
}

func TestDenseSolver_NonzeroDx0FoldsIntoDynamicsRow(t *testing.T) {
	d := oneStageDims()
	in := NewIn(d)
	identityDynamics(in)
	in.Hess[0].SetSym(0, 0, 1)
	in.Hess[0].SetSym(1, 1, 1)
	in.Hess[1].SetSym(0, 0, 1)
	in.Lb[0][1], in.Ub[0][1] = 3, 3 // dx0 = 3, u0 gradient is zero

	s := NewDenseSolver(d)
	out := NewOut(d)
	assert.NoError(t, s.Solve(in, out, false))

	assert.Equal(t, Success, out.Status)
	assert.InDelta(t, 3, out.Ux[0][1], 1e-9) // dx0 echoed back
	// x1 step = A*dx0 + B*u0 = 3 + u0; minimizing u0^2 + x1^2 (unit
	// weights) splits the shift: u0 = -1.5, x1 = 1.5.
	assert.InDelta(t, -1.5, out.Ux[0][0], 1e-9)
	assert.InDelta(t, 1.5, out.Ux[1][0], 1e-9)
}

func TestDenseSolver_PrecondensedLHSReusesFactorization(t *testing.T) {
	d := oneStageDims()
	in := NewIn(d)
	identityDynamics(in)
	in.Hess[0].SetSym(0, 0, 1)
	in.Hess[0].SetSym(1, 1, 1)
	in.Hess[1].SetSym(0, 0, 1)
	in.Lb[0][1], in.Ub[0][1] = 0, 0

	s := NewDenseSolver(d)
	require := assert.New(t)
	require.NoError(s.CondenseLHS(in))

	out1 := NewOut(d)
	require.NoError(s.Solve(in, out1, true))

	in.Grad[0][0] = -2
	out2 := NewOut(d)
	require.NoError(s.Solve(in, out2, true)) // only the gradient (RHS) changed: the existing factorization is reused
	require.Equal(Success, out2.Status)
}

func TestDenseSolver_OptsSetWarmStart(t *testing.T) {
	s := NewDenseSolver(oneStageDims())
	assert.NoError(t, s.OptsSet("warm_start", 0))
	assert.Error(t, s.OptsSet("warm_start", "nope"))
	assert.NoError(t, s.OptsSet("unknown_field", 1)) // ignored, not an error
}

func TestDenseSolver_MemoryResetRequiresRecondense(t *testing.T) {
	d := oneStageDims()
	in := NewIn(d)
	identityDynamics(in)
	in.Hess[0].SetSym(0, 0, 1)
	in.Hess[0].SetSym(1, 1, 1)
	in.Hess[1].SetSym(0, 0, 1)
	in.Lb[0][1], in.Ub[0][1] = 0, 0

	s := NewDenseSolver(d)
	assert.NoError(t, s.CondenseLHS(in))
	assert.NoError(t, s.MemoryReset())

	out := NewOut(d)
	err := s.Solve(in, out, true)
	assert.Error(t, err)
}

func TestDenseSolver_DimsGetNg(t *testing.T) {
	d := oneStageDims()
	d.Nq[0] = 2
	s := NewDenseSolver(d)
	assert.Equal(t, 2, s.DimsGetNg(0))
	assert.Equal(t, 0, s.DimsGetNg(1))
	assert.Equal(t, 0, s.DimsGetNg(99))
}

func TestDenseSolver_Terminate(t *testing.T) {
	s := NewDenseSolver(oneStageDims())
	assert.NoError(t, s.Terminate())
}

func TestConvexifyRegularizer_ClampsLowDiagonal(t *testing.T) {
	d := oneStageDims()
	in := NewIn(d)
	in.Hess[0].SetSym(0, 0, -1)
	in.Hess[0].SetSym(1, 1, 5)

	r := NewConvexifyRegularizer(1e-4)
	assert.NoError(t, r.RegularizeLHS(in))
	assert.Equal(t, 1e-4, in.Hess[0].At(0, 0))
	assert.Equal(t, 5.0, in.Hess[0].At(1, 1))
}

func TestConvexifyRegularizer_RegularizeCallsLHS(t *testing.T) {
	d := oneStageDims()
	in := NewIn(d)
	in.Hess[0].SetSym(0, 0, -1)
	r := NewConvexifyRegularizer(0)
	assert.NoError(t, r.Regularize(in))
	assert.Equal(t, 0.0, in.Hess[0].At(0, 0))
}

func TestConvexifyRegularizer_RHSAndDualCorrectionAreNoops(t *testing.T) {
	d := oneStageDims()
	in := NewIn(d)
	out := NewOut(d)
	r := NewConvexifyRegularizer(0)
	assert.NoError(t, r.RegularizeRHS(in))
	assert.NoError(t, r.CorrectDualSol(in, out))
}
