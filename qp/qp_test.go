package qp

import (
	"testing"

	"github.com/gonmpc/rti/dims"
	"github.com/stretchr/testify/assert"
)

func testDims() dims.Dims {
	d := dims.New(2)
	for i := 0; i <= d.N; i++ {
		d.Nx[i] = 2
		d.Nu[i] = 1
		d.Nv[i] = d.Nx[i] + d.Nu[i]
	}
	d.Nu[d.N] = 0
	d.Nv[d.N] = d.Nx[d.N]
	return d
}

func TestAcceptable(t *testing.T) {
	assert.True(t, Acceptable(Success))
	assert.True(t, Acceptable(MaxIter))
	assert.False(t, Acceptable(MinStep))
	assert.False(t, Acceptable(NaNDetected))
	assert.False(t, Acceptable(NoProgress))
}

func TestNewIn_Shapes(t *testing.T) {
	d := testDims()
	in := NewIn(d)

	assert.Len(t, in.Hess, d.N+1)
	assert.Len(t, in.A, d.N)
	assert.Len(t, in.B, d.N)
	for i := 0; i <= d.N; i++ {
		assert.Equal(t, d.Nv[i], in.Hess[i].SymmetricDim())
		assert.Len(t, in.Grad[i], d.Nv[i])
		assert.Len(t, in.Lb[i], d.Nv[i])
		assert.Len(t, in.Ub[i], d.Nv[i])
	}
	for k := 0; k < d.N; k++ {
		r, c := in.A[k].Dims()
		assert.Equal(t, d.Nx[k+1], r)
		assert.Equal(t, d.Nx[k], c)
		r, c = in.B[k].Dims()
		assert.Equal(t, d.Nx[k+1], r)
		assert.Equal(t, d.Nu[k], c)
		assert.Len(t, in.B0[k], d.Nx[k+1])
	}
}

func TestNewIn_NoGeneralConstraints(t *testing.T) {
	d := testDims()
	in := NewIn(d)
	for i := 0; i <= d.N; i++ {
		assert.Nil(t, in.Cg[i])
		assert.Nil(t, in.Dg[i])
	}
}

func TestNewIn_WithGeneralConstraints(t *testing.T) {
	d := testDims()
	d.Nq[1] = 3
	in := NewIn(d)
	assert.NotNil(t, in.Cg[1])
	assert.NotNil(t, in.Dg[1])
	r, c := in.Cg[1].Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, d.Nx[1], c)
	r, c = in.Dg[1].Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, d.Nu[1], c)
	assert.Len(t, in.Lg[1], 3)
	assert.Len(t, in.Ug[1], 3)
}

func TestNewOut_Shapes(t *testing.T) {
	d := testDims()
	out := NewOut(d)
	assert.Len(t, out.Ux, d.N+1)
	assert.Len(t, out.Pi, d.N)
	for i := 0; i <= d.N; i++ {
		assert.Len(t, out.Ux[i], d.Nv[i])
		assert.Len(t, out.Lam[i], 2*(d.Nq[i]+d.Ns[i]))
	}
	for k := 0; k < d.N; k++ {
		assert.Len(t, out.Pi[k], d.Nx[k+1])
	}
}

func TestAddLevenbergMarquardt(t *testing.T) {
	d := testDims()
	in := NewIn(d)
	in.AddLevenbergMarquardt(1.5)
	for i := 0; i <= d.N; i++ {
		n := in.Hess[i].SymmetricDim()
		for j := 0; j < n; j++ {
			assert.Equal(t, 1.5, in.Hess[i].At(j, j))
		}
	}
	in.AddLevenbergMarquardt(0.5)
	for i := 0; i <= d.N; i++ {
		n := in.Hess[i].SymmetricDim()
		for j := 0; j < n; j++ {
			assert.Equal(t, 2.0, in.Hess[i].At(j, j))
		}
	}
}
