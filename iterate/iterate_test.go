package iterate

import (
	"testing"

	"github.com/gonmpc/rti/arena"
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

func TestNewInArena_Shapes(t *testing.T) {
	d := testDims()
	a := arena.New(make([]byte, Size(d)))
	it := NewInArena(a, d)

	assert.Len(t, it.Ux, d.N+1)
	assert.Len(t, it.Pi, d.N)
	assert.Len(t, it.Lam, d.N+1)
	for i := 0; i <= d.N; i++ {
		assert.Len(t, it.Ux[i], d.Nv[i])
	}
}

func TestXUSplit(t *testing.T) {
	d := testDims()
	a := arena.New(make([]byte, Size(d)))
	it := NewInArena(a, d)
	it.Ux[0][0] = 99 // u
	it.Ux[0][1] = 1  // x[0]
	it.Ux[0][2] = 2  // x[1]

	u := it.U(0, d.Nu[0])
	x := it.X(0, d.Nu[0])
	assert.Equal(t, []float64{99}, u)
	assert.Equal(t, []float64{1, 2}, x)
}

func TestCopyInto(t *testing.T) {
	d := testDims()
	d.Nq[0] = 1 // so Lam[0] has room for a dual entry
	a1 := arena.New(make([]byte, Size(d)))
	src := NewInArena(a1, d)
	a2 := arena.New(make([]byte, Size(d)))
	dst := NewInArena(a2, d)

	src.Ux[1][0] = 42
	src.Pi[0][0] = 7
	src.Lam[0][0] = 3

	src.CopyInto(dst)
	assert.Equal(t, 42.0, dst.Ux[1][0])
	assert.Equal(t, 7.0, dst.Pi[0][0])
	assert.Equal(t, 3.0, dst.Lam[0][0])

	// mutating src afterwards must not affect dst (independent buffers)
	src.Ux[1][0] = 100
	assert.Equal(t, 42.0, dst.Ux[1][0])
}
