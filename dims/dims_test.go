package dims

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_OK(t *testing.T) {
	d := New(3)
	assert.NoError(t, d.Validate())
}

func TestValidate_BadN(t *testing.T) {
	d := New(0)
	assert.Error(t, d.Validate())
}

func TestValidate_WrongSliceLength(t *testing.T) {
	d := New(3)
	d.Nx = d.Nx[:2]
	assert.Error(t, d.Validate())
}

func TestValidate_NegativeSize(t *testing.T) {
	d := New(2)
	d.Nu[1] = -1
	assert.Error(t, d.Validate())
}

func TestRequireShiftable(t *testing.T) {
	d := New(2)
	d.Nx[0], d.Nx[1] = 4, 4
	assert.NoError(t, d.RequireShiftable())

	d.Nx[1] = 5
	assert.Error(t, d.RequireShiftable())
}

func TestHasSoftConstraints(t *testing.T) {
	d := New(2)
	assert.False(t, d.HasSoftConstraints())
	d.Ns[1] = 2
	assert.True(t, d.HasSoftConstraints())
}

func TestTotalPrimal(t *testing.T) {
	d := New(2)
	d.Nv[0], d.Nv[1], d.Nv[2] = 2, 3, 1
	assert.Equal(t, 6, d.TotalPrimal())
}
