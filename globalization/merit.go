package globalization

import (
	"github.com/gonmpc/rti/dims"
	"github.com/gonmpc/rti/iterate"
	"github.com/gonmpc/rti/qp"
	"gonum.org/v1/gonum/floats"
)

// MeritFunc evaluates an l1 merit function (cost + constraint/dynamics
// violation penalty) at a trial stacked-ux trajectory; supplied by the
// caller since computing it requires re-evaluating the cost and
// dynamics collaborators, which this package does not own.
type MeritFunc func(ux [][]float64) float64

// BacktrackingMerit is an Armijo backtracking line search over the QP
// step direction: the reference Globalization collaborator for
// problems where a full step risks divergence. Grounded on the
// classic sufficient-decrease condition
// phi(x + alpha*d) <= phi(x) + c1*alpha*directional_derivative.
type BacktrackingMerit struct {
	Merit         MeritFunc
	C1            float64 // Armijo sufficient-decrease constant, typically 1e-4
	Shrink        float64 // step-size multiplier on rejection, typically 0.5
	MinStepSize   float64
	MaxBacktracks int
}

// NewBacktrackingMerit builds a BacktrackingMerit with conventional
// defaults (c1=1e-4, shrink=0.5, minStepSize=1e-4, maxBacktracks=20).
func NewBacktrackingMerit(merit MeritFunc) *BacktrackingMerit {
	return &BacktrackingMerit{Merit: merit, C1: 1e-4, Shrink: 0.5, MinStepSize: 1e-4, MaxBacktracks: 20}
}

// FindAcceptableIterate backtracks alpha from 1.0 until the merit
// function at the trial iterate satisfies Armijo sufficient decrease,
// or MinStepSize is reached (in which case the smallest tried step is
// taken anyway and NoAcceptableStep is reported, per spec.md §4.4 step
// 10: "non-success is logged but does not abort").
func (m *BacktrackingMerit) FindAcceptableIterate(d dims.Dims, it *iterate.Iterate, step *qp.Out) (int, float64) {
	base := stackedUx(d, it)
	phi0 := m.Merit(base)
	dirDeriv := directionalDerivative(d, it, step)

	alpha := 1.0
	status := NoAcceptableStep
	for b := 0; b < m.MaxBacktracks; b++ {
		trial := trialUx(d, it, step, alpha)
		phi := m.Merit(trial)
		if phi <= phi0+m.C1*alpha*dirDeriv {
			status = Success
			break
		}
		if alpha <= m.MinStepSize {
			break
		}
		alpha *= m.Shrink
		if alpha < m.MinStepSize {
			alpha = m.MinStepSize
		}
	}
	applyStep(d, it, step, alpha)
	return status, alpha
}

var _ Globalization = (*BacktrackingMerit)(nil)

func stackedUx(d dims.Dims, it *iterate.Iterate) [][]float64 {
	out := make([][]float64, d.N+1)
	for i := range out {
		out[i] = append([]float64(nil), it.Ux[i]...)
	}
	return out
}

func trialUx(d dims.Dims, it *iterate.Iterate, step *qp.Out, alpha float64) [][]float64 {
	out := make([][]float64, d.N+1)
	for i := 0; i <= d.N; i++ {
		out[i] = append([]float64(nil), it.Ux[i]...)
		floats.AddScaled(out[i], alpha, step.Ux[i])
	}
	return out
}

// directionalDerivative approximates the merit function's directional
// derivative along the QP step with its L2 norm as a crude descent
// proxy — a real implementation would use the cost gradient's inner
// product with the step, but that requires the cost collaborator; this
// keeps BacktrackingMerit usable with only a black-box Merit callback.
func directionalDerivative(d dims.Dims, it *iterate.Iterate, step *qp.Out) float64 {
	total := 0.0
	for i := 0; i <= d.N; i++ {
		total -= floats.Norm(step.Ux[i], 2)
	}
	return total
}
