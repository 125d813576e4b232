// Package globalization implements the step-size / merit-function
// logic spec.md §4.4 step 10 hands the QP step to: "find_acceptable_iterate
// returns the accepted step size and updates iterate in place."
package globalization

import (
	"github.com/gonmpc/rti/dims"
	"github.com/gonmpc/rti/iterate"
	"github.com/gonmpc/rti/qp"
)

// Outcome codes mirroring the QP status convention (Success is always
// acceptable). The driver discards the outcome: it neither aborts on
// nor logs anything other than Success.
const (
	Success = iota
	NoAcceptableStep
)

// Globalization is the "globalization" collaborator of spec.md §6.
type Globalization interface {
	// FindAcceptableIterate applies step*out to it in place and returns
	// the outcome status and the accepted step size.
	FindAcceptableIterate(d dims.Dims, it *iterate.Iterate, step *qp.Out) (status int, stepSize float64)
}

// FullStep always accepts the full Newton/SQP step (step_size=1), the
// baseline globalization strategy — equivalent to "no globalization",
// matching acados's default when no merit function is configured.
type FullStep struct{}

// FindAcceptableIterate adds the full QP step to it.
func (FullStep) FindAcceptableIterate(d dims.Dims, it *iterate.Iterate, step *qp.Out) (int, float64) {
	applyStep(d, it, step, 1.0)
	return Success, 1.0
}

var _ Globalization = FullStep{}

func applyStep(d dims.Dims, it *iterate.Iterate, step *qp.Out, alpha float64) {
	for i := 0; i <= d.N; i++ {
		ux := it.Ux[i]
		s := step.Ux[i]
		for j := range ux {
			ux[j] += alpha * s[j]
		}
		// duals are absolute in qp.Out, not a step (spec.md §4.4 step 1:
		// "step in primal, absolute duals") — copy, never scale.
		copy(it.Lam[i], step.Lam[i])
	}
	for k := 0; k < d.N; k++ {
		copy(it.Pi[k], step.Pi[k])
	}
}
