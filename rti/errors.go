package rti

import "errors"

// Sentinel errors for the fatal validation/precondition failures
// spec.md §7 lists as "programmer error ... not expected to be caught":
// dimension mismatch for AS-RTI, soft constraints for LEVEL_B,
// nonlinear inequalities for LEVEL_C, out-of-range phase or level.
var (
	ErrInvalidPhase                   = errors.New("rti: invalid rti_phase")
	ErrDimensionMismatch               = errors.New("rti: dims.nx[0] == dims.nx[1] required for AS-RTI")
	ErrSoftConstraintsUnsupported      = errors.New("rti: LEVEL_B forbids soft constraints (ns[k] > 0)")
	ErrNonlinearInequality             = errors.New("rti: LEVEL_C forbids nonlinear inequality constraints")
	ErrPreparationAndFeedbackWithASRTI = errors.New("rti: PREPARATION_AND_FEEDBACK requires as_rti_level == STANDARD_RTI")
)

// Status codes for nlp_mem.status (spec.md §7).
const (
	StatusReady = iota
	StatusSuccess
	StatusQPFailure
)
