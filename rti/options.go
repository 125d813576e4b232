package rti

import (
	"fmt"

	"github.com/gonmpc/rti/advance"
)

// Phase is the rti_phase option (spec.md §3: "0 ≤ rti_phase ≤ 2
// (PREPARATION=1, FEEDBACK=2, PREPARATION_AND_FEEDBACK=0)").
type Phase int

const (
	PreparationAndFeedback Phase = 0
	Preparation            Phase = 1
	Feedback               Phase = 2
)

// Level is the as_rti_level option (spec.md §4.2).
type Level int

const (
	LevelA Level = iota
	LevelB
	LevelC
	LevelD
	StandardRTI
)

// Options holds the rti_phase/as_rti_* configuration of spec.md §4.2.
type Options struct {
	RtiPhase                     Phase
	AsRtiLevel                   Level
	AsRtiAdvancementStrategy     advance.Strategy
	AsRtiIter                    int
	RtiLogResiduals              bool
	RtiLogOnlyAvailableResiduals bool
	// ExtQpRes is spec.md §3/§6's ext_qp_res: when set, the feedback step
	// (and every AS-RTI inner iteration) additionally writes a residual
	// quad into stats columns 2..5, ahead of the NLP residual columns
	// rti_log_residuals controls. The quad is EvalKKTResidual's value
	// after an acceptable QP solve and before globalization; no residual
	// of the QP solution itself is computed.
	ExtQpRes bool

	// WarmStartFirstQp is spec.md §4.4 step 5's first-call warm-start
	// policy: when false, the QP solver's warm start is off for the first
	// call. WarmStartFirstQpFromNlp is stored and readable via OptsGet;
	// the feedback step does not act on it.
	WarmStartFirstQp        bool
	WarmStartFirstQpFromNlp bool
	// QpWarmStart is the steady-state warm-start value restored after
	// the first call (spec.md §4.4 step 8).
	QpWarmStart int
}

// Default returns the option defaults spec.md §4.2 names.
func Default() Options {
	return Options{
		RtiPhase:                 PreparationAndFeedback,
		AsRtiLevel:               StandardRTI,
		AsRtiAdvancementStrategy: advance.SimulateAdvance,
		AsRtiIter:                0,
		WarmStartFirstQp:         true,
		QpWarmStart:              1,
	}
}

// Validate checks the enumerated ranges spec.md §3 requires to be
// rejected fast ("any other value is rejected").
func (o Options) Validate() error {
	if o.RtiPhase < PreparationAndFeedback || o.RtiPhase > Feedback {
		return fmt.Errorf("%w: rti_phase=%d", ErrInvalidPhase, o.RtiPhase)
	}
	if o.AsRtiLevel < LevelA || o.AsRtiLevel > StandardRTI {
		return fmt.Errorf("rti: as_rti_level out of range: %d", o.AsRtiLevel)
	}
	if o.AsRtiIter < 0 {
		return fmt.Errorf("rti: as_rti_iter must be >= 0, got %d", o.AsRtiIter)
	}
	if o.RtiPhase == PreparationAndFeedback && o.AsRtiLevel != StandardRTI {
		return ErrPreparationAndFeedbackWithASRTI
	}
	return nil
}

// OptsSet implements the flat "module.field" namespace of spec.md §4.2:
// a leading "qp." forwards to the QP solver's own setter, anything else
// is interpreted locally.
func (drv *Driver) OptsSet(field string, value any) error {
	if len(field) > 3 && field[:3] == "qp." {
		return drv.Solver.OptsSet(field[3:], value)
	}
	switch field {
	case "rti_phase":
		v, err := asInt(field, value)
		if err != nil {
			return err
		}
		drv.Opts.RtiPhase = Phase(v)
	case "as_rti_level":
		v, err := asInt(field, value)
		if err != nil {
			return err
		}
		drv.Opts.AsRtiLevel = Level(v)
	case "as_rti_advancement_strategy":
		v, err := asInt(field, value)
		if err != nil {
			return err
		}
		drv.Opts.AsRtiAdvancementStrategy = advance.Strategy(v)
	case "as_rti_iter":
		v, err := asInt(field, value)
		if err != nil {
			return err
		}
		drv.Opts.AsRtiIter = v
	case "rti_log_residuals":
		v, err := asBool(field, value)
		if err != nil {
			return err
		}
		drv.Opts.RtiLogResiduals = v
	case "rti_log_only_available_residuals":
		v, err := asBool(field, value)
		if err != nil {
			return err
		}
		drv.Opts.RtiLogOnlyAvailableResiduals = v
	case "ext_qp_res":
		v, err := asBool(field, value)
		if err != nil {
			return err
		}
		drv.Opts.ExtQpRes = v
	case "warm_start_first_qp":
		v, err := asBool(field, value)
		if err != nil {
			return err
		}
		drv.Opts.WarmStartFirstQp = v
	case "warm_start_first_qp_from_nlp":
		v, err := asBool(field, value)
		if err != nil {
			return err
		}
		drv.Opts.WarmStartFirstQpFromNlp = v
	default:
		return fmt.Errorf("rti: unknown option %q", field)
	}
	if err := drv.Opts.Validate(); err != nil {
		return err
	}
	return nil
}

func asInt(field string, value any) (int, error) {
	v, ok := value.(int)
	if !ok {
		return 0, fmt.Errorf("rti: option %q expects int, got %T", field, value)
	}
	return v, nil
}

func asBool(field string, value any) (bool, error) {
	v, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("rti: option %q expects bool, got %T", field, value)
	}
	return v, nil
}
