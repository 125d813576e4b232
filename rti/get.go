package rti

import "fmt"

// Get implements the dotted "module.field" read-side namespace of
// spec.md §4.7: "time_*" routes to Timings, "stat"/"statistics" expose
// the stats ring, "stat_m"/"stat_n" report its shape, "status" reports
// Mem.Status; any other field returns an error.
func (drv *Driver) Get(field string) (any, error) {
	switch field {
	case "time_lin":
		return drv.Timings.TimeLin, nil
	case "time_reg":
		return drv.Timings.TimeReg, nil
	case "time_qp_sol":
		return drv.Timings.TimeQpSol, nil
	case "time_glob":
		return drv.Timings.TimeGlob, nil
	case "time_preparation":
		return drv.Timings.TimePreparation, nil
	case "time_feedback":
		return drv.Timings.TimeFeedback, nil
	case "time_tot":
		return drv.Timings.TimeTot, nil
	case "stat":
		return drv.Mem.Stats, nil
	case "statistics":
		return drv.Mem.Stats.Transposed(drv.Mem.Iter + 1), nil
	case "stat_m":
		return drv.Mem.Stats.Rows(), nil
	case "stat_n":
		return drv.Mem.Stats.Cols(), nil
	case "status":
		return drv.Mem.Status, nil
	default:
		return nil, fmt.Errorf("rti: unknown field %q", field)
	}
}

// OptsGet reads back an option previously set via OptsSet. A dotted
// "qp." field returns an error: the QP solver has no getter.
func (drv *Driver) OptsGet(field string) (any, error) {
	if len(field) > 3 && field[:3] == "qp." {
		return nil, fmt.Errorf("rti: qp solver does not expose an opts_get")
	}
	switch field {
	case "rti_phase":
		return drv.Opts.RtiPhase, nil
	case "as_rti_level":
		return drv.Opts.AsRtiLevel, nil
	case "as_rti_advancement_strategy":
		return drv.Opts.AsRtiAdvancementStrategy, nil
	case "as_rti_iter":
		return drv.Opts.AsRtiIter, nil
	case "rti_log_residuals":
		return drv.Opts.RtiLogResiduals, nil
	case "rti_log_only_available_residuals":
		return drv.Opts.RtiLogOnlyAvailableResiduals, nil
	case "ext_qp_res":
		return drv.Opts.ExtQpRes, nil
	case "warm_start_first_qp":
		return drv.Opts.WarmStartFirstQp, nil
	case "warm_start_first_qp_from_nlp":
		return drv.Opts.WarmStartFirstQpFromNlp, nil
	default:
		return nil, fmt.Errorf("rti: unknown option %q", field)
	}
}

// WorkGet exposes the current iterate's primal/dual blocks, the
// closest analogue this driver has to acados's scratch "nlp_work"
// pointer accessors.
func (drv *Driver) WorkGet(field string, stage int) ([]float64, error) {
	if stage < 0 || stage > drv.D.N {
		return nil, fmt.Errorf("rti: stage %d out of range", stage)
	}
	switch field {
	case "ux":
		return drv.Mem.Iterate.Ux[stage], nil
	case "lam":
		return drv.Mem.Iterate.Lam[stage], nil
	case "pi":
		if stage >= drv.D.N {
			return nil, fmt.Errorf("rti: pi has no entry at stage %d", stage)
		}
		return drv.Mem.Iterate.Pi[stage], nil
	default:
		return nil, fmt.Errorf("rti: unknown work field %q", field)
	}
}
