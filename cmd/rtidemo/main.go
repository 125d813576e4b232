// Command rtidemo drives a toy pendulum swing-up NMPC problem through
// the RTI driver for a fixed number of control cycles, printing its
// timing and statistics after each one.
package main

import (
	"fmt"
	"os"

	"github.com/gonmpc/rti/arena"
	"github.com/gonmpc/rti/config"
	"github.com/gonmpc/rti/dims"
	"github.com/gonmpc/rti/globalization"
	"github.com/gonmpc/rti/nlp"
	"github.com/gonmpc/rti/qp"
	"github.com/gonmpc/rti/rti"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

var (
	configPath string
	cycles     int
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "rtidemo",
	Short: "Run a toy NMPC control loop through the RTI driver",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pendulum swing-up demo",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)

		d, opts, err := buildProblem()
		if err != nil {
			return err
		}

		const g, l, dt, substeps = 9.81, 1.0, 0.05, 4
		dyn := nlp.NewPendulumDynamics(g, l, dt, substeps, d.N)

		q := []float64{10, 1}
		rw := []float64{0.1}
		cost := pendulumCost(d, q, rw)

		statRows := 2 + opts.AsRtiIter
		size := rti.MemoryCalculateSize(d, statRows, opts.ExtQpRes, opts.RtiLogResiduals)
		mem := rti.NewMemoryInArena(arena.New(make([]byte, size)), d, statRows, opts.ExtQpRes, opts.RtiLogResiduals)

		// start near upright (theta = 0 is hanging down, pi is upright)
		it := mem.Iterate
		it.Ux[0][d.Nu[0]] = 3.0 // theta0 = 3.0 rad, just short of pi
		it.Ux[0][d.Nu[0]+1] = 0.0

		dynSlice := make([]nlp.Dynamics, d.N)
		costSlice := make([]nlp.Cost, d.N+1)
		consSlice := make([]nlp.Constraints, d.N+1)
		for i := 0; i < d.N; i++ {
			dynSlice[i] = dyn
		}
		for i := 0; i <= d.N; i++ {
			costSlice[i] = cost
			consSlice[i] = nlp.NoConstraints{}
		}

		solver := qp.NewDenseSolver(d)
		reg := qp.NewConvexifyRegularizer(1e-6)
		glob := globalization.FullStep{}

		drv, err := rti.Precompute(d, opts, dynSlice, costSlice, consSlice, reg, solver, glob, mem)
		if err != nil {
			return fmt.Errorf("precompute: %w", err)
		}

		logrus.Infof("Starting rtidemo: N=%d, as_rti_level=%d, cycles=%d", d.N, opts.AsRtiLevel, cycles)
		for c := 0; c < cycles; c++ {
			if err := drv.Evaluate(); err != nil {
				return fmt.Errorf("cycle %d: %w", c, err)
			}
			stat, eq, _, comp := drv.EvalKKTResidual()
			logrus.Infof("cycle=%d status=%d time_tot=%.6f stat=%.3e eq=%.3e comp=%.3e",
				c, drv.Mem.Status, drv.Timings.TimeTot, stat, eq, comp)
		}
		logrus.Info("rtidemo complete.")
		return nil
	},
}

// buildProblem loads an RtiConfig from configPath if given, otherwise
// falls back to a small fixed-size built-in horizon.
func buildProblem() (dims.Dims, rti.Options, error) {
	if configPath == "" {
		d := dims.New(20)
		for i := 0; i <= d.N; i++ {
			d.Nx[i] = 2
			if i < d.N {
				d.Nu[i] = 1
			}
			d.Nv[i] = d.Nx[i] + d.Nu[i]
		}
		return d, rti.Default(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return dims.Dims{}, rti.Options{}, err
	}
	if err := cfg.Validate(); err != nil {
		return dims.Dims{}, rti.Options{}, err
	}
	return cfg.ToDims(), cfg.ToOptions(), nil
}

func pendulumCost(d dims.Dims, q, r []float64) nlp.Cost {
	return nlp.NewQuadraticCost(diag(q), diag(r), []float64{0, 0}, []float64{0}, d.N)
}

// diag builds a SymDense with w on the diagonal and zero elsewhere.
func diag(w []float64) *mat.SymDense {
	s := mat.NewSymDense(len(w), nil)
	for i, v := range w {
		s.SetSym(i, i, v)
	}
	return s
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "path to an RtiConfig YAML file (built-in pendulum problem if omitted)")
	runCmd.Flags().IntVar(&cycles, "cycles", 10, "number of control cycles to run")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(runCmd)
}

func main() {
	Execute()
}
