// Package config loads the YAML-decodable problem/options bundle the
// rtidemo CLI builds a driver from, grounded on the teacher's
// PolicyBundle: strict YAML decoding plus a named-registry Validate
// pass over enumerated string fields.
package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gonmpc/rti/advance"
	"github.com/gonmpc/rti/dims"
	"github.com/gonmpc/rti/rti"
	"gopkg.in/yaml.v3"
)

// HorizonConfig is the per-stage size vectors spec.md §3's dims model
// names. Nx/Nu/Ns/Nq must each have length N+1; Nv is derived, not
// read from YAML.
type HorizonConfig struct {
	N  int   `yaml:"n"`
	Nx []int `yaml:"nx"`
	Nu []int `yaml:"nu"`
	Ns []int `yaml:"ns"`
	Nq []int `yaml:"nq"`
}

// RtiConfig is the full driver configuration bundle.
type RtiConfig struct {
	Horizon HorizonConfig `yaml:"horizon"`

	RtiPhase                     string `yaml:"rti_phase"`
	AsRtiLevel                   string `yaml:"as_rti_level"`
	AsRtiAdvancementStrategy     string `yaml:"as_rti_advancement_strategy"`
	AsRtiIter                    int    `yaml:"as_rti_iter"`
	RtiLogResiduals              bool   `yaml:"rti_log_residuals"`
	RtiLogOnlyAvailableResiduals bool   `yaml:"rti_log_only_available_residuals"`
	ExtQpRes                     bool   `yaml:"ext_qp_res"`
	WarmStartFirstQp             *bool  `yaml:"warm_start_first_qp"`
	WarmStartFirstQpFromNlp      bool   `yaml:"warm_start_first_qp_from_nlp"`
	QpWarmStart                  *int   `yaml:"qp_warm_start"`
}

// Load reads and strictly parses path as an RtiConfig, rejecting
// unrecognized keys (typos) the way the teacher's LoadPolicyBundle
// does.
func Load(path string) (*RtiConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rti config: %w", err)
	}
	var cfg RtiConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing rti config: %w", err)
	}
	return &cfg, nil
}

var (
	rtiPhases = map[string]rti.Phase{
		"preparation_and_feedback": rti.PreparationAndFeedback,
		"preparation":              rti.Preparation,
		"feedback":                 rti.Feedback,
	}
	asRtiLevels = map[string]rti.Level{
		"a":        rti.LevelA,
		"b":        rti.LevelB,
		"c":        rti.LevelC,
		"d":        rti.LevelD,
		"standard": rti.StandardRTI,
	}
	advancementStrategies = map[string]advance.Strategy{
		"no_advance":       advance.NoAdvance,
		"shift_advance":    advance.ShiftAdvance,
		"simulate_advance": advance.SimulateAdvance,
	}
)

func sortedKeys[V any](m map[string]V) string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Validate checks the horizon's per-stage slice lengths and every
// enumerated string field against its registry.
func (c *RtiConfig) Validate() error {
	if c.Horizon.N < 1 {
		return fmt.Errorf("config: horizon.n must be >= 1, got %d", c.Horizon.N)
	}
	want := c.Horizon.N + 1
	for name, s := range map[string][]int{
		"nx": c.Horizon.Nx, "nu": c.Horizon.Nu, "ns": c.Horizon.Ns, "nq": c.Horizon.Nq,
	} {
		if len(s) != want {
			return fmt.Errorf("config: len(horizon.%s) = %d, want n+1 = %d", name, len(s), want)
		}
	}
	if c.RtiPhase != "" {
		if _, ok := rtiPhases[c.RtiPhase]; !ok {
			return fmt.Errorf("config: unknown rti_phase %q; valid options: %s", c.RtiPhase, sortedKeys(rtiPhases))
		}
	}
	if c.AsRtiLevel != "" {
		if _, ok := asRtiLevels[c.AsRtiLevel]; !ok {
			return fmt.Errorf("config: unknown as_rti_level %q; valid options: %s", c.AsRtiLevel, sortedKeys(asRtiLevels))
		}
	}
	if c.AsRtiAdvancementStrategy != "" {
		if _, ok := advancementStrategies[c.AsRtiAdvancementStrategy]; !ok {
			return fmt.Errorf("config: unknown as_rti_advancement_strategy %q; valid options: %s",
				c.AsRtiAdvancementStrategy, sortedKeys(advancementStrategies))
		}
	}
	if c.AsRtiIter < 0 {
		return fmt.Errorf("config: as_rti_iter must be >= 0, got %d", c.AsRtiIter)
	}
	return nil
}

// ToDims builds the dims.Dims the horizon config describes.
func (c *RtiConfig) ToDims() dims.Dims {
	d := dims.New(c.Horizon.N)
	copy(d.Nx, c.Horizon.Nx)
	copy(d.Nu, c.Horizon.Nu)
	copy(d.Ns, c.Horizon.Ns)
	copy(d.Nq, c.Horizon.Nq)
	for i := 0; i <= d.N; i++ {
		d.Nv[i] = d.Nx[i] + d.Nu[i]
	}
	return d
}

// ToOptions translates the bundle's named fields into rti.Options,
// starting from rti.Default() so unset YAML fields keep their defaults.
func (c *RtiConfig) ToOptions() rti.Options {
	o := rti.Default()
	if c.RtiPhase != "" {
		o.RtiPhase = rtiPhases[c.RtiPhase]
	}
	if c.AsRtiLevel != "" {
		o.AsRtiLevel = asRtiLevels[c.AsRtiLevel]
	}
	if c.AsRtiAdvancementStrategy != "" {
		o.AsRtiAdvancementStrategy = advancementStrategies[c.AsRtiAdvancementStrategy]
	}
	o.AsRtiIter = c.AsRtiIter
	o.RtiLogResiduals = c.RtiLogResiduals
	o.RtiLogOnlyAvailableResiduals = c.RtiLogOnlyAvailableResiduals
	o.ExtQpRes = c.ExtQpRes
	if c.WarmStartFirstQp != nil {
		o.WarmStartFirstQp = *c.WarmStartFirstQp
	}
	o.WarmStartFirstQpFromNlp = c.WarmStartFirstQpFromNlp
	if c.QpWarmStart != nil {
		o.QpWarmStart = *c.QpWarmStart
	}
	return o
}
