package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gonmpc/rti/advance"
	"github.com/gonmpc/rti/rti"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rti.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	yaml := `
horizon:
  n: 2
  nx: [1, 1, 1]
  nu: [1, 1, 0]
  ns: [0, 0, 0]
  nq: [0, 0, 0]
rti_phase: preparation
as_rti_level: b
as_rti_advancement_strategy: simulate_advance
as_rti_iter: 3
rti_log_residuals: true
`
	path := writeTempYAML(t, yaml)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Horizon.N)
	assert.Equal(t, "preparation", cfg.RtiPhase)
	assert.Equal(t, 3, cfg.AsRtiIter)
	assert.True(t, cfg.RtiLogResiduals)
}

func TestLoad_RejectsUnknownField(t *testing.T) {
	path := writeTempYAML(t, "horizon:\n  n: 1\nbogus_field: 1\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	path := writeTempYAML(t, "{{not yaml")
	_, err := Load(path)
	assert.Error(t, err)
}

func validHorizon() HorizonConfig {
	return HorizonConfig{N: 1, Nx: []int{1, 1}, Nu: []int{1, 0}, Ns: []int{0, 0}, Nq: []int{0, 0}}
}

func TestValidate_RejectsMismatchedSliceLength(t *testing.T) {
	cfg := &RtiConfig{Horizon: HorizonConfig{N: 2, Nx: []int{1, 1}, Nu: []int{1, 1, 0}, Ns: []int{0, 0, 0}, Nq: []int{0, 0, 0}}}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownRtiPhase(t *testing.T) {
	cfg := &RtiConfig{Horizon: validHorizon(), RtiPhase: "sideways"}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownAsRtiLevel(t *testing.T) {
	cfg := &RtiConfig{Horizon: validHorizon(), AsRtiLevel: "e"}
	assert.Error(t, cfg.Validate())
}

func TestValidate_AcceptsFullyPopulatedConfig(t *testing.T) {
	cfg := &RtiConfig{
		Horizon:                  validHorizon(),
		RtiPhase:                 "preparation_and_feedback",
		AsRtiLevel:               "standard",
		AsRtiAdvancementStrategy: "shift_advance",
	}
	assert.NoError(t, cfg.Validate())
}

func TestToDims_DerivesNvFromNxPlusNu(t *testing.T) {
	cfg := &RtiConfig{Horizon: validHorizon()}
	d := cfg.ToDims()
	assert.Equal(t, 1, d.N)
	assert.Equal(t, []int{2, 1}, d.Nv)
}

func TestToOptions_TranslatesNamedFields(t *testing.T) {
	cfg := &RtiConfig{
		Horizon:                  validHorizon(),
		RtiPhase:                 "feedback",
		AsRtiLevel:               "c",
		AsRtiAdvancementStrategy: "no_advance",
		AsRtiIter:                5,
	}
	o := cfg.ToOptions()
	assert.Equal(t, rti.Feedback, o.RtiPhase)
	assert.Equal(t, rti.LevelC, o.AsRtiLevel)
	assert.Equal(t, advance.NoAdvance, o.AsRtiAdvancementStrategy)
	assert.Equal(t, 5, o.AsRtiIter)
}

func TestToOptions_UnsetFieldsKeepDefaults(t *testing.T) {
	cfg := &RtiConfig{Horizon: validHorizon()}
	o := cfg.ToOptions()
	d := rti.Default()
	assert.Equal(t, d.RtiPhase, o.RtiPhase)
	assert.Equal(t, d.AsRtiLevel, o.AsRtiLevel)
	assert.Equal(t, d.WarmStartFirstQp, o.WarmStartFirstQp)
}

func TestToOptions_PointerOverridesApply(t *testing.T) {
	warmStart := false
	qpWarmStart := 0
	cfg := &RtiConfig{Horizon: validHorizon(), WarmStartFirstQp: &warmStart, QpWarmStart: &qpWarmStart}
	o := cfg.ToOptions()
	assert.False(t, o.WarmStartFirstQp)
	assert.Equal(t, 0, o.QpWarmStart)
}
