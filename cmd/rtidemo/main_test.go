package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gonmpc/rti/rti"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCmd_RegistersExpectedFlagsWithDefaults(t *testing.T) {
	cyclesFlag := runCmd.Flags().Lookup("cycles")
	configFlag := runCmd.Flags().Lookup("config")
	logFlag := runCmd.Flags().Lookup("log")

	require.NotNil(t, cyclesFlag, "cycles flag must be registered")
	require.NotNil(t, configFlag, "config flag must be registered")
	require.NotNil(t, logFlag, "log flag must be registered")

	assert.Equal(t, "10", cyclesFlag.DefValue)
	assert.Equal(t, "", configFlag.DefValue)
	assert.Equal(t, "info", logFlag.DefValue)
}

func TestBuildProblem_DefaultsToBuiltInPendulumHorizon(t *testing.T) {
	configPath = ""
	d, opts, err := buildProblem()
	require.NoError(t, err)
	assert.Equal(t, 20, d.N)
	assert.Equal(t, 2, d.Nx[0])
	assert.Equal(t, 1, d.Nu[0])
	assert.Equal(t, rti.Default().RtiPhase, opts.RtiPhase)
}

func TestBuildProblem_LoadsFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rti.yaml")
	yaml := `
horizon:
  n: 1
  nx: [2, 2]
  nu: [1, 0]
  ns: [0, 0]
  nq: [0, 0]
rti_phase: preparation
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	configPath = path
	defer func() { configPath = "" }()
	d, _, err := buildProblem()
	require.NoError(t, err)
	assert.Equal(t, 1, d.N)
	assert.Equal(t, 2, d.Nx[0])
}

func TestDiag_BuildsDiagonalMatrix(t *testing.T) {
	s := diag([]float64{1, 2, 3})
	assert.Equal(t, 1.0, s.At(0, 0))
	assert.Equal(t, 2.0, s.At(1, 1))
	assert.Equal(t, 3.0, s.At(2, 2))
	assert.Equal(t, 0.0, s.At(0, 1))
}
