package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/gridchronics/core/dispatch"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
network: net.json
profiles: "profiles/*.csv"
output: out
parallelism: 4
dispatch:
  mode: ac
  loss_factor: 0.03
  relax_factor: 2
  disable_shedding: true
  failure_policy: abort
validation:
  tolerance: 0.001
  strict: true
metrics:
  prometheus_enabled: true
  prometheus_port: 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "net.json", cfg.Network)
	assert.Equal(t, "profiles/*.csv", cfg.Profiles)
	assert.Equal(t, "out", cfg.Output)
	assert.Equal(t, 4, cfg.Parallelism)
	assert.Equal(t, "ac", cfg.Dispatch.Mode)
	assert.InDelta(t, 0.03, cfg.Dispatch.LossFactor, 1e-9)
	assert.InDelta(t, 2, cfg.Dispatch.RelaxFactor, 1e-9)
	assert.True(t, cfg.Dispatch.DisableShedding)
	assert.Equal(t, dispatch.PolicyAbort, cfg.Dispatch.FailurePolicy)
	assert.InDelta(t, 0.001, cfg.Validation.Tolerance, 1e-9)
	assert.True(t, cfg.Validation.Strict)
	// The validator inherits the loss factor of the ac formulation.
	assert.InDelta(t, 0.03, cfg.Validation.LossFactor, 1e-9)
	assert.True(t, cfg.Metrics.PrometheusEnabled)
	assert.Equal(t, 9090, cfg.Metrics.PrometheusPort)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "config.json", `{"network":"net.json","profiles":"*.csv"}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "chronics", cfg.Output)
	assert.Equal(t, 1, cfg.Parallelism)
	assert.Equal(t, "dc", cfg.Dispatch.Mode)
	assert.Equal(t, 3, cfg.Dispatch.Segments)
	assert.InDelta(t, 1, cfg.Dispatch.RelaxFactor, 1e-9)
	assert.False(t, cfg.Dispatch.DisableShedding)
	assert.Equal(t, dispatch.PolicyHoldLast, cfg.Dispatch.FailurePolicy)
	assert.InDelta(t, 1e-4, cfg.Validation.Tolerance, 1e-12)
	assert.InDelta(t, 0, cfg.Validation.LossFactor, 1e-12)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
network: net.json
profiles: "*.csv"
dispatch:
  failure_policy: abort
`)
	t.Setenv("GC_OUTPUT", "elsewhere")
	t.Setenv("GC_DISPATCH__FAILURE_POLICY", "hold-last")
	t.Setenv("GC_DISPATCH__RELAX_FACTOR", "2.5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "elsewhere", cfg.Output)
	assert.Equal(t, dispatch.PolicyHoldLast, cfg.Dispatch.FailurePolicy)
	assert.InDelta(t, 2.5, cfg.Dispatch.RelaxFactor, 1e-9)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("unsupported extension", func(t *testing.T) {
		_, err := Load("config.toml")
		assert.Error(t, err)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
	t.Run("missing network", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", `profiles: "*.csv"`)
		_, err := Load(path)
		assert.Error(t, err)
	})
	t.Run("bad dispatch mode", func(t *testing.T) {
		path := writeConfig(t, "config.yaml", `
network: net.json
profiles: "*.csv"
dispatch:
  mode: newton
`)
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestLoadNetwork(t *testing.T) {
	path := writeConfig(t, "net.json", `{
  "buses": [{"id": "b1"}, {"id": "b2"}],
  "branches": [{"id": "l1", "from": "b1", "to": "b2", "reactance": 0.1, "limit_mw": 50}],
  "generators": [{"id": "g1", "bus": "b1", "pmin_mw": 0, "pmax_mw": 100, "ramp_up_mw": 20, "ramp_down_mw": 20, "marginal_cost": 10}],
  "injections": [{"id": "d1", "bus": "b2"}]
}`)

	net, err := LoadNetwork(path)
	require.NoError(t, err)
	assert.Len(t, net.Buses, 2)
	assert.Len(t, net.Generators, 1)

	t.Run("invalid json", func(t *testing.T) {
		bad := writeConfig(t, "bad.json", `{`)
		_, err := LoadNetwork(bad)
		assert.Error(t, err)
	})
	t.Run("fails validation", func(t *testing.T) {
		bad := writeConfig(t, "dangling.json", `{
  "buses": [{"id": "b1"}],
  "generators": [{"id": "g1", "bus": "ghost", "pmax_mw": 10}]
}`)
		_, err := LoadNetwork(bad)
		assert.Error(t, err)
	})
}
