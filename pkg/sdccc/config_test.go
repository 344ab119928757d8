package sdccc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultRequirementsTOML = `[BICEPS]
R0021 = true
R0023 = true
R0025_0 = false

[MDPWS]
R0006 = true
`

// writeInstallation lays out a fake SDCcc installation: an executable stub
// next to a `configuration` directory with the three default TOML files.
func writeInstallation(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	exe := filepath.Join(dir, "sdccc-9.1.0.exe")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755))

	confDir := filepath.Join(dir, "configuration")
	require.NoError(t, os.MkdirAll(confDir, 0o755))

	writeFile := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(confDir, name), []byte(content), 0o644))
	}
	writeFile("config.toml", "[sdc]\nbiceps = true\n\n[network]\ninterface = \"eth0\"\n")
	writeFile("test_configuration.toml", defaultRequirementsTOML)
	writeFile("test_parameter.toml", "[TestParameter]\nBiceps547TimeInterval = 5\n")

	return exe
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	exe := writeInstallation(t)
	r, err := New(exe, t.TempDir())
	require.NoError(t, err)
	return r
}

func TestRunnerConfig(t *testing.T) {
	r := newTestRunner(t)

	cfg, err := r.Config()
	require.NoError(t, err)
	network, ok := cfg["network"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "eth0", network["interface"])
}

func TestRunnerRequirements(t *testing.T) {
	r := newTestRunner(t)

	reqs, err := r.Requirements()
	require.NoError(t, err)
	assert.Equal(t, Requirements{
		"BICEPS": {"R0021": true, "R0023": true, "R0025_0": false},
		"MDPWS":  {"R0006": true},
	}, reqs)
	assert.Equal(t, []string{"R0021", "R0023"}, reqs.Enabled("BICEPS"))
	assert.Empty(t, reqs.Enabled("GLUE"))
}

func TestRunnerTestParameters(t *testing.T) {
	r := newTestRunner(t)

	params, err := r.TestParameters()
	require.NoError(t, err)
	assert.Contains(t, params, "TestParameter")
}

func TestRunnerConfigMissingFile(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "sdccc-9.1.0.exe")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755))
	r, err := New(exe, t.TempDir())
	require.NoError(t, err)

	_, err = r.Config()
	require.Error(t, err)
}

func TestCheckRequirements(t *testing.T) {
	available := Requirements{
		"BICEPS": {"R0021": true, "R0023": true, "R0025_0": false},
		"MDPWS":  {"R0006": true},
	}

	t.Run("subset passes", func(t *testing.T) {
		provided := Requirements{"BICEPS": {"R0021": true}}
		require.NoError(t, CheckRequirements(provided, available))
	})

	t.Run("disabled provided requirement is ignored", func(t *testing.T) {
		provided := Requirements{"BICEPS": {"R9999": false}}
		require.NoError(t, CheckRequirements(provided, available))
	})

	t.Run("unknown standard", func(t *testing.T) {
		provided := Requirements{"GLUE": {"R0010": true}}
		err := CheckRequirements(provided, available)
		require.Error(t, err)
		var reqErr *RequirementError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, "GLUE", reqErr.Standard)
		assert.Empty(t, reqErr.ID)
		assert.Equal(t, []string{"BICEPS", "MDPWS"}, reqErr.Supported)
	})

	t.Run("unknown requirement id", func(t *testing.T) {
		provided := Requirements{"MDPWS": {"R9999": true}}
		err := CheckRequirements(provided, available)
		var reqErr *RequirementError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, "MDPWS", reqErr.Standard)
		assert.Equal(t, "R9999", reqErr.ID)
	})

	t.Run("requirement disabled in tool", func(t *testing.T) {
		provided := Requirements{"BICEPS": {"R0025_0": true}}
		err := CheckRequirements(provided, available)
		var reqErr *RequirementError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, "R0025_0", reqErr.ID)
	})
}

func TestRunnerCheckRequirementsFile(t *testing.T) {
	r := newTestRunner(t)

	good := filepath.Join(t.TempDir(), "requirements.toml")
	require.NoError(t, os.WriteFile(good, []byte("[BICEPS]\nR0021 = true\n"), 0o644))
	require.NoError(t, r.CheckRequirements(good))

	bad := filepath.Join(t.TempDir(), "requirements.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[BICEPS]\nR9999 = true\n"), 0o644))
	err := r.CheckRequirements(bad)
	var reqErr *RequirementError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "R9999", reqErr.ID)
}
