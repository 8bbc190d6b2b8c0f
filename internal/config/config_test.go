package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.HTTP.Port)
	assert.Equal(t, int64(defaultMaxUploadBytes), cfg.HTTP.MaxUploadBytes)
	assert.False(t, cfg.Graph.Enabled())
	assert.Equal(t, DefaultAnalysis(), cfg.Analysis)
	assert.Empty(t, cfg.Tracing.OTLPEndpoint)
}

func TestLoad_AnalysisOverrides(t *testing.T) {
	t.Setenv("ANALYSIS_MIN_CYCLE_LEN", "4")
	t.Setenv("ANALYSIS_MAX_CYCLE_LEN", "6")
	t.Setenv("ANALYSIS_OUTDEGREE_CAP_MULTIPLIER", "1.5")
	t.Setenv("ANALYSIS_SMURF_WINDOW_HOURS", "24")
	t.Setenv("ANALYSIS_SMURF_COUNT_THRESHOLD", "5")
	t.Setenv("ANALYSIS_TIMEOUT", "5s")
	t.Setenv("ANALYSIS_SHELL_MIN_HOPS", "4")
	t.Setenv("GRAPH_URI", "neo4j://localhost:7687")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Analysis.MinCycleLen)
	assert.Equal(t, 6, cfg.Analysis.MaxCycleLen)
	assert.Equal(t, 1.5, cfg.Analysis.OutDegreeCapMultiplier)
	assert.Equal(t, 24*time.Hour, cfg.Analysis.SmurfWindow)
	assert.Equal(t, 5, cfg.Analysis.SmurfCountThreshold)
	assert.Equal(t, 5*time.Second, cfg.Analysis.Timeout)
	assert.Equal(t, 4, cfg.Analysis.ShellMinHops)
	assert.True(t, cfg.Graph.Enabled())
	assert.Equal(t, "localhost:4317", cfg.Tracing.OTLPEndpoint)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"bad port":          {"SERVER_PORT", "70000"},
		"bad duration":      {"SERVER_READ_TIMEOUT", "soon"},
		"bad multiplier":    {"ANALYSIS_OUTDEGREE_CAP_MULTIPLIER", "two"},
		"inverted bounds":   {"ANALYSIS_MAX_CYCLE_LEN", "2"},
		"negative timeout":  {"ANALYSIS_TIMEOUT", "-1s"},
		"zero smurf window": {"ANALYSIS_SMURF_WINDOW_HOURS", "0"},
		"word cycle length": {"ANALYSIS_MIN_CYCLE_LEN", "three"},
		"word threshold":    {"ANALYSIS_SMURF_COUNT_THRESHOLD", "ten"},
		"word window":       {"ANALYSIS_SMURF_WINDOW_HOURS", "3d"},
		"zero min hops":     {"ANALYSIS_SHELL_MIN_HOPS", "0"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedTunableNamesKey(t *testing.T) {
	t.Setenv("ANALYSIS_SMURF_COUNT_THRESHOLD", "ten")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANALYSIS_SMURF_COUNT_THRESHOLD")
}

func TestLoad_ZeroMultiplierAccepted(t *testing.T) {
	t.Setenv("ANALYSIS_OUTDEGREE_CAP_MULTIPLIER", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Analysis.OutDegreeCapMultiplier)
}

func TestAnalysisConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultAnalysis().Validate())

	bad := DefaultAnalysis()
	bad.ShellMinDegree = 4
	bad.SmurfCountThreshold = 0
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shell max degree")
	assert.Contains(t, err.Error(), "smurfing threshold")
}
