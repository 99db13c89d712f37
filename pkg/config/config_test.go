package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnvVars clears all Pulse-related environment variables.
func clearEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		"PULSE_ENV", "PULSE_LOG_LEVEL", "PULSE_LOG_FORMAT",
		"PULSE_DB_DRIVER", "PULSE_SQLITE_PATH", "DATABASE_URL", "PULSE_DB_MAX_CONNS",
		"REDIS_URL", "RABBITMQ_URL", "PULSE_RABBITMQ_QUEUE",
		"PULSE_CACHE_SCORE_TTL", "PULSE_CACHE_LISTING_TTL", "PULSE_CACHE_BREAKER",
		"PULSE_BASELINE_WINDOW_DAYS", "PULSE_BASELINE_MIN_SAMPLES", "PULSE_BASELINE_EXCLUDE_TODAY",
		"PULSE_SCORING_PROFILE", "PULSE_TIMEZONE", "PULSE_GOAL_HOURS_PER_WEEK",
		"PULSE_MCP_ADDR", "PULSE_MCP_AUTH_TOKEN",
	}
	for _, v := range envVars {
		t.Setenv(v, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)

	// Embedded storage unless a server URL is configured
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Empty(t, cfg.DatabaseURL)

	assert.Equal(t, 300*time.Second, cfg.CacheScoreTTL)
	assert.Equal(t, 120*time.Second, cfg.CacheListingTTL)
	assert.True(t, cfg.CacheBreaker)

	assert.Equal(t, 30, cfg.BaselineWindowDays)
	assert.Equal(t, 5, cfg.BaselineMinSamples)
	assert.True(t, cfg.BaselineExcludeToday)

	assert.Equal(t, "127.0.0.1:8082", cfg.MCPAddr)
	assert.Empty(t, cfg.MCPAuthToken)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_WithCustomEnvVars(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("PULSE_ENV", "production")
	t.Setenv("PULSE_LOG_FORMAT", "json")
	t.Setenv("PULSE_DB_DRIVER", "Memory")
	t.Setenv("PULSE_CACHE_SCORE_TTL", "10m")
	t.Setenv("PULSE_CACHE_LISTING_TTL", "45")
	t.Setenv("PULSE_CACHE_BREAKER", "false")
	t.Setenv("PULSE_BASELINE_WINDOW_DAYS", "14")
	t.Setenv("PULSE_BASELINE_EXCLUDE_TODAY", "no")
	t.Setenv("PULSE_GOAL_HOURS_PER_WEEK", "37.5")
	t.Setenv("PULSE_TIMEZONE", "Europe/Berlin")
	t.Setenv("PULSE_DB_MAX_CONNS", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "memory", cfg.DatabaseDriver)
	assert.Equal(t, 8, cfg.DBMaxConns)
	assert.Equal(t, 10*time.Minute, cfg.CacheScoreTTL)
	assert.Equal(t, 45*time.Second, cfg.CacheListingTTL)
	assert.False(t, cfg.CacheBreaker)
	assert.Equal(t, 14, cfg.BaselineWindowDays)
	// Unparseable booleans keep the default
	assert.True(t, cfg.BaselineExcludeToday)
	assert.Equal(t, 37.5, cfg.GoalHoursPerWeek)
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
}

func TestLoad_DatabaseURLSelectsPostgres(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("DATABASE_URL", "postgres://pulse@localhost:5432/pulse")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DatabaseDriver)
}

func TestConfig_LocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Mars/Olympus_Mons"}
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestEnvHelpers(t *testing.T) {
	tests := []struct {
		name  string
		value string
		check func(t *testing.T)
	}{
		{"int invalid", "ten", func(t *testing.T) { assert.Equal(t, 7, getIntEnv("PULSE_TEST_VALUE", 7)) }},
		{"int valid", "10", func(t *testing.T) { assert.Equal(t, 10, getIntEnv("PULSE_TEST_VALUE", 7)) }},
		{"float valid", "2.5", func(t *testing.T) { assert.Equal(t, 2.5, getFloatEnv("PULSE_TEST_VALUE", 1)) }},
		{"float invalid", "x", func(t *testing.T) { assert.Equal(t, 1.0, getFloatEnv("PULSE_TEST_VALUE", 1)) }},
		{"duration seconds", "30", func(t *testing.T) {
			assert.Equal(t, 30*time.Second, getDurationEnv("PULSE_TEST_VALUE", time.Minute))
		}},
		{"duration invalid", "soon", func(t *testing.T) {
			assert.Equal(t, time.Minute, getDurationEnv("PULSE_TEST_VALUE", time.Minute))
		}},
		{"bool valid", "true", func(t *testing.T) { assert.True(t, getBoolEnv("PULSE_TEST_VALUE", false)) }},
		{"empty keeps default", "", func(t *testing.T) { assert.Equal(t, "d", getEnv("PULSE_TEST_VALUE", "d")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PULSE_TEST_VALUE", tt.value)
			tt.check(t)
		})
	}
}

func TestParseProfile(t *testing.T) {
	t.Run("full profile", func(t *testing.T) {
		p, err := ParseProfile([]byte(`
productivity:
  efficiency_curve: linear
  efficiency_strength: 0.5
  goal_hours_per_week: 40
  burnout:
    enabled: false
weights:
  execution: 2
  relief: 1
rank_metrics:
  - name: relief
  - name: stress
    higher_is_better: false
`))
		require.NoError(t, err)
		assert.Equal(t, "linear", p.Productivity.EfficiencyCurve)
		require.NotNil(t, p.Productivity.EfficiencyStrength)
		assert.Equal(t, 0.5, *p.Productivity.EfficiencyStrength)
		assert.Nil(t, p.Productivity.PlayWorkRatioLimit)
		require.NotNil(t, p.Productivity.Burnout)
		assert.False(t, *p.Productivity.Burnout.Enabled)
		assert.Nil(t, p.Productivity.Burnout.WeeklyThresholdHours)
		assert.Equal(t, map[string]float64{"execution": 2, "relief": 1}, p.Weights)
		require.Len(t, p.RankMetrics, 2)
		assert.Nil(t, p.RankMetrics[0].HigherIsBetter)
		assert.False(t, *p.RankMetrics[1].HigherIsBetter)
	})

	t.Run("empty document", func(t *testing.T) {
		p, err := ParseProfile(nil)
		require.NoError(t, err)
		assert.Empty(t, p.Weights)
	})

	invalid := map[string]string{
		"unknown key":      "weight: {}",
		"unknown curve":    "productivity: {efficiency_curve: cubic}",
		"negative weight":  "weights: {relief: -1}",
		"zero weights":     "weights: {relief: 0, stress: 0}",
		"duplicate metric": "rank_metrics: [{name: relief}, {name: relief}]",
		"unnamed metric":   "rank_metrics: [{higher_is_better: true}]",
		"bad threshold":    "productivity: {burnout: {weekly_threshold_hours: 0}}",
	}
	for name, doc := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProfile([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadProfile(t *testing.T) {
	p, err := LoadProfile("")
	require.NoError(t, err)
	assert.NotNil(t, p)

	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weights: {relief: 3}\n"), 0o600))

	p, err = LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, 3.0, p.Weights["relief"])

	_, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
