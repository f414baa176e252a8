package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	positive := func(v int) error { return ValidateIntRange(v, 1, 10) }

	tests := []struct {
		name         string
		env          string
		set          bool
		want         int
		wantFallback bool
	}{
		{name: "unset uses default", set: false, want: 4},
		{name: "empty uses default", env: "", set: true, want: 4},
		{name: "valid value", env: "8", set: true, want: 8},
		{name: "not a number", env: "eight", set: true, want: 4, wantFallback: true},
		{name: "out of range", env: "99", set: true, want: 4, wantFallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv("TEST_CONCURRENCY", tt.env)
			}
			r := Load(EnvSource(), "TEST_CONCURRENCY", 4, parseInt, positive)
			assert.Equal(t, tt.want, r.Value)
			assert.Equal(t, tt.wantFallback, r.FallbackApplied)
			if tt.wantFallback {
				assert.Contains(t, r.Warning, "TEST_CONCURRENCY")
				assert.Contains(t, r.Warning, "falling back to default '4'")
			} else {
				assert.Empty(t, r.Warning)
			}
		})
	}
}

func TestLoader_Types(t *testing.T) {
	t.Setenv("T_SCHEDULE", "*/5 * * * *")
	t.Setenv("T_TIMEOUT", "90s")
	t.Setenv("T_RATE", "0.5")
	t.Setenv("T_ENABLED", "true")
	t.Setenv("T_BAD_BOOL", "yes")

	l := NewLoader(EnvSource(), nil, nil)

	assert.Equal(t, "*/5 * * * *", l.String("T_SCHEDULE", "@hourly", ValidateCronSchedule))
	assert.Equal(t, 90*time.Second, l.Duration("T_TIMEOUT", time.Minute, ValidatePositiveDuration))
	assert.Equal(t, 0.5, l.Float("T_RATE", 2, ValidatePositiveFloat))
	assert.True(t, l.Bool("T_ENABLED", false))
	assert.False(t, l.Bool("T_BAD_BOOL", false))
	require.Len(t, l.Warnings(), 1)
	assert.Contains(t, l.Warnings()[0], "T_BAD_BOOL")
}

func TestLoader_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)
	t.Setenv("T_PORT", "80")

	l := NewLoader(EnvSource(), nil, m)
	port := l.Int("T_PORT", 9091, func(v int) error { return ValidateIntRange(v, 1024, 65535) })
	l.Finish()

	assert.Equal(t, 9091, port)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("T_PORT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackActive))
	assert.Greater(t, testutil.ToFloat64(m.LoadTimestamp), 0.0)
}

func TestNewSource_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker.yaml")
	content := "REFRESH_SCHEDULE: \"*/15 * * * *\"\nrefresh_concurrency: 8\nRUN_ON_START: true\nEMPTY:\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("REFRESH_SCHEDULE", "*/2 * * * *")

	src, err := NewSource(path)
	require.NoError(t, err)

	v, ok := src.Get("REFRESH_SCHEDULE")
	assert.True(t, ok)
	assert.Equal(t, "*/2 * * * *", v, "environment wins over file")

	v, ok = src.Get("REFRESH_CONCURRENCY")
	assert.True(t, ok)
	assert.Equal(t, "8", v, "keys are case-insensitive")

	v, _ = src.Get("RUN_ON_START")
	assert.Equal(t, "true", v)

	_, ok = src.Get("EMPTY")
	assert.False(t, ok)
}

func TestNewSource_Errors(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "nested.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db:\n  url: x\n"), 0o600))
	_, err = NewSource(path)
	assert.Error(t, err)

	src, err := NewSource("")
	require.NoError(t, err)
	assert.NotNil(t, src)
}
