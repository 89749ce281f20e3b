package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv("ETL_CONFIG", "")
	s, err := LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, "02:00", s.FullRunAt)
	assert.Equal(t, time.Hour, s.IncrementalInterval)
	assert.Equal(t, 60*time.Second, s.PollInterval)
	assert.Equal(t, SourceCSV, s.RawSource)
	assert.Equal(t, "data/raw", s.RawDataDir)
	assert.Equal(t, 500, s.LoadBatchSize)
}

func TestLoadSettings_EnvOverrides(t *testing.T) {
	t.Setenv("ETL_CONFIG", "")
	t.Setenv("FULL_RUN_AT", "03:30")
	t.Setenv("INCREMENTAL_INTERVAL", "15m")
	t.Setenv("POLL_INTERVAL", "5s")
	t.Setenv("SCHEDULE_TIMEZONE", "Asia/Yangon")

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "03:30", s.FullRunAt)
	assert.Equal(t, 15*time.Minute, s.IncrementalInterval)
	assert.Equal(t, 5*time.Second, s.PollInterval)

	loc, err := s.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Yangon", loc.String())
}

func TestLoadSettings_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "etl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("full_run_at: \"04:15\"\nraw_source: gcs\ngcs_bucket: raw-bucket\n"), 0o644))
	t.Setenv("ETL_CONFIG", path)

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "04:15", s.FullRunAt)
	assert.Equal(t, SourceGCS, s.RawSource)
	assert.Equal(t, "raw-bucket", s.GCSBucket)
}

func TestLoadSettings_Invalid(t *testing.T) {
	t.Setenv("ETL_CONFIG", "")

	t.Run("bad clock", func(t *testing.T) {
		t.Setenv("FULL_RUN_AT", "25:99")
		_, err := LoadSettings()
		assert.Error(t, err)
	})
	t.Run("gcs without bucket", func(t *testing.T) {
		t.Setenv("RAW_SOURCE", "gcs")
		_, err := LoadSettings()
		assert.Error(t, err)
	})
	t.Run("unknown source", func(t *testing.T) {
		t.Setenv("RAW_SOURCE", "ftp")
		_, err := LoadSettings()
		assert.Error(t, err)
	})
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("02:00")
	require.NoError(t, err)
	assert.Equal(t, 2, h)
	assert.Equal(t, 0, m)

	_, _, err = ParseClock("2am")
	assert.Error(t, err)
}
