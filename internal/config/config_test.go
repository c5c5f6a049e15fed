package config

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultUsesAvailableParallelism(t *testing.T) {
	cfg := Default()
	assert.Equal(t, runtime.NumCPU(), cfg.WorkerThreadCount)
	assert.Equal(t, runtime.NumCPU(), cfg.TranscodeThreadCount)
	assert.Equal(t, "0.0.0.0", cfg.URL)
	assert.Equal(t, 8080, cfg.Port)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Load([]string{
		"-url", "127.0.0.1",
		"-port", "9090",
		"-total-worker-threads", "4",
		"-data-dir", "/tmp/clipforge-test",
	})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.URL)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 4, cfg.WorkerThreadCount)
	assert.Equal(t, "/tmp/clipforge-test/downloads", cfg.DownloadDir)
	assert.Equal(t, "/tmp/clipforge-test/transcode", cfg.TranscodeDir)
}

func TestParseZeroThreadCountResolvesToAvailableParallelism(t *testing.T) {
	cfg, err := Load([]string{"-total-transcode-threads", "0"})
	require.NoError(t, err)
	assert.Equal(t, runtime.NumCPU(), cfg.TranscodeThreadCount)
}

func TestParseRejectsInvalidPort(t *testing.T) {
	_, err := Load([]string{"-port", "70000"})
	assert.Error(t, err)
}
