package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.IP)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "input", cfg.InputDir)
	assert.GreaterOrEqual(t, cfg.ThreadCount, 1)
	assert.Equal(t, "127.0.0.1:3000", cfg.Addr())
}

func TestLoadServerConfigEnvOverrides(t *testing.T) {
	t.Setenv("THREAD_COUNT", "2")
	t.Setenv("PORT", "4100")
	t.Setenv("INPUT_DIR", "/srv/files")

	cfg, err := LoadServerConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.ThreadCount)
	assert.Equal(t, 4100, cfg.Port)
	assert.Equal(t, "/srv/files", cfg.InputDir)
}

func TestLoadServerConfigRejectsZeroThreads(t *testing.T) {
	t.Setenv("THREAD_COUNT", "0")

	cfg, err := LoadServerConfig(t.TempDir())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cfg.ThreadCount, 1)
}

func TestLoadClientConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "output_dir: downloads\ncontrol_file: wants.txt\nserver_addr: 10.0.0.5:3000\npoll_interval: 500ms\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := LoadClientConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "downloads", cfg.OutputDir)
	assert.Equal(t, "wants.txt", cfg.ControlFile)
	assert.Equal(t, "10.0.0.5:3000", cfg.ServerAddr)
	assert.Equal(t, ".priostream/ledger", cfg.LedgerPath)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
}
