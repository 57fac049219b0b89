package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "alarmq.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"logging": {"level": "info"}}`), 0644))

	changes := make(chan *Config, 4)
	w, err := NewWatcher(WatcherConfig{
		Path:               configPath,
		StabilityThreshold: 20 * time.Millisecond,
		OnChange: func(cfg *Config) {
			select {
			case changes <- cfg:
			default:
			}
		},
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(configPath, []byte(`{"logging": {"level": "debug"}}`), 0644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changes:
			if cfg.Logging.Level == "debug" {
				return
			}
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
}

func TestWatcherReportsInvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "alarmq.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{}`), 0644))

	errs := make(chan error, 4)
	w, err := NewWatcher(WatcherConfig{
		Path:               configPath,
		StabilityThreshold: 20 * time.Millisecond,
		OnChange:           func(cfg *Config) { t.Errorf("unexpected reload: %+v", cfg) },
		OnError: func(err error) {
			select {
			case errs <- err:
			default:
			}
		},
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(configPath, []byte(`{"workload": {"producers": 0}}`), 0644))

	// a reload may also catch the file mid-write and report a parse error
	deadline := time.After(5 * time.Second)
	for {
		select {
		case err := <-errs:
			if strings.Contains(err.Error(), "producers") {
				return
			}
		case <-deadline:
			t.Fatal("invalid config was not reported")
		}
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(WatcherConfig{Path: filepath.Join(t.TempDir(), "alarmq.json")})
	require.NoError(t, err)

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestNewWatcherRequiresPath(t *testing.T) {
	_, err := NewWatcher(WatcherConfig{})
	assert.Error(t, err)
}
