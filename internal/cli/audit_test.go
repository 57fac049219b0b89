package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harun/alarmq/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsWriteAuditLog(t *testing.T) {
	// --log-level persists on the shared root command; the file decides here
	logLevel = ""

	dir := t.TempDir()
	path := filepath.Join(dir, "alarmq.json")
	auditPath := filepath.Join(dir, "audit.log")

	cfg := config.DefaultConfig()
	cfg.Logging.Level = "warn"
	cfg.Logging.AuditFile = auditPath
	require.NoError(t, config.NewLoader(path).Save(cfg))

	readAudit := func(t *testing.T) string {
		t.Helper()
		data, err := os.ReadFile(auditPath)
		require.NoError(t, err)
		return string(data)
	}

	t.Run("scenario", func(t *testing.T) {
		_, err := execute(t, "scenario", "A", "--config", path, "--output", "text")
		require.NoError(t, err)

		assert.Contains(t, readAudit(t), "scenario:A")
		assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel(), "configured log level must be applied")
	})

	t.Run("config init", func(t *testing.T) {
		_, err := execute(t, "config", "init", "--config", path, "--force")
		require.NoError(t, err)
		configForce = false

		assert.Contains(t, readAudit(t), "config:init")
	})
}
