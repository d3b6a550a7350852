package logger

import (
	"os"
	"path/filepath"
	"testing"

	"findash/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("Console", func(t *testing.T) {
		log, err := NewLogger(config.Logger{Level: "debug", Format: "console"})
		require.NoError(t, err)
		assert.NotNil(t, log)
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		_, err := NewLogger(config.Logger{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("RotatingFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "findash.log")
		log, err := NewLogger(config.Logger{
			Level:  "info",
			Format: "json",
			File:   config.LogFile{Enabled: true, Path: path, MaxSize: 1, MaxBackups: 1, MaxAge: 1},
		})
		require.NoError(t, err)

		log.Info("alert scan complete")
		_ = log.Sync()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "alert scan complete")
	})
}
