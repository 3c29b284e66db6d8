package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupClosesPreviousLogFile(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() { _ = Setup(DefaultConfig()) })

	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.Output = filepath.Join(dir, "first.log")
	require.NoError(t, Setup(cfg))
	first := logFile
	require.NotNil(t, first)

	testLog := WithComponent("test")
	testLog.Info().Msg("to first")

	cfg.Output = filepath.Join(dir, "second.log")
	require.NoError(t, Setup(cfg))
	require.NotNil(t, logFile)
	assert.NotSame(t, first, logFile)

	_, err := first.Write([]byte("x"))
	assert.True(t, errors.Is(err, os.ErrClosed), "first log file is closed")

	data, err := os.ReadFile(filepath.Join(dir, "first.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "to first")

	require.NoError(t, Setup(DefaultConfig()))
	assert.Nil(t, logFile)
}

func TestSetupRejectsBadLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "loud"
	assert.Error(t, Setup(cfg))
}
