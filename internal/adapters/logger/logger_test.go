package logger_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lode/internal/adapters/logger"
)

func newBufferedLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	lg, ok := logger.New().(*logger.Logger)
	require.True(t, ok)
	var buf bytes.Buffer
	lg.SetOutput(&buf)
	return lg, &buf
}

func TestLogger_Info(t *testing.T) {
	lg, buf := newBufferedLogger(t)
	lg.Info("some message")

	assert.Contains(t, buf.String(), "some message")
	assert.Contains(t, buf.String(), "INFO")
}

func TestLogger_Warn(t *testing.T) {
	lg, buf := newBufferedLogger(t)
	lg.Warn("some warning")

	assert.Contains(t, buf.String(), "some warning")
	assert.Contains(t, buf.String(), "WARN")
}

func TestLogger_Error(t *testing.T) {
	lg, buf := newBufferedLogger(t)
	lg.Error(os.ErrPermission)

	assert.Contains(t, buf.String(), "permission denied")
	assert.Contains(t, buf.String(), "ERROR")
}
