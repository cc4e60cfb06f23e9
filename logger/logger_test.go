package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "warn"

	log, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
	assert.False(t, log.ReportCaller)

	cfg.Level = "loud"
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestNewWithOutputFields(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.NoColors = true

	log, err := NewWithOutput(cfg, &buf)
	require.NoError(t, err)

	log.WithField("frame", 42).Info("estimated pose")
	log.Debug("hidden at info level")

	out := buf.String()
	assert.Contains(t, out, "estimated pose")
	assert.Contains(t, out, "[frame:42]")
	assert.NotContains(t, out, "hidden at info level")
}

func TestNewWithFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "pose.log")
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.NoColors = true
	cfg.File = file

	var buf bytes.Buffer
	log, err := NewWithOutput(cfg, &buf)
	require.NoError(t, err)
	assert.True(t, log.ReportCaller)

	log.Debug("written twice")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written twice")
	assert.Contains(t, buf.String(), "written twice")
	assert.Contains(t, buf.String(), "logger_test.go")
}
