package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "watcher.log")
	require.NoError(t, Init(Config{Level: "debug", File: path, MaxSize: 1}))
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })

	Component("test").Info("hello file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
	assert.Contains(t, string(data), "component=test")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}

func TestInit_BadLevelFallsBackToInfo(t *testing.T) {
	require.NoError(t, Init(Config{Level: "loud"}))
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
}

func TestCronLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetLevel(logrus.DebugLevel)

	cl := CronLogger(logrus.NewEntry(l))
	cl.Info("schedule", "entry", 1, "dangling")
	cl.Error(errors.New("boom"), "panic", "job", "cycle")

	out := buf.String()
	assert.Contains(t, out, "entry=1")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "job=cycle")
}
