package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryFilter(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "debug", "^nav")
	require.NoError(t, err)

	l.Infof("navigation", "opened %s", "/pages/forms/layouts")
	l.Infof("browser", "launched %s", "chromium")

	out := buf.String()
	assert.Contains(t, out, "opened /pages/forms/layouts")
	assert.Contains(t, out, "category=navigation")
	assert.NotContains(t, out, "launched chromium")
}

func TestLevelAndConsole(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "warn", "")
	require.NoError(t, err)

	l.Infof("harness", "hidden")
	l.Debugf("harness", "hidden too")
	l.Console("chromium", "log", "also hidden")
	l.Console("chromium", "error", "Uncaught TypeError")
	l.Warnf("harness", "visible")
	l.Errorf("harness", "broken")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[chromium] error: Uncaught TypeError")
	assert.Contains(t, out, "category=console")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "broken")
}

func TestNoColourOutsideTerminal(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "", "")
	require.NoError(t, err)

	l.Infof("harness", "plain")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestNewErrors(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "loud", "")
	assert.ErrorContains(t, err, "invalid log level")

	_, err = New(&bytes.Buffer{}, "info", "([")
	assert.ErrorContains(t, err, "invalid log category filter")
}

func TestNilAndNullLogger(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Infof("harness", "nothing") })
	assert.NotPanics(t, func() { NewNullLogger().Errorf("harness", "dropped %d", 1) })
}
