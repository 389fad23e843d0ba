package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uiplayground/ngx-e2e/internal/config"
)

func TestTraceModes(t *testing.T) {
	tests := []struct {
		mode        string
		retry       int
		failed      bool
		wantStarted bool
		wantKept    bool
	}{
		{config.TraceOff, 0, true, false, false},
		{config.TraceOn, 0, false, true, true},
		{config.TraceRetainOnFailure, 0, false, true, false},
		{config.TraceRetainOnFailure, 0, true, true, true},
		{config.TraceOnFirstRetry, 0, true, false, false},
		{config.TraceOnFirstRetry, 1, false, true, true},
		{config.TraceOnFirstRetry, 2, true, false, false},
		{config.TraceOnAllRetries, 2, false, true, true},
	}
	for _, tt := range tests {
		started := startTracing(tt.mode, tt.retry)
		kept := started && keepTrace(tt.mode, tt.failed)
		assert.Equal(t, tt.wantStarted, started, "%s retry=%d started", tt.mode, tt.retry)
		assert.Equal(t, tt.wantKept, kept, "%s retry=%d failed=%t kept", tt.mode, tt.retry, tt.failed)
	}
}

func TestVideoModes(t *testing.T) {
	assert.False(t, recordVideo(config.VideoOff, 1))
	assert.True(t, recordVideo(config.VideoOn, 0))
	assert.True(t, recordVideo(config.VideoOnFirstRetry, 1))
	assert.False(t, recordVideo(config.VideoOnFirstRetry, 0))

	assert.True(t, keepVideo(config.VideoOn, false))
	assert.False(t, keepVideo(config.VideoRetainOnFailure, false))
	assert.True(t, keepVideo(config.VideoRetainOnFailure, true))
}

func TestScreenshotModes(t *testing.T) {
	assert.False(t, takeScreenshot(config.ScreenshotOff, true))
	assert.True(t, takeScreenshot(config.ScreenshotOn, false))
	assert.True(t, takeScreenshot(config.ScreenshotOnlyOnFailure, true))
	assert.False(t, takeScreenshot(config.ScreenshotOnlyOnFailure, false))
}

func TestBrowserTypeRejectsUnknownName(t *testing.T) {
	r := NewRuntime(nil)
	_, err := r.browserType("netscape")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedBrowser)
}
