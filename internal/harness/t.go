package harness

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/uiplayground/ngx-e2e/internal/report"
)

// TestInfo describes the running attempt. Timeout changes made through
// it take effect immediately.
type TestInfo struct {
	Title     string
	TitlePath []string
	Project   string
	Retry     int
	Retries   int
	OutputDir string

	mu          sync.Mutex
	timeout     time.Duration
	changed     chan struct{}
	attachments []report.Attachment
}

func newTestInfo(title string, titlePath []string, project string, retry, retries int, outputDir string, timeout time.Duration) *TestInfo {
	return &TestInfo{
		Title:     title,
		TitlePath: titlePath,
		Project:   project,
		Retry:     retry,
		Retries:   retries,
		OutputDir: outputDir,
		timeout:   timeout,
		changed:   make(chan struct{}, 1),
	}
}

// Timeout returns the current attempt timeout. Zero means none.
func (i *TestInfo) Timeout() time.Duration {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.timeout
}

// SetTimeout replaces the attempt timeout, measured from the attempt start.
func (i *TestInfo) SetTimeout(d time.Duration) {
	i.mu.Lock()
	i.timeout = d
	i.mu.Unlock()
	i.notify()
}

// Slow triples the attempt timeout.
func (i *TestInfo) Slow() {
	i.mu.Lock()
	i.timeout *= 3
	i.mu.Unlock()
	i.notify()
}

// Attach records a file to show next to the test in the report.
func (i *TestInfo) Attach(name, path, contentType string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.attachments = append(i.attachments, report.Attachment{Name: name, Path: path, ContentType: contentType})
}

func (i *TestInfo) Attachments() []report.Attachment {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]report.Attachment(nil), i.attachments...)
}

func (i *TestInfo) notify() {
	select {
	case i.changed <- struct{}{}:
	default:
	}
}

// T is the handle a test body receives. It satisfies the testify
// require.TestingT and assert.TestingT interfaces.
//
// FailNow and SkipNow end the attempt goroutine. Errors recorded after
// the attempt timed out are kept but no longer logged.
type T struct {
	parent testing.TB
	info   *TestInfo
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	errors     []string
	failed     bool
	skipped    bool
	skipReason string
	detached   bool
}

func newT(parent testing.TB, info *TestInfo) *T {
	ctx, cancel := context.WithCancel(context.Background())
	return &T{parent: parent, info: info, ctx: ctx, cancel: cancel}
}

func (t *T) Name() string {
	return t.parent.Name()
}

// Info returns the attempt description.
func (t *T) Info() *TestInfo {
	return t.info
}

// Context is cancelled when the attempt ends or times out.
func (t *T) Context() context.Context {
	return t.ctx
}

// Retry is the zero-based attempt index.
func (t *T) Retry() int {
	return t.info.Retry
}

func (t *T) SetTimeout(d time.Duration) {
	t.info.SetTimeout(d)
}

func (t *T) Slow() {
	t.info.Slow()
}

func (t *T) Helper() {}

func (t *T) Errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errors = append(t.errors, msg)
	t.failed = true
	if !t.detached {
		t.parent.Logf("[%s retry #%d] %s", t.info.Project, t.info.Retry, msg)
	}
}

func (t *T) Error(args ...interface{}) {
	t.Errorf("%s", fmt.Sprint(args...))
}

func (t *T) Fail() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed = true
}

func (t *T) FailNow() {
	t.Fail()
	runtime.Goexit()
}

func (t *T) Fatalf(format string, args ...interface{}) {
	t.Errorf(format, args...)
	runtime.Goexit()
}

func (t *T) Fatal(args ...interface{}) {
	t.Error(args...)
	runtime.Goexit()
}

func (t *T) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

func (t *T) Logf(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.detached {
		t.parent.Logf(format, args...)
	}
}

func (t *T) Log(args ...interface{}) {
	t.Logf("%s", fmt.Sprint(args...))
}

func (t *T) Skipf(format string, args ...interface{}) {
	t.mu.Lock()
	t.skipped = true
	t.skipReason = fmt.Sprintf(format, args...)
	t.mu.Unlock()
	runtime.Goexit()
}

func (t *T) Skip(args ...interface{}) {
	t.Skipf("%s", fmt.Sprint(args...))
}

// detach stops forwarding to the parent test, which may finish before a
// timed out attempt goroutine does.
func (t *T) detach() {
	t.mu.Lock()
	t.detached = true
	t.mu.Unlock()
	t.cancel()
}

func (t *T) state() (errs []string, failed, skipped bool, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.errors...), t.failed, t.skipped, t.skipReason
}
