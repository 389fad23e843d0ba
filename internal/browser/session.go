package browser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"
	"github.com/uiplayground/ngx-e2e/internal/config"
	"github.com/uiplayground/ngx-e2e/internal/log"
	"github.com/uiplayground/ngx-e2e/internal/report"
)

// SessionOptions describe the attempt a session is created for.
type SessionOptions struct {
	Project   config.Project
	Retry     int
	OutputDir string
}

// Session is one browser context and page, created per test attempt.
type Session struct {
	Context playwright.BrowserContext
	Page    playwright.Page

	use       config.UseOptions
	project   string
	retry     int
	outputDir string
	tracing   bool
	video     bool
	log       *log.Logger

	closeOnce sync.Once
	closed    []report.Attachment
	closeErr  error
}

// NewSession opens a context configured from the project options.
func (r *Runtime) NewSession(opts SessionOptions) (*Session, error) {
	use := opts.Project.Use
	b, err := r.Browser(use)
	if err != nil {
		return nil, err
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if use.Device != "" {
		d, err := r.Device(use.Device)
		if err != nil {
			return nil, err
		}
		ctxOpts.UserAgent = playwright.String(d.UserAgent)
		ctxOpts.Viewport = d.Viewport
		ctxOpts.DeviceScaleFactor = playwright.Float(d.DeviceScaleFactor)
		ctxOpts.IsMobile = playwright.Bool(d.IsMobile)
		ctxOpts.HasTouch = playwright.Bool(d.HasTouch)
	}
	if use.BaseURL != "" {
		ctxOpts.BaseURL = playwright.String(use.BaseURL)
	}
	// a device brings its own viewport
	if use.Device == "" && !use.Viewport.IsZero() {
		ctxOpts.Viewport = &playwright.Size{Width: use.Viewport.Width, Height: use.Viewport.Height}
	}

	video := recordVideo(use.Video.Mode, opts.Retry)
	if video {
		rv := &playwright.RecordVideo{Dir: filepath.Join(opts.OutputDir, "videos")}
		if !use.Video.Size.IsZero() {
			rv.Size = &playwright.Size{Width: use.Video.Size.Width, Height: use.Video.Size.Height}
		}
		ctxOpts.RecordVideo = rv
	}

	bctx, err := b.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("could not create context: %w", err)
	}
	bctx.SetDefaultTimeout(float64(use.ActionTimeout.Milliseconds()))
	bctx.SetDefaultNavigationTimeout(float64(use.NavigationTimeout.Milliseconds()))

	s := &Session{
		Context:   bctx,
		use:       use,
		project:   opts.Project.Name,
		retry:     opts.Retry,
		outputDir: opts.OutputDir,
		video:     video,
		log:       r.log,
	}

	if startTracing(use.Trace, opts.Retry) {
		if err := bctx.Tracing().Start(playwright.TracingStartOptions{
			Screenshots: playwright.Bool(true),
			Snapshots:   playwright.Bool(true),
			Sources:     playwright.Bool(true),
		}); err != nil {
			_ = bctx.Close()
			return nil, fmt.Errorf("could not start tracing: %w", err)
		}
		s.tracing = true
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	page.OnConsole(func(msg playwright.ConsoleMessage) {
		s.log.Console(s.project, msg.Type(), msg.Text())
	})
	s.Page = page
	return s, nil
}

// NavigateTo navigates to a path relative to the base URL
func (s *Session) NavigateTo(path string) error {
	url := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		url = strings.TrimRight(s.use.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	}
	s.log.Debugf("navigation", "goto %s", url)
	_, err := s.Page.Goto(url)
	if err != nil && strings.Contains(err.Error(), "ERR_TOO_MANY_REDIRECTS") {
		return fmt.Errorf("redirect loop navigating to %s (check base URL): %w", url, err)
	}
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

// WaitForNetworkIdle waits until there are no network connections for
// at least 500ms.
func (s *Session) WaitForNetworkIdle() error {
	return s.Page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	})
}

// Close tears the session down and returns the artifacts kept for the
// attempt. It is safe to call more than once.
func (s *Session) Close(failed bool) ([]report.Attachment, error) {
	s.closeOnce.Do(func() {
		s.closed, s.closeErr = s.close(failed)
	})
	return s.closed, s.closeErr
}

func (s *Session) close(failed bool) ([]report.Attachment, error) {
	var (
		attachments []report.Attachment
		errs        []error
	)
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		errs = append(errs, fmt.Errorf("create output dir: %w", err))
	}

	if takeScreenshot(s.use.Screenshot, failed) && s.Page != nil && !s.Page.IsClosed() {
		path := filepath.Join(s.outputDir, "screenshot.png")
		if _, err := s.Page.Screenshot(playwright.PageScreenshotOptions{
			Path:     playwright.String(path),
			FullPage: playwright.Bool(true),
		}); err != nil {
			errs = append(errs, fmt.Errorf("screenshot: %w", err))
		} else {
			attachments = append(attachments, report.Attachment{Name: "screenshot", Path: path, ContentType: "image/png"})
		}
	}

	if s.tracing {
		if keepTrace(s.use.Trace, failed) {
			path := filepath.Join(s.outputDir, "trace.zip")
			if err := s.Context.Tracing().Stop(path); err != nil {
				errs = append(errs, fmt.Errorf("save trace: %w", err))
			} else {
				attachments = append(attachments, report.Attachment{Name: "trace", Path: path, ContentType: "application/zip"})
			}
		} else if err := s.Context.Tracing().Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop trace: %w", err))
		}
	}

	var video playwright.Video
	if s.video && s.Page != nil {
		video = s.Page.Video()
	}
	if err := s.Context.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close context: %w", err))
	}

	// the video file is only complete once the context is closed
	if video != nil {
		path, err := video.Path()
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("video path: %w", err))
		case keepVideo(s.use.Video.Mode, failed):
			attachments = append(attachments, report.Attachment{Name: "video", Path: path, ContentType: "video/webm"})
		default:
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Errorf("discard video: %w", err))
			}
		}
	}
	return attachments, errors.Join(errs...)
}

func startTracing(mode string, retry int) bool {
	switch mode {
	case config.TraceOn, config.TraceRetainOnFailure:
		return true
	case config.TraceOnFirstRetry:
		return retry == 1
	case config.TraceOnAllRetries:
		return retry > 0
	}
	return false
}

func keepTrace(mode string, failed bool) bool {
	if mode == config.TraceRetainOnFailure {
		return failed
	}
	return true
}

func recordVideo(mode string, retry int) bool {
	switch mode {
	case config.VideoOn, config.VideoRetainOnFailure:
		return true
	case config.VideoOnFirstRetry:
		return retry == 1
	}
	return false
}

func keepVideo(mode string, failed bool) bool {
	if mode == config.VideoRetainOnFailure {
		return failed
	}
	return true
}

func takeScreenshot(mode string, failed bool) bool {
	switch mode {
	case config.ScreenshotOn:
		return true
	case config.ScreenshotOnlyOnFailure:
		return failed
	}
	return false
}
