package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/uiplayground/ngx-e2e/internal/browser"
	"github.com/uiplayground/ngx-e2e/internal/config"
	"github.com/uiplayground/ngx-e2e/internal/expect"
	"github.com/uiplayground/ngx-e2e/internal/log"
	"github.com/uiplayground/ngx-e2e/internal/report"
)

// Fixtures are handed to hooks and test bodies.
type Fixtures struct {
	Page    playwright.Page
	Context playwright.BrowserContext
	Session *browser.Session
	Expect  *expect.Expect
	Config  *config.Config
	Project config.Project
	Log     *log.Logger
}

// Use returns the resolved run options of the project.
func (f *Fixtures) Use() config.UseOptions {
	return f.Project.Use
}

// Teardown releases the fixtures of one attempt and returns the
// artifacts to attach.
type Teardown func(failed bool) []report.Attachment

// FixtureFactory builds the fixtures of one attempt.
type FixtureFactory func(t *T, project config.Project) (*Fixtures, Teardown, error)

// Env is shared by every suite of a test binary.
type Env struct {
	Config   *config.Config
	Log      *log.Logger
	Recorder *report.Recorder

	fixtures  FixtureFactory
	reachable func(string) bool
	grace     time.Duration

	deadline  time.Time
	globalHit atomic.Bool
}

// NewEnv wires an environment. A nil reachable func treats every URL as up.
func NewEnv(cfg *config.Config, logger *log.Logger, fixtures FixtureFactory, reachable func(string) bool) *Env {
	if logger == nil {
		logger = log.NewNullLogger()
	}
	if reachable == nil {
		reachable = func(string) bool { return true }
	}
	return &Env{
		Config:    cfg,
		Log:       logger,
		Recorder:  report.NewRecorder(),
		fixtures:  fixtures,
		reachable: reachable,
		grace:     5 * time.Second,
	}
}

// StartGlobalTimer arms the whole-run timeout.
func (e *Env) StartGlobalTimer() {
	if e.Config.GlobalTimeout > 0 {
		e.deadline = time.Now().Add(e.Config.GlobalTimeout)
	}
}

func (e *Env) globalExpired() bool {
	return !e.deadline.IsZero() && !time.Now().Before(e.deadline)
}

func (e *Env) markGlobalTimeout() {
	if e.globalHit.CompareAndSwap(false, true) {
		e.Log.Errorf("harness", "timed out waiting %s for the entire test run", e.Config.GlobalTimeout)
		e.Recorder.MarkGlobalTimeout()
	}
}

// RuntimeFixtures opens a browser session per attempt on rt.
func RuntimeFixtures(cfg *config.Config, rt *browser.Runtime, logger *log.Logger) FixtureFactory {
	return func(t *T, project config.Project) (*Fixtures, Teardown, error) {
		s, err := rt.NewSession(browser.SessionOptions{
			Project:   project,
			Retry:     t.Retry(),
			OutputDir: t.Info().OutputDir,
		})
		if err != nil {
			return nil, nil, err
		}
		fx := &Fixtures{
			Page:    s.Page,
			Context: s.Context,
			Session: s,
			Expect:  expect.New(t, cfg.Expect.Timeout),
			Config:  cfg,
			Project: project,
			Log:     logger,
		}
		teardown := func(failed bool) []report.Attachment {
			attachments, err := s.Close(failed)
			if err != nil {
				logger.Warnf("harness", "teardown of %q: %v", t.Info().Title, err)
			}
			return attachments
		}
		return fx, teardown, nil
	}
}

var (
	defaultEnv     *Env
	defaultEnvOnce sync.Once
	defaultEnvErr  error
	defaultRuntime *browser.Runtime
)

// Default returns the environment set up by Main, or builds one from the
// configuration when the package runs without Main.
func Default() (*Env, error) {
	defaultEnvOnce.Do(func() {
		if defaultEnv != nil {
			return
		}
		defaultEnv, defaultRuntime, defaultEnvErr = setup()
	})
	return defaultEnv, defaultEnvErr
}

func setup() (*Env, *browser.Runtime, error) {
	if err := config.Load(""); err != nil {
		return nil, nil, err
	}
	cfg := config.Get()
	logger, err := log.New(os.Stderr, cfg.LogLevel, cfg.LogCategoryFilter)
	if err != nil {
		return nil, nil, err
	}
	rt := browser.NewRuntime(logger)
	env := NewEnv(cfg, logger, RuntimeFixtures(cfg, rt, logger), config.Reachable)
	env.StartGlobalTimer()
	return env, rt, nil
}

// Main runs the tests of a package and writes the configured reports.
// Use it from TestMain: os.Exit(harness.Main(m)).
func Main(m *testing.M) int {
	env, err := Default()
	if err != nil {
		fmt.Fprintf(os.Stderr, "e2e setup failed: %v\n", err)
		return 1
	}

	code := m.Run()

	if defaultRuntime != nil {
		if err := defaultRuntime.Close(); err != nil {
			env.Log.Warnf("harness", "closing browsers: %v", err)
		}
	}
	run := env.Recorder.Finish()
	if err := env.WriteReports(run); err != nil {
		env.Log.Errorf("harness", "writing reports: %v", err)
		if code == 0 {
			code = 1
		}
	}
	if run.GlobalTimedOut && code == 0 {
		code = 1
	}
	return code
}

// WriteReports writes results.json and the configured reporters.
func (e *Env) WriteReports(run *report.Run) error {
	jsonPath := filepath.Join(e.Config.OutputDir, "results.json")
	if err := report.WriteJSON(jsonPath, run); err != nil {
		return err
	}
	for _, r := range e.Config.Reporter {
		switch r {
		case "html":
			path, err := report.WriteHTML(e.Config.ReportDir, run)
			if err != nil {
				return err
			}
			e.Log.Infof("harness", "html report written to %s", path)
		case "xlsx":
			if err := report.WriteXLSX(filepath.Join(e.Config.OutputDir, "results.xlsx"), run); err != nil {
				return err
			}
		case "list":
			for _, res := range run.Results {
				e.Log.Infof("harness", "%-8s %s › %s (%s)", res.Status, res.Project, strings.Join(res.TitlePath, " › "), res.Duration.Round(time.Millisecond))
			}
		}
	}
	sum := run.Summary()
	e.Log.Infof("harness", "%d passed, %d failed, %d timed out, %d flaky, %d skipped", sum.Passed, sum.Failed, sum.TimedOut, sum.Flaky, sum.Skipped)
	return nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func outputDirFor(base, project string, titlePath []string, retry int) string {
	name := unsafeChars.ReplaceAllString(strings.Join(append([]string{project}, titlePath...), "-"), "-")
	name = strings.Trim(name, "-")
	if len(name) > 120 {
		name = name[:120]
	}
	if retry > 0 {
		name = fmt.Sprintf("%s-retry%d", name, retry)
	}
	return filepath.Join(base, name)
}
