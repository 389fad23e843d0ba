package harness

import (
	"fmt"
	"runtime/debug"
	"strings"
	"testing"
	"time"

	"github.com/uiplayground/ngx-e2e/internal/report"
)

type waitResult int

const (
	waitDone waitResult = iota
	waitTimeout
	waitGlobal
)

type attemptResult struct {
	errors      []string
	failed      bool
	timedOut    bool
	skipped     bool
	skipReason  string
	attachments []report.Attachment
}

func (s *Suite) run(t *testing.T, name string, fn TestFunc) {
	res := s.execute(t, name, fn)
	s.env.Recorder.Add(res)

	switch res.Status {
	case report.StatusSkipped:
		t.Skip(res.SkipReason)
	case report.StatusFailed, report.StatusTimedOut:
		for _, e := range res.Errors {
			t.Error(e)
		}
	case report.StatusFlaky:
		t.Logf("passed on retry #%d", res.Retries)
	}
}

// execute runs every attempt of one test and returns its outcome. It
// never fails t; the caller turns the result into test status.
func (s *Suite) execute(t testing.TB, name string, fn TestFunc) report.TestResult {
	res := report.TestResult{
		Project:   s.project.Name,
		Suite:     s.root().name,
		Title:     name,
		TitlePath: s.titlePath(name),
		StartedAt: time.Now(),
	}
	skip := func(reason string) report.TestResult {
		res.Status = report.StatusSkipped
		res.SkipReason = reason
		res.Duration = time.Since(res.StartedAt)
		return res
	}

	if s.env.globalExpired() {
		s.env.markGlobalTimeout()
		return skip(fmt.Sprintf("global timeout of %s exceeded", s.env.Config.GlobalTimeout))
	}
	group := s.serialGroup()
	if group != nil && group.Load() {
		return skip("skipped after a failure in serial mode")
	}
	for _, u := range s.requiredURLs() {
		if !s.env.reachable(u) {
			return skip(fmt.Sprintf("%s is not reachable", u))
		}
	}

	retries := s.retries()
	var last attemptResult
	for retry := 0; retry <= retries; retry++ {
		last = s.attempt(t, res.TitlePath, retry, retries, fn)
		res.Retries = retry
		res.Attachments = append(res.Attachments, last.attachments...)
		if last.skipped {
			return skip(last.skipReason)
		}
		if !last.failed {
			break
		}
		if s.env.globalHit.Load() {
			break
		}
		if retry < retries {
			t.Logf("retry #%d failed:\n%s", retry, strings.Join(last.errors, "\n"))
		}
	}

	res.Duration = time.Since(res.StartedAt)
	switch {
	case !last.failed && res.Retries > 0:
		res.Status = report.StatusFlaky
	case !last.failed:
		res.Status = report.StatusPassed
	case last.timedOut:
		res.Status = report.StatusTimedOut
		res.Errors = last.errors
	default:
		res.Status = report.StatusFailed
		res.Errors = last.errors
	}
	if last.failed && group != nil {
		group.Store(true)
	}
	return res
}

func (s *Suite) attempt(parent testing.TB, titlePath []string, retry, retries int, fn TestFunc) attemptResult {
	info := newTestInfo(titlePath[len(titlePath)-1], titlePath, s.project.Name, retry, retries,
		outputDirFor(s.env.Config.OutputDir, s.project.Name, titlePath, retry), s.timeout())
	a := newT(parent, info)
	defer a.cancel()

	fx, teardown, err := s.env.fixtures(a, s.project)
	if err != nil {
		return attemptResult{skipped: true, skipReason: fmt.Sprintf("browser unavailable: %v", err)}
	}
	s.env.Log.Debugf("harness", "start %s › %s (retry #%d)", s.project.Name, strings.Join(titlePath, " › "), retry)

	started := time.Now()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				a.Errorf("panic: %v\n%s", r, debug.Stack())
			}
		}()
		for _, h := range s.allHooks() {
			h(a, fx)
		}
		fn(a, fx)
	}()

	var timeoutMsg string
	switch a.await(done, started, s.env.deadline) {
	case waitTimeout:
		timeoutMsg = fmt.Sprintf("Test timeout of %dms exceeded.", info.Timeout().Milliseconds())
	case waitGlobal:
		s.env.markGlobalTimeout()
		timeoutMsg = fmt.Sprintf("Timed out waiting %s for the entire test run.", s.env.Config.GlobalTimeout)
	}

	var res attemptResult
	if timeoutMsg != "" {
		// snapshot first: errors raised while the session is torn down are noise
		errs, _, _, _ := a.state()
		a.detach()
		res = attemptResult{errors: append([]string{timeoutMsg}, errs...), failed: true, timedOut: true}
		res.attachments = teardown(true)
		select {
		case <-done:
		case <-time.After(s.env.grace):
			s.env.Log.Warnf("harness", "%s still running %s after timeout", strings.Join(titlePath, " › "), s.env.grace)
		}
	} else {
		errs, failed, skipped, reason := a.state()
		res = attemptResult{errors: errs, failed: failed, skipped: skipped, skipReason: reason}
		res.attachments = teardown(failed)
	}
	res.attachments = append(res.attachments, info.Attachments()...)
	return res
}

// await blocks until the body finishes or a deadline passes. The test
// deadline is re-read whenever the body changes its timeout.
func (t *T) await(done <-chan struct{}, started, global time.Time) waitResult {
	for {
		var deadline time.Time
		if d := t.info.Timeout(); d > 0 {
			deadline = started.Add(d)
		}
		isGlobal := false
		if !global.IsZero() && (deadline.IsZero() || global.Before(deadline)) {
			deadline = global
			isGlobal = true
		}

		var timer *time.Timer
		var fire <-chan time.Time
		if !deadline.IsZero() {
			timer = time.NewTimer(time.Until(deadline))
			fire = timer.C
		}

		select {
		case <-done:
			stopTimer(timer)
			return waitDone
		case <-t.info.changed:
			stopTimer(timer)
			continue
		case <-fire:
			// the body may have finished at the same instant
			select {
			case <-done:
				return waitDone
			default:
			}
			if isGlobal {
				return waitGlobal
			}
			return waitTimeout
		}
	}
}

func stopTimer(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}
