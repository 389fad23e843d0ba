// Package harness runs browser tests on top of the testing package with
// projects, retries, per-test timeouts, serial and parallel groups and
// result reporting.
package harness

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/uiplayground/ngx-e2e/internal/config"
)

type Mode int

const (
	// ModeDefault runs tests in parallel only when the project is fully parallel.
	ModeDefault Mode = iota
	ModeParallel
	// ModeSerial runs tests in order and skips the rest after a failure.
	ModeSerial
)

func (m Mode) String() string {
	switch m {
	case ModeParallel:
		return "parallel"
	case ModeSerial:
		return "serial"
	}
	return "default"
}

// Options configure a suite or describe block. Zero fields inherit.
type Options struct {
	Mode    Mode
	Retries *int
	Timeout time.Duration
}

// Retries is a helper for Options.Retries.
func Retries(n int) *int {
	return &n
}

type HookFunc func(t *T, fx *Fixtures)

type TestFunc func(t *T, fx *Fixtures)

// Suite is a group of tests bound to one project.
type Suite struct {
	env     *Env
	t       *testing.T
	project config.Project
	name    string
	parent  *Suite

	opts     Options
	hooks    []HookFunc
	requires []string
	serial   *atomic.Bool
}

// ForEachProject runs fn once per selected project that matches suite,
// each in its own subtest named after the project.
func ForEachProject(t *testing.T, suite string, fn func(s *Suite)) {
	t.Helper()
	env, err := Default()
	if err != nil {
		t.Fatalf("e2e setup failed: %v", err)
	}
	env.ForEachProject(t, suite, fn)
}

func (e *Env) ForEachProject(t *testing.T, suite string, fn func(s *Suite)) {
	t.Helper()
	projects, err := e.Config.SelectedProjects()
	if err != nil {
		t.Fatalf("select projects: %v", err)
	}
	ran := false
	for _, p := range projects {
		if !p.Matches(suite) {
			continue
		}
		ran = true
		p := p
		t.Run(p.Name, func(t *testing.T) {
			fn(&Suite{env: e, t: t, project: p, name: suite})
		})
	}
	if !ran {
		t.Skipf("no selected project runs suite %s", suite)
	}
}

// Project returns the resolved project the suite runs in.
func (s *Suite) Project() config.Project {
	return s.project
}

// Configure sets mode, retries and timeout for the suite.
func (s *Suite) Configure(opts Options) {
	if opts.Mode != ModeDefault {
		s.opts.Mode = opts.Mode
		if opts.Mode == ModeSerial && s.serial == nil {
			s.serial = &atomic.Bool{}
		}
	}
	if opts.Retries != nil {
		s.opts.Retries = opts.Retries
	}
	if opts.Timeout != 0 {
		s.opts.Timeout = opts.Timeout
	}
}

// BeforeEach registers a hook run before every test of the suite and
// its describe blocks, after the hooks of enclosing suites.
func (s *Suite) BeforeEach(h HookFunc) {
	s.hooks = append(s.hooks, h)
}

// RequireReachable replaces the URLs that must answer before a test
// runs. By default the project base URL is required.
func (s *Suite) RequireReachable(urls ...string) {
	s.requires = append([]string{}, urls...)
}

// Describe groups tests under name. The block inherits hooks and options.
func (s *Suite) Describe(name string, fn func(s *Suite)) {
	s.t.Run(name, func(t *testing.T) {
		fn(&Suite{env: s.env, t: t, project: s.project, name: name, parent: s})
	})
}

// Test declares a test.
func (s *Suite) Test(name string, fn TestFunc) {
	s.t.Run(name, func(t *testing.T) {
		if s.parallel() {
			t.Parallel()
		}
		s.run(t, name, fn)
	})
}

func (s *Suite) parallel() bool {
	for cur := s; cur != nil; cur = cur.parent {
		switch cur.opts.Mode {
		case ModeParallel:
			return true
		case ModeSerial:
			return false
		}
	}
	return s.project.FullyParallel
}

// serialGroup returns the failure flag of the nearest serial block.
func (s *Suite) serialGroup() *atomic.Bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.opts.Mode == ModeSerial {
			return cur.serial
		}
		if cur.opts.Mode == ModeParallel {
			return nil
		}
	}
	return nil
}

func (s *Suite) retries() int {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.opts.Retries != nil {
			return *cur.opts.Retries
		}
	}
	return s.env.Config.RetriesFor(s.project)
}

func (s *Suite) timeout() time.Duration {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.opts.Timeout != 0 {
			return cur.opts.Timeout
		}
	}
	return s.env.Config.Timeout
}

func (s *Suite) allHooks() []HookFunc {
	var chain []*Suite
	for cur := s; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	var hooks []HookFunc
	for i := len(chain) - 1; i >= 0; i-- {
		hooks = append(hooks, chain[i].hooks...)
	}
	return hooks
}

func (s *Suite) requiredURLs() []string {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.requires != nil {
			return cur.requires
		}
	}
	if s.project.Use.BaseURL == "" {
		return nil
	}
	return []string{s.project.Use.BaseURL}
}

func (s *Suite) titlePath(name string) []string {
	var path []string
	for cur := s; cur != nil; cur = cur.parent {
		path = append([]string{cur.name}, path...)
	}
	return append(path, name)
}

func (s *Suite) root() *Suite {
	cur := s
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}
