// Package report holds test run results and writes them as JSON, HTML
// and XLSX.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPassed   Status = "passed"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timedOut"
	StatusSkipped  Status = "skipped"
	StatusFlaky    Status = "flaky"
)

// Attachment is a file produced while running a test.
type Attachment struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	ContentType string `json:"contentType"`
}

// TestResult is the outcome of one test in one project after all retries.
type TestResult struct {
	ID          string        `json:"id"`
	Project     string        `json:"project"`
	Suite       string        `json:"suite"`
	Title       string        `json:"title"`
	TitlePath   []string      `json:"titlePath"`
	Status      Status        `json:"status"`
	Retries     int           `json:"retries"`
	StartedAt   time.Time     `json:"startedAt"`
	Duration    time.Duration `json:"duration"`
	Errors      []string      `json:"errors,omitempty"`
	SkipReason  string        `json:"skipReason,omitempty"`
	Attachments []Attachment  `json:"attachments,omitempty"`
}

// Run collects the results of one `go test` invocation.
type Run struct {
	ID             string       `json:"id"`
	StartedAt      time.Time    `json:"startedAt"`
	FinishedAt     time.Time    `json:"finishedAt"`
	GlobalTimedOut bool         `json:"globalTimedOut"`
	Results        []TestResult `json:"results"`
}

type Summary struct {
	Total    int
	Passed   int
	Failed   int
	TimedOut int
	Skipped  int
	Flaky    int
}

// OK reports whether the run has no failed or timed out test.
func (s Summary) OK() bool {
	return s.Failed == 0 && s.TimedOut == 0
}

func (r *Run) Summary() Summary {
	s := Summary{Total: len(r.Results)}
	for _, res := range r.Results {
		switch res.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusTimedOut:
			s.TimedOut++
		case StatusSkipped:
			s.Skipped++
		case StatusFlaky:
			s.Flaky++
		}
	}
	return s
}

// Duration is the wall time of the run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Recorder accumulates results from concurrently running tests.
type Recorder struct {
	mu  sync.Mutex
	run Run
}

func NewRecorder() *Recorder {
	return &Recorder{run: Run{ID: uuid.New().String(), StartedAt: time.Now()}}
}

// Add stores a result, assigning an id when it has none.
func (r *Recorder) Add(res TestResult) {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.run.Results = append(r.run.Results, res)
}

// MarkGlobalTimeout flags the run as stopped by the global timeout.
func (r *Recorder) MarkGlobalTimeout() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.run.GlobalTimedOut = true
}

// Finish stamps the end time and returns a sorted copy of the run.
func (r *Recorder) Finish() *Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.run.FinishedAt = time.Now()
	return r.snapshot()
}

// Snapshot returns a sorted copy of the run so far.
func (r *Recorder) Snapshot() *Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *Recorder) snapshot() *Run {
	out := r.run
	out.Results = append([]TestResult(nil), r.run.Results...)
	sort.SliceStable(out.Results, func(i, j int) bool {
		a, b := out.Results[i], out.Results[j]
		if a.Project != b.Project {
			return a.Project < b.Project
		}
		if a.Suite != b.Suite {
			return a.Suite < b.Suite
		}
		return a.StartedAt.Before(b.StartedAt)
	})
	return &out
}

// WriteJSON writes the run to path, creating parent directories.
func WriteJSON(path string, run *Run) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a run written by WriteJSON.
func ReadJSON(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to decode results %s: %w", path, err)
	}
	return &run, nil
}
