package report

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/flosch/pongo2/v6"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/index.html
var indexTemplate string

var indexTpl = pongo2.Must(pongo2.FromString(indexTemplate))

type chipView struct {
	Status string
	Label  string
	Count  int
}

type attachmentView struct {
	Name string
	Href string
}

type resultView struct {
	Path        string
	Status      string
	Label       string
	Retries     int
	Duration    string
	Errors      []string
	SkipReason  string
	Attachments []attachmentView
}

type projectView struct {
	Name    string
	Results []resultView
}

// StatusLabel turns a status into a display label ("timedOut" -> "Timed Out").
func StatusLabel(s Status) string {
	var b strings.Builder
	for i, r := range string(s) {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return cases.Title(language.English).String(b.String())
}

// RenderHTML writes the HTML report for run. Attachment links are made
// relative to baseDir, the directory the report will live in.
func RenderHTML(w io.Writer, run *Run, baseDir string) error {
	sum := run.Summary()
	chips := []chipView{
		{string(StatusPassed), StatusLabel(StatusPassed), sum.Passed},
		{string(StatusFailed), StatusLabel(StatusFailed), sum.Failed},
		{string(StatusTimedOut), StatusLabel(StatusTimedOut), sum.TimedOut},
		{string(StatusFlaky), StatusLabel(StatusFlaky), sum.Flaky},
		{string(StatusSkipped), StatusLabel(StatusSkipped), sum.Skipped},
	}

	var projects []projectView
	index := map[string]int{}
	for _, res := range run.Results {
		i, ok := index[res.Project]
		if !ok {
			i = len(projects)
			index[res.Project] = i
			projects = append(projects, projectView{Name: res.Project})
		}
		projects[i].Results = append(projects[i].Results, toResultView(res, baseDir))
	}

	ctx := pongo2.Context{
		"title":            "ngx-e2e report",
		"run_id":           run.ID,
		"started":          run.StartedAt.Format(time.RFC1123),
		"duration":         run.Duration().Round(time.Millisecond).String(),
		"global_timed_out": run.GlobalTimedOut,
		"chips":            chips,
		"total":            sum.Total,
		"projects":         projects,
	}
	if err := indexTpl.ExecuteWriter(ctx, w); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}
	return nil
}

// WriteHTML renders the report into dir/index.html and returns its path.
func WriteHTML(dir string, run *Run) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(dir, "index.html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := RenderHTML(f, run, dir); err != nil {
		return "", err
	}
	return path, nil
}

func toResultView(res TestResult, baseDir string) resultView {
	title := strings.Join(res.TitlePath, " › ")
	if title == "" {
		title = res.Title
	}
	v := resultView{
		Path:       title,
		Status:     string(res.Status),
		Label:      StatusLabel(res.Status),
		Retries:    res.Retries,
		Duration:   res.Duration.Round(time.Millisecond).String(),
		Errors:     res.Errors,
		SkipReason: res.SkipReason,
	}
	for _, a := range res.Attachments {
		v.Attachments = append(v.Attachments, attachmentView{Name: a.Name, Href: relativeHref(baseDir, a.Path)})
	}
	return v
}

func relativeHref(baseDir, target string) string {
	absBase, err1 := filepath.Abs(baseDir)
	absTarget, err2 := filepath.Abs(target)
	if err1 != nil || err2 != nil {
		return filepath.ToSlash(target)
	}
	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil {
		return filepath.ToSlash(absTarget)
	}
	return filepath.ToSlash(rel)
}
