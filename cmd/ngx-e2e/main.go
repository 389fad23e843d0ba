package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/playwright-community/playwright-go"
	"github.com/spf13/cobra"
	"github.com/uiplayground/ngx-e2e/internal/config"
	"github.com/uiplayground/ngx-e2e/internal/report"
	"github.com/uiplayground/ngx-e2e/internal/version"
	"github.com/xeonx/timeago"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var rootCmd = &cobra.Command{
	Use:   "ngx-e2e",
	Short: "Helper CLI for the ngx-admin browser suites",
	Long: `ngx-e2e inspects the browser test configuration, checks that the
target apps answer, installs browsers and re-renders reports from a
results.json written by a test run.

The suites themselves run with: go test ./tests/e2e/...`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configDirFlag string

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List the projects a test run would use",
	RunE:  runProjects,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration as YAML",
	RunE:  runConfig,
}

var projectFlag string

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that every configured app URL is reachable",
	RunE:  runProbe,
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the Playwright driver and browsers",
	RunE:  runInstall,
}

var browsersFlag []string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the HTML (and optionally XLSX) report from results.json",
	RunE:  runReport,
}

var (
	resultsFlag string
	outFlag     string
	xlsxFlag    string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !versionYAMLFlag {
			fmt.Fprintf(cmd.OutOrStdout(), "ngx-e2e %s\n", version.String())
			return nil
		}
		return yaml.NewEncoder(cmd.OutOrStdout()).Encode(version.GetInfo())
	},
}

var versionYAMLFlag bool

func init() {
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "Directory holding e2e.yaml")

	versionCmd.Flags().BoolVar(&versionYAMLFlag, "yaml", false, "Print build information as YAML")
	configCmd.Flags().StringVar(&projectFlag, "project", "", "Print only this project, merged with the top-level options")
	installCmd.Flags().StringSliceVar(&browsersFlag, "browsers", nil, "Browsers to install (default: those the projects use)")
	reportCmd.Flags().StringVar(&resultsFlag, "results", filepath.Join("test-results", "results.json"), "Results file written by a test run")
	reportCmd.Flags().StringVar(&outFlag, "out", "", "Report directory (default: report_dir from the config)")
	reportCmd.Flags().StringVar(&xlsxFlag, "xlsx", "", "Also write the results as an XLSX workbook to this path")

	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.New(configDirFlag)
}

func runProjects(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	projects, err := cfg.SelectedProjects()
	if err != nil {
		return err
	}
	return writeProjects(cmd.OutOrStdout(), cfg, projects)
}

func writeProjects(out io.Writer, cfg *config.Config, projects []config.Project) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBROWSER\tDEVICE\tBASE URL\tRETRIES\tPARALLEL\tTEST MATCH")
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%t\t%s\n",
			p.Name, p.Use.BrowserName, orDash(p.Use.Device), p.Use.BaseURL,
			cfg.RetriesFor(p), p.FullyParallel, orDash(p.TestMatch))
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var v interface{} = cfg
	if projectFlag != "" {
		p, err := cfg.Project(projectFlag)
		if err != nil {
			return err
		}
		v = p
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// probeTargets lists every distinct app URL the selected projects use.
func probeTargets(projects []config.Project) []string {
	seen := map[string]bool{}
	var urls []string
	for _, p := range projects {
		for _, u := range []string{p.Use.BaseURL, p.Use.PlaygroundURL, p.Use.GlobalsQaURL} {
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			urls = append(urls, u)
		}
	}
	sort.Strings(urls)
	return urls
}

func probeAll(ctx context.Context, urls []string, reachable func(string) bool) map[string]bool {
	results := make([]bool, len(urls))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = reachable(u)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]bool, len(urls))
	for i, u := range urls {
		out[u] = results[i]
	}
	return out
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	projects, err := cfg.SelectedProjects()
	if err != nil {
		return err
	}
	urls := probeTargets(projects)
	status := probeAll(cmd.Context(), urls, config.Reachable)

	out := cmd.OutOrStdout()
	down := writeStatus(out, urls, status, isTerminal(out))
	if len(down) > 0 {
		return fmt.Errorf("%d of %d targets unreachable: %s", len(down), len(urls), strings.Join(down, ", "))
	}
	return nil
}

// writeStatus prints one up/down line per target and returns the targets
// that are down. The state column is coloured when colored is set.
func writeStatus(w io.Writer, urls []string, status map[string]bool, colored bool) []string {
	up := color.New(color.FgGreen)
	downColor := color.New(color.FgRed, color.Bold)
	for _, c := range []*color.Color{up, downColor} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	var down []string
	for _, u := range urls {
		state := up.Sprintf("%-5s", "up")
		if !status[u] {
			state = downColor.Sprintf("%-5s", "down")
			down = append(down, u)
		}
		fmt.Fprintf(w, "%s %s\n", state, u)
	}
	return down
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// browsersToInstall returns the distinct browsers the projects launch.
func browsersToInstall(projects []config.Project) []string {
	seen := map[string]bool{}
	var names []string
	for _, p := range projects {
		name := p.Use.BrowserName
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runInstall(cmd *cobra.Command, args []string) error {
	browsers := browsersFlag
	if len(browsers) == 0 {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		projects, err := cfg.SelectedProjects()
		if err != nil {
			return err
		}
		browsers = browsersToInstall(projects)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Installing Playwright driver and %s...\n", strings.Join(browsers, ", "))
	if err := playwright.Install(&playwright.RunOptions{Browsers: browsers}); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Done.")
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	run, err := report.ReadJSON(resultsFlag)
	if err != nil {
		return err
	}
	dir := outFlag
	if dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir = cfg.ReportDir
	}
	path, err := report.WriteHTML(dir, run)
	if err != nil {
		return err
	}
	if xlsxFlag != "" {
		if err := report.WriteXLSX(xlsxFlag, run); err != nil {
			return err
		}
	}
	writeSummary(cmd.OutOrStdout(), run)
	fmt.Fprintf(cmd.OutOrStdout(), "HTML report: %s\n", path)
	return nil
}

func writeSummary(out io.Writer, run *report.Run) {
	sum := run.Summary()
	fmt.Fprintf(out, "Run %s finished %s\n", run.ID, timeago.English.Format(run.FinishedAt))
	fmt.Fprintf(out, "%d tests: %d passed, %d failed, %d timed out, %d flaky, %d skipped\n",
		sum.Total, sum.Passed, sum.Failed, sum.TimedOut, sum.Flaky, sum.Skipped)
	if run.GlobalTimedOut {
		fmt.Fprintln(out, "The run hit the global timeout.")
	}
}
