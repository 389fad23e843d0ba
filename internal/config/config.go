package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	cfg     *Config
	loadErr error
	once    sync.Once
	mu      sync.RWMutex
)

// ErrUnknownProject is returned when a project name is not configured.
var ErrUnknownProject = errors.New("unknown project")

const (
	defaultBaseURL       = "http://localhost:4200"
	devBaseURL           = "http://localhost:4201"
	stagingBaseURL       = "http://localhost:4202"
	defaultPlaygroundURL = "http://uitestingplayground.com/ajax"
	defaultGlobalsQaURL  = "https://www.globalsqa.com/demo-site/draganddrop/"
)

// Config represents the suite configuration
type Config struct {
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	GlobalTimeout     time.Duration `mapstructure:"global_timeout" yaml:"global_timeout"`
	Expect            ExpectConfig  `mapstructure:"expect" yaml:"expect"`
	Retries           int           `mapstructure:"retries" yaml:"retries"`
	FullyParallel     bool          `mapstructure:"fully_parallel" yaml:"fully_parallel"`
	Reporter          []string      `mapstructure:"reporter" yaml:"reporter"`
	OutputDir         string        `mapstructure:"output_dir" yaml:"output_dir"`
	ReportDir         string        `mapstructure:"report_dir" yaml:"report_dir"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogCategoryFilter string        `mapstructure:"log_category_filter" yaml:"log_category_filter"`
	OnlyProjects      []string      `mapstructure:"only_projects" yaml:"only_projects,omitempty"`
	Use               UseOptions    `mapstructure:"use" yaml:"use"`
	Projects          []Project     `mapstructure:"projects" yaml:"projects"`
}

type ExpectConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// UseOptions are the run-time options handed to every browser session.
// Zero values in a project override mean "inherit".
type UseOptions struct {
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url,omitempty"`
	PlaygroundURL     string        `mapstructure:"playground_url" yaml:"playground_url,omitempty"`
	GlobalsQaURL      string        `mapstructure:"globals_qa_url" yaml:"globals_qa_url,omitempty"`
	Trace             string        `mapstructure:"trace" yaml:"trace,omitempty"`
	Screenshot        string        `mapstructure:"screenshot" yaml:"screenshot,omitempty"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout,omitempty"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout,omitempty"`
	BrowserName       string        `mapstructure:"browser_name" yaml:"browser_name,omitempty"`
	Device            string        `mapstructure:"device" yaml:"device,omitempty"`
	Headless          *bool         `mapstructure:"headless" yaml:"headless,omitempty"`
	SlowMo            time.Duration `mapstructure:"slow_mo" yaml:"slow_mo,omitempty"`
	Viewport          Size          `mapstructure:"viewport" yaml:"viewport,omitempty"`
	Video             VideoOptions  `mapstructure:"video" yaml:"video,omitempty"`
}

type VideoOptions struct {
	Mode string `mapstructure:"mode" yaml:"mode,omitempty"`
	Size Size   `mapstructure:"size" yaml:"size,omitempty"`
}

type Size struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// IsZero reports whether no dimension is set.
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// Project is a named variation of the run options.
type Project struct {
	Name          string     `mapstructure:"name" yaml:"name"`
	TestMatch     string     `mapstructure:"test_match" yaml:"test_match,omitempty"`
	FullyParallel bool       `mapstructure:"fully_parallel" yaml:"fully_parallel,omitempty"`
	Retries       *int       `mapstructure:"retries" yaml:"retries,omitempty"`
	Use           UseOptions `mapstructure:"use" yaml:"use"`
}

// Matches reports whether the project runs the named suite. An empty
// pattern matches every suite.
func (p Project) Matches(suite string) bool {
	if p.TestMatch == "" {
		return true
	}
	for _, pattern := range strings.Split(p.TestMatch, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == suite {
			return true
		}
		if ok, err := path.Match(pattern, suite); err == nil && ok {
			return true
		}
	}
	return false
}

// Load reads the process-wide configuration once. Later calls return the
// result of the first one; Get returns the cached configuration.
func Load(configPath string) error {
	once.Do(func() {
		c, err := New(configPath)
		mu.Lock()
		cfg, loadErr = c, err
		mu.Unlock()
	})
	mu.RLock()
	defer mu.RUnlock()
	return loadErr
}

// New builds a fresh configuration from defaults, an optional e2e.yaml
// file and the environment.
func New(configPath string) (*Config, error) {
	root := moduleRoot()
	if root != "" {
		loadDotEnv(".env", filepath.Join(root, ".env"))
	} else {
		loadDotEnv(".env")
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetConfigName("e2e")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	if p := os.Getenv("E2E_CONFIG"); p != "" {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if root != "" {
		v.AddConfigPath(root)
	}
	if err := v.ReadInConfig(); err != nil {
		// It's OK if e2e.yaml doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("E2E")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	applyLegacyEnv(v)

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(c.Projects) == 0 {
		c.Projects = DefaultProjects()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFromFile loads configuration from a specific file (useful for testing)
func LoadFromFile(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(c.Projects) == 0 {
		c.Projects = DefaultProjects()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the current configuration (thread-safe)
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("timeout", 40*time.Second)
	v.SetDefault("global_timeout", 60*time.Second)
	v.SetDefault("expect.timeout", 2*time.Second)
	v.SetDefault("retries", 1)
	v.SetDefault("fully_parallel", false)
	v.SetDefault("reporter", []string{"html"})
	v.SetDefault("output_dir", "test-results")
	v.SetDefault("report_dir", "playwright-report")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_category_filter", "")
	v.SetDefault("only_projects", []string{})

	v.SetDefault("use.base_url", defaultBaseURL)
	v.SetDefault("use.playground_url", defaultPlaygroundURL)
	v.SetDefault("use.globals_qa_url", defaultGlobalsQaURL)
	v.SetDefault("use.trace", TraceOnFirstRetry)
	v.SetDefault("use.screenshot", ScreenshotOnlyOnFailure)
	v.SetDefault("use.action_timeout", 20*time.Second)
	v.SetDefault("use.navigation_timeout", 25*time.Second)
	v.SetDefault("use.browser_name", BrowserChromium)
	v.SetDefault("use.device", "")
	v.SetDefault("use.headless", true)
	v.SetDefault("use.slow_mo", time.Duration(0))
	v.SetDefault("use.viewport.width", 1280)
	v.SetDefault("use.viewport.height", 720)
	v.SetDefault("use.video.mode", VideoOff)
	v.SetDefault("use.video.size.width", 1920)
	v.SetDefault("use.video.size.height", 1200)
}

// applyLegacyEnv maps the environment switches the suite has always
// honoured onto config keys, unless an E2E_ override is present.
func applyLegacyEnv(v *viper.Viper) {
	if os.Getenv("E2E_USE_BASE_URL") == "" && (os.Getenv("DEV") == "1" || os.Getenv("STAGING") == "1") {
		v.Set("use.base_url", ResolveBaseURL(os.Getenv))
	}
	if u := os.Getenv("URL"); u != "" && os.Getenv("E2E_USE_PLAYGROUND_URL") == "" {
		v.Set("use.playground_url", u)
	}
	if os.Getenv("HEADLESS") == "false" && os.Getenv("E2E_USE_HEADLESS") == "" {
		v.Set("use.headless", false)
	}
}

// ResolveBaseURL picks the demo app URL from the DEV / STAGING switches.
func ResolveBaseURL(getenv func(string) string) string {
	switch {
	case getenv("DEV") == "1":
		return devBaseURL
	case getenv("STAGING") == "1":
		return stagingBaseURL
	default:
		return defaultBaseURL
	}
}

// DefaultProjects returns the projects used when the config file defines none.
func DefaultProjects() []Project {
	return []Project{
		{
			Name: "dev",
			Use: UseOptions{
				Device:  "Desktop Chrome",
				BaseURL: defaultBaseURL,
			},
		},
		{
			Name:      "pageObjectFullScreen",
			TestMatch: "usePageObjects",
			Use: UseOptions{
				Viewport: Size{Width: 1920, Height: 1200},
			},
		},
		{
			Name:          "chromium",
			FullyParallel: true,
		},
		{
			Name: "firefox",
			Use: UseOptions{
				BrowserName: BrowserFirefox,
			},
		},
	}
}

// Project returns the named project with its options merged over the
// top-level ones.
func (c *Config) Project(name string) (Project, error) {
	for _, p := range c.Projects {
		if p.Name == name {
			return c.resolve(p), nil
		}
	}
	return Project{}, fmt.Errorf("%w: %s", ErrUnknownProject, name)
}

// SelectedProjects returns the resolved projects to run, honouring
// only_projects.
func (c *Config) SelectedProjects() ([]Project, error) {
	if len(c.OnlyProjects) == 0 {
		out := make([]Project, 0, len(c.Projects))
		for _, p := range c.Projects {
			out = append(out, c.resolve(p))
		}
		return out, nil
	}
	out := make([]Project, 0, len(c.OnlyProjects))
	for _, name := range c.OnlyProjects {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p, err := c.Project(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// RetriesFor returns the retry budget of a resolved project.
func (c *Config) RetriesFor(p Project) int {
	if p.Retries != nil {
		return *p.Retries
	}
	return c.Retries
}

func (c *Config) resolve(p Project) Project {
	p.Use = MergeUse(c.Use, p.Use)
	p.FullyParallel = p.FullyParallel || c.FullyParallel
	return p
}

// MergeUse overlays the non-zero fields of override onto base.
func MergeUse(base, override UseOptions) UseOptions {
	out := base
	if override.BaseURL != "" {
		out.BaseURL = override.BaseURL
	}
	if override.PlaygroundURL != "" {
		out.PlaygroundURL = override.PlaygroundURL
	}
	if override.GlobalsQaURL != "" {
		out.GlobalsQaURL = override.GlobalsQaURL
	}
	if override.Trace != "" {
		out.Trace = override.Trace
	}
	if override.Screenshot != "" {
		out.Screenshot = override.Screenshot
	}
	if override.ActionTimeout != 0 {
		out.ActionTimeout = override.ActionTimeout
	}
	if override.NavigationTimeout != 0 {
		out.NavigationTimeout = override.NavigationTimeout
	}
	if override.BrowserName != "" {
		out.BrowserName = override.BrowserName
	}
	if override.Device != "" {
		out.Device = override.Device
	}
	if override.Headless != nil {
		h := *override.Headless
		out.Headless = &h
	}
	if override.SlowMo != 0 {
		out.SlowMo = override.SlowMo
	}
	if !override.Viewport.IsZero() {
		out.Viewport = override.Viewport
	}
	if override.Video.Mode != "" {
		out.Video.Mode = override.Video.Mode
	}
	if !override.Video.Size.IsZero() {
		out.Video.Size = override.Video.Size
	}
	return out
}

// IsHeadless defaults to true when unset.
func (u UseOptions) IsHeadless() bool {
	return u.Headless == nil || *u.Headless
}
