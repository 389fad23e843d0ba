package config

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	TraceOff             = "off"
	TraceOn              = "on"
	TraceRetainOnFailure = "retain-on-failure"
	TraceOnFirstRetry    = "on-first-retry"
	TraceOnAllRetries    = "on-all-retries"

	VideoOff             = "off"
	VideoOn              = "on"
	VideoRetainOnFailure = "retain-on-failure"
	VideoOnFirstRetry    = "on-first-retry"

	ScreenshotOff           = "off"
	ScreenshotOn            = "on"
	ScreenshotOnlyOnFailure = "only-on-failure"

	BrowserChromium = "chromium"
	BrowserFirefox  = "firefox"
	BrowserWebKit   = "webkit"
)

var (
	traceModes      = []string{TraceOff, TraceOn, TraceRetainOnFailure, TraceOnFirstRetry, TraceOnAllRetries}
	videoModes      = []string{VideoOff, VideoOn, VideoRetainOnFailure, VideoOnFirstRetry}
	screenshotModes = []string{ScreenshotOff, ScreenshotOn, ScreenshotOnlyOnFailure}
	browserNames    = []string{BrowserChromium, BrowserFirefox, BrowserWebKit}
	reporters       = []string{"html", "json", "xlsx", "list"}
)

// Validate checks the configuration and every project override.
func (c *Config) Validate() error {
	var errs []string
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if c.Timeout < 0 {
		add("timeout must not be negative")
	}
	if c.GlobalTimeout < 0 {
		add("global_timeout must not be negative")
	}
	if c.Expect.Timeout < 0 {
		add("expect.timeout must not be negative")
	}
	if c.Retries < 0 {
		add("retries must not be negative")
	}
	for _, r := range c.Reporter {
		if !oneOf(r, reporters) {
			add("unknown reporter %q", r)
		}
	}
	validateUse("use", c.Use, true, add)

	seen := map[string]struct{}{}
	for i, p := range c.Projects {
		if p.Name == "" {
			add("projects[%d]: name is required", i)
			continue
		}
		if _, dup := seen[p.Name]; dup {
			add("projects[%d]: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.Retries != nil && *p.Retries < 0 {
			add("project %s: retries must not be negative", p.Name)
		}
		validateUse("project "+p.Name, p.Use, false, add)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n%s", strings.Join(errs, "\n"))
	}
	return nil
}

func validateUse(scope string, u UseOptions, required bool, add func(string, ...interface{})) {
	check := func(field, value string, allowed []string) {
		if value == "" {
			if required {
				add("%s: %s is required", scope, field)
			}
			return
		}
		if !oneOf(value, allowed) {
			add("%s: unknown %s %q (allowed: %s)", scope, field, value, strings.Join(allowed, ", "))
		}
	}
	check("trace", u.Trace, traceModes)
	check("video.mode", u.Video.Mode, videoModes)
	check("screenshot", u.Screenshot, screenshotModes)
	check("browser_name", u.BrowserName, browserNames)

	for field, raw := range map[string]string{
		"base_url":       u.BaseURL,
		"playground_url": u.PlaygroundURL,
		"globals_qa_url": u.GlobalsQaURL,
	} {
		if raw == "" {
			continue
		}
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			add("%s: %s %q is not an absolute URL", scope, field, raw)
		}
	}
	if u.ActionTimeout < 0 || u.NavigationTimeout < 0 {
		add("%s: timeouts must not be negative", scope)
	}
	if u.Viewport.Width < 0 || u.Viewport.Height < 0 {
		add("%s: viewport must not be negative", scope)
	}
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
