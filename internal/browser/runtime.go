package browser

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/playwright-community/playwright-go"
	"github.com/uiplayground/ngx-e2e/internal/config"
	"github.com/uiplayground/ngx-e2e/internal/log"
)

// ErrUnsupportedBrowser is returned for a browser name Playwright does not ship.
var ErrUnsupportedBrowser = errors.New("unsupported browser")

// Runtime owns the Playwright driver and the launched browsers. Browsers
// are shared between tests; every test gets its own context.
type Runtime struct {
	log *log.Logger

	startOnce sync.Once
	startErr  error
	pw        *playwright.Playwright

	mu       sync.Mutex
	browsers map[launchKey]playwright.Browser
	launchEr map[launchKey]error
}

type launchKey struct {
	name     string
	headless bool
	slowMo   float64
}

func NewRuntime(logger *log.Logger) *Runtime {
	if logger == nil {
		logger = log.NewNullLogger()
	}
	return &Runtime{
		log:      logger,
		browsers: map[launchKey]playwright.Browser{},
		launchEr: map[launchKey]error{},
	}
}

// Start runs the Playwright driver once. Later calls return the first result.
func (r *Runtime) Start() error {
	r.startOnce.Do(func() {
		r.pw, r.startErr = startPlaywright(r.log)
	})
	return r.startErr
}

func startPlaywright(logger *log.Logger) (*playwright.Playwright, error) {
	if os.Getenv("PLAYWRIGHT_PREINSTALLED") != "1" {
		if err := playwright.Install(); err != nil {
			return nil, fmt.Errorf("could not install playwright browsers: %w", err)
		}
	}
	pw, err := playwright.Run()
	if err != nil {
		// Fallback: attempt install driver explicitly then retry
		logger.Warnf("browser", "playwright run failed, reinstalling driver: %v", err)
		_ = playwright.Install()
		pw, err = playwright.Run()
		if err != nil {
			return nil, fmt.Errorf("could not start playwright after retry (ensure driver version matches): %w", err)
		}
	}
	logger.Debugf("browser", "playwright driver started")
	return pw, nil
}

// Browser returns the browser for the project's options, launching it on
// first use. A launch failure is remembered so every test of the project
// fails fast with the same error.
func (r *Runtime) Browser(use config.UseOptions) (playwright.Browser, error) {
	if err := r.Start(); err != nil {
		return nil, err
	}
	key := launchKey{name: use.BrowserName, headless: use.IsHeadless(), slowMo: float64(use.SlowMo.Milliseconds())}
	if key.name == "" {
		key.name = config.BrowserChromium
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pw == nil {
		return nil, errors.New("browser runtime is closed")
	}
	if b, ok := r.browsers[key]; ok {
		return b, nil
	}
	if err, ok := r.launchEr[key]; ok {
		return nil, err
	}

	bt, err := r.browserType(key.name)
	if err == nil {
		var b playwright.Browser
		b, err = bt.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(key.headless),
			SlowMo:   playwright.Float(key.slowMo),
		})
		if err == nil {
			r.log.Infof("browser", "launched %s (headless=%t) version %s", key.name, key.headless, b.Version())
			r.browsers[key] = b
			return b, nil
		}
		err = fmt.Errorf("could not launch %s: %w", key.name, err)
	}
	r.launchEr[key] = err
	return nil, err
}

func (r *Runtime) browserType(name string) (playwright.BrowserType, error) {
	switch name {
	case config.BrowserChromium:
		return r.pw.Chromium, nil
	case config.BrowserFirefox:
		return r.pw.Firefox, nil
	case config.BrowserWebKit:
		return r.pw.WebKit, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedBrowser, name)
}

// Device looks up a Playwright device descriptor such as "Desktop Chrome".
func (r *Runtime) Device(name string) (*playwright.DeviceDescriptor, error) {
	if err := r.Start(); err != nil {
		return nil, err
	}
	d, ok := r.pw.Devices[name]
	if !ok {
		return nil, fmt.Errorf("unknown device %q", name)
	}
	return d, nil
}

// Close shuts down every browser and the driver.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for key, b := range r.browsers {
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", key.name, err))
		}
		delete(r.browsers, key)
	}
	if r.pw != nil {
		if err := r.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
		r.pw = nil
	}
	return errors.Join(errs...)
}
