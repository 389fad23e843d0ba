package pageobjects

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

// PageManager hands out the page objects of one page.
type PageManager struct {
	page          playwright.Page
	now           func() time.Time
	assertTimeout time.Duration
	settle        int

	navigationPage  *NavigationPage
	formLayoutsPage *FormLayoutsPage
	datepickerPage  *DatepickerPage
}

type Option func(*PageManager)

// WithClock replaces the clock dates are counted from.
func WithClock(now func() time.Time) Option {
	return func(pm *PageManager) {
		pm.now = now
	}
}

// WithAssertTimeout sets how long value checks retry.
func WithAssertTimeout(d time.Duration) Option {
	return func(pm *PageManager) {
		pm.assertTimeout = d
	}
}

// WithNavigationSettle sets the pause after a menu navigation, in seconds.
func WithNavigationSettle(seconds int) Option {
	return func(pm *PageManager) {
		pm.settle = seconds
	}
}

func NewPageManager(page playwright.Page, opts ...Option) *PageManager {
	pm := &PageManager{
		page:          page,
		now:           time.Now,
		assertTimeout: 5 * time.Second,
		settle:        2,
	}
	for _, opt := range opts {
		opt(pm)
	}
	base := NewHelperBase(page)
	pm.navigationPage = NewNavigationPage(base)
	pm.navigationPage.settle = pm.settle
	pm.formLayoutsPage = NewFormLayoutsPage(base)
	pm.datepickerPage = NewDatepickerPage(base, pm.now, pm.assertTimeout)
	return pm
}

func (pm *PageManager) NavigateTo() *NavigationPage {
	return pm.navigationPage
}

func (pm *PageManager) OnFormLayoutsPage() *FormLayoutsPage {
	return pm.formLayoutsPage
}

func (pm *PageManager) OnDatepickerPage() *DatepickerPage {
	return pm.datepickerPage
}
