// Package expect provides web-first locator assertions bound to a test.
//
// Assertions retry until the expect timeout elapses. A failed hard
// assertion stops the test; a failed soft assertion is recorded and the
// test goes on.
package expect

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// TestingT is the subset of a test handle assertions report to.
type TestingT interface {
	Errorf(format string, args ...interface{})
	FailNow()
	Helper()
}

// Expect creates locator assertions that use a default timeout.
type Expect struct {
	t       TestingT
	timeout time.Duration
	pw      playwright.PlaywrightAssertions
}

func New(t TestingT, timeout time.Duration) *Expect {
	return &Expect{
		t:       t,
		timeout: timeout,
		pw:      playwright.NewPlaywrightAssertions(ms(timeout)),
	}
}

// Timeout returns the default assertion timeout.
func (e *Expect) Timeout() time.Duration {
	return e.timeout
}

// That starts a hard assertion on locator.
func (e *Expect) That(locator playwright.Locator) *LocatorExpect {
	return &LocatorExpect{e: e, locator: locator, assertions: e.pw.Locator(locator)}
}

// Soft starts an assertion whose failure does not stop the test.
func (e *Expect) Soft(locator playwright.Locator) *LocatorExpect {
	le := e.That(locator)
	le.soft = true
	return le
}

// LocatorExpect is a pending assertion on one locator.
type LocatorExpect struct {
	e          *Expect
	locator    playwright.Locator
	assertions playwright.LocatorAssertions
	soft       bool
	negated    bool
	timeout    time.Duration
}

// Not negates the assertion that follows.
func (x *LocatorExpect) Not() *LocatorExpect {
	cp := *x
	cp.negated = !x.negated
	cp.assertions = x.assertions.Not()
	return &cp
}

// Within overrides the default timeout for this assertion.
func (x *LocatorExpect) Within(d time.Duration) *LocatorExpect {
	cp := *x
	cp.timeout = d
	return &cp
}

func (x *LocatorExpect) timeoutOpt() *float64 {
	if x.timeout == 0 {
		return nil
	}
	return playwright.Float(ms(x.timeout))
}

// ToHaveText accepts a string, a *regexp.Regexp or a []string to match
// every element of the locator in order.
func (x *LocatorExpect) ToHaveText(expected interface{}) bool {
	x.e.t.Helper()
	err := x.assertions.ToHaveText(expected, playwright.LocatorAssertionsToHaveTextOptions{Timeout: x.timeoutOpt()})
	return x.report(err, "have text %v", expected)
}

func (x *LocatorExpect) ToContainText(expected interface{}) bool {
	x.e.t.Helper()
	err := x.assertions.ToContainText(expected, playwright.LocatorAssertionsToContainTextOptions{Timeout: x.timeoutOpt()})
	return x.report(err, "contain text %v", expected)
}

func (x *LocatorExpect) ToHaveValue(value string) bool {
	x.e.t.Helper()
	err := x.assertions.ToHaveValue(value, playwright.LocatorAssertionsToHaveValueOptions{Timeout: x.timeoutOpt()})
	return x.report(err, "have value %q", value)
}

func (x *LocatorExpect) ToBeChecked() bool {
	x.e.t.Helper()
	err := x.assertions.ToBeChecked(playwright.LocatorAssertionsToBeCheckedOptions{Timeout: x.timeoutOpt()})
	return x.report(err, "be checked")
}

func (x *LocatorExpect) ToBeVisible() bool {
	x.e.t.Helper()
	err := x.assertions.ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{Timeout: x.timeoutOpt()})
	return x.report(err, "be visible")
}

func (x *LocatorExpect) ToHaveCSS(name, value string) bool {
	x.e.t.Helper()
	err := x.assertions.ToHaveCSS(name, value, playwright.LocatorAssertionsToHaveCSSOptions{Timeout: x.timeoutOpt()})
	return x.report(err, "have CSS %s=%q", name, value)
}

func (x *LocatorExpect) ToHaveCount(count int) bool {
	x.e.t.Helper()
	err := x.assertions.ToHaveCount(count, playwright.LocatorAssertionsToHaveCountOptions{Timeout: x.timeoutOpt()})
	return x.report(err, "have count %d", count)
}

func (x *LocatorExpect) report(err error, what string, args ...interface{}) bool {
	if err == nil {
		return true
	}
	x.e.t.Helper()
	neg := ""
	if x.negated {
		neg = "not "
	}
	kind := "expect"
	if x.soft {
		kind = "expect.soft"
	}
	x.e.t.Errorf("%s: locator %s to %s%s: %v", kind, describe(x.locator), neg, fmt.Sprintf(what, args...), err)
	if !x.soft {
		x.e.t.FailNow()
	}
	return false
}

func describe(l playwright.Locator) string {
	if l == nil {
		return "<nil>"
	}
	if s, ok := l.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", l)
}

func ms(d time.Duration) float64 {
	return float64(d.Milliseconds())
}
