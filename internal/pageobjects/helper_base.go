// Package pageobjects wraps the pages of the ngx-admin demo app behind
// task-level helpers. Every helper returns an error naming the UI step
// that failed.
package pageobjects

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

// HelperBase holds what every page object shares.
type HelperBase struct {
	page playwright.Page
}

func NewHelperBase(page playwright.Page) HelperBase {
	return HelperBase{page: page}
}

// Page returns the page the helper drives.
func (h HelperBase) Page() playwright.Page {
	return h.page
}

// WaitForNumberOfSeconds pauses the page for n seconds.
func (h HelperBase) WaitForNumberOfSeconds(n int) {
	h.page.WaitForTimeout(float64((time.Duration(n) * time.Second).Milliseconds()))
}
