package pageobjects

import (
	"fmt"
)

// NavigationPage opens pages from the sidebar menu.
type NavigationPage struct {
	HelperBase
	settle int
}

func NewNavigationPage(base HelperBase) *NavigationPage {
	return &NavigationPage{HelperBase: base, settle: 2}
}

func (n *NavigationPage) FormLayoutsPage() error {
	return n.open("Forms", "Form Layouts")
}

func (n *NavigationPage) DatepickerPage() error {
	return n.open("Forms", "Datepicker")
}

func (n *NavigationPage) SmartTablePage() error {
	return n.open("Tables & Data", "Smart Table")
}

func (n *NavigationPage) ToastrPage() error {
	return n.open("Modal & Overlays", "Toastr")
}

func (n *NavigationPage) TooltipPage() error {
	return n.open("Modal & Overlays", "Tooltip")
}

func (n *NavigationPage) open(group, item string) error {
	if err := n.selectGroupMenuItem(group); err != nil {
		return err
	}
	if err := n.page.GetByText(item).Click(); err != nil {
		return fmt.Errorf("failed to open %s > %s: %w", group, item, err)
	}
	if n.settle > 0 {
		n.WaitForNumberOfSeconds(n.settle)
	}
	return nil
}

// selectGroupMenuItem expands a collapsed menu group. A group that is
// already open is left alone, clicking it would collapse it.
func (n *NavigationPage) selectGroupMenuItem(title string) error {
	group := n.page.GetByTitle(title)
	expanded, err := group.GetAttribute("aria-expanded")
	if err != nil {
		return fmt.Errorf("failed to read state of menu group %s: %w", title, err)
	}
	if expanded != "false" {
		return nil
	}
	if err := group.Click(); err != nil {
		return fmt.Errorf("failed to expand menu group %s: %w", title, err)
	}
	return nil
}
