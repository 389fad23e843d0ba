package pageobjects

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// FormLayoutsPage fills the forms of Forms > Form Layouts.
type FormLayoutsPage struct {
	HelperBase
}

func NewFormLayoutsPage(base HelperBase) *FormLayoutsPage {
	return &FormLayoutsPage{HelperBase: base}
}

func (f *FormLayoutsPage) card(title string) playwright.Locator {
	return f.page.Locator("nb-card", playwright.PageLocatorOptions{HasText: title})
}

// SubmitUsingTheGridFormWithCredentialsAndSelectOption fills and submits
// the "Using the Grid" form. option is the label of the radio button.
func (f *FormLayoutsPage) SubmitUsingTheGridFormWithCredentialsAndSelectOption(email, password, option string) error {
	form := f.card("Using the Grid")
	if err := form.GetByRole(*playwright.AriaRoleTextbox, playwright.LocatorGetByRoleOptions{Name: "Email"}).Fill(email); err != nil {
		return fmt.Errorf("failed to fill grid email: %w", err)
	}
	if err := form.GetByRole(*playwright.AriaRoleTextbox, playwright.LocatorGetByRoleOptions{Name: "Password"}).Fill(password); err != nil {
		return fmt.Errorf("failed to fill grid password: %w", err)
	}
	radio := form.GetByRole(*playwright.AriaRoleRadio, playwright.LocatorGetByRoleOptions{Name: option})
	if err := radio.Check(playwright.LocatorCheckOptions{Force: playwright.Bool(true)}); err != nil {
		return fmt.Errorf("failed to select grid option %q: %w", option, err)
	}
	if err := form.GetByRole(*playwright.AriaRoleButton).Click(); err != nil {
		return fmt.Errorf("failed to submit grid form: %w", err)
	}
	return nil
}

// SubmitInlineFormWithNameEmailAndCheckbox fills and submits the
// "Inline form". The remember me box is only touched when rememberMe is set.
func (f *FormLayoutsPage) SubmitInlineFormWithNameEmailAndCheckbox(name, email string, rememberMe bool) error {
	form := f.card("Inline form")
	if err := form.GetByRole(*playwright.AriaRoleTextbox, playwright.LocatorGetByRoleOptions{Name: "Jane Doe"}).Fill(name); err != nil {
		return fmt.Errorf("failed to fill inline name: %w", err)
	}
	if err := form.GetByRole(*playwright.AriaRoleTextbox, playwright.LocatorGetByRoleOptions{Name: "Email"}).Fill(email); err != nil {
		return fmt.Errorf("failed to fill inline email: %w", err)
	}
	if rememberMe {
		if err := form.GetByRole(*playwright.AriaRoleCheckbox).Check(playwright.LocatorCheckOptions{Force: playwright.Bool(true)}); err != nil {
			return fmt.Errorf("failed to check remember me: %w", err)
		}
	}
	if err := form.GetByRole(*playwright.AriaRoleButton).Click(); err != nil {
		return fmt.Errorf("failed to submit inline form: %w", err)
	}
	return nil
}
