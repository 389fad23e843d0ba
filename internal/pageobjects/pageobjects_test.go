package pageobjects

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage records the interactions of the page objects. Locators are
// named after the chain that built them, e.g. "nb-card:Inline form >
// role:button". Anything else panics through the nil embedded interface.
type fakePage struct {
	playwright.Page
	expanded map[string]string
	clicks   []string
	fills    []string
	checks   []string
	waits    []float64
	shown    time.Time
	header   string
}

// locator is embedded under its own name so the field does not shadow the
// Locator method of playwright.Locator.
type locator = playwright.Locator

type fakeLocator struct {
	locator
	page *fakePage
	name string
}

func (p *fakePage) GetByTitle(text interface{}, options ...playwright.PageGetByTitleOptions) playwright.Locator {
	return &fakeLocator{page: p, name: "title:" + fmt.Sprint(text)}
}

func (p *fakePage) GetByText(text interface{}, options ...playwright.PageGetByTextOptions) playwright.Locator {
	return &fakeLocator{page: p, name: "text:" + fmt.Sprint(text)}
}

func (p *fakePage) Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator {
	name := selector
	if len(options) > 0 && options[0].HasText != nil {
		name += ":" + fmt.Sprint(options[0].HasText)
	}
	return &fakeLocator{page: p, name: name}
}

func (p *fakePage) GetByPlaceholder(text interface{}, options ...playwright.PageGetByPlaceholderOptions) playwright.Locator {
	return &fakeLocator{page: p, name: "placeholder:" + fmt.Sprint(text)}
}

func (p *fakePage) WaitForTimeout(timeout float64) {
	p.waits = append(p.waits, timeout)
}

func (l *fakeLocator) GetAttribute(name string, options ...playwright.LocatorGetAttributeOptions) (string, error) {
	if name != "aria-expanded" {
		return "", fmt.Errorf("unexpected attribute %s", name)
	}
	state, ok := l.page.expanded[l.name]
	if !ok {
		return "", errors.New("no such element")
	}
	return state, nil
}

func (l *fakeLocator) Click(options ...playwright.LocatorClickOptions) error {
	l.page.clicks = append(l.page.clicks, l.name)
	switch l.name {
	case nextMonth:
		l.page.shown = l.page.shown.AddDate(0, 1, 0)
	case previousMonth:
		l.page.shown = l.page.shown.AddDate(0, -1, 0)
	}
	if state, ok := l.page.expanded[l.name]; ok && state == "false" {
		l.page.expanded[l.name] = "true"
	}
	return nil
}

func (l *fakeLocator) GetByRole(role playwright.AriaRole, options ...playwright.LocatorGetByRoleOptions) playwright.Locator {
	name := fmt.Sprintf("%s > role:%s", l.name, role)
	if len(options) > 0 && options[0].Name != nil {
		name += fmt.Sprintf("[%v]", options[0].Name)
	}
	return &fakeLocator{page: l.page, name: name}
}

func (l *fakeLocator) GetByText(text interface{}, options ...playwright.LocatorGetByTextOptions) playwright.Locator {
	name := fmt.Sprintf("%s > text:%v", l.name, text)
	if len(options) > 0 && options[0].Exact != nil && *options[0].Exact {
		name += " exact"
	}
	return &fakeLocator{page: l.page, name: name}
}

func (l *fakeLocator) Fill(value string, options ...playwright.LocatorFillOptions) error {
	l.page.fills = append(l.page.fills, l.name+"="+value)
	return nil
}

func (l *fakeLocator) Check(options ...playwright.LocatorCheckOptions) error {
	name := l.name
	if len(options) > 0 && options[0].Force != nil && *options[0].Force {
		name += " force"
	}
	l.page.checks = append(l.page.checks, name)
	return nil
}

func (l *fakeLocator) TextContent(options ...playwright.LocatorTextContentOptions) (string, error) {
	if l.page.header != "" {
		return l.page.header, nil
	}
	return " " + l.page.shown.Format("January 2006") + " ", nil
}

func TestDateFromToday(t *testing.T) {
	today := time.Date(2026, time.October, 19, 15, 4, 5, 0, time.UTC)

	d := DateFromToday(today, 13)
	assert.Equal(t, "1", d.DayLabel())
	assert.Equal(t, "Nov 1, 2026", d.InputValue())
	assert.Equal(t, "November 2026", d.Header())

	d = DateFromToday(today, 80)
	assert.Equal(t, "Jan 7, 2027", d.InputValue())

	d = DateFromToday(today, -19)
	assert.Equal(t, "Sep 30, 2026", d.InputValue())
}

func TestRangeValue(t *testing.T) {
	today := time.Date(2026, time.February, 25, 0, 0, 0, 0, time.UTC)
	got := RangeValue(DateFromToday(today, 8), DateFromToday(today, 10))
	assert.Equal(t, "Mar 5, 2026 - Mar 7, 2026", got)
}

func TestParseHeader(t *testing.T) {
	got, err := parseHeader("  January   2027 ")
	require.NoError(t, err)
	assert.Equal(t, time.January, got.Month())
	assert.Equal(t, 2027, got.Year())

	_, err = parseHeader("2027")
	assert.ErrorIs(t, err, ErrCalendarNavigation)
}

func TestMonthStep(t *testing.T) {
	shown := time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		target time.Time
		want   int
	}{
		{time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2026, time.November, 30, 0, 0, 0, 0, time.UTC), -1},
		{time.Date(2025, time.December, 15, 0, 0, 0, 0, time.UTC), -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, monthStep(shown, CalendarDate{tt.target}), tt.target.String())
	}
}

func TestNavigationExpandsCollapsedGroupOnly(t *testing.T) {
	page := &fakePage{expanded: map[string]string{
		"title:Forms":            "false",
		"title:Modal & Overlays": "true",
	}}
	nav := NewPageManager(page).NavigateTo()

	require.NoError(t, nav.FormLayoutsPage())
	require.NoError(t, nav.DatepickerPage())
	require.NoError(t, nav.ToastrPage())

	assert.Equal(t, []string{
		"title:Forms", "text:Form Layouts",
		"text:Datepicker",
		"text:Toastr",
	}, page.clicks)
	assert.Equal(t, []float64{2000, 2000, 2000}, page.waits)
}

func TestNavigationReportsMissingGroup(t *testing.T) {
	page := &fakePage{expanded: map[string]string{}}
	nav := NewPageManager(page, WithNavigationSettle(0)).NavigateTo()

	err := nav.SmartTablePage()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Tables & Data")
	assert.Empty(t, page.waits)
}

func TestShowMonthPagesBothWays(t *testing.T) {
	today := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	page := &fakePage{shown: time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)}
	dp := NewPageManager(page, WithClock(func() time.Time { return today })).OnDatepickerPage()

	require.NoError(t, dp.showMonth(DateFromToday(today, 80)))
	assert.Equal(t, time.January, page.shown.Month())
	assert.Equal(t, []string{nextMonth, nextMonth, nextMonth}, page.clicks)

	page.clicks = nil
	require.NoError(t, dp.showMonth(DateFromToday(today, -40)))
	assert.Equal(t, time.September, page.shown.Month())
	assert.Len(t, page.clicks, 4)
	assert.Equal(t, previousMonth, page.clicks[0])

	page.clicks = nil
	require.NoError(t, dp.showMonth(CalendarDate{page.shown}))
	assert.Empty(t, page.clicks)
}

func TestShowMonthRejectsUnknownHeader(t *testing.T) {
	page := &fakePage{header: "loading"}
	dp := NewPageManager(page).OnDatepickerPage()

	err := dp.showMonth(DateFromToday(time.Now(), 1))
	assert.ErrorIs(t, err, ErrCalendarNavigation)
}

func TestShowMonthStopsAtStepLimit(t *testing.T) {
	start := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)

	page := &fakePage{shown: start}
	dp := NewPageManager(page).OnDatepickerPage()
	require.NoError(t, dp.showMonth(CalendarDate{start.AddDate(0, maxMonthSteps, 0)}))
	assert.Len(t, page.clicks, maxMonthSteps)

	page = &fakePage{shown: start}
	dp = NewPageManager(page).OnDatepickerPage()
	err := dp.showMonth(CalendarDate{start.AddDate(0, -maxMonthSteps-1, 0)})
	assert.ErrorIs(t, err, ErrCalendarNavigation)
	assert.Len(t, page.clicks, maxMonthSteps)
}

func TestGridFormSubmit(t *testing.T) {
	page := &fakePage{}
	form := NewPageManager(page).OnFormLayoutsPage()

	require.NoError(t, form.SubmitUsingTheGridFormWithCredentialsAndSelectOption("test@test.com", "Welcome1", "Option 2"))

	card := "nb-card:Using the Grid"
	assert.Equal(t, []string{
		card + " > role:textbox[Email]=test@test.com",
		card + " > role:textbox[Password]=Welcome1",
	}, page.fills)
	assert.Equal(t, []string{card + " > role:radio[Option 2] force"}, page.checks)
	assert.Equal(t, []string{card + " > role:button"}, page.clicks)
}

func TestInlineFormRememberMe(t *testing.T) {
	card := "nb-card:Inline form"

	page := &fakePage{}
	form := NewPageManager(page).OnFormLayoutsPage()
	require.NoError(t, form.SubmitInlineFormWithNameEmailAndCheckbox("John Smith", "John@test.com", false))
	assert.Equal(t, []string{
		card + " > role:textbox[Jane Doe]=John Smith",
		card + " > role:textbox[Email]=John@test.com",
	}, page.fills)
	assert.Empty(t, page.checks)
	assert.Equal(t, []string{card + " > role:button"}, page.clicks)

	page = &fakePage{}
	form = NewPageManager(page).OnFormLayoutsPage()
	require.NoError(t, form.SubmitInlineFormWithNameEmailAndCheckbox("John Smith", "John@test.com", true))
	assert.Equal(t, []string{card + " > role:checkbox force"}, page.checks)
}

type valueCheck struct {
	input string
	want  string
}

func datepickerWithRecordedValues(page *fakePage, today time.Time) (*DatepickerPage, *[]valueCheck) {
	dp := NewPageManager(page, WithClock(func() time.Time { return today })).OnDatepickerPage()
	var checks []valueCheck
	dp.hasValue = func(input playwright.Locator, want string) error {
		checks = append(checks, valueCheck{input: input.(*fakeLocator).name, want: want})
		return nil
	}
	return dp, &checks
}

func TestCommonDatepicker(t *testing.T) {
	today := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	page := &fakePage{shown: time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)}
	dp, checks := datepickerWithRecordedValues(page, today)

	require.NoError(t, dp.SelectCommonDatepickerDateFromToday(13))

	assert.Equal(t, []string{
		"placeholder:Form Picker",
		nextMonth,
		dayCells + " > text:1 exact",
	}, page.clicks)
	assert.Equal(t, []valueCheck{{input: "placeholder:Form Picker", want: "Nov 1, 2026"}}, *checks)
}

func TestRangeDatepickerAcrossMonthEnd(t *testing.T) {
	today := time.Date(2026, time.February, 25, 0, 0, 0, 0, time.UTC)
	page := &fakePage{shown: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)}
	dp, checks := datepickerWithRecordedValues(page, today)

	require.NoError(t, dp.SelectDatepickerWithRangeFromToday(3, 6))

	assert.Equal(t, []string{
		"placeholder:Range Picker",
		dayCells + " > text:28 exact",
		nextMonth,
		dayCells + " > text:3 exact",
	}, page.clicks)
	assert.Equal(t, []valueCheck{{input: "placeholder:Range Picker", want: "Feb 28, 2026 - Mar 3, 2026"}}, *checks)
}

func TestDatepickerReportsWrongValue(t *testing.T) {
	today := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	page := &fakePage{shown: today}
	dp := NewPageManager(page, WithClock(func() time.Time { return today })).OnDatepickerPage()
	dp.hasValue = func(playwright.Locator, string) error { return errors.New("value mismatch") }

	err := dp.SelectCommonDatepickerDateFromToday(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Oct 20, 2026"`)
}
