package pageobjects

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	calendarHeader = "nb-calendar-view-mode"
	nextMonth      = `nb-calendar-pageable-navigation [data-name="chevron-right"]`
	previousMonth  = `nb-calendar-pageable-navigation [data-name="chevron-left"]`
	// cells of the shown month, without the greyed days of its neighbours
	dayCells = ".day-cell.ng-star-inserted:not(.bounding-month)"
)

// DatepickerPage picks dates on Forms > Datepicker.
type DatepickerPage struct {
	HelperBase
	now           func() time.Time
	assertTimeout time.Duration
	// hasValue retries until input shows want or the timeout passes
	hasValue func(input playwright.Locator, want string) error
}

func NewDatepickerPage(base HelperBase, now func() time.Time, assertTimeout time.Duration) *DatepickerPage {
	if now == nil {
		now = time.Now
	}
	d := &DatepickerPage{HelperBase: base, now: now, assertTimeout: assertTimeout}
	d.hasValue = d.assertValue
	return d
}

// SelectCommonDatepickerDateFromToday picks the day days from today in the
// "Form Picker" and checks the input shows it.
func (d *DatepickerPage) SelectCommonDatepickerDateFromToday(days int) error {
	input := d.page.GetByPlaceholder("Form Picker")
	if err := input.Click(); err != nil {
		return fmt.Errorf("failed to open form picker: %w", err)
	}
	date, err := d.selectDateInTheCalendar(days)
	if err != nil {
		return err
	}
	return d.expectValue(input, date.InputValue())
}

// SelectDatepickerWithRangeFromToday picks a range in the "Range Picker"
// with both ends counted from today.
func (d *DatepickerPage) SelectDatepickerWithRangeFromToday(startDays, endDays int) error {
	input := d.page.GetByPlaceholder("Range Picker")
	if err := input.Click(); err != nil {
		return fmt.Errorf("failed to open range picker: %w", err)
	}
	start, err := d.selectDateInTheCalendar(startDays)
	if err != nil {
		return err
	}
	end, err := d.selectDateInTheCalendar(endDays)
	if err != nil {
		return err
	}
	return d.expectValue(input, RangeValue(start, end))
}

func (d *DatepickerPage) selectDateInTheCalendar(days int) (CalendarDate, error) {
	date := DateFromToday(d.now(), days)
	if err := d.showMonth(date); err != nil {
		return date, err
	}
	cell := d.page.Locator(dayCells).GetByText(date.DayLabel(), playwright.LocatorGetByTextOptions{Exact: playwright.Bool(true)})
	if err := cell.Click(); err != nil {
		return date, fmt.Errorf("failed to pick %s: %w", date.InputValue(), err)
	}
	return date, nil
}

// showMonth pages the open calendar until it shows the month of date. It
// clicks an arrow at most maxMonthSteps times.
func (d *DatepickerPage) showMonth(date CalendarDate) error {
	header := d.page.Locator(calendarHeader)
	for clicks := 0; ; clicks++ {
		text, err := header.TextContent()
		if err != nil {
			return fmt.Errorf("failed to read calendar header: %w", err)
		}
		shown, err := parseHeader(text)
		if err != nil {
			return err
		}
		var arrow string
		switch monthStep(shown, date) {
		case 0:
			return nil
		case 1:
			arrow = nextMonth
		default:
			arrow = previousMonth
		}
		if clicks == maxMonthSteps {
			return fmt.Errorf("%w: %s not reached after %d months", ErrCalendarNavigation, date.Header(), maxMonthSteps)
		}
		if err := d.page.Locator(arrow).Click(); err != nil {
			return fmt.Errorf("failed to page calendar towards %s: %w", date.Header(), err)
		}
	}
}

func (d *DatepickerPage) expectValue(input playwright.Locator, want string) error {
	if err := d.hasValue(input, want); err != nil {
		return fmt.Errorf("datepicker input does not show %q: %w", want, err)
	}
	return nil
}

func (d *DatepickerPage) assertValue(input playwright.Locator, want string) error {
	assertions := playwright.NewPlaywrightAssertions(float64(d.assertTimeout.Milliseconds()))
	return assertions.Locator(input).ToHaveValue(want)
}
