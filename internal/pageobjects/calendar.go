package pageobjects

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// InputDateLayout is how the datepicker writes a picked date.
	InputDateLayout = "Jan 2, 2006"
	headerLayout    = "January 2006"
	maxMonthSteps   = 120
)

var ErrCalendarNavigation = errors.New("calendar navigation failed")

// CalendarDate is a day picked relative to today.
type CalendarDate struct {
	time.Time
}

// DateFromToday returns the calendar day days after today. Negative
// values go back in time.
func DateFromToday(today time.Time, days int) CalendarDate {
	y, m, d := today.Date()
	return CalendarDate{time.Date(y, m, d+days, 0, 0, 0, 0, today.Location())}
}

// DayLabel is the text of the day cell.
func (c CalendarDate) DayLabel() string {
	return strconv.Itoa(c.Day())
}

// InputValue is the text the input shows once the date is picked.
func (c CalendarDate) InputValue() string {
	return c.Format(InputDateLayout)
}

// Header is the month view title, e.g. "January 2026".
func (c CalendarDate) Header() string {
	return c.Format(headerLayout)
}

// RangeValue is the input text of a picked range.
func RangeValue(start, end CalendarDate) string {
	return start.InputValue() + " - " + end.InputValue()
}

// parseHeader reads the month the calendar shows.
func parseHeader(text string) (time.Time, error) {
	t, err := time.Parse(headerLayout, strings.Join(strings.Fields(text), " "))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: unexpected calendar header %q", ErrCalendarNavigation, text)
	}
	return t, nil
}

// monthStep tells which way to page from the shown month: 1 forward,
// -1 back, 0 when the target month is shown.
func monthStep(shown time.Time, target CalendarDate) int {
	sy, sm, _ := shown.Date()
	ty, tm, _ := target.Date()
	diff := (ty-sy)*12 + int(tm) - int(sm)
	switch {
	case diff > 0:
		return 1
	case diff < 0:
		return -1
	}
	return 0
}
