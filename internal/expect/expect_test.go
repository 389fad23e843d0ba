package expect

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingT struct {
	errors  []string
	stopped bool
}

func (r *recordingT) Errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}
func (r *recordingT) FailNow() { r.stopped = true }
func (r *recordingT) Helper()  {}

// fakeAssertions fails every assertion with err and records the options
// it was called with.
type fakeAssertions struct {
	playwright.LocatorAssertions
	err      error
	negated  bool
	timeouts []*float64
}

func (f *fakeAssertions) Not() playwright.LocatorAssertions {
	return &fakeAssertions{err: f.err, negated: !f.negated}
}

func (f *fakeAssertions) ToHaveText(expected interface{}, options ...playwright.LocatorAssertionsToHaveTextOptions) error {
	if len(options) > 0 {
		f.timeouts = append(f.timeouts, options[0].Timeout)
	}
	return f.err
}

func (f *fakeAssertions) ToBeChecked(options ...playwright.LocatorAssertionsToBeCheckedOptions) error {
	return f.err
}

func newExpect(t TestingT, a playwright.LocatorAssertions) *LocatorExpect {
	return &LocatorExpect{e: &Expect{t: t, timeout: 2 * time.Second}, assertions: a}
}

func TestHardAssertionStopsTest(t *testing.T) {
	rt := &recordingT{}
	ok := newExpect(rt, &fakeAssertions{err: errors.New("Locator expected to have text 'Submit'")}).ToHaveText("Submit")

	assert.False(t, ok)
	assert.True(t, rt.stopped)
	require.Len(t, rt.errors, 1)
	assert.Contains(t, rt.errors[0], "expect: locator")
	assert.Contains(t, rt.errors[0], "to have text Submit")
}

func TestSoftAssertionContinues(t *testing.T) {
	rt := &recordingT{}
	x := newExpect(rt, &fakeAssertions{err: errors.New("not checked")})
	x.soft = true

	assert.False(t, x.ToBeChecked())
	assert.False(t, rt.stopped)
	require.Len(t, rt.errors, 1)
	assert.Contains(t, rt.errors[0], "expect.soft")
}

func TestPassingAssertion(t *testing.T) {
	rt := &recordingT{}
	assert.True(t, newExpect(rt, &fakeAssertions{}).ToHaveText([]string{"Light", "Dark"}))
	assert.Empty(t, rt.errors)
	assert.False(t, rt.stopped)
}

func TestNotAndWithin(t *testing.T) {
	rt := &recordingT{}
	fa := &fakeAssertions{err: errors.New("still has text")}
	x := newExpect(rt, fa)

	neg := x.Not()
	assert.True(t, neg.negated)
	assert.False(t, x.negated, "Not returns a copy")
	neg.ToHaveText("mdo@gmail.com")
	require.Len(t, rt.errors, 1)
	assert.Contains(t, rt.errors[0], "to not have text mdo@gmail.com")

	x.Within(20 * time.Second).ToHaveText("Data loaded with AJAX get request.")
	require.Len(t, fa.timeouts, 1)
	require.NotNil(t, fa.timeouts[0])
	assert.Equal(t, float64(20000), *fa.timeouts[0])

	x.ToHaveText("default timeout")
	require.Len(t, fa.timeouts, 2)
	assert.Nil(t, fa.timeouts[1], "no override leaves the default in place")
}
