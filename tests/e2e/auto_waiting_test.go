package e2e

import (
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uiplayground/ngx-e2e/internal/harness"
)

const ajaxLoaded = "Data loaded with AJAX get request."

func TestAutoWaiting(t *testing.T) {
	harness.ForEachProject(t, "autoWaiting", func(s *harness.Suite) {
		s.RequireReachable(s.Project().Use.PlaygroundURL)
		s.BeforeEach(func(t *harness.T, fx *harness.Fixtures) {
			require.NoError(t, fx.Session.NavigateTo(fx.Use().PlaygroundURL))
			require.NoError(t, fx.Page.GetByText("Button Triggering AJAX Request").Click())
		})

		s.Test("auto waiting", func(t *harness.T, fx *harness.Fixtures) {
			success := fx.Page.Locator(".bg-success")
			fx.Expect.That(success).Within(20 * time.Second).ToHaveText(ajaxLoaded)
		})

		s.Test("alternative waits", func(t *harness.T, fx *harness.Fixtures) {
			success := fx.Page.Locator(".bg-success")
			require.NoError(t, fx.Session.WaitForNetworkIdle())

			texts, err := success.AllTextContents()
			require.NoError(t, err)
			assert.Contains(t, texts, ajaxLoaded)
		})

		s.Test("timeouts", func(t *harness.T, fx *harness.Fixtures) {
			t.SetTimeout(10 * time.Second)
			t.Slow()
			success := fx.Page.Locator(".bg-success")
			require.NoError(t, success.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(16000)}))
		})
	})
}
