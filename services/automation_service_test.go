package services

import (
	"errors"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenhouseauto/config"
	"greenhouseauto/models"
)

func testAutomationService(t *testing.T) (*AutomationService, *int) {
	t.Helper()
	browserLaunches := 0
	svc := NewAutomationService(config.AppConfig{
		Browser: config.GetBrowserConfig(),
		Gmail:   config.GetGmailConfig(),
	})
	svc.screenshots = nil
	svc.navFactory = func(config.BrowserConfig) (*FormNavigator, error) {
		browserLaunches++
		return nil, errors.New("no browser in tests")
	}
	return svc, &browserLaunches
}

func TestRun_MissingEmailFailsBeforeBrowserOpens(t *testing.T) {
	svc, launches := testAutomationService(t)
	input := validInput(t)
	input.Email = ""

	result := svc.Run(input)

	require.NotNil(t, result)
	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, result.Message, "email")
	assert.Equal(t, 0, *launches, "validation failures must not open a browser session")
}

func TestRun_MissingResumeFileFailsBeforeBrowserOpens(t *testing.T) {
	svc, launches := testAutomationService(t)
	input := validInput(t)
	input.ResumePath = "/nonexistent/resume.pdf"

	result := svc.Run(input)

	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, result.Message, "resumePath")
	assert.Equal(t, 0, *launches)
}

func TestRun_BrowserLaunchFailureIsTerminalResult(t *testing.T) {
	svc, launches := testAutomationService(t)

	result := svc.Run(validInput(t))

	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, result.Message, "no browser in tests")
	assert.Equal(t, 1, *launches)
}

func TestRun_PanicIsRecoveredIntoResult(t *testing.T) {
	svc, _ := testAutomationService(t)
	svc.navFactory = func(config.BrowserConfig) (*FormNavigator, error) {
		panic("driver exploded")
	}

	result := svc.Run(validInput(t))

	require.NotNil(t, result)
	assert.Equal(t, models.StatusError, result.Status)
	assert.Contains(t, result.Message, "driver exploded")
}

func TestAwaitOTPChallenge_LateRender(t *testing.T) {
	// The challenge input appears only after the submit round trip; detection
	// keeps polling until it shows up.
	calls := 0
	detect := func() (playwright.Locator, bool) {
		calls++
		return nil, calls >= 3
	}

	_, challenged := awaitOTPChallenge(instantPolicy(10), detect)

	assert.True(t, challenged)
	assert.Equal(t, 3, calls)
}

func TestAwaitOTPChallenge_NoChallengeAfterBudget(t *testing.T) {
	calls := 0
	detect := func() (playwright.Locator, bool) {
		calls++
		return nil, false
	}

	_, challenged := awaitOTPChallenge(instantPolicy(4), detect)

	assert.False(t, challenged)
	assert.Equal(t, 4, calls)
}

func TestUseFieldMapping(t *testing.T) {
	svc, _ := testAutomationService(t)
	custom := config.FieldMapping{
		{Name: config.FieldEmail, Kind: config.KindText, Required: true, Selectors: []string{"#mail"}},
	}

	svc.UseFieldMapping(custom)

	assert.Equal(t, custom, svc.mapping)
}
