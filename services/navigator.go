package services

import (
	"fmt"
	"log"
	"time"

	"github.com/playwright-community/playwright-go"

	"greenhouseauto/config"
)

// FormNavigator owns the browser session: it opens the job posting, waits for
// the application form to become interactive, and resolves logical fields to
// page elements through their selector candidate lists.
type FormNavigator struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	cfg     config.BrowserConfig
}

// NewFormNavigator starts Playwright and launches Chromium. Headless unless
// HEADLESS=false in the environment (carried through BrowserConfig).
func NewFormNavigator(cfg config.BrowserConfig) (*FormNavigator, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, &ExternalServiceError{Service: "browser", Err: fmt.Errorf("could not start playwright: %v", err)}
	}
	if !cfg.Headless {
		log.Println("Running browser in visible mode (HEADLESS=false)")
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, &ExternalServiceError{Service: "browser", Err: fmt.Errorf("could not launch browser: %v", err)}
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1920,
			Height: 1080,
		},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, &ExternalServiceError{Service: "browser", Err: fmt.Errorf("could not create context: %v", err)}
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		pw.Stop()
		return nil, &ExternalServiceError{Service: "browser", Err: fmt.Errorf("could not create page: %v", err)}
	}

	return &FormNavigator{pw: pw, browser: browser, context: context, page: page, cfg: cfg}, nil
}

// Close shuts the session down. Safe to call on a partially failed run.
func (n *FormNavigator) Close() {
	if n.context != nil {
		if err := n.context.Close(); err != nil {
			log.Printf("Error closing context: %v", err)
		}
	}
	if n.browser != nil {
		if err := n.browser.Close(); err != nil {
			log.Printf("Error closing browser: %v", err)
		}
	}
	if n.pw != nil {
		if err := n.pw.Stop(); err != nil {
			log.Printf("Error stopping playwright: %v", err)
		}
	}
}

// Page exposes the live page to the filler and submission controller.
func (n *FormNavigator) Page() playwright.Page {
	return n.page
}

// Open navigates to the job URL and waits for the application form. Some
// postings land on a listing page with an Apply button in front of the form;
// that click-through happens here so callers always get a ready form.
func (n *FormNavigator) Open(jobURL string) error {
	log.Printf("Navigating to job URL: %s", jobURL)
	if _, err := n.page.Goto(jobURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return &ExternalServiceError{Service: "browser", Err: fmt.Errorf("could not navigate to URL: %v", err)}
	}

	n.clickThroughApplyButton()

	if err := n.waitForFormRoot(); err != nil {
		return err
	}
	log.Println("Application form is interactive")
	return nil
}

// clickThroughApplyButton clicks Apply when the page shows the button but no
// form inputs yet.
func (n *FormNavigator) clickThroughApplyButton() {
	applyBtn := n.page.Locator("button:has-text('Apply'):visible, a:has-text('Apply'):visible").First()
	applyCount, _ := applyBtn.Count()
	inputCount, _ := n.page.Locator("input[type='text']:visible, input[type='email']:visible").Count()

	if applyCount == 0 || inputCount > 0 {
		return
	}

	log.Println("Found Apply button but no form inputs - clicking through to the form...")
	if err := applyBtn.Click(); err != nil {
		log.Printf("Could not click Apply button: %v", err)
		return
	}
	n.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	})
	log.Printf("Navigated to: %s", n.page.URL())
}

var formRootSelectors = []string{
	"form#application-form",
	"form[action*='applications']",
	"#application_form",
	"form:has(input[type='file'])",
	"form:has(input[type='email'])",
	"form",
}

// waitForFormRoot polls for the form container within the configured timeout.
func (n *FormNavigator) waitForFormRoot() error {
	interval := 500 * time.Millisecond
	policy := NewRetryPolicy(interval, int(n.cfg.FormTimeout/interval)+1)

	err := policy.Do(func() (bool, error) {
		for _, selector := range formRootSelectors {
			if count, _ := n.page.Locator(selector).Count(); count > 0 {
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return &ExternalServiceError{Service: "browser", Err: fmt.Errorf("application form did not appear within %s", n.cfg.FormTimeout)}
	}
	return nil
}

// FindField resolves a logical field by trying its selector candidates in
// priority order. File inputs are matched on presence because upload widgets
// usually hide the native input.
func (n *FormNavigator) FindField(spec config.FieldSpec) (playwright.Locator, bool) {
	for _, selector := range spec.Selectors {
		locator := n.page.Locator(selector).First()
		count, _ := locator.Count()
		if count == 0 {
			continue
		}
		if spec.Kind == config.KindFile {
			return locator, true
		}
		if visible, _ := locator.IsVisible(); visible {
			return locator, true
		}
	}
	return nil, false
}

// RequireField is FindField for required fields: the candidates get retried
// up to the element timeout (late-rendered fields), and exhausting them is
// fatal for the run.
func (n *FormNavigator) RequireField(spec config.FieldSpec) (playwright.Locator, error) {
	interval := 500 * time.Millisecond
	policy := NewRetryPolicy(interval, int(n.cfg.ElementTimeout/interval)+1)

	var locator playwright.Locator
	err := policy.Do(func() (bool, error) {
		if found, ok := n.FindField(spec); ok {
			locator = found
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return nil, &FieldNotFoundError{Field: spec.Name}
	}
	return locator, nil
}

// DetectOTPChallenge reports whether the page is asking for a verification
// code, returning the input to type into. Falls back to the first box of a
// split per-character input group.
func (n *FormNavigator) DetectOTPChallenge() (playwright.Locator, bool) {
	for _, selector := range config.OTPInputSelectors {
		locator := n.page.Locator(selector).First()
		if visible, _ := locator.IsVisible(); visible {
			log.Printf("OTP challenge detected (selector: %s)", selector)
			return locator, true
		}
	}

	multi := n.page.Locator(config.OTPMultiInputSelector)
	if count, _ := multi.Count(); count >= 4 {
		log.Printf("OTP challenge detected (%d split inputs)", count)
		return multi.First(), true
	}
	return nil, false
}

// FillOTP types the code into the challenge input and confirms. Split inputs
// accept the whole code typed sequentially from the first box.
func (n *FormNavigator) FillOTP(input playwright.Locator, code string) error {
	if err := input.Click(); err != nil {
		return &ExternalServiceError{Service: "browser", Err: fmt.Errorf("could not focus OTP input: %v", err)}
	}
	if err := input.PressSequentially(code); err != nil {
		return &ExternalServiceError{Service: "browser", Err: fmt.Errorf("could not type OTP: %v", err)}
	}

	for _, selector := range config.VerifyButtonSelectors {
		button := n.page.Locator(selector).First()
		if visible, _ := button.IsVisible(); visible {
			if err := button.Click(); err == nil {
				log.Printf("Clicked verify button: %s", selector)
				return nil
			}
		}
	}
	// Some challenges auto-submit once the last character is typed.
	log.Printf("No verify button found; assuming the challenge auto-submits")
	return nil
}
