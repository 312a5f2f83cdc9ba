package services

import (
	"log"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// SubmissionOutcome classifies the page state after clicking submit.
type SubmissionOutcome string

const (
	OutcomeSuccess   SubmissionOutcome = "success"
	OutcomeFailure   SubmissionOutcome = "failure"
	OutcomeAmbiguous SubmissionOutcome = "ambiguous"
)

// SubmissionCheckerService triggers submission and watches the page until a
// terminal state is seen or the outcome-poll budget runs out. It never leaves
// the caller without an explicit outcome.
type SubmissionCheckerService struct {
	policy RetryPolicy
}

func NewSubmissionCheckerService(policy RetryPolicy) *SubmissionCheckerService {
	return &SubmissionCheckerService{policy: policy}
}

var submitSelectors = []string{
	"button[type='submit']:visible",
	"input[type='submit']:visible",
	"button:has-text('Submit Application'):visible",
	"button:has-text('Submit application'):visible",
	"button:has-text('Submit'):visible",
	"button:has-text('Apply'):visible",
	"button[class*='submit']:visible",
	"button[id*='submit']:visible",
	"a:has-text('Submit Application'):visible",
}

// FindAndClickSubmitButton hunts the submit control through the candidate
// selectors and clicks the first enabled match.
func (s *SubmissionCheckerService) FindAndClickSubmitButton(page playwright.Page) bool {
	// Scroll to the bottom so lazy-rendered footers mount the button.
	page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")

	for _, selector := range submitSelectors {
		button := page.Locator(selector).First()
		visible, _ := button.IsVisible()
		if !visible {
			continue
		}
		text, _ := button.TextContent()
		log.Printf("Found submit button: %s (text: %s)", selector, strings.TrimSpace(text))

		if disabled, _ := button.IsDisabled(); disabled {
			log.Printf("Submit button is disabled")
			continue
		}
		if err := button.Click(); err != nil {
			log.Printf("Failed to click submit button: %v", err)
			continue
		}
		log.Printf("Clicked submit button")
		return true
	}

	log.Printf("No submit button found")
	return false
}

var successIndicators = []string{
	"text=Thank you for your application",
	"text=Application submitted successfully",
	"text=Your application has been submitted",
	"text=Application received",
	"text=Thank you for applying",
	"text=We have received your application",
	"h1:has-text('Thank you')",
	"h2:has-text('Thank you')",
	"h1:has-text('Submitted')",
	"[class*='application-confirmation']",
	"[data-testid*='confirmation']",
}

// CheckForSuccess looks for the confirmation state: keyword in the URL or
// title, a confirmation element, or a redirect to a success page.
func (s *SubmissionCheckerService) CheckForSuccess(page playwright.Page) bool {
	pageTitle, _ := page.Title()
	pageURL := page.URL()

	if urlIndicatesSuccess(pageURL) {
		log.Printf("Found success keyword in URL: %s", pageURL)
		return true
	}
	if titleIndicatesSuccess(pageTitle) {
		log.Printf("Found success keyword in title: %s", pageTitle)
		return true
	}

	for _, indicator := range successIndicators {
		element := page.Locator(indicator).First()
		if visible, _ := element.IsVisible(); visible {
			log.Printf("Found success indicator: %s", indicator)
			return true
		}
	}
	return false
}

var errorBannerSelectors = []string{
	"[class*='error-banner']",
	"[class*='field-error']:visible",
	"[role='alert']:visible",
	"[aria-live='assertive']:visible",
	".error:visible",
	"text=There was an error",
	"text=Please complete the required fields",
}

// CheckForErrorBanner looks for a visible validation failure on the form.
func (s *SubmissionCheckerService) CheckForErrorBanner(page playwright.Page) (string, bool) {
	for _, selector := range errorBannerSelectors {
		element := page.Locator(selector).First()
		if visible, _ := element.IsVisible(); visible {
			text, _ := element.TextContent()
			return strings.TrimSpace(text), true
		}
	}
	return "", false
}

// AwaitOutcome polls the page for a terminal state. Exhausting the budget
// without a clear signal reports OutcomeAmbiguous.
func (s *SubmissionCheckerService) AwaitOutcome(page playwright.Page) (SubmissionOutcome, string) {
	outcome := OutcomeAmbiguous
	message := ""

	err := s.policy.Do(func() (bool, error) {
		if s.CheckForSuccess(page) {
			outcome = OutcomeSuccess
			message = "Application submitted successfully"
			return true, nil
		}
		if banner, found := s.CheckForErrorBanner(page); found {
			outcome = OutcomeFailure
			message = "Form reported an error: " + banner
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		message = "Submission state unclear after waiting; verify manually"
	}
	return outcome, message
}

var successKeywords = []string{
	"success",
	"confirmation",
	"thank",
	"complete",
	"submitted",
	"received",
}

func urlIndicatesSuccess(url string) bool {
	urlLower := strings.ToLower(url)
	for _, keyword := range successKeywords {
		if strings.Contains(urlLower, keyword) {
			return true
		}
	}
	return false
}

var titleSuccessKeywords = []string{
	"thank you",
	"success",
	"submitted",
	"complete",
	"received",
	"confirmation",
}

func titleIndicatesSuccess(title string) bool {
	titleLower := strings.ToLower(title)
	for _, keyword := range titleSuccessKeywords {
		if strings.Contains(titleLower, keyword) {
			return true
		}
	}
	return false
}
