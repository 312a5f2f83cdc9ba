package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/playwright-community/playwright-go"

	"greenhouseauto/config"
	"greenhouseauto/models"
)

// AutomationService runs one application end to end: validate, navigate, fill
// required, fill optional best-effort, submit, solve an OTP challenge if one
// appears, observe the outcome. Strictly linear; every exit path produces a
// terminal RunResult.
type AutomationService struct {
	cfg     config.AppConfig
	mapping config.FieldMapping

	// Factories are swappable in tests; a run with invalid input must fail
	// before any of them fire.
	navFactory  func(config.BrowserConfig) (*FormNavigator, error)
	mailFactory func() (MailSource, error)
	screenshots *ScreenshotService
}

func NewAutomationService(cfg config.AppConfig) *AutomationService {
	return &AutomationService{
		cfg:        cfg,
		mapping:    config.GreenhouseMapping(),
		navFactory: NewFormNavigator,
		mailFactory: func() (MailSource, error) {
			return NewGmailService(context.Background(), cfg.Gmail, NewFileTokenStore(cfg.Gmail.TokenFile))
		},
		screenshots: NewScreenshotService(cfg.Artifacts),
	}
}

// UseFieldMapping swaps in a mapping override (loaded from YAML).
func (s *AutomationService) UseFieldMapping(mapping config.FieldMapping) {
	s.mapping = mapping
}

// Run executes one application. It never panics out: unexpected failures are
// recovered into an error result so the caller always gets a terminal state.
func (s *AutomationService) Run(input *models.ApplicationInput) (result *models.RunResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Run panicked: %v", r)
			result = &models.RunResult{
				Status:  models.StatusError,
				Message: fmt.Sprintf("automation error: %v", r),
			}
		}
	}()

	// Fail on bad input before any browser or remote state is touched.
	if err := ValidateInput(input); err != nil {
		return &models.RunResult{Status: models.StatusError, Message: err.Error()}
	}

	nav, err := s.navFactory(s.cfg.Browser)
	if err != nil {
		return &models.RunResult{Status: models.StatusError, Message: err.Error()}
	}
	defer nav.Close()

	if err := nav.Open(input.JobURL); err != nil {
		return &models.RunResult{Status: models.StatusError, Message: err.Error()}
	}

	filler := NewFormFillerService(nav)
	if err := filler.FillAll(input, s.mapping); err != nil {
		return s.failWithArtifact(nav, "fill_failed", err.Error())
	}

	// Let file uploads and async validations settle before submitting.
	time.Sleep(s.cfg.Browser.ShortWait)

	checker := NewSubmissionCheckerService(NewRetryPolicy(time.Second, 15))
	if !checker.FindAndClickSubmitButton(nav.Page()) {
		return s.failWithArtifact(nav, "no_submit_button", "could not find submit button on the form")
	}

	// Submission may surface a verification-code challenge instead of a
	// terminal page. The challenge renders only after the submit round trip,
	// so detection polls instead of looking once.
	if otpInput, challenged := awaitOTPChallenge(NewRetryPolicy(500*time.Millisecond, 10), nav.DetectOTPChallenge); challenged {
		mail, err := s.mailFactory()
		if err != nil {
			return s.failWithArtifact(nav, "otp_mail_unavailable", err.Error())
		}
		resolver := NewOTPResolver(mail, NewRetryPolicy(s.cfg.Gmail.PollInterval, s.cfg.Gmail.MaxAttempts), s.cfg.Gmail.RecencyWindow)
		code, err := resolver.Resolve()
		if err != nil {
			if errors.Is(err, ErrOTPTimeout) {
				artifact := s.capture(nav, "otp_timeout")
				return &models.RunResult{
					Status:   models.StatusTimeout,
					Message:  "no verification code arrived in time; the application was not confirmed",
					Artifact: artifact,
				}
			}
			return s.failWithArtifact(nav, "otp_failed", err.Error())
		}
		if err := nav.FillOTP(otpInput, code); err != nil {
			return s.failWithArtifact(nav, "otp_fill_failed", err.Error())
		}
	}

	outcome, message := checker.AwaitOutcome(nav.Page())
	switch outcome {
	case OutcomeSuccess:
		log.Println("Application submitted successfully!")
		return &models.RunResult{Status: models.StatusSuccess, Message: message}
	case OutcomeFailure:
		return s.failWithArtifact(nav, "submit_rejected", message)
	default:
		return &models.RunResult{
			Status:   models.StatusAmbiguous,
			Message:  message,
			Artifact: s.capture(nav, "ambiguous_outcome"),
		}
	}
}

// awaitOTPChallenge polls for a verification-code challenge until the policy
// is exhausted. Exhaustion means no challenge; any other poll error cannot
// occur because detection never fails.
func awaitOTPChallenge(policy RetryPolicy, detect func() (playwright.Locator, bool)) (playwright.Locator, bool) {
	var input playwright.Locator
	err := policy.Do(func() (bool, error) {
		if locator, ok := detect(); ok {
			input = locator
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return nil, false
	}
	return input, true
}

func (s *AutomationService) failWithArtifact(nav *FormNavigator, label, message string) *models.RunResult {
	return &models.RunResult{
		Status:   models.StatusError,
		Message:  message,
		Artifact: s.capture(nav, label),
	}
}

func (s *AutomationService) capture(nav *FormNavigator, label string) string {
	if s.screenshots == nil || nav == nil || nav.Page() == nil {
		return ""
	}
	artifact, err := s.screenshots.Capture(nav.Page(), label)
	if err != nil {
		log.Printf("Could not capture %s screenshot: %v", label, err)
		return ""
	}
	return artifact
}
