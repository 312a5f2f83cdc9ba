package services

import (
	"fmt"
	"log"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/text/cases"

	"greenhouseauto/config"
	"greenhouseauto/models"
)

// fieldFinder resolves a logical field to a page element. FormNavigator is
// the production implementation.
type fieldFinder interface {
	FindField(spec config.FieldSpec) (playwright.Locator, bool)
	RequireField(spec config.FieldSpec) (playwright.Locator, error)
}

// FormFillerService maps resolved fields to interactions: text entry, file
// selection, or dropdown choice. Required failures abort the run; optional
// failures are logged and never reach the final result.
type FormFillerService struct {
	nav fieldFinder
}

func NewFormFillerService(nav fieldFinder) *FormFillerService {
	return &FormFillerService{nav: nav}
}

// FillAll walks the mapping in order and fills every field the input provides
// a value for. Optional fields whose selectors never match are skipped
// silently; the run still proceeds to submission.
func (s *FormFillerService) FillAll(input *models.ApplicationInput, mapping config.FieldMapping) error {
	for _, spec := range mapping {
		value, ok := inputValue(input, spec.Name)
		if !ok || value == "" {
			if spec.Required {
				return &ValidationError{Field: spec.Name, Reason: "is required"}
			}
			continue
		}

		if spec.Required {
			locator, err := s.nav.RequireField(spec)
			if err != nil {
				return err
			}
			if err := s.fill(locator, spec, value); err != nil {
				return fmt.Errorf("failed to fill required field %s: %w", spec.Name, err)
			}
			log.Printf("Filled %s", spec.Name)
			continue
		}

		locator, found := s.nav.FindField(spec)
		if !found {
			continue
		}
		if err := s.fill(locator, spec, value); err != nil {
			log.Printf("Optional field %s could not be filled (skipping): %v", spec.Name, err)
			continue
		}
		log.Printf("Filled %s", spec.Name)
	}
	return nil
}

func (s *FormFillerService) fill(locator playwright.Locator, spec config.FieldSpec, value string) error {
	switch spec.Kind {
	case config.KindText:
		return locator.Fill(value)
	case config.KindFile:
		return locator.SetInputFiles(value)
	case config.KindSelect:
		return s.selectOption(locator, value)
	default:
		return fmt.Errorf("unknown field kind %q", spec.Kind)
	}
}

// selectOption picks a dropdown entry by visible label, then by value, then by
// case-folded label comparison (country lists mix "United States" and
// "UNITED STATES" style options).
func (s *FormFillerService) selectOption(locator playwright.Locator, value string) error {
	if _, err := locator.SelectOption(playwright.SelectOptionValues{
		Labels: &[]string{value},
	}); err == nil {
		return nil
	}
	if _, err := locator.SelectOption(playwright.SelectOptionValues{
		Values: &[]string{value},
	}); err == nil {
		return nil
	}

	labels, err := locator.Locator("option").AllTextContents()
	if err != nil {
		return fmt.Errorf("could not read options: %v", err)
	}
	if match, ok := matchOptionLabel(labels, value); ok {
		_, err := locator.SelectOption(playwright.SelectOptionValues{
			Labels: &[]string{match},
		})
		return err
	}
	return fmt.Errorf("no option matching %q", value)
}

// matchOptionLabel finds the first option whose case-folded label equals the
// wanted value. A Caser carries state, so each call gets its own.
func matchOptionLabel(labels []string, want string) (string, bool) {
	folder := cases.Fold()
	folded := folder.String(want)
	for _, label := range labels {
		if folder.String(label) == folded {
			return label, true
		}
	}
	return "", false
}

// inputValue maps a logical field name to its value in the input record.
// Unknown names report not-ok and are skipped upstream.
func inputValue(input *models.ApplicationInput, name string) (string, bool) {
	switch name {
	case config.FieldFirstName:
		return input.FirstName, true
	case config.FieldLastName:
		return input.LastName, true
	case config.FieldEmail:
		return input.Email, true
	case config.FieldResume:
		return input.ResumePath, true
	case config.FieldPreferredFirstName:
		return input.PreferredFirstName, true
	case config.FieldPhone:
		return input.Phone, true
	case config.FieldCountry:
		return input.Country, true
	case config.FieldCoverLetter:
		return input.CoverLetterPath, true
	case config.FieldLinkedIn:
		return input.LinkedInProfile, true
	case config.FieldWebsite:
		return input.Website, true
	}
	return "", false
}
