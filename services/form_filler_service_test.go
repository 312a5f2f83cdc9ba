package services

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenhouseauto/config"
	"greenhouseauto/models"
)

// missingFieldFinder matches nothing on the page and records lookups.
type missingFieldFinder struct {
	findCalls    []string
	requireCalls []string
}

func (f *missingFieldFinder) FindField(spec config.FieldSpec) (playwright.Locator, bool) {
	f.findCalls = append(f.findCalls, spec.Name)
	return nil, false
}

func (f *missingFieldFinder) RequireField(spec config.FieldSpec) (playwright.Locator, error) {
	f.requireCalls = append(f.requireCalls, spec.Name)
	return nil, &FieldNotFoundError{Field: spec.Name}
}

func TestFillAll_UnmatchedOptionalFieldsAreSkipped(t *testing.T) {
	// Optional fields whose selectors never match must not fail the run; the
	// filler walks past them so submission still happens.
	finder := &missingFieldFinder{}
	filler := NewFormFillerService(finder)
	input := &models.ApplicationInput{
		Phone:           "555-0100",
		LinkedInProfile: "https://linkedin.com/in/ada",
		Website:         "https://ada.dev",
	}
	mapping := config.FieldMapping{
		{Name: config.FieldPhone, Kind: config.KindText, Selectors: []string{"#phone"}},
		{Name: config.FieldLinkedIn, Kind: config.KindText, Selectors: []string{"#linkedin"}},
		{Name: config.FieldWebsite, Kind: config.KindText, Selectors: []string{"#website"}},
	}

	err := filler.FillAll(input, mapping)

	require.NoError(t, err)
	assert.Equal(t, []string{config.FieldPhone, config.FieldLinkedIn, config.FieldWebsite}, finder.findCalls)
	assert.Empty(t, finder.requireCalls)
}

func TestFillAll_RequiredFieldNotOnPageIsFatal(t *testing.T) {
	finder := &missingFieldFinder{}
	filler := NewFormFillerService(finder)
	input := &models.ApplicationInput{Email: "ada@example.com"}
	mapping := config.FieldMapping{
		{Name: config.FieldEmail, Kind: config.KindText, Required: true, Selectors: []string{"#email"}},
	}

	err := filler.FillAll(input, mapping)

	var notFound *FieldNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, config.FieldEmail, notFound.Field)
}

func TestFillAll_RequiredValueMissingFailsBeforeLookup(t *testing.T) {
	finder := &missingFieldFinder{}
	filler := NewFormFillerService(finder)
	mapping := config.FieldMapping{
		{Name: config.FieldEmail, Kind: config.KindText, Required: true, Selectors: []string{"#email"}},
	}

	err := filler.FillAll(&models.ApplicationInput{}, mapping)

	var invalid *ValidationError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, config.FieldEmail, invalid.Field)
	assert.Empty(t, finder.requireCalls)
}

func TestInputValue_KnownFields(t *testing.T) {
	input := &models.ApplicationInput{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "ada@example.com",
		ResumePath:      "/tmp/resume.pdf",
		Phone:           "555-0100",
		Country:         "United States",
		LinkedInProfile: "https://linkedin.com/in/ada",
	}

	cases := map[string]string{
		config.FieldFirstName: "Ada",
		config.FieldLastName:  "Lovelace",
		config.FieldEmail:     "ada@example.com",
		config.FieldResume:    "/tmp/resume.pdf",
		config.FieldPhone:     "555-0100",
		config.FieldCountry:   "United States",
		config.FieldLinkedIn:  "https://linkedin.com/in/ada",
	}
	for name, want := range cases {
		value, ok := inputValue(input, name)
		require.True(t, ok, name)
		assert.Equal(t, want, value, name)
	}
}

func TestInputValue_UnknownFieldSkipped(t *testing.T) {
	// A field in the mapping with no input counterpart reports not-ok, which
	// the filler treats as a skip, never an error.
	_, ok := inputValue(&models.ApplicationInput{}, "favorite_color")

	assert.False(t, ok)
}

func TestInputValue_EmptyOptional(t *testing.T) {
	value, ok := inputValue(&models.ApplicationInput{}, config.FieldWebsite)

	assert.True(t, ok)
	assert.Empty(t, value)
}

func TestMatchOptionLabel_CaseFolded(t *testing.T) {
	labels := []string{"-- Select --", "Canada", "UNITED STATES", "Mexico"}

	match, ok := matchOptionLabel(labels, "United States")

	require.True(t, ok)
	assert.Equal(t, "UNITED STATES", match)
}

func TestMatchOptionLabel_NoMatch(t *testing.T) {
	_, ok := matchOptionLabel([]string{"Canada", "Mexico"}, "Atlantis")

	assert.False(t, ok)
}

func TestMatchOptionLabel_ExactPreferred(t *testing.T) {
	labels := []string{"united states", "United States"}

	match, ok := matchOptionLabel(labels, "united states")

	require.True(t, ok)
	// First fold match wins; deterministic for a fixed option list.
	assert.Equal(t, "united states", match)
}
