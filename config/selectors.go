package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FieldKind tells the filler which interaction a field needs.
type FieldKind string

const (
	KindText   FieldKind = "text"
	KindFile   FieldKind = "file"
	KindSelect FieldKind = "select"
)

// FieldSpec maps one logical field to an ordered list of selector candidates.
// Candidates are tried in priority order; the first match wins.
type FieldSpec struct {
	Name      string    `yaml:"name"`
	Kind      FieldKind `yaml:"kind"`
	Required  bool      `yaml:"required"`
	Selectors []string  `yaml:"selectors"`
}

// FieldMapping is the full mapping for a target form, in fill order.
type FieldMapping []FieldSpec

// Find returns the spec for a logical field name.
func (m FieldMapping) Find(name string) (FieldSpec, bool) {
	for _, spec := range m {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// Logical field names.
const (
	FieldFirstName          = "first_name"
	FieldLastName           = "last_name"
	FieldEmail              = "email"
	FieldResume             = "resume"
	FieldPreferredFirstName = "preferred_first_name"
	FieldPhone              = "phone"
	FieldCountry            = "country"
	FieldCoverLetter        = "cover_letter"
	FieldLinkedIn           = "linkedin"
	FieldWebsite            = "website"
)

// GreenhouseMapping returns the default selector mapping for Greenhouse
// application forms. Markup varies between postings, so every field carries
// fallback candidates.
func GreenhouseMapping() FieldMapping {
	return FieldMapping{
		{
			Name: FieldFirstName, Kind: KindText, Required: true,
			Selectors: []string{
				"input#first_name",
				"input[id*='first_name']",
				"input[name*='first_name']",
				"input[data-field='first_name']",
				"input[aria-label*='First Name']",
			},
		},
		{
			Name: FieldLastName, Kind: KindText, Required: true,
			Selectors: []string{
				"input#last_name",
				"input[id*='last_name']",
				"input[name*='last_name']",
				"input[data-field='last_name']",
				"input[aria-label*='Last Name']",
			},
		},
		{
			Name: FieldEmail, Kind: KindText, Required: true,
			Selectors: []string{
				"input[type='email']",
				"input#email",
				"input[id*='email']",
				"input[name*='email']",
				"input[data-field='email']",
			},
		},
		{
			Name: FieldResume, Kind: KindFile, Required: true,
			Selectors: []string{
				"input[type='file']#resume",
				"input[type='file'][id*='resume']",
				"input[type='file'][name*='resume']",
				"input[type='file']",
			},
		},
		{
			Name: FieldPreferredFirstName, Kind: KindText, Required: false,
			Selectors: []string{
				"input[id*='preferred_first_name']",
				"input[name*='preferred_first_name']",
			},
		},
		{
			Name: FieldPhone, Kind: KindText, Required: false,
			Selectors: []string{
				"input[type='tel']",
				"input#phone",
				"input[id*='phone']",
				"input[name*='phone']",
			},
		},
		{
			Name: FieldCountry, Kind: KindSelect, Required: false,
			Selectors: []string{
				"select#country",
				"select[id*='country']",
				"input#country",
				"input[id*='country'].select__input",
			},
		},
		{
			Name: FieldCoverLetter, Kind: KindFile, Required: false,
			Selectors: []string{
				"input[type='file']#cover_letter",
				"input[type='file'][id*='cover']",
				"input[type='file'][name*='cover']",
			},
		},
		{
			Name: FieldLinkedIn, Kind: KindText, Required: false,
			Selectors: []string{
				"input[id*='linkedin']",
				"input[name*='linkedin']",
				"input[placeholder*='LinkedIn']",
			},
		},
		{
			Name: FieldWebsite, Kind: KindText, Required: false,
			Selectors: []string{
				"input[id*='website']",
				"input[name*='website']",
				"input[placeholder*='Website']",
			},
		},
	}
}

// OTP challenge selectors. Single input first; some forms split the code into
// one box per character.
var (
	OTPInputSelectors = []string{
		"input[id*='otp']",
		"input[id*='verification']",
		"input[name*='otp']",
		"input[name*='verification']",
		"input[placeholder*='code']",
		"input[placeholder*='OTP']",
		"input[placeholder*='Security code']",
	}
	OTPMultiInputSelector = "input[maxlength='1'], input[aria-label*='character'], div[class*='verification'] input, div[class*='code'] input"
	VerifyButtonSelectors = []string{
		"button:has-text('Verify')",
		"button[id*='verify']",
		"button:has-text('Confirm')",
		"button[type='submit']",
	}
)

// LoadFieldMapping reads a mapping override from a YAML file. Specs with no
// selectors are rejected so a bad override fails loudly before navigation.
func LoadFieldMapping(path string) (FieldMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read field mapping: %v", err)
	}
	var mapping FieldMapping
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("could not parse field mapping: %v", err)
	}
	for _, spec := range mapping {
		if spec.Name == "" || len(spec.Selectors) == 0 {
			return nil, fmt.Errorf("field mapping entry %q has no selectors", spec.Name)
		}
		switch spec.Kind {
		case KindText, KindFile, KindSelect:
		default:
			return nil, fmt.Errorf("field %q has unknown kind %q", spec.Name, spec.Kind)
		}
	}
	return mapping, nil
}
