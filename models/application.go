package models

import (
	"encoding/json"
	"fmt"
	"io"
)

// ApplicationInput is the input record for one application run.
// JSON keys match the wire format callers already produce.
type ApplicationInput struct {
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName"`
	Email              string `json:"email"`
	ResumePath         string `json:"resumePath"`
	JobURL             string `json:"jobUrl"`
	PreferredFirstName string `json:"preferredFirstName,omitempty"`
	Phone              string `json:"phone,omitempty"`
	Country            string `json:"country,omitempty"`
	CoverLetterPath    string `json:"coverLetterPath,omitempty"`
	LinkedInProfile    string `json:"linkedinProfile,omitempty"`
	Website            string `json:"website,omitempty"`
}

// ParseApplicationInput decodes an ApplicationInput from JSON.
func ParseApplicationInput(r io.Reader) (*ApplicationInput, error) {
	var input ApplicationInput
	if err := json.NewDecoder(r).Decode(&input); err != nil {
		return nil, fmt.Errorf("invalid input JSON: %v", err)
	}
	return &input, nil
}

// Run result statuses.
const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusTimeout   = "timeout"
	StatusAmbiguous = "ambiguous"
)

// RunResult is the terminal outcome of a run. Every run produces exactly one.
type RunResult struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Artifact string `json:"artifact,omitempty"` // screenshot URL or local path
}

// Succeeded reports whether the run ended in a submitted application.
func (r *RunResult) Succeeded() bool {
	return r.Status == StatusSuccess
}
