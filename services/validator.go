package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"baliance.com/gooxml/document"

	"greenhouseauto/models"
)

// Attachment types Greenhouse accepts.
var acceptedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
	".rtf":  true,
}

// ValidateInput checks required fields and attachment files, and rewrites
// file paths to absolute form. Fails with a ValidationError naming the first
// problem; no browser state is touched here.
func ValidateInput(input *models.ApplicationInput) error {
	required := []struct {
		name  string
		value string
	}{
		{"firstName", input.FirstName},
		{"lastName", input.LastName},
		{"email", input.Email},
		{"resumePath", input.ResumePath},
		{"jobUrl", input.JobURL},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.name, Reason: "is required"}
		}
	}

	resumePath, err := validateAttachment("resumePath", input.ResumePath)
	if err != nil {
		return err
	}
	input.ResumePath = resumePath

	if input.CoverLetterPath != "" {
		coverPath, err := validateAttachment("coverLetterPath", input.CoverLetterPath)
		if err != nil {
			return err
		}
		input.CoverLetterPath = coverPath
	}

	return nil
}

// validateAttachment checks one attachment path and returns it absolute.
func validateAttachment(field, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &ValidationError{Field: field, Reason: fmt.Sprintf("is not a usable path: %v", err)}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", &ValidationError{Field: field, Reason: fmt.Sprintf("does not exist: %s", abs)}
	}
	if info.IsDir() {
		return "", &ValidationError{Field: field, Reason: fmt.Sprintf("is a directory: %s", abs)}
	}

	ext := strings.ToLower(filepath.Ext(abs))
	if !acceptedExtensions[ext] {
		return "", &ValidationError{Field: field, Reason: fmt.Sprintf("has unsupported type %q (accepted: pdf, doc, docx, txt, rtf)", ext)}
	}

	f, err := os.Open(abs)
	if err != nil {
		return "", &ValidationError{Field: field, Reason: fmt.Sprintf("is not readable: %v", err)}
	}
	f.Close()

	// A corrupt docx burns a whole browser session before the upload fails,
	// so open it up front.
	if ext == ".docx" {
		if _, err := document.Open(abs); err != nil {
			return "", &ValidationError{Field: field, Reason: fmt.Sprintf("is not a valid docx file: %v", err)}
		}
	}

	return abs, nil
}
