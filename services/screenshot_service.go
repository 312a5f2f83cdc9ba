package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"greenhouseauto/config"
)

// ScreenshotService captures diagnostic artifacts. Uploads to S3 when AWS is
// configured, otherwise writes under the local artifact directory.
type ScreenshotService struct {
	s3       *S3Service
	localDir string
}

func NewScreenshotService(cfg config.ArtifactConfig) *ScreenshotService {
	s3Service, err := NewS3Service()
	if err != nil {
		log.Printf("S3 not configured, screenshots go to %s: %v", cfg.LocalDir, err)
		s3Service = nil
	}
	return &ScreenshotService{s3: s3Service, localDir: cfg.LocalDir}
}

// Capture takes a full-page screenshot and returns an artifact reference
// (S3 URL or local path). Failures are reported, not fatal: a run should
// never die because a diagnostic could not be saved.
func (s *ScreenshotService) Capture(page playwright.Page, label string) (string, error) {
	screenshot, err := page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to take screenshot: %v", err)
	}

	name := fmt.Sprintf("%s_%s.png", label, uuid.NewString())

	if s.s3 != nil {
		return s.s3.UploadBytes(screenshot, "screenshots/"+name, "image/png")
	}

	if err := os.MkdirAll(s.localDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact dir: %v", err)
	}
	path := filepath.Join(s.localDir, name)
	if err := os.WriteFile(path, screenshot, 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %v", err)
	}
	log.Printf("Screenshot saved: %s", path)
	return path, nil
}
