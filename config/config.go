package config

import (
	"os"
	"strconv"
	"time"
)

// BrowserConfig controls the Playwright session.
type BrowserConfig struct {
	Headless       bool
	ElementTimeout time.Duration // wait for a single element
	FormTimeout    time.Duration // wait for the form root after navigation
	ShortWait      time.Duration // settle time after fills/uploads
}

// GmailConfig controls OTP retrieval from the mailbox.
type GmailConfig struct {
	CredentialsFile string
	TokenFile       string
	FromFilter      string
	SubjectFilter   string
	PollInterval    time.Duration
	MaxAttempts     int
	RecencyWindow   time.Duration
}

// ArtifactConfig controls where diagnostic screenshots go.
type ArtifactConfig struct {
	LocalDir string
	S3Bucket string
	S3Region string
}

type AppConfig struct {
	Port      string
	Browser   BrowserConfig
	Gmail     GmailConfig
	Artifacts ArtifactConfig
}

func GetBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless:       getEnv("HEADLESS", "true") != "false",
		ElementTimeout: getEnvDuration("ELEMENT_TIMEOUT", 2*time.Second),
		FormTimeout:    getEnvDuration("FORM_TIMEOUT", 20*time.Second),
		ShortWait:      getEnvDuration("SHORT_WAIT", 2*time.Second),
	}
}

func GetGmailConfig() GmailConfig {
	return GmailConfig{
		CredentialsFile: getEnv("GMAIL_CREDENTIALS_FILE", "credentials.json"),
		TokenFile:       getEnv("GMAIL_TOKEN_FILE", "token.json"),
		FromFilter:      getEnv("OTP_FROM_FILTER", "no-reply@greenhouse.io"),
		SubjectFilter:   getEnv("OTP_SUBJECT_FILTER", ""),
		PollInterval:    getEnvDuration("OTP_POLL_INTERVAL", 10*time.Second),
		MaxAttempts:     getEnvInt("OTP_MAX_ATTEMPTS", 30),
		RecencyWindow:   getEnvDuration("OTP_RECENCY_WINDOW", 10*time.Minute),
	}
}

func GetArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		LocalDir: getEnv("ARTIFACT_DIR", "artifacts"),
		S3Bucket: getEnv("AWS_S3_BUCKET", ""),
		S3Region: getEnv("AWS_REGION", ""),
	}
}

func GetAppConfig() AppConfig {
	return AppConfig{
		Port:      getEnv("PORT", "8081"),
		Browser:   GetBrowserConfig(),
		Gmail:     GetGmailConfig(),
		Artifacts: GetArtifactConfig(),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
