package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"greenhouseauto/config"
)

// EmailMessage is one mailbox message, newest-first from LatestMessage.
type EmailMessage struct {
	ID       string
	Subject  string
	From     string
	Snippet  string
	Body     string
	HTMLBody string
	Received time.Time
}

// GmailService reads recent messages from the applicant's mailbox through the
// Gmail API with a read-only scope.
type GmailService struct {
	svc *gmail.Service
	cfg config.GmailConfig
}

// NewGmailService authenticates against the Gmail API. The OAuth token comes
// from the store when cached; otherwise the user authorizes in a browser and
// pastes the code back. Refreshed tokens are written back through the store.
func NewGmailService(ctx context.Context, cfg config.GmailConfig, store TokenStore) (*GmailService, error) {
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, &ExternalServiceError{Service: "gmail", Err: fmt.Errorf("could not read credentials file %s: %v", cfg.CredentialsFile, err)}
	}

	oauthCfg, err := google.ConfigFromJSON(data, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, &ExternalServiceError{Service: "gmail", Err: fmt.Errorf("could not parse credentials file: %v", err)}
	}

	token, err := store.Load()
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Could not load cached token, re-authorizing: %v", err)
		}
		token, err = authorizeInteractively(ctx, oauthCfg)
		if err != nil {
			return nil, &ExternalServiceError{Service: "gmail", Err: err}
		}
		if err := store.Save(token); err != nil {
			log.Printf("Warning: could not save token: %v", err)
		}
	}

	ts := newPersistingTokenSource(oauthCfg.TokenSource(ctx, token), store, token)
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, &ExternalServiceError{Service: "gmail", Err: fmt.Errorf("could not build Gmail client: %v", err)}
	}

	return &GmailService{svc: svc, cfg: cfg}, nil
}

// authorizeInteractively walks the user through the consent flow on stdin.
func authorizeInteractively(ctx context.Context, oauthCfg *oauth2.Config) (*oauth2.Token, error) {
	authURL := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open this URL in your browser, authorize read-only Gmail access, then paste the code here:\n%v\n> ", authURL)

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return nil, fmt.Errorf("could not read authorization code: %v", err)
	}

	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("could not exchange authorization code: %v", err)
	}
	return token, nil
}

// LatestMessage returns the newest message within the recency window matching
// the configured sender/subject filters, or nil when the mailbox has nothing
// relevant yet.
func (g *GmailService) LatestMessage(within time.Duration) (*EmailMessage, error) {
	query := buildGmailQuery(time.Now(), within, g.cfg.FromFilter, g.cfg.SubjectFilter)
	log.Printf("Searching Gmail with query: %s", query)

	list, err := g.svc.Users.Messages.List("me").Q(query).MaxResults(5).Do()
	if err != nil {
		return nil, &ExternalServiceError{Service: "gmail", Err: fmt.Errorf("message search failed: %v", err)}
	}
	if len(list.Messages) == 0 {
		return nil, nil
	}

	cutoff := time.Now().Add(-within)
	// The list endpoint orders newest-first; the first message inside the
	// window wins. The after: query clause only has day granularity, so the
	// minute-level window is enforced here.
	for _, ref := range list.Messages {
		msg, err := g.svc.Users.Messages.Get("me", ref.Id).Format("full").Do()
		if err != nil {
			return nil, &ExternalServiceError{Service: "gmail", Err: fmt.Errorf("message fetch failed: %v", err)}
		}

		received := time.UnixMilli(msg.InternalDate)
		if received.Before(cutoff) {
			continue
		}

		body, htmlBody := extractMessageBodies(msg.Payload)
		email := &EmailMessage{
			ID:       msg.Id,
			Subject:  headerValue(msg.Payload, "Subject"),
			From:     headerValue(msg.Payload, "From"),
			Snippet:  msg.Snippet,
			Body:     body,
			HTMLBody: htmlBody,
			Received: received,
		}
		log.Printf("Found email from %s with subject: %s", email.From, email.Subject)
		return email, nil
	}
	return nil, nil
}

// buildGmailQuery assembles the search expression. after: accepts only a date,
// so the day containing the window start is used as the coarse filter.
func buildGmailQuery(now time.Time, within time.Duration, from, subject string) string {
	parts := []string{
		"after:" + now.Add(-within).Format("2006/01/02"),
	}
	if from != "" {
		parts = append(parts, "from:"+from)
	}
	if subject != "" {
		parts = append(parts, fmt.Sprintf("subject:%q", subject))
	}
	return strings.Join(parts, " ")
}

// extractMessageBodies walks the MIME tree and returns the plain and HTML
// bodies. An HTML-only message gets a stripped-text fallback for the plain
// body.
func extractMessageBodies(payload *gmail.MessagePart) (body, htmlBody string) {
	if payload == nil {
		return "", ""
	}
	collectBodies(payload, &body, &htmlBody)
	if body == "" && htmlBody != "" {
		body = StripHTML(htmlBody)
	}
	return body, htmlBody
}

func collectBodies(part *gmail.MessagePart, body, htmlBody *string) {
	if part.Body != nil && part.Body.Data != "" {
		switch part.MimeType {
		case "text/plain":
			*body += decodeBase64URL(part.Body.Data)
		case "text/html":
			*htmlBody += decodeBase64URL(part.Body.Data)
		}
	}
	for _, child := range part.Parts {
		collectBodies(child, body, htmlBody)
	}
}

// decodeBase64URL tolerates both padded and unpadded message data.
func decodeBase64URL(data string) string {
	if decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "=")); err == nil {
		return string(decoded)
	}
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded)
	}
	return ""
}

func headerValue(payload *gmail.MessagePart, name string) string {
	if payload == nil {
		return ""
	}
	for _, header := range payload.Headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}
