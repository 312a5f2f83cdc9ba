package services

import (
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Pattern rules tried in order; the first rule that matches a message wins,
// so extraction is deterministic for a fixed message.
var otpRules = []struct {
	name string
	re   *regexp.Regexp
	// digitRequired rejects bare-word false positives for rules whose
	// pattern would otherwise match ordinary prose.
	digitRequired bool
}{
	{
		name: "labeled",
		re: regexp.MustCompile(`(?i)(?:verification\s+code|security\s+code|one[\s-]?time\s+(?:code|passcode)|code|otp|passcode)\s*(?:is)?\s*:?\s*([A-Za-z0-9]{4,8})\b`),
	},
	{name: "standalone-8-alnum", re: regexp.MustCompile(`\b([A-Za-z0-9]{8})\b`), digitRequired: true},
	{name: "standalone-8-digit", re: regexp.MustCompile(`\b(\d{8})\b`)},
	{name: "standalone-6-alnum", re: regexp.MustCompile(`\b([A-Za-z0-9]{6})\b`), digitRequired: true},
	{name: "standalone-6-digit", re: regexp.MustCompile(`\b(\d{6})\b`)},
	{name: "standalone-4-digit", re: regexp.MustCompile(`\b(\d{4})\b`)},
	{name: "separated-3-3-digit", re: regexp.MustCompile(`\b(\d{3}[\s-]\d{3})\b`)},
	{name: "separated-2-2-2-digit", re: regexp.MustCompile(`\b(\d{2}[\s-]\d{2}[\s-]\d{2})\b`)},
}

var otpSeparators = regexp.MustCompile(`[\s-]`)

// Elements verification emails set the code off in.
const otpHTMLTagSelector = "h1, h2, strong, b"

var otpTagText = regexp.MustCompile(`^[A-Za-z0-9]{4,8}$`)

// ExtractOTP pulls a passcode out of a verification email. The HTML body is
// checked first (codes are usually set off in a heading), then the subject and
// plain body go through the pattern rules in order. Case is preserved; the
// form rejects lowercased codes.
func ExtractOTP(subject, body, htmlBody string) (string, bool) {
	if htmlBody != "" {
		if code, ok := extractOTPFromHTML(htmlBody); ok {
			return code, true
		}
	}

	text := subject + " " + body
	for _, rule := range otpRules {
		for _, m := range rule.re.FindAllStringSubmatch(text, -1) {
			code := otpSeparators.ReplaceAllString(m[1], "")
			if !plausibleOTP(code, rule.digitRequired) {
				continue
			}
			log.Printf("Extracted OTP using rule %s", rule.name)
			return code, true
		}
	}
	return "", false
}

// extractOTPFromHTML looks for a short code standing alone inside an
// emphasis/heading element.
func extractOTPFromHTML(htmlBody string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return "", false
	}

	code := ""
	doc.Find(otpHTMLTagSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if otpTagText.MatchString(text) && plausibleOTP(text, false) {
			code = text
			return false
		}
		return true
	})
	if code != "" {
		log.Printf("Extracted OTP from HTML tag")
		return code, true
	}
	return "", false
}

// plausibleOTP filters out English words the broader patterns can match.
// An all-lowercase alphabetic token is never a code; rules marked
// digitRequired additionally demand at least one digit.
func plausibleOTP(code string, digitRequired bool) bool {
	if len(code) < 4 || len(code) > 8 {
		return false
	}
	hasDigit := strings.ContainsAny(code, "0123456789")
	if digitRequired && !hasDigit {
		return false
	}
	if !hasDigit && code == strings.ToLower(code) {
		return false
	}
	return true
}

// StripHTML flattens an HTML body to text for the plain-text pattern pass.
func StripHTML(htmlBody string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return htmlBody
	}
	return doc.Text()
}
