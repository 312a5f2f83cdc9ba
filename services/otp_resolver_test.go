package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedMailSource returns its entries one poll at a time, repeating the
// last entry once exhausted.
type scriptedMailSource struct {
	polls    []*EmailMessage
	err      error
	requests int
}

func (s *scriptedMailSource) LatestMessage(within time.Duration) (*EmailMessage, error) {
	s.requests++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.polls) == 0 {
		return nil, nil
	}
	idx := s.requests - 1
	if idx >= len(s.polls) {
		idx = len(s.polls) - 1
	}
	return s.polls[idx], nil
}

func newTestResolver(mail MailSource, attempts int) *OTPResolver {
	return NewOTPResolver(mail, instantPolicy(attempts), 10*time.Minute)
}

func TestOTPResolver_StartsIdle(t *testing.T) {
	resolver := newTestResolver(&scriptedMailSource{}, 1)

	assert.Equal(t, OTPIdle, resolver.State())
}

func TestOTPResolver_ResolvesOnFirstMessage(t *testing.T) {
	mail := &scriptedMailSource{polls: []*EmailMessage{
		{ID: "m1", Subject: "Verify your email", Body: "Your verification code: 123456"},
	}}
	resolver := newTestResolver(mail, 5)

	code, err := resolver.Resolve()

	require.NoError(t, err)
	assert.Equal(t, "123456", code)
	assert.Equal(t, OTPResolved, resolver.State())
}

func TestOTPResolver_WaitsThroughEmptyPolls(t *testing.T) {
	mail := &scriptedMailSource{polls: []*EmailMessage{
		nil,
		nil,
		{ID: "m1", Body: "Your code is 445566"},
	}}
	resolver := newTestResolver(mail, 10)

	code, err := resolver.Resolve()

	require.NoError(t, err)
	assert.Equal(t, "445566", code)
	assert.Equal(t, 3, mail.requests)
}

func TestOTPResolver_TimesOutWhenMailboxEmpty(t *testing.T) {
	mail := &scriptedMailSource{}
	resolver := newTestResolver(mail, 4)

	_, err := resolver.Resolve()

	assert.ErrorIs(t, err, ErrOTPTimeout)
	assert.Equal(t, OTPTimedOut, resolver.State())
	assert.Equal(t, 4, mail.requests, "resolver must stop at the attempt budget, never hang")
}

func TestOTPResolver_TimesOutWhenNoMessageMatchesAnyRule(t *testing.T) {
	mail := &scriptedMailSource{polls: []*EmailMessage{
		{ID: "m1", Subject: "Welcome!", Body: "Thanks for applying. We will be in touch."},
	}}
	resolver := newTestResolver(mail, 3)

	_, err := resolver.Resolve()

	assert.ErrorIs(t, err, ErrOTPTimeout)
	assert.Equal(t, OTPTimedOut, resolver.State())
}

func TestOTPResolver_MailErrorIsTerminal(t *testing.T) {
	boom := &ExternalServiceError{Service: "gmail", Err: errors.New("quota exceeded")}
	mail := &scriptedMailSource{err: boom}
	resolver := newTestResolver(mail, 5)

	_, err := resolver.Resolve()

	assert.ErrorIs(t, err, boom.Err)
	assert.Equal(t, OTPTimedOut, resolver.State())
	assert.Equal(t, 1, mail.requests)
}

func TestOTPResolver_NewestMessageWins(t *testing.T) {
	// The mail source already ranks newest-first; the resolver takes what it
	// is given without reordering.
	mail := &scriptedMailSource{polls: []*EmailMessage{
		{ID: "newest", Body: "Your verification code: 999888"},
	}}
	resolver := newTestResolver(mail, 2)

	code, err := resolver.Resolve()

	require.NoError(t, err)
	assert.Equal(t, "999888", code)
}
