package services

import (
	"errors"
	"log"
	"time"
)

// OTPState is the resolver's position in Idle -> Waiting -> Resolved|TimedOut.
type OTPState string

const (
	OTPIdle     OTPState = "idle"
	OTPWaiting  OTPState = "waiting"
	OTPResolved OTPState = "resolved"
	OTPTimedOut OTPState = "timed_out"
)

// ErrOTPTimeout means no code arrived within the bounded wait. Recoverable:
// the caller decides whether to retry the run.
var ErrOTPTimeout = errors.New("timed out waiting for verification code email")

// MailSource yields the newest relevant mailbox message within a recency
// window. nil message means nothing relevant yet.
type MailSource interface {
	LatestMessage(within time.Duration) (*EmailMessage, error)
}

// OTPResolver polls the mailbox for a verification code when the form raises
// an OTP challenge. One resolver serves one run.
type OTPResolver struct {
	mail   MailSource
	policy RetryPolicy
	window time.Duration
	state  OTPState
}

func NewOTPResolver(mail MailSource, policy RetryPolicy, window time.Duration) *OTPResolver {
	return &OTPResolver{
		mail:   mail,
		policy: policy,
		window: window,
		state:  OTPIdle,
	}
}

// State exposes the current resolver state.
func (r *OTPResolver) State() OTPState {
	return r.state
}

// Resolve blocks until a code is extracted or the attempt budget runs out.
// Mailbox errors are terminal; an exhausted budget returns ErrOTPTimeout.
func (r *OTPResolver) Resolve() (string, error) {
	r.state = OTPWaiting
	log.Printf("Waiting for verification code email (up to %s)...", r.policy.MaxWait())

	code := ""
	err := r.policy.Do(func() (bool, error) {
		msg, err := r.mail.LatestMessage(r.window)
		if err != nil {
			return false, err
		}
		if msg == nil {
			log.Printf("No verification email yet")
			return false, nil
		}
		extracted, ok := ExtractOTP(msg.Subject, msg.Body, msg.HTMLBody)
		if !ok {
			log.Printf("Email %s has no recognizable code, continuing to poll", msg.ID)
			return false, nil
		}
		code = extracted
		return true, nil
	})

	if err != nil {
		if errors.Is(err, ErrRetryExhausted) {
			r.state = OTPTimedOut
			return "", ErrOTPTimeout
		}
		r.state = OTPTimedOut
		return "", err
	}

	r.state = OTPResolved
	log.Printf("Verification code resolved")
	return code, nil
}
