package services

import (
	"errors"
	"time"
)

// ErrRetryExhausted means the condition never held within the attempt budget.
var ErrRetryExhausted = errors.New("retry attempts exhausted")

// RetryPolicy is a bounded polling loop: fixed interval, fixed attempt count.
// Both the navigation waits and the OTP mailbox poll run through it, so every
// wait in the tool has an explicit upper bound.
type RetryPolicy struct {
	Interval    time.Duration
	MaxAttempts int

	// sleep is swappable for tests.
	sleep func(time.Duration)
}

// NewRetryPolicy builds a policy. Attempts below one are clamped to one.
func NewRetryPolicy(interval time.Duration, maxAttempts int) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{Interval: interval, MaxAttempts: maxAttempts, sleep: time.Sleep}
}

// Do runs fn until it reports done, returns an error, or the attempt budget
// runs out. fn errors are terminal; running out of attempts returns
// ErrRetryExhausted.
func (p RetryPolicy) Do(fn func() (done bool, err error)) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			sleep(p.Interval)
		}
		done, err := fn()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return ErrRetryExhausted
}

// MaxWait is the worst-case total sleep time of the policy.
func (p RetryPolicy) MaxWait() time.Duration {
	if p.MaxAttempts < 2 {
		return 0
	}
	return time.Duration(p.MaxAttempts-1) * p.Interval
}
