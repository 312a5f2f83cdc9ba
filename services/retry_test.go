package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instantPolicy(maxAttempts int) RetryPolicy {
	p := NewRetryPolicy(10*time.Millisecond, maxAttempts)
	p.sleep = func(time.Duration) {}
	return p
}

func TestRetryPolicy_SucceedsFirstAttempt(t *testing.T) {
	calls := 0

	err := instantPolicy(5).Do(func() (bool, error) {
		calls++
		return true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_SucceedsAfterRetries(t *testing.T) {
	calls := 0

	err := instantPolicy(5).Do(func() (bool, error) {
		calls++
		return calls == 3, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryPolicy_Exhausts(t *testing.T) {
	calls := 0

	err := instantPolicy(4).Do(func() (bool, error) {
		calls++
		return false, nil
	})

	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, 4, calls)
}

func TestRetryPolicy_ErrorIsTerminal(t *testing.T) {
	boom := errors.New("boom")
	calls := 0

	err := instantPolicy(5).Do(func() (bool, error) {
		calls++
		return false, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicy_ClampsAttempts(t *testing.T) {
	p := NewRetryPolicy(time.Millisecond, 0)
	assert.Equal(t, 1, p.MaxAttempts)
}

func TestRetryPolicy_SleepsBetweenAttempts(t *testing.T) {
	var sleeps []time.Duration
	p := NewRetryPolicy(25*time.Millisecond, 3)
	p.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	err := p.Do(func() (bool, error) { return false, nil })

	assert.ErrorIs(t, err, ErrRetryExhausted)
	// No sleep before the first attempt.
	assert.Equal(t, []time.Duration{25 * time.Millisecond, 25 * time.Millisecond}, sleeps)
}

func TestRetryPolicy_MaxWait(t *testing.T) {
	p := NewRetryPolicy(10*time.Second, 30)
	assert.Equal(t, 290*time.Second, p.MaxWait())

	assert.Equal(t, time.Duration(0), NewRetryPolicy(time.Second, 1).MaxWait())
}
