package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/ZanzyTHEbar/tender-integrity/internal/errors"
)

// Backoff selects how the delay grows between attempts
type Backoff string

const (
	// BackoffLinear waits InitialDelay × attempt, the scheduler policy for tender jobs
	BackoffLinear Backoff = "linear"
	// BackoffExponential waits InitialDelay × BackoffFactor^(attempt-1)
	BackoffExponential Backoff = "exponential"
)

// RetryConfig holds configuration for retry behavior
type RetryConfig struct {
	MaxAttempts     int              `json:"max_attempts"`
	InitialDelay    time.Duration    `json:"initial_delay"`
	MaxDelay        time.Duration    `json:"max_delay"`
	Backoff         Backoff          `json:"backoff"`
	BackoffFactor   float64          `json:"backoff_factor"`
	JitterEnabled   bool             `json:"jitter_enabled"`
	RetryableErrors func(error) bool `json:"-"`
	// OnRetry is called before each wait with the attempt that just failed
	OnRetry func(attempt int, err error, delay time.Duration) `json:"-"`
}

// DefaultRetryConfig returns the job scheduler defaults: 3 attempts, 60s × attempt
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    60 * time.Second,
		MaxDelay:        10 * time.Minute,
		Backoff:         BackoffLinear,
		BackoffFactor:   2.0,
		RetryableErrors: errors.IsRetryableError,
	}
}

// RetryableFunc receives the 1-based attempt number
type RetryableFunc func(attempt int) error

// RetryWithConfig executes fn until it succeeds, returns a non-retryable
// error, runs out of attempts or ctx is done. The last error is returned.
func RetryWithConfig(ctx context.Context, config RetryConfig, fn RetryableFunc) error {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	retryable := config.RetryableErrors
	if retryable == nil {
		retryable = errors.IsRetryableError
	}

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable(err) || attempt == config.MaxAttempts {
			break
		}

		delay := Delay(config, attempt)
		if config.OnRetry != nil {
			config.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}

	return lastErr
}

// Retry executes fn with the default configuration
func Retry(ctx context.Context, fn RetryableFunc) error {
	return RetryWithConfig(ctx, DefaultRetryConfig(), fn)
}

// Delay computes the wait after the given failed attempt (1-based)
func Delay(config RetryConfig, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	var delay time.Duration
	switch config.Backoff {
	case BackoffExponential:
		delay = time.Duration(float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt-1)))
	default:
		delay = config.InitialDelay * time.Duration(attempt)
	}

	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	// Up to 10% jitter
	if config.JitterEnabled && delay >= 10 {
		delay += time.Duration(rand.Int63n(int64(delay / 10)))
	}

	return delay
}
