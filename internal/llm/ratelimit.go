package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Epistemic-Technology/pdf-sections-mcp/internal/logger"
)

const (
	// Sustained token budget shared by every suggestion request in the process.
	tokensPerSecond = 30000
	burstTokens     = 60000

	// Rough cost of one sampled page once it is in the prompt.
	estimatedTokensPerPage = 400
	// Fixed overhead for the instructions and the structured response.
	promptOverheadTokens = 1000

	maxRetries     = 5
	baseRetryDelay = 1 * time.Second
	maxRetryDelay  = 32 * time.Second
)

var openAIRateLimiter = rate.NewLimiter(rate.Limit(tokensPerSecond), burstTokens)

// RateLimitedCall waits for the shared limiter, then calls fn, retrying
// with exponential backoff while the error looks like a 429.
func RateLimitedCall[T any](ctx context.Context, estimatedTokens int, log logger.Logger, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if estimatedTokens > burstTokens {
		estimatedTokens = burstTokens
	}
	if err := openAIRateLimiter.WaitN(ctx, estimatedTokens); err != nil {
		return zero, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(attempt)
			log.Info("Retry attempt %d/%d after %v delay", attempt, maxRetries, delay)

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			}
		}

		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				log.Info("Retry succeeded on attempt %d", attempt)
			}
			return result, nil
		}
		lastErr = err

		if !isRateLimitError(err) {
			return zero, err
		}
		log.Warn("Rate limit error (429) on attempt %d/%d: %v", attempt+1, maxRetries+1, err)
	}

	return zero, fmt.Errorf("max retries (%d) exceeded, last error: %w", maxRetries, lastErr)
}

// backoff returns the delay before the given retry attempt (1-based).
func backoff(attempt int) time.Duration {
	delay := baseRetryDelay << (attempt - 1)
	if delay <= 0 || delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}

var rateLimitMarkers = []string{"429", "rate limit", "rate_limit_exceeded", "Too Many Requests"}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
