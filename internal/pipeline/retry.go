package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/clipup/internal/failure"
)

// Sleeper waits for d or until ctx is done, whichever comes first.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// attemptFunc performs one try. attempt is 1-based.
type attemptFunc func(ctx context.Context, attempt int) error

// retry runs op until it succeeds, returns a non-transient error, or has been
// tried maxAttempts times. The delay between tries is fixed. It returns the
// number of tries made and the last error.
func retry(ctx context.Context, maxAttempts int, backoff time.Duration, sleep Sleeper, op attemptFunc) (int, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, fmt.Errorf("cancelled before attempt %d: %w", attempt, err)
		}

		err := op(ctx, attempt)
		if err == nil {
			if attempt > 1 {
				slog.Info("upload succeeded after retry", "attempts", attempt)
			}
			return attempt, nil
		}
		lastErr = err

		if !failure.IsRetryable(err) {
			slog.Warn("upload failed, not retrying", "attempt", attempt, "kind", failure.KindOf(err), "err", err)
			return attempt, err
		}

		// No sleep after the last attempt.
		if attempt == maxAttempts {
			break
		}

		slog.Warn("upload failed, retrying",
			"attempt", attempt, "max_attempts", maxAttempts, "backoff", backoff, "err", err)
		if err := sleep(ctx, backoff); err != nil {
			return attempt, fmt.Errorf("cancelled during retry backoff: %w", err)
		}
	}
	return maxAttempts, lastErr
}
