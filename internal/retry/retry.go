// Package retry provides a bounded attempt loop with a fixed pause, used for
// flaky page interactions such as candidate clicks.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Config defines retry behavior.
type Config struct {
	MaxAttempts int           // total attempts, including the first
	Pause       time.Duration // fixed pause between attempts
}

// Do executes fn until it succeeds, attempts are exhausted, or the context is
// done.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 0 {
				log.Debug().Int("attempts", attempt+1).Msg("retry succeeded")
			}
			return nil
		}
		lastErr = err

		if attempt < cfg.MaxAttempts-1 {
			log.Debug().
				Int("attempt", attempt+1).
				Int("max_attempts", cfg.MaxAttempts).
				Err(err).
				Msg("retrying after pause")

			select {
			case <-time.After(cfg.Pause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
