package vision

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
)

// DefaultAttempts is the number of calls an engine makes before giving up.
const DefaultAttempts = 3

// Retry runs call with exponential backoff until it succeeds, returns a
// retry.Unrecoverable error, runs out of attempts or ctx ends.
func Retry(ctx context.Context, engine string, attempts uint, call func() error) error {
	if attempts == 0 {
		attempts = 1
	}
	logger := zerolog.Ctx(ctx)
	return retry.Do(
		call,
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn().Err(err).Uint("attempt", n+1).Str("engine", engine).Msg("vision retry")
		}),
	)
}
