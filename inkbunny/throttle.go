package inkbunny

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	// ErrThrottleMustNotBeZero indicates a throttle rate or burst below 1
	ErrThrottleMustNotBeZero = errors.New("must be greater than zero")
	// ErrThrottleWait indicates the request was cancelled while waiting for a token
	ErrThrottleWait = errors.New("limiter waiting failed")
)

// throttle is an http.RoundTripper, using the time/rate token
// bucket limiter to restrict outbound calls.
type throttle struct {
	limiter *rate.Limiter
	rps     int
	burst   int
	next    http.RoundTripper
	logger  zerolog.Logger
}

func newThrottle(rps, burst int, logger zerolog.Logger, next http.RoundTripper) (http.RoundTripper, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("throttle rps[%d] and burst[%d] %w", rps, burst, ErrThrottleMustNotBeZero)
	}

	return &throttle{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		rps:     rps,
		burst:   burst,
		next:    next,
		logger:  logger,
	}, nil
}

func (t *throttle) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if t.limiter.Tokens() < 1 {
		start := time.Now()
		defer func() {
			t.logger.Debug().
				Dur("waited", time.Since(start)).
				Int("rate", t.rps).
				Int("burst", t.burst).
				Str("path", r.URL.Path).
				Msg("Throttle wait complete")
		}()
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrThrottleWait, err)
	}

	return t.next.RoundTrip(r)
}
