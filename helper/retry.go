package helper

import (
	"context"
	"errors"
	"fmt"

	"github.com/s0up4200/ibhelper/inkbunny"
)

// producer issues one remote request.
type producer[T any] func(ctx context.Context) (T, error)

// recovery repairs local state after a failure with a registered code.
// A nil producer retries the request that failed; a non-nil one replaces it.
type recovery[T any] func(ctx context.Context) (producer[T], error)

type retryState int

const (
	statePending retryState = iota
	stateRecovering
	stateDone
	stateFailed
)

func (s retryState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateRecovering:
		return "recovering"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// withRecovery runs produce until it succeeds or fails in a way no handler
// can repair. Every failure code is recovered at most once per call, so the
// number of attempts is bounded by len(handlers)+1.
func withRecovery[T any](ctx context.Context, h *Helper, operation string, produce producer[T], handlers map[int]recovery[T]) (T, error) {
	var (
		zero     T
		result   T
		err      error
		state    = statePending
		attempts = make(map[int]int, len(handlers))
	)

	for {
		h.logger.Trace().Str("operation", operation).Stringer("state", state).Msg("Request state")

		switch state {
		case statePending:
			result, err = produce(ctx)
			if err != nil {
				state = stateRecovering
			} else {
				state = stateDone
			}

		case stateRecovering:
			var apiErr *inkbunny.APIError
			if !errors.As(err, &apiErr) {
				state = stateFailed
				continue
			}
			handler, ok := handlers[apiErr.Code]
			if !ok || attempts[apiErr.Code] > 0 {
				state = stateFailed
				continue
			}
			attempts[apiErr.Code]++

			h.logger.Warn().
				Str("operation", operation).
				Int("error_code", apiErr.Code).
				Str("error_message", apiErr.Message).
				Msg("Recovering from Inkbunny API error")
			h.metrics.recovered(apiErr.Code)

			next, rerr := handler(ctx)
			if rerr != nil {
				err = fmt.Errorf("recovering from error %d: %w", apiErr.Code, rerr)
				state = stateFailed
				continue
			}
			if next != nil {
				produce = next
			}
			state = statePending

		case stateDone:
			h.metrics.request(operation, "success")
			return result, nil

		case stateFailed:
			h.metrics.request(operation, "failure")
			return zero, err
		}
	}
}

// sessionHandlers registers session renewal, which every authenticated
// call shares.
func sessionHandlers[T any](h *Helper) map[int]recovery[T] {
	return map[int]recovery[T]{
		inkbunny.CodeInvalidSession: func(ctx context.Context) (producer[T], error) {
			return nil, h.renewSession(ctx)
		},
	}
}

// renewSession logs in again with the stored credentials. Guest sessions
// start with default ratings, so a cached rating is applied again.
func (h *Helper) renewSession(ctx context.Context) error {
	h.logger.Info().Str("username", h.username).Msg("Session expired, logging in again")

	if _, err := h.login(ctx, h.username, h.password); err != nil {
		return err
	}

	if h.username == GuestUsername && h.rating != nil {
		if _, err := h.api.Rating(ctx, h.rating.request(h.sid)); err != nil {
			return fmt.Errorf("failed to reapply rating: %w", err)
		}
		h.logger.Debug().Str("mask", h.rating.Mask()).Msg("Reapplied guest rating")
	}

	return nil
}
