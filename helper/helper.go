package helper

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/s0up4200/ibhelper/inkbunny"
)

// GuestUsername is the anonymous identity. It logs in with an empty password.
const GuestUsername = "guest"

const guestWarning = "Using the API as guest user is significantly slower! Use proper credentials instead!"

// Common errors
var (
	// ErrNoSession indicates a session-bound operation was called before Login
	// or after Logout
	ErrNoSession = errors.New("no active session")
	// ErrInvalidRID indicates a page was requested from a search that never
	// issued a result-set id
	ErrInvalidRID = errors.New("invalid result-set id")
	// ErrNoPage indicates the search carries no page number to move from, or
	// the requested page would be below 1
	ErrNoPage = errors.New("no page to move to")
	// ErrNoSubmissionIDs indicates Details was called without ids
	ErrNoSubmissionIDs = errors.New("at least one submission id is required")
	// ErrNoTags indicates SearchTags was called without a usable tag
	ErrNoTags = errors.New("at least one tag is required")
)

// Helper keeps an Inkbunny session and runs every authenticated call through
// a shared recovery policy. Operations on one Helper are serialized; use one
// Helper per concurrent session.
type Helper struct {
	api     inkbunny.API
	logger  zerolog.Logger
	metrics *metrics
	sem     *semaphore.Weighted

	sid      string
	username string
	password string
	rating   *Rating
}

// Option configures a Helper.
type Option func(*Helper)

// WithMetrics registers request and recovery counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(h *Helper) {
		h.metrics = newMetrics(reg)
	}
}

// New creates a Helper on top of api
func New(api inkbunny.API, logger zerolog.Logger, opts ...Option) *Helper {
	h := &Helper{
		api:    api,
		logger: logger,
		sem:    semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// LoginResult is the login response with its decoded rating
type LoginResult struct {
	inkbunny.LoginResponse
	Rating Rating `json:"rating"`
}

// SessionID returns the current session id, or "" when logged out.
// Like every accessor it must not race with an operation in flight.
func (h *Helper) SessionID() string {
	return h.sid
}

// Username returns the identity of the current session
func (h *Helper) Username() string {
	return h.username
}

// CachedRating returns the last rating applied through Rating, if any
func (h *Helper) CachedRating() (Rating, bool) {
	if h.rating == nil {
		return Rating{}, false
	}
	return *h.rating, true
}

// Login opens a new session, replacing any previous one. An empty username
// logs in as guest, which works but is noticeably slower.
func (h *Helper) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	release, err := h.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if username == "" {
		username, password = GuestUsername, ""
	}
	if username == GuestUsername {
		h.logger.Warn().Msg(guestWarning)
	}

	result, err := h.login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	h.rating = nil
	return result, nil
}

func (h *Helper) login(ctx context.Context, username, password string) (*LoginResult, error) {
	resp, err := withRecovery(ctx, h, "login", func(ctx context.Context) (*inkbunny.LoginResponse, error) {
		return h.api.Login(ctx, inkbunny.LoginRequest{Username: username, Password: password})
	}, nil)
	if err != nil {
		return nil, err
	}

	h.sid = resp.SID
	h.username = username
	h.password = password

	h.logger.Debug().
		Str("username", username).
		Str("user_id", resp.UserID).
		Str("ratingsmask", resp.RatingsMask).
		Msg("Logged in to Inkbunny")

	return &LoginResult{
		LoginResponse: *resp,
		Rating:        ParseRating(resp.RatingsMask),
	}, nil
}

// Logout invalidates the session. Local session state is cleared even when
// the remote call fails.
func (h *Helper) Logout(ctx context.Context) (*inkbunny.LogoutResponse, error) {
	release, err := h.acquire(ctx)
	if err != nil {
		// the caller gave up; wait for the slot anyway to drop the session
		if release, lerr := h.acquire(context.WithoutCancel(ctx)); lerr == nil {
			h.clearSession()
			release()
		}
		return nil, err
	}
	defer release()

	if h.sid == "" {
		return nil, ErrNoSession
	}
	defer h.clearSession()

	resp, err := withRecovery(ctx, h, "logout", func(ctx context.Context) (*inkbunny.LogoutResponse, error) {
		return h.api.Logout(ctx, inkbunny.LogoutRequest{SID: h.sid})
	}, sessionHandlers[*inkbunny.LogoutResponse](h))
	if err != nil {
		return nil, fmt.Errorf("logout failed: %w", err)
	}
	return resp, nil
}

// Rating changes which content classes the session may see. The rating is
// remembered so it survives an automatic guest re-login.
func (h *Helper) Rating(ctx context.Context, rating Rating) (*inkbunny.RatingResponse, error) {
	release, err := h.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if h.sid == "" {
		return nil, ErrNoSession
	}

	resp, err := withRecovery(ctx, h, "rating", func(ctx context.Context) (*inkbunny.RatingResponse, error) {
		return h.api.Rating(ctx, rating.request(h.sid))
	}, sessionHandlers[*inkbunny.RatingResponse](h))
	if err != nil {
		return nil, fmt.Errorf("rating update failed: %w", err)
	}

	h.rating = &rating
	return resp, nil
}

func (h *Helper) clearSession() {
	h.sid = ""
	h.username = ""
	h.password = ""
	h.rating = nil
}

// acquire takes the single operation slot
func (h *Helper) acquire(ctx context.Context) (func(), error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for helper: %w", err)
	}
	return func() { h.sem.Release(1) }, nil
}
