package inkbunny

import (
	"context"
)

// API defines the interface for Inkbunny operations
type API interface {
	// Login opens a session and reports its rating mask
	Login(ctx context.Context, params LoginRequest) (*LoginResponse, error)

	// Logout invalidates a session
	Logout(ctx context.Context, params LogoutRequest) (*LogoutResponse, error)

	// Rating updates the content ratings of a session
	Rating(ctx context.Context, params RatingRequest) (*RatingResponse, error)

	// Search runs a fresh search
	Search(ctx context.Context, params SearchRequest) (*SearchResponse, error)

	// SearchRID pages through an existing result set
	SearchRID(ctx context.Context, params SearchRIDRequest) (*SearchResponse, error)

	// Submissions fetches full submission records
	Submissions(ctx context.Context, params SubmissionsRequest) (*SubmissionsResponse, error)
}

var _ API = (*Client)(nil)
