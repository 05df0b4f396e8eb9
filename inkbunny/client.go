package inkbunny

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public Inkbunny site.
const DefaultBaseURL = "https://inkbunny.net"

const (
	endpointLogin       = "/api_login.php"
	endpointLogout      = "/api_logout.php"
	endpointRating      = "/api_userrating.php"
	endpointSearch      = "/api_search.php"
	endpointSubmissions = "/api_submissions.php"
)

// ErrInvalidConfig indicates invalid client configuration
var ErrInvalidConfig = errors.New("invalid inkbunny client configuration")

// Client represents an Inkbunny API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new Inkbunny client. Unlike most clients no connection
// test is made, since every endpoint except login needs a session.
func NewClient(logger zerolog.Logger, opts ...Option) (*Client, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	baseURL := strings.TrimRight(o.baseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: malformed base URL %q", ErrInvalidConfig, o.baseURL)
	}
	if o.timeout < 0 {
		return nil, fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	}

	var httpClient http.Client
	if o.httpClient != nil {
		httpClient = *o.httpClient
	} else {
		httpClient.Timeout = o.timeout
	}

	transport := httpClient.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if o.userAgent != "" {
		transport = userAgent{value: o.userAgent, base: transport}
	}
	if o.throttle != nil {
		rt, err := newThrottle(o.throttle.rps, o.throttle.burst, logger, transport)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		transport = rt
	}
	httpClient.Transport = transport

	return &Client{
		baseURL:    baseURL,
		httpClient: &httpClient,
		logger:     logger,
	}, nil
}

// Login opens a session. Use username "guest" with an empty password for
// anonymous access.
func (c *Client) Login(ctx context.Context, params LoginRequest) (*LoginResponse, error) {
	return post[LoginResponse](ctx, c, endpointLogin, params)
}

// Logout invalidates a session
func (c *Client) Logout(ctx context.Context, params LogoutRequest) (*LogoutResponse, error) {
	return post[LogoutResponse](ctx, c, endpointLogout, params)
}

// Rating changes the content ratings a session may see
func (c *Client) Rating(ctx context.Context, params RatingRequest) (*RatingResponse, error) {
	return post[RatingResponse](ctx, c, endpointRating, params)
}

// Search runs a fresh search
func (c *Client) Search(ctx context.Context, params SearchRequest) (*SearchResponse, error) {
	return post[SearchResponse](ctx, c, endpointSearch, params)
}

// SearchRID fetches a page of an existing result set
func (c *Client) SearchRID(ctx context.Context, params SearchRIDRequest) (*SearchResponse, error) {
	return post[SearchResponse](ctx, c, endpointSearch, params)
}

// Submissions fetches full records for a comma separated list of submission ids
func (c *Client) Submissions(ctx context.Context, params SubmissionsRequest) (*SubmissionsResponse, error) {
	return post[SubmissionsResponse](ctx, c, endpointSubmissions, params)
}

func post[T any](ctx context.Context, c *Client, endpoint string, params any) (*T, error) {
	var out T
	if err := c.doRequest(ctx, endpoint, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// doRequest sends params as the query string of a POST and decodes the JSON
// answer into dest
func (c *Client) doRequest(ctx context.Context, endpoint string, params, dest any) error {
	values, err := EncodeQuery(params)
	if err != nil {
		return fmt.Errorf("failed to encode %s parameters: %w", endpoint, err)
	}

	requestURL := c.baseURL + endpoint + "?" + values.Encode()

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("query", redact(values).Encode()).
		Msg("Making Inkbunny API request")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, nil)
	if err != nil {
		return transportError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(fmt.Errorf("failed to read response body: %w", err))
	}

	if err := decodeResponse(body, dest); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.IsTransport() {
			c.logger.Debug().
				Str("endpoint", endpoint).
				Int("error_code", apiErr.Code).
				Str("error_message", apiErr.Message).
				Msg("Inkbunny API returned an error")
		}
		return err
	}
	return nil
}

// EncodeQuery converts a request struct into query parameters. Zero-valued
// optional fields are left out and output_mode=json is always present.
func EncodeQuery(params any) (url.Values, error) {
	values, err := query.Values(params)
	if err != nil {
		return nil, err
	}
	values.Set("output_mode", "json")
	return values, nil
}

// decodeResponse fails with an APIError whenever the payload carries an
// error_code field, whatever its value.
func decodeResponse(body []byte, dest any) error {
	var envelope struct {
		ErrorCode    json.RawMessage `json:"error_code"`
		ErrorMessage string          `json:"error_message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return transportError(fmt.Errorf("failed to parse response: %w", err))
	}

	if len(envelope.ErrorCode) > 0 && string(envelope.ErrorCode) != "null" {
		var code FlexInt
		if err := code.UnmarshalJSON(envelope.ErrorCode); err != nil {
			return transportError(fmt.Errorf("failed to parse error code: %w", err))
		}
		return &APIError{
			Code:    int(code),
			Message: envelope.ErrorMessage,
		}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return transportError(fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}

func redact(values url.Values) url.Values {
	if values.Get("password") == "" {
		return values
	}
	out := make(url.Values, len(values))
	for k, v := range values {
		out[k] = v
	}
	out.Set("password", "***")
	return out
}
