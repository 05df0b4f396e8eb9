package inkbunny

import (
	"errors"
	"fmt"
)

// Error codes issued by the Inkbunny API that callers commonly inspect.
const (
	// CodeTransport is reserved for failures that never reached the remote
	// system (connection errors, unreadable or non-JSON bodies). Inkbunny
	// itself only issues non-negative codes.
	CodeTransport = -1
	// CodeInvalidLogin is returned for a wrong username/password pair.
	CodeInvalidLogin = 0
	// CodeInvalidSession is returned when the sid is unknown or expired.
	CodeInvalidSession = 2
	// CodeResultsExpired is returned when the result set behind a RID is gone.
	CodeResultsExpired = 34
	// CodeInvalidRID is returned for a RID the server does not recognise.
	CodeInvalidRID = 35
)

// ErrTransport is wrapped by every APIError carrying CodeTransport.
var ErrTransport = errors.New("inkbunny transport failure")

// APIError represents a failed Inkbunny API call
type APIError struct {
	Code    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("inkbunny API error: [%d] - %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether the call failed before a remote response was obtained
func (e *APIError) IsTransport() bool {
	return e.Code == CodeTransport
}

// IsSessionInvalid reports whether the session id was rejected
func (e *APIError) IsSessionInvalid() bool {
	return e.Code == CodeInvalidSession
}

// IsResultSetInvalid reports whether the result-set id was unusable
func (e *APIError) IsResultSetInvalid() bool {
	return e.Code == CodeResultsExpired || e.Code == CodeInvalidRID
}

func transportError(err error) *APIError {
	return &APIError{
		Code:    CodeTransport,
		Message: err.Error(),
		Err:     fmt.Errorf("%w: %w", ErrTransport, err),
	}
}
