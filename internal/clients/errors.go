package clients

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies why an upstream call failed
type ErrorKind int

const (
	// KindTransport means the call could not complete (DNS, connect, timeout)
	KindTransport ErrorKind = iota
	// KindStatus means the provider answered with a non-success status
	KindStatus
	// KindShape means the body lacked the expected completion
	KindShape
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindShape:
		return "shape"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrNoCompletion is the cause of shape errors with no usable choice
var ErrNoCompletion = errors.New("response has no completion")

// UpstreamError is returned by every UpstreamClient on failure.
// Error() never contains the response body; use Detail for diagnostics.
type UpstreamError struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Kind == KindStatus:
		return fmt.Sprintf("upstream %s error (%d)", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("upstream %s error: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("upstream %s error", e.Kind)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Detail returns the upstream body when there is one, else the error description
func (e *UpstreamError) Detail() string {
	if e.Body != "" {
		return e.Body
	}
	return e.Error()
}

// Timeout reports whether the failure was a deadline expiry
func (e *UpstreamError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(e.Err, &te) && te.Timeout()
}

// AsUpstreamError returns err as *UpstreamError, treating anything unclassified
// as a transport failure
func AsUpstreamError(err error) *UpstreamError {
	if err == nil {
		return nil
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr
	}
	return &UpstreamError{Kind: KindTransport, Err: err}
}
