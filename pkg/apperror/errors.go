package apperror

import (
	"errors"
	"fmt"
)

// MaxDetail caps how much of an upstream error body we keep for diagnostics.
const MaxDetail = 512

// ConfigurationError indicates a required connection parameter is missing.
// It is fatal for the request and never retried.
type ConfigurationError struct {
	Param string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s is not set", e.Param)
}

// NewConfiguration creates a ConfigurationError for the given parameter name.
func NewConfiguration(param string) error {
	return &ConfigurationError{Param: param}
}

// UpstreamError indicates the backend returned a non-success status or a
// malformed required field. Detail holds the (truncated) raw backend body
// for logs; it must not be shown verbatim to the end user.
type UpstreamError struct {
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("upstream error: status %d", e.Status)
	}
	return fmt.Sprintf("upstream error: status %d: %s", e.Status, e.Detail)
}

// NewUpstream creates an UpstreamError, truncating detail to MaxDetail bytes.
func NewUpstream(status int, detail string) error {
	if len(detail) > MaxDetail {
		detail = detail[:MaxDetail]
	}
	return &UpstreamError{Status: status, Detail: detail}
}

// NotFoundError indicates reference metadata is absent upstream.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// NewNotFound creates a NotFoundError for the given resource kind and id.
func NewNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// StreamParseError marks a single malformed stream frame. It is recovered
// locally by skipping the frame and never aborts the stream.
type StreamParseError struct {
	Line string
}

func (e *StreamParseError) Error() string {
	return fmt.Sprintf("malformed stream frame: %q", e.Line)
}

// IsConfiguration reports whether err is a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsUpstream reports whether err is an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
