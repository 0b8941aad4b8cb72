package domain

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when a request carries no valid credentials.
var ErrUnauthenticated = errors.New("user not authenticated")

// ConfigurationError reports a missing or invalid required setting.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("configuration: %s is not set", e.Setting)
	}
	return fmt.Sprintf("configuration: %s %s", e.Setting, e.Reason)
}

// UpstreamError reports a failed call to the news search API.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Provider == "" {
		return "upstream: " + msg
	}
	return fmt.Sprintf("upstream %s: %s", e.Provider, msg)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsUpstream reports whether err is, or wraps, an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// IsConfiguration reports whether err is, or wraps, a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
