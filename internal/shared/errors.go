package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")

	// Transport and provider errors
	ErrNetwork            = fmt.Errorf("network request failed")
	ErrRateLimited        = fmt.Errorf("rate limit exceeded")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrMatchNotFound      = fmt.Errorf("match not found")
	ErrRunNotFound        = fmt.Errorf("run not found")

	// Pipeline errors
	ErrMapping       = fmt.Errorf("track mapping failed")
	ErrProviderWrite = fmt.Errorf("provider write failed")

	// Input validation errors
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// Kind categorizes an error for reporting and retry decisions.
type Kind string

const (
	KindAuth          Kind = "auth"
	KindNetwork       Kind = "network"
	KindRateLimit     Kind = "rate-limit"
	KindMapping       Kind = "mapping"
	KindProviderWrite Kind = "provider-write"
	KindUnknown       Kind = "unknown"
)

// Classify maps an error onto the error taxonomy. Unrecognized errors
// are KindUnknown, never dropped.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrAuthFailed), errors.Is(err, ErrNotAuthenticated), errors.Is(err, ErrTokenExpired), errors.Is(err, ErrMissingCredentials):
		return KindAuth
	case errors.Is(err, ErrRateLimited):
		return KindRateLimit
	case errors.Is(err, ErrNetwork), errors.Is(err, ErrServiceUnavailable):
		return KindNetwork
	case errors.Is(err, ErrMapping), errors.Is(err, ErrMatchNotFound):
		return KindMapping
	case errors.Is(err, ErrProviderWrite):
		return KindProviderWrite
	default:
		return KindUnknown
	}
}
