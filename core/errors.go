package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

// ErrAuthorizationRequired signals that a connection has no usable credential
// and no way to refresh - the user must reauthorize interactively.
// Never retried automatically.
var ErrAuthorizationRequired = errors.New("authorization required")

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// TokenExchangeError is returned when a provider's token endpoint rejects an
// authorization-code exchange. Non-retriable within the same call.
type TokenExchangeError struct {
	Provider string
	Err      error
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("%s token exchange failed: %v", e.Provider, e.Err)
}

func (e *TokenExchangeError) Unwrap() error { return e.Err }

// RefreshError is returned when a provider's token endpoint rejects a
// refresh request (revoked consent, expired refresh token, malformed
// request). Non-retriable within the same call; callers may notify the user
// to reauthorize.
type RefreshError struct {
	Provider string
	Err      error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%s token refresh failed: %v", e.Provider, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// ProviderAPIError is returned when an authenticated resource call fails for
// a reason other than a refreshable 401 - rate limits, 5xx, malformed
// payloads. StatusCode is the HTTP status the provider answered with.
type ProviderAPIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderAPIError) Error() string {
	return fmt.Sprintf("%s API error: status %d, body: %s", e.Provider, e.StatusCode, e.Body)
}

// IsUnauthorized reports whether the provider answered 401, the only status
// that triggers a reactive refresh.
func (e *ProviderAPIError) IsUnauthorized() bool {
	return e.StatusCode == 401
}
