package clients

import (
	"context"
)

// OAuthTokens is the normalized result of a provider token-endpoint call
// (authorization-code exchange or refresh).
type OAuthTokens struct {
	AccessToken string
	// RefreshToken is empty when the provider did not rotate it; callers
	// must retain the previous refresh token in that case.
	RefreshToken string
	// ExpiresIn is seconds-from-now; 0 when the provider omitted it, in
	// which case callers apply the provider's default expiry.
	ExpiresIn int
	// Scope is the space-delimited granted scopes, when the provider
	// reports them.
	Scope string
}

// ResourceRequest describes an authenticated resource call. Path is relative
// to the client's API base URL and may include a query string.
type ResourceRequest struct {
	Method string
	Path   string
	Body   []byte
}

// ResourceResponse carries the provider's answer. Non-2xx statuses are
// returned here rather than as errors - the caller decides whether a 401
// warrants a refresh-and-retry.
type ResourceResponse struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the response status is in the 2xx range.
func (r *ResourceResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ProviderClient defines the interface for one OAuth provider: token
// endpoint operations plus authenticated resource calls.
type ProviderClient interface {
	// ExchangeCode exchanges an authorization code for tokens.
	ExchangeCode(ctx context.Context, code string) (*OAuthTokens, error)

	// RefreshTokens mints a new access token from a refresh token.
	RefreshTokens(ctx context.Context, refreshToken string) (*OAuthTokens, error)

	// RevokeToken asks the provider to revoke the refresh token. An error
	// means "could not revoke" and is advisory - callers treat revocation
	// as best-effort.
	RevokeToken(ctx context.Context, refreshToken string) error

	// FetchExternalAccountID resolves the provider-side account identity
	// for the token's owner. Providers that deliver the identity out of
	// band (e.g. QuickBooks realm id on the OAuth callback) return an
	// error here.
	FetchExternalAccountID(ctx context.Context, accessToken string) (string, error)

	// Do issues an authenticated resource call, attaching the access token
	// using the provider's auth scheme. Only transport failures are
	// errors; HTTP error statuses come back in the response.
	Do(ctx context.Context, accessToken string, req ResourceRequest) (*ResourceResponse, error)
}
