package models

import (
	"time"
)

// ProviderConnection is the per-user OAuth state for one provider.
// Token fields are nullable as a group: a disconnected row has all of
// ExternalAccountID, AccessToken, RefreshToken, TokenExpiresAt and
// ConnectedAt absent, never a subset.
type ProviderConnection struct {
	ID                string     `db:"id"                  json:"id"`
	UserID            string     `db:"user_id"             json:"user_id"`
	Provider          Provider   `db:"provider"            json:"provider"`
	ExternalAccountID *string    `db:"external_account_id" json:"external_account_id"`
	AccessToken       *string    `db:"access_token"        json:"-"`
	RefreshToken      *string    `db:"refresh_token"       json:"-"`
	TokenExpiresAt    *time.Time `db:"token_expires_at"    json:"token_expires_at"`
	ConnectedAt       *time.Time `db:"connected_at"        json:"connected_at"`
	Scopes            *string    `db:"scopes"              json:"scopes"`
	CreatedAt         time.Time  `db:"created_at"          json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"          json:"updated_at"`
}

// Connected reports whether the connection holds both an external account
// identity and an access token. Credential presence alone is not enough.
func (c *ProviderConnection) Connected() bool {
	return c.ExternalAccountID != nil && *c.ExternalAccountID != "" &&
		c.AccessToken != nil && *c.AccessToken != ""
}

// Expired reports whether the access token expiry has passed. A connection
// with no recorded expiry is treated as not expired - the expiry timestamp
// may legitimately be absent right after connect.
func (c *ProviderConnection) Expired(now time.Time) bool {
	if c.TokenExpiresAt == nil {
		return false
	}
	return !c.TokenExpiresAt.After(now)
}

// Valid reports whether the connection can be used for an API call as-is.
func (c *ProviderConnection) Valid(now time.Time) bool {
	return c.Connected() && !c.Expired(now)
}

// ExpiresSoon reports whether the access token expires within horizon.
func (c *ProviderConnection) ExpiresSoon(now time.Time, horizon time.Duration) bool {
	if c.TokenExpiresAt == nil {
		return false
	}
	return !c.TokenExpiresAt.After(now.Add(horizon))
}

// RefreshTokenExpired reports whether the refresh token itself is no longer
// usable. The lifetime window is anchored at ConnectedAt, not at the access
// token expiry; a missing refresh token or ConnectedAt counts as expired.
func (c *ProviderConnection) RefreshTokenExpired(now time.Time, lifetime time.Duration) bool {
	if c.RefreshToken == nil || *c.RefreshToken == "" {
		return true
	}
	if c.ConnectedAt == nil {
		return true
	}
	return !c.ConnectedAt.After(now.Add(-lifetime))
}

// CanRefresh reports whether a refresh attempt is worth making.
func (c *ProviderConnection) CanRefresh(now time.Time, lifetime time.Duration) bool {
	if c.RefreshToken == nil || *c.RefreshToken == "" {
		return false
	}
	return !c.RefreshTokenExpired(now, lifetime)
}

// NeedsRefresh reports whether a refresh should run before using the
// connection: the access token is already expired or expires within horizon.
func (c *ProviderConnection) NeedsRefresh(now time.Time, horizon time.Duration) bool {
	return c.Connected() && (c.Expired(now) || c.ExpiresSoon(now, horizon))
}
