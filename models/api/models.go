package api

import (
	"time"
)

// UserModel represents the user data returned by the API
type UserModel struct {
	ID        string    `json:"id"`
	Email     *string   `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProviderConnectionModel represents a provider connection as returned by
// the API. Tokens themselves are never exposed - only presence flags and
// lifecycle timestamps.
type ProviderConnectionModel struct {
	ID                string     `json:"id"`
	Provider          string     `json:"provider"`
	ExternalAccountID *string    `json:"external_account_id,omitempty"`
	Connected         bool       `json:"connected"`
	TokenExpired      bool       `json:"token_expired"`
	NeedsReauth       bool       `json:"needs_reauth"`
	TokenExpiresAt    *time.Time `json:"token_expires_at,omitempty"`
	ConnectedAt       *time.Time `json:"connected_at,omitempty"`
	Scopes            *string    `json:"scopes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
