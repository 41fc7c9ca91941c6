package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func testConnection(provider Provider, expiresAt, connectedAt time.Time) *ProviderConnection {
	return &ProviderConnection{
		ID:                "pc_01234567890123456789012345",
		UserID:            "u_01234567890123456789012345",
		Provider:          provider,
		ExternalAccountID: strPtr("acct-123"),
		AccessToken:       strPtr("access-token"),
		RefreshToken:      strPtr("refresh-token"),
		TokenExpiresAt:    timePtr(expiresAt),
		ConnectedAt:       timePtr(connectedAt),
	}
}

func TestProviderConnection_Expired(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt *time.Time
		expected  bool
	}{
		{
			name:      "expiry in the future - not expired",
			expiresAt: timePtr(now.Add(time.Hour)),
			expected:  false,
		},
		{
			name:      "expiry exactly now - expired",
			expiresAt: timePtr(now),
			expected:  true,
		},
		{
			name:      "expiry one second ago - expired",
			expiresAt: timePtr(now.Add(-time.Second)),
			expected:  true,
		},
		{
			name:      "no recorded expiry - not expired",
			expiresAt: nil,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := testConnection(ProviderQuickBooks, now, now)
			conn.TokenExpiresAt = tt.expiresAt

			assert.Equal(t, tt.expected, conn.Expired(now))
			// Valid must be the exact complement of Expired for a connected
			// record - no window where a token is both valid and expired
			assert.Equal(t, !tt.expected, conn.Valid(now))
		})
	}
}

func TestProviderConnection_RefreshTokenExpired_Boundary(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	for _, provider := range AllProviders {
		lifetime := provider.Spec().RefreshTokenLifetime

		t.Run(string(provider), func(t *testing.T) {
			// Connected exactly one lifetime ago: the window just closed
			conn := testConnection(provider, now.Add(time.Hour), now.Add(-lifetime))
			assert.True(t, conn.RefreshTokenExpired(now, lifetime))
			assert.False(t, conn.CanRefresh(now, lifetime))

			// One second inside the window: still refreshable
			conn = testConnection(provider, now.Add(time.Hour), now.Add(-lifetime).Add(time.Second))
			assert.False(t, conn.RefreshTokenExpired(now, lifetime))
			assert.True(t, conn.CanRefresh(now, lifetime))
		})
	}
}

func TestProviderConnection_RefreshTokenExpired_MissingFields(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	lifetime := ProviderQuickBooks.Spec().RefreshTokenLifetime

	conn := testConnection(ProviderQuickBooks, now.Add(time.Hour), now)
	conn.RefreshToken = nil
	assert.True(t, conn.RefreshTokenExpired(now, lifetime))
	assert.False(t, conn.CanRefresh(now, lifetime))

	conn = testConnection(ProviderQuickBooks, now.Add(time.Hour), now)
	conn.ConnectedAt = nil
	assert.True(t, conn.RefreshTokenExpired(now, lifetime))
}

func TestProviderConnection_Connected(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	conn := testConnection(ProviderFreelancer, now.Add(time.Hour), now)
	assert.True(t, conn.Connected())

	// Identity without a credential is not connected
	conn.AccessToken = nil
	assert.False(t, conn.Connected())

	// Credential without an identity is not connected either
	conn = testConnection(ProviderFreelancer, now.Add(time.Hour), now)
	conn.ExternalAccountID = strPtr("")
	assert.False(t, conn.Connected())
}

func TestProviderConnection_NeedsRefresh(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	horizon := ProviderQuickBooks.Spec().ExpiresSoonHorizon

	tests := []struct {
		name      string
		expiresAt time.Time
		expected  bool
	}{
		{
			name:      "expires beyond horizon - no refresh",
			expiresAt: now.Add(horizon + time.Hour),
			expected:  false,
		},
		{
			name:      "expires within horizon - refresh",
			expiresAt: now.Add(horizon - time.Hour),
			expected:  true,
		},
		{
			name:      "already expired - refresh",
			expiresAt: now.Add(-time.Hour),
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := testConnection(ProviderQuickBooks, tt.expiresAt, now)
			assert.Equal(t, tt.expected, conn.NeedsRefresh(now, horizon))
		})
	}
}
