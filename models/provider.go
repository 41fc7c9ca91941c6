package models

import (
	"fmt"
	"time"
)

// Provider identifies a third-party platform a user can connect.
type Provider string

const (
	ProviderQuickBooks Provider = "quickbooks"
	ProviderFreelancer Provider = "freelancer"
)

// AllProviders lists every supported provider, used when cascading
// operations (e.g. account deletion) across all connections.
var AllProviders = []Provider{ProviderQuickBooks, ProviderFreelancer}

// ProviderSpec holds the token lifecycle parameters that differ per provider.
type ProviderSpec struct {
	// RefreshTokenLifetime is how long a refresh token stays usable,
	// measured from ConnectedAt.
	RefreshTokenLifetime time.Duration
	// DefaultTokenExpiry is the fallback access token lifetime used when a
	// token response omits expires_in.
	DefaultTokenExpiry time.Duration
	// ExpiresSoonHorizon is how far ahead of expiry a token is considered
	// "expiring soon" and eligible for proactive refresh.
	ExpiresSoonHorizon time.Duration
	// SupportsRevocation is false for providers without a revoke endpoint;
	// their tokens expire naturally after disconnect.
	SupportsRevocation bool
}

var providerSpecs = map[Provider]ProviderSpec{
	ProviderQuickBooks: {
		RefreshTokenLifetime: 180 * 24 * time.Hour,
		DefaultTokenExpiry:   30 * 24 * time.Hour,
		ExpiresSoonHorizon:   7 * 24 * time.Hour,
		SupportsRevocation:   true,
	},
	ProviderFreelancer: {
		RefreshTokenLifetime: 182 * 24 * time.Hour,
		DefaultTokenExpiry:   30 * 24 * time.Hour,
		ExpiresSoonHorizon:   7 * 24 * time.Hour,
		SupportsRevocation:   false,
	},
}

// Spec returns the lifecycle parameters for the provider.
// Panics on unknown providers - callers are expected to validate first.
func (p Provider) Spec() ProviderSpec {
	spec, ok := providerSpecs[p]
	if !ok {
		panic(fmt.Sprintf("unknown provider: %s", p))
	}
	return spec
}

// IsValid reports whether p is a supported provider.
func (p Provider) IsValid() bool {
	_, ok := providerSpecs[p]
	return ok
}

// ParseProvider converts a string (e.g. from a URL path) into a Provider.
func ParseProvider(s string) (Provider, error) {
	p := Provider(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unsupported provider: %s", s)
	}
	return p, nil
}
