package api

import (
	"time"

	"gbbackend/models"
)

// DomainUserToAPIUser converts a domain User model to an API UserModel
func DomainUserToAPIUser(domainUser *models.User) *UserModel {
	if domainUser == nil {
		return nil
	}

	return &UserModel{
		ID:        domainUser.ID,
		Email:     domainUser.Email,
		CreatedAt: domainUser.CreatedAt,
		UpdatedAt: domainUser.UpdatedAt,
	}
}

// DomainConnectionToAPIConnection converts a domain ProviderConnection to
// its API representation, deriving the lifecycle flags at the given time.
func DomainConnectionToAPIConnection(conn *models.ProviderConnection, now time.Time) *ProviderConnectionModel {
	if conn == nil {
		return nil
	}

	spec := conn.Provider.Spec()
	return &ProviderConnectionModel{
		ID:                conn.ID,
		Provider:          string(conn.Provider),
		ExternalAccountID: conn.ExternalAccountID,
		Connected:         conn.Connected(),
		TokenExpired:      conn.Expired(now),
		NeedsReauth:       conn.Connected() && !conn.CanRefresh(now, spec.RefreshTokenLifetime) && conn.Expired(now),
		TokenExpiresAt:    conn.TokenExpiresAt,
		ConnectedAt:       conn.ConnectedAt,
		Scopes:            conn.Scopes,
		CreatedAt:         conn.CreatedAt,
		UpdatedAt:         conn.UpdatedAt,
	}
}

// DomainConnectionsToAPIConnections converts a slice of domain connections
func DomainConnectionsToAPIConnections(conns []*models.ProviderConnection, now time.Time) []*ProviderConnectionModel {
	apiConns := make([]*ProviderConnectionModel, 0, len(conns))
	for _, conn := range conns {
		apiConns = append(apiConns, DomainConnectionToAPIConnection(conn, now))
	}
	return apiConns
}
