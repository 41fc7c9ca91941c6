package connections

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/samber/mo"

	"gbbackend/clients"
	"gbbackend/core"
	"gbbackend/models"
	"gbbackend/services"
)

// ConnectionsRepository defines the persistence operations the service needs
type ConnectionsRepository interface {
	CreateConnection(ctx context.Context, conn *models.ProviderConnection) error
	GetConnection(
		ctx context.Context,
		userID string,
		provider models.Provider,
	) (mo.Option[*models.ProviderConnection], error)
	GetConnectionsByUserID(ctx context.Context, userID string) ([]*models.ProviderConnection, error)
	UpdateConnectionTokens(ctx context.Context, conn *models.ProviderConnection) error
	ClearConnection(ctx context.Context, userID string, provider models.Provider) error
	GetConnectionsNeedingRefresh(
		ctx context.Context,
		provider models.Provider,
		soonestExpiry time.Time,
		oldestConnectedAt time.Time,
	) ([]*models.ProviderConnection, error)
	GetConnectionsRequiringReauth(
		ctx context.Context,
		provider models.Provider,
		oldestConnectedAt time.Time,
	) ([]*models.ProviderConnection, error)
}

type ConnectionsService struct {
	connectionsRepo ConnectionsRepository
	providerClients map[models.Provider]clients.ProviderClient
	notifier        services.ReauthNotifier

	// nowFn is swapped out in tests to pin lifecycle boundaries
	nowFn func() time.Time
}

func NewConnectionsService(
	repo ConnectionsRepository,
	providerClients map[models.Provider]clients.ProviderClient,
	notifier services.ReauthNotifier,
) *ConnectionsService {
	return &ConnectionsService{
		connectionsRepo: repo,
		providerClients: providerClients,
		notifier:        notifier,
		nowFn:           time.Now,
	}
}

func (s *ConnectionsService) clientFor(provider models.Provider) (clients.ProviderClient, error) {
	client, ok := s.providerClients[provider]
	if !ok {
		return nil, fmt.Errorf("no client configured for provider: %s", provider)
	}
	return client, nil
}

// ConnectProvider exchanges an authorization code for tokens and persists
// the resulting connection. Reconnecting an already-connected provider
// replaces the credential field group.
func (s *ConnectionsService) ConnectProvider(
	ctx context.Context,
	userID string,
	provider models.Provider,
	code string,
	externalAccountID *string,
) (*models.ProviderConnection, error) {
	log.Printf("📋 Starting to connect provider %s for user: %s", provider, userID)

	if !core.IsValidULID(userID) {
		return nil, fmt.Errorf("user ID must be a valid ULID")
	}
	if !provider.IsValid() {
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	if code == "" {
		return nil, fmt.Errorf("authorization code cannot be empty")
	}

	client, err := s.clientFor(provider)
	if err != nil {
		return nil, err
	}

	log.Printf("📋 Exchanging authorization code for tokens")
	tokens, err := client.ExchangeCode(ctx, code)
	if err != nil {
		return nil, &core.TokenExchangeError{Provider: string(provider), Err: err}
	}

	accountID := externalAccountID
	if accountID == nil {
		log.Printf("📋 Resolving external account identity via provider API")
		id, err := client.FetchExternalAccountID(ctx, tokens.AccessToken)
		if err != nil {
			return nil, &core.TokenExchangeError{
				Provider: string(provider),
				Err:      fmt.Errorf("failed to resolve external account id: %w", err),
			}
		}
		accountID = &id
	}
	if *accountID == "" {
		return nil, fmt.Errorf("external account ID cannot be empty")
	}

	now := s.nowFn()
	conn := &models.ProviderConnection{
		ID:                core.NewID("pc"),
		UserID:            userID,
		Provider:          provider,
		ExternalAccountID: accountID,
		ConnectedAt:       &now,
	}
	applyTokens(conn, tokens, now, provider.Spec())

	if err := s.connectionsRepo.CreateConnection(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to create provider connection: %w", err)
	}

	log.Printf("📋 Completed successfully - connected %s for user %s (connection: %s)", provider, userID, conn.ID)
	return conn, nil
}

func (s *ConnectionsService) GetConnection(
	ctx context.Context,
	userID string,
	provider models.Provider,
) (mo.Option[*models.ProviderConnection], error) {
	if !core.IsValidULID(userID) {
		return mo.None[*models.ProviderConnection](), fmt.Errorf("user ID must be a valid ULID")
	}
	if !provider.IsValid() {
		return mo.None[*models.ProviderConnection](), fmt.Errorf("unsupported provider: %s", provider)
	}

	return s.connectionsRepo.GetConnection(ctx, userID, provider)
}

func (s *ConnectionsService) ListConnections(
	ctx context.Context,
	userID string,
) ([]*models.ProviderConnection, error) {
	if !core.IsValidULID(userID) {
		return nil, fmt.Errorf("user ID must be a valid ULID")
	}

	return s.connectionsRepo.GetConnectionsByUserID(ctx, userID)
}

// RefreshConnection exchanges the refresh token for new credentials and
// persists them in one atomic update. When the provider omits a rotated
// refresh token, the prior one is retained; when it rotates, ConnectedAt is
// advanced since the new refresh token opens a fresh lifetime window.
func (s *ConnectionsService) RefreshConnection(
	ctx context.Context,
	conn *models.ProviderConnection,
) (*models.ProviderConnection, error) {
	log.Printf("🔄 Starting to refresh tokens for connection %s (%s)", conn.ID, conn.Provider)

	if conn.RefreshToken == nil || *conn.RefreshToken == "" {
		return nil, &core.RefreshError{
			Provider: string(conn.Provider),
			Err:      fmt.Errorf("no refresh token available"),
		}
	}

	client, err := s.clientFor(conn.Provider)
	if err != nil {
		return nil, err
	}

	tokens, err := client.RefreshTokens(ctx, *conn.RefreshToken)
	if err != nil {
		return nil, &core.RefreshError{Provider: string(conn.Provider), Err: err}
	}

	applyTokens(conn, tokens, s.nowFn(), conn.Provider.Spec())

	if err := s.connectionsRepo.UpdateConnectionTokens(ctx, conn); err != nil {
		return nil, fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}

	log.Printf("🔄 Completed successfully - refreshed tokens for connection %s", conn.ID)
	return conn, nil
}

// DisconnectProvider revokes the refresh token best-effort and then clears
// the credential field group unconditionally. A failed revocation is logged
// and never blocks the local disconnect.
func (s *ConnectionsService) DisconnectProvider(
	ctx context.Context,
	userID string,
	provider models.Provider,
) error {
	log.Printf("📋 Starting to disconnect provider %s for user: %s", provider, userID)

	if !core.IsValidULID(userID) {
		return fmt.Errorf("user ID must be a valid ULID")
	}
	if !provider.IsValid() {
		return fmt.Errorf("unsupported provider: %s", provider)
	}

	maybeConn, err := s.connectionsRepo.GetConnection(ctx, userID, provider)
	if err != nil {
		return fmt.Errorf("failed to get provider connection: %w", err)
	}
	if !maybeConn.IsPresent() {
		log.Printf("📋 No %s connection found for user %s - nothing to disconnect", provider, userID)
		return nil
	}

	conn := maybeConn.MustGet()
	spec := provider.Spec()
	if spec.SupportsRevocation && conn.RefreshToken != nil && *conn.RefreshToken != "" {
		client, err := s.clientFor(provider)
		if err != nil {
			return err
		}
		if err := client.RevokeToken(ctx, *conn.RefreshToken); err != nil {
			log.Printf("⚠️ Could not revoke %s token for user %s: %v - clearing locally anyway", provider, userID, err)
		}
	}

	if err := s.connectionsRepo.ClearConnection(ctx, userID, provider); err != nil {
		return fmt.Errorf("failed to clear provider connection: %w", err)
	}

	log.Printf("📋 Completed successfully - disconnected %s for user %s", provider, userID)
	return nil
}

// applyTokens maps a token-endpoint response onto the connection record.
// The expiry fallback and refresh-token retention rules live here so that
// connect, proactive refresh and reactive refresh all behave identically.
func applyTokens(
	conn *models.ProviderConnection,
	tokens *clients.OAuthTokens,
	now time.Time,
	spec models.ProviderSpec,
) {
	accessToken := tokens.AccessToken
	conn.AccessToken = &accessToken

	if tokens.RefreshToken != "" {
		refreshToken := tokens.RefreshToken
		conn.RefreshToken = &refreshToken
		// A rotated refresh token opens a new lifetime window
		connectedAt := now
		conn.ConnectedAt = &connectedAt
	}

	var expiresAt time.Time
	if tokens.ExpiresIn > 0 {
		expiresAt = now.Add(time.Duration(tokens.ExpiresIn) * time.Second)
	} else {
		expiresAt = now.Add(spec.DefaultTokenExpiry)
	}
	conn.TokenExpiresAt = &expiresAt

	if tokens.Scope != "" {
		scope := tokens.Scope
		conn.Scopes = &scope
	}
}
