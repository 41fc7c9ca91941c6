package services

import (
	"context"

	"github.com/samber/mo"

	"gbbackend/clients"
	"gbbackend/models"
)

// UsersService defines the interface for user-related operations
type UsersService interface {
	GetOrCreateUser(ctx context.Context, authProvider, authProviderID string, email *string) (*models.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

// ConnectionsService defines the interface for provider connection and token
// lifecycle operations
type ConnectionsService interface {
	// ConnectProvider exchanges an authorization code and persists the new
	// connection. externalAccountID carries identity delivered on the OAuth
	// callback (QuickBooks realm id); when nil, the identity is resolved
	// via the provider's API.
	ConnectProvider(
		ctx context.Context,
		userID string,
		provider models.Provider,
		code string,
		externalAccountID *string,
	) (*models.ProviderConnection, error)

	GetConnection(
		ctx context.Context,
		userID string,
		provider models.Provider,
	) (mo.Option[*models.ProviderConnection], error)
	ListConnections(ctx context.Context, userID string) ([]*models.ProviderConnection, error)

	// DisconnectProvider revokes best-effort and clears the connection's
	// credential field group atomically. Local clearing never depends on
	// the revocation outcome.
	DisconnectProvider(ctx context.Context, userID string, provider models.Provider) error

	// RefreshConnection refreshes the connection's tokens and persists the
	// result in a single atomic update.
	RefreshConnection(ctx context.Context, conn *models.ProviderConnection) (*models.ProviderConnection, error)

	// EnsureFreshConnection returns a usable connection, proactively
	// refreshing when the access token is expired or expiring soon.
	EnsureFreshConnection(
		ctx context.Context,
		userID string,
		provider models.Provider,
	) (*models.ProviderConnection, error)

	// CallWithAuth issues an authenticated resource call through the
	// refresh orchestrator: proactive refresh up front, then at most one
	// reactive refresh plus one retry on a 401.
	CallWithAuth(
		ctx context.Context,
		userID string,
		provider models.Provider,
		req clients.ResourceRequest,
	) (*clients.ResourceResponse, error)

	// SweepExpiringTokens refreshes every connection nearing expiry,
	// isolating per-connection failures, and flags connections whose
	// refresh token window has closed.
	SweepExpiringTokens(ctx context.Context) (*models.SweepSummary, error)
}

// ReauthNotifier defines the interface for alerting that a user must
// reauthorize a provider interactively
type ReauthNotifier interface {
	NotifyReauthRequired(userID string, provider models.Provider)
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	BeginTransaction(ctx context.Context) (context.Context, error)
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
}
