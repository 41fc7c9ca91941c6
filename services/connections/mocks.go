package connections

import (
	"context"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"gbbackend/clients"
	"gbbackend/models"
)

// MockConnectionsRepository is a mock implementation of ConnectionsRepository
type MockConnectionsRepository struct {
	mock.Mock
}

func (m *MockConnectionsRepository) CreateConnection(ctx context.Context, conn *models.ProviderConnection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockConnectionsRepository) GetConnection(
	ctx context.Context,
	userID string,
	provider models.Provider,
) (mo.Option[*models.ProviderConnection], error) {
	args := m.Called(ctx, userID, provider)
	if args.Get(0) == nil {
		return mo.None[*models.ProviderConnection](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.ProviderConnection]), args.Error(1)
}

func (m *MockConnectionsRepository) GetConnectionsByUserID(
	ctx context.Context,
	userID string,
) ([]*models.ProviderConnection, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ProviderConnection), args.Error(1)
}

func (m *MockConnectionsRepository) UpdateConnectionTokens(
	ctx context.Context,
	conn *models.ProviderConnection,
) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockConnectionsRepository) ClearConnection(
	ctx context.Context,
	userID string,
	provider models.Provider,
) error {
	args := m.Called(ctx, userID, provider)
	return args.Error(0)
}

func (m *MockConnectionsRepository) GetConnectionsNeedingRefresh(
	ctx context.Context,
	provider models.Provider,
	soonestExpiry time.Time,
	oldestConnectedAt time.Time,
) ([]*models.ProviderConnection, error) {
	args := m.Called(ctx, provider, soonestExpiry, oldestConnectedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ProviderConnection), args.Error(1)
}

func (m *MockConnectionsRepository) GetConnectionsRequiringReauth(
	ctx context.Context,
	provider models.Provider,
	oldestConnectedAt time.Time,
) ([]*models.ProviderConnection, error) {
	args := m.Called(ctx, provider, oldestConnectedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ProviderConnection), args.Error(1)
}

// MockConnectionsService is a mock implementation of the ConnectionsService interface
type MockConnectionsService struct {
	mock.Mock
}

func (m *MockConnectionsService) ConnectProvider(
	ctx context.Context,
	userID string,
	provider models.Provider,
	code string,
	externalAccountID *string,
) (*models.ProviderConnection, error) {
	args := m.Called(ctx, userID, provider, code, externalAccountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProviderConnection), args.Error(1)
}

func (m *MockConnectionsService) GetConnection(
	ctx context.Context,
	userID string,
	provider models.Provider,
) (mo.Option[*models.ProviderConnection], error) {
	args := m.Called(ctx, userID, provider)
	if args.Get(0) == nil {
		return mo.None[*models.ProviderConnection](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.ProviderConnection]), args.Error(1)
}

func (m *MockConnectionsService) ListConnections(
	ctx context.Context,
	userID string,
) ([]*models.ProviderConnection, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ProviderConnection), args.Error(1)
}

func (m *MockConnectionsService) DisconnectProvider(
	ctx context.Context,
	userID string,
	provider models.Provider,
) error {
	args := m.Called(ctx, userID, provider)
	return args.Error(0)
}

func (m *MockConnectionsService) RefreshConnection(
	ctx context.Context,
	conn *models.ProviderConnection,
) (*models.ProviderConnection, error) {
	args := m.Called(ctx, conn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProviderConnection), args.Error(1)
}

func (m *MockConnectionsService) EnsureFreshConnection(
	ctx context.Context,
	userID string,
	provider models.Provider,
) (*models.ProviderConnection, error) {
	args := m.Called(ctx, userID, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProviderConnection), args.Error(1)
}

func (m *MockConnectionsService) CallWithAuth(
	ctx context.Context,
	userID string,
	provider models.Provider,
	req clients.ResourceRequest,
) (*clients.ResourceResponse, error) {
	args := m.Called(ctx, userID, provider, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.ResourceResponse), args.Error(1)
}

func (m *MockConnectionsService) SweepExpiringTokens(ctx context.Context) (*models.SweepSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SweepSummary), args.Error(1)
}

// MockReauthNotifier is a mock implementation of the ReauthNotifier interface
type MockReauthNotifier struct {
	mock.Mock
}

func (m *MockReauthNotifier) NotifyReauthRequired(userID string, provider models.Provider) {
	m.Called(userID, provider)
}
