package users

import (
	"context"

	"github.com/stretchr/testify/mock"

	"gbbackend/models"
)

// MockUsersService is a mock implementation of the UsersService interface
type MockUsersService struct {
	mock.Mock
}

func (m *MockUsersService) GetOrCreateUser(
	ctx context.Context,
	authProvider, authProviderID string,
	email *string,
) (*models.User, error) {
	args := m.Called(ctx, authProvider, authProviderID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUsersService) DeleteUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockUsersRepository is a mock implementation of UsersRepository
type MockUsersRepository struct {
	mock.Mock
}

func (m *MockUsersRepository) GetUserByAuthProvider(
	ctx context.Context,
	authProvider, authProviderID string,
	forUpdate bool,
) (*models.User, error) {
	args := m.Called(ctx, authProvider, authProviderID, forUpdate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUsersRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUsersRepository) CreateUser(
	ctx context.Context,
	authProvider, authProviderID string,
	email *string,
) (*models.User, error) {
	args := m.Called(ctx, authProvider, authProviderID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUsersRepository) SoftDeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
