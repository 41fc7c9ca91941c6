package users

import (
	"context"
	"fmt"
	"log"

	"gbbackend/core"
	"gbbackend/models"
	"gbbackend/services"
)

// UsersRepository defines the persistence operations the service needs
type UsersRepository interface {
	GetUserByAuthProvider(
		ctx context.Context,
		authProvider, authProviderID string,
		forUpdate bool,
	) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, authProvider, authProviderID string, email *string) (*models.User, error)
	SoftDeleteUser(ctx context.Context, id string) error
}

type UsersService struct {
	usersRepo          UsersRepository
	connectionsService services.ConnectionsService
	txManager          services.TransactionManager
}

func NewUsersService(
	repo UsersRepository,
	connectionsService services.ConnectionsService,
	txManager services.TransactionManager,
) *UsersService {
	return &UsersService{
		usersRepo:          repo,
		connectionsService: connectionsService,
		txManager:          txManager,
	}
}

func (s *UsersService) GetOrCreateUser(
	ctx context.Context,
	authProvider, authProviderID string,
	email *string,
) (*models.User, error) {
	log.Printf("📋 Starting to get or create user for authProvider: %s, authProviderID: %s", authProvider, authProviderID)

	if authProvider == "" {
		return nil, fmt.Errorf("auth_provider cannot be empty")
	}
	if authProviderID == "" {
		return nil, fmt.Errorf("auth_provider_id cannot be empty")
	}

	var user *models.User
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.usersRepo.GetUserByAuthProvider(txCtx, authProvider, authProviderID, true)
		if err != nil {
			return fmt.Errorf("failed to get user by auth provider: %w", err)
		}
		if existing != nil {
			user = existing
			return nil
		}

		created, err := s.usersRepo.CreateUser(txCtx, authProvider, authProviderID, email)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📋 Completed successfully - retrieved/created user with ID: %s", user.ID)
	return user, nil
}

// DeleteUser disconnects every provider best-effort and then soft-deletes
// the account. External revocation is advisory: a provider that cannot be
// reached never blocks deletion.
func (s *UsersService) DeleteUser(ctx context.Context, userID string) error {
	log.Printf("📋 Starting to delete user: %s", userID)

	if !core.IsValidULID(userID) {
		return fmt.Errorf("user ID must be a valid ULID")
	}

	user, err := s.usersRepo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return core.ErrNotFound
	}

	for _, provider := range models.AllProviders {
		if err := s.connectionsService.DisconnectProvider(ctx, userID, provider); err != nil {
			log.Printf("⚠️ Failed to disconnect %s during deletion of user %s: %v - continuing", provider, userID, err)
		}
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.usersRepo.SoftDeleteUser(txCtx, userID)
	})
	if err != nil {
		return fmt.Errorf("failed to soft delete user: %w", err)
	}

	log.Printf("📋 Completed successfully - deleted user: %s", userID)
	return nil
}
