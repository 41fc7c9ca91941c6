package handlers

import (
	"context"
	"fmt"
	"log"

	"gbbackend/models"
	"gbbackend/services"
	"gbbackend/usecases/sync"
)

// DashboardAPIHandler contains the dashboard's business operations,
// independent of the HTTP layer.
type DashboardAPIHandler struct {
	usersService       services.UsersService
	connectionsService services.ConnectionsService
	syncUseCase        *sync.SyncUseCase
}

func NewDashboardAPIHandler(
	usersService services.UsersService,
	connectionsService services.ConnectionsService,
	syncUseCase *sync.SyncUseCase,
) *DashboardAPIHandler {
	return &DashboardAPIHandler{
		usersService:       usersService,
		connectionsService: connectionsService,
		syncUseCase:        syncUseCase,
	}
}

func (h *DashboardAPIHandler) ListConnections(
	ctx context.Context,
	user *models.User,
) ([]*models.ProviderConnection, error) {
	log.Printf("📋 Listing provider connections for user: %s", user.ID)
	return h.connectionsService.ListConnections(ctx, user.ID)
}

func (h *DashboardAPIHandler) ConnectProvider(
	ctx context.Context,
	user *models.User,
	provider models.Provider,
	code string,
	externalAccountID *string,
) (*models.ProviderConnection, error) {
	log.Printf("📋 Connecting %s for user: %s", provider, user.ID)

	conn, err := h.connectionsService.ConnectProvider(ctx, user.ID, provider, code, externalAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to connect provider: %w", err)
	}
	return conn, nil
}

func (h *DashboardAPIHandler) DisconnectProvider(
	ctx context.Context,
	user *models.User,
	provider models.Provider,
) error {
	log.Printf("📋 Disconnecting %s for user: %s", provider, user.ID)
	return h.connectionsService.DisconnectProvider(ctx, user.ID, provider)
}

func (h *DashboardAPIHandler) SyncEarnings(
	ctx context.Context,
	user *models.User,
) (*models.EarningsSyncResult, error) {
	log.Printf("📋 Triggering earnings sync for user: %s", user.ID)
	return h.syncUseCase.SyncEarnings(ctx, user.ID)
}

func (h *DashboardAPIHandler) ListInvoices(
	ctx context.Context,
	user *models.User,
) ([]models.QuickBooksInvoice, error) {
	log.Printf("📋 Listing recent invoices for user: %s", user.ID)
	return h.syncUseCase.ListRecentInvoices(ctx, user.ID)
}

func (h *DashboardAPIHandler) DeleteAccount(ctx context.Context, user *models.User) error {
	log.Printf("📋 Deleting account for user: %s", user.ID)
	return h.usersService.DeleteUser(ctx, user.ID)
}
