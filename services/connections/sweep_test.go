package connections

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gbbackend/clients"
	"gbbackend/models"
)

func sweepConnection(id, userID, refreshToken string, provider models.Provider) *models.ProviderConnection {
	connectedAt := testNow.Add(-30 * 24 * time.Hour)
	expiresAt := testNow.Add(-time.Hour)
	return &models.ProviderConnection{
		ID:                id,
		UserID:            userID,
		Provider:          provider,
		ExternalAccountID: strPtr("acct-" + id),
		AccessToken:       strPtr("access-" + id),
		RefreshToken:      strPtr(refreshToken),
		TokenExpiresAt:    &expiresAt,
		ConnectedAt:       &connectedAt,
	}
}

func emptySweepExpectations(f *serviceFixture, providers ...models.Provider) {
	for _, provider := range providers {
		f.repo.On("GetConnectionsNeedingRefresh", mock.Anything, provider, mock.Anything, mock.Anything).
			Return([]*models.ProviderConnection{}, nil)
		f.repo.On("GetConnectionsRequiringReauth", mock.Anything, provider, mock.Anything).
			Return([]*models.ProviderConnection{}, nil)
	}
}

func TestConnectionsService_SweepExpiringTokens(t *testing.T) {
	t.Run("one failing connection never aborts the rest", func(t *testing.T) {
		f := newServiceFixture()
		conn1 := sweepConnection("pc_01234567890123456789012341", "u_01234567890123456789012341", "rt-1", models.ProviderQuickBooks)
		conn2 := sweepConnection("pc_01234567890123456789012342", "u_01234567890123456789012342", "rt-2", models.ProviderQuickBooks)
		conn3 := sweepConnection("pc_01234567890123456789012343", "u_01234567890123456789012343", "rt-3", models.ProviderQuickBooks)

		f.repo.On("GetConnectionsNeedingRefresh", mock.Anything, models.ProviderQuickBooks, mock.Anything, mock.Anything).
			Return([]*models.ProviderConnection{conn1, conn2, conn3}, nil)
		f.repo.On("GetConnectionsRequiringReauth", mock.Anything, models.ProviderQuickBooks, mock.Anything).
			Return([]*models.ProviderConnection{}, nil)
		emptySweepExpectations(f, models.ProviderFreelancer)

		f.quickbooksClient.On("RefreshTokens", mock.Anything, "rt-1").
			Return(clients.CreateRefreshedTestTokens(), nil)
		f.quickbooksClient.On("RefreshTokens", mock.Anything, "rt-2").
			Return(nil, errors.New("invalid_grant"))
		f.quickbooksClient.On("RefreshTokens", mock.Anything, "rt-3").
			Return(clients.CreateRefreshedTestTokens(), nil)
		f.repo.On("UpdateConnectionTokens", mock.Anything, conn1).Return(nil)
		f.repo.On("UpdateConnectionTokens", mock.Anything, conn3).Return(nil)

		summary, err := f.service.SweepExpiringTokens(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 3, summary.Scanned)
		assert.Equal(t, 2, summary.Refreshed)
		assert.Equal(t, 1, summary.Failed)
		// The neighbors of the failed connection were still persisted
		f.repo.AssertCalled(t, "UpdateConnectionTokens", mock.Anything, conn1)
		f.repo.AssertCalled(t, "UpdateConnectionTokens", mock.Anything, conn3)
		f.repo.AssertNotCalled(t, "UpdateConnectionTokens", mock.Anything, conn2)
	})

	t.Run("connections past the refresh window trigger reauth notifications", func(t *testing.T) {
		f := newServiceFixture()
		stale := sweepConnection("pc_01234567890123456789012344", "u_01234567890123456789012344", "rt-stale", models.ProviderFreelancer)

		f.repo.On("GetConnectionsNeedingRefresh", mock.Anything, models.ProviderFreelancer, mock.Anything, mock.Anything).
			Return([]*models.ProviderConnection{}, nil)
		f.repo.On("GetConnectionsRequiringReauth", mock.Anything, models.ProviderFreelancer, mock.Anything).
			Return([]*models.ProviderConnection{stale}, nil)
		emptySweepExpectations(f, models.ProviderQuickBooks)

		f.notifier.On("NotifyReauthRequired", stale.UserID, models.ProviderFreelancer).Return()

		summary, err := f.service.SweepExpiringTokens(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, summary.ReauthRequired)
		f.notifier.AssertExpectations(t)
	})

	t.Run("selection window derives from the provider spec", func(t *testing.T) {
		f := newServiceFixture()
		spec := models.ProviderQuickBooks.Spec()
		f.repo.On(
			"GetConnectionsNeedingRefresh",
			mock.Anything,
			models.ProviderQuickBooks,
			testNow.Add(spec.ExpiresSoonHorizon),
			testNow.Add(-spec.RefreshTokenLifetime),
		).Return([]*models.ProviderConnection{}, nil)
		f.repo.On("GetConnectionsRequiringReauth", mock.Anything, models.ProviderQuickBooks, testNow.Add(-spec.RefreshTokenLifetime)).
			Return([]*models.ProviderConnection{}, nil)
		emptySweepExpectations(f, models.ProviderFreelancer)

		_, err := f.service.SweepExpiringTokens(context.Background())

		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})

	t.Run("selection failure is returned for the scheduler to retry", func(t *testing.T) {
		f := newServiceFixture()
		f.repo.On("GetConnectionsNeedingRefresh", mock.Anything, models.ProviderQuickBooks, mock.Anything, mock.Anything).
			Return(nil, errors.New("db down"))

		_, err := f.service.SweepExpiringTokens(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "needing refresh")
	})
}
