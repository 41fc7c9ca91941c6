package connections

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gbbackend/clients"
	"gbbackend/core"
	"gbbackend/models"
)

var testRequest = clients.ResourceRequest{
	Method: "GET",
	Path:   "/v3/company/9341453112345678/companyinfo/9341453112345678",
}

func TestConnectionsService_CallWithAuth(t *testing.T) {
	t.Run("fresh token - single call, no refresh", func(t *testing.T) {
		f := newServiceFixture()
		conn := connectedConnection(models.ProviderQuickBooks, testNow.Add(30*24*time.Hour), testNow.Add(-time.Hour))
		f.repo.On("GetConnection", mock.Anything, testUserID, models.ProviderQuickBooks).
			Return(mo.Some(conn), nil)
		f.quickbooksClient.On("Do", mock.Anything, "old-access-token", testRequest).
			Return(&clients.ResourceResponse{StatusCode: 200, Body: []byte(`{}`)}, nil)

		resp, err := f.service.CallWithAuth(context.Background(), testUserID, models.ProviderQuickBooks, testRequest)

		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		f.quickbooksClient.AssertNumberOfCalls(t, "Do", 1)
		f.quickbooksClient.AssertNotCalled(t, "RefreshTokens", mock.Anything, mock.Anything)
	})

	t.Run("401 - reactive refresh then retry with new token", func(t *testing.T) {
		f := newServiceFixture()
		conn := connectedConnection(models.ProviderQuickBooks, testNow.Add(30*24*time.Hour), testNow.Add(-time.Hour))
		f.repo.On("GetConnection", mock.Anything, testUserID, models.ProviderQuickBooks).
			Return(mo.Some(conn), nil)
		f.quickbooksClient.On("Do", mock.Anything, "old-access-token", testRequest).
			Return(&clients.ResourceResponse{StatusCode: 401, Body: []byte(`{}`)}, nil).Once()
		f.quickbooksClient.WithRefreshResponse(clients.CreateRefreshedTestTokens())
		f.repo.On("UpdateConnectionTokens", mock.Anything, conn).Return(nil)
		f.quickbooksClient.On("Do", mock.Anything, "refreshed-access-token-789", testRequest).
			Return(&clients.ResourceResponse{StatusCode: 200, Body: []byte(`{"ok":true}`)}, nil).Once()

		resp, err := f.service.CallWithAuth(context.Background(), testUserID, models.ProviderQuickBooks, testRequest)

		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		f.quickbooksClient.AssertNumberOfCalls(t, "Do", 2)
		f.quickbooksClient.AssertNumberOfCalls(t, "RefreshTokens", 1)
	})

	t.Run("persistent 401 - exactly one refresh and one retry", func(t *testing.T) {
		f := newServiceFixture()
		conn := connectedConnection(models.ProviderQuickBooks, testNow.Add(30*24*time.Hour), testNow.Add(-time.Hour))
		f.repo.On("GetConnection", mock.Anything, testUserID, models.ProviderQuickBooks).
			Return(mo.Some(conn), nil)
		f.quickbooksClient.On("Do", mock.Anything, mock.Anything, testRequest).
			Return(&clients.ResourceResponse{StatusCode: 401, Body: []byte(`{"fault":"AuthenticationFault"}`)}, nil)
		f.quickbooksClient.WithRefreshResponse(clients.CreateRefreshedTestTokens())
		f.repo.On("UpdateConnectionTokens", mock.Anything, conn).Return(nil)

		resp, err := f.service.CallWithAuth(context.Background(), testUserID, models.ProviderQuickBooks, testRequest)

		require.Error(t, err)
		assert.Nil(t, resp)
		var apiErr *core.ProviderAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsUnauthorized())
		// The bound: two provider calls, one refresh, then give up
		f.quickbooksClient.AssertNumberOfCalls(t, "Do", 2)
		f.quickbooksClient.AssertNumberOfCalls(t, "RefreshTokens", 1)
	})

	t.Run("proactive refresh before the call when token expired", func(t *testing.T) {
		f := newServiceFixture()
		conn := connectedConnection(models.ProviderQuickBooks, testNow.Add(-time.Minute), testNow.Add(-time.Hour))
		f.repo.On("GetConnection", mock.Anything, testUserID, models.ProviderQuickBooks).
			Return(mo.Some(conn), nil)
		f.quickbooksClient.WithRefreshResponse(clients.CreateRefreshedTestTokens())
		f.repo.On("UpdateConnectionTokens", mock.Anything, conn).Return(nil)
		f.quickbooksClient.On("Do", mock.Anything, "refreshed-access-token-789", testRequest).
			Return(&clients.ResourceResponse{StatusCode: 200, Body: []byte(`{}`)}, nil)

		resp, err := f.service.CallWithAuth(context.Background(), testUserID, models.ProviderQuickBooks, testRequest)

		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		// The persisted expiry tracks the refresh response, anchored at now
		assert.Equal(t, testNow.Add(3600*time.Second), *conn.TokenExpiresAt)
		f.quickbooksClient.AssertNumberOfCalls(t, "RefreshTokens", 1)
	})

	t.Run("proactive refresh counts against the retry budget", func(t *testing.T) {
		f := newServiceFixture()
		conn := connectedConnection(models.ProviderQuickBooks, testNow.Add(-time.Minute), testNow.Add(-time.Hour))
		f.repo.On("GetConnection", mock.Anything, testUserID, models.ProviderQuickBooks).
			Return(mo.Some(conn), nil)
		f.quickbooksClient.WithRefreshResponse(clients.CreateRefreshedTestTokens())
		f.repo.On("UpdateConnectionTokens", mock.Anything, conn).Return(nil)
		// The provider still answers 401 after the proactive refresh
		f.quickbooksClient.On("Do", mock.Anything, "refreshed-access-token-789", testRequest).
			Return(&clients.ResourceResponse{StatusCode: 401, Body: []byte(`{}`)}, nil)

		_, err := f.service.CallWithAuth(context.Background(), testUserID, models.ProviderQuickBooks, testRequest)

		require.Error(t, err)
		var apiErr *core.ProviderAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsUnauthorized())
		// One refresh per logical call, proactive or reactive - never two
		f.quickbooksClient.AssertNumberOfCalls(t, "RefreshTokens", 1)
		f.quickbooksClient.AssertNumberOfCalls(t, "Do", 1)
	})

	t.Run("failed proactive refresh falls back to the stale token", func(t *testing.T) {
		f := newServiceFixture()
		conn := connectedConnection(models.ProviderQuickBooks, testNow.Add(-time.Minute), testNow.Add(-time.Hour))
		f.repo.On("GetConnection", mock.Anything, testUserID, models.ProviderQuickBooks).
			Return(mo.Some(conn), nil)
		f.quickbooksClient.On("RefreshTokens", mock.Anything, "old-refresh-token").
			Return(nil, errors.New("token endpoint 503"))
		f.quickbooksClient.On("Do", mock.Anything, "old-access-token", testRequest).
			Return(&clients.ResourceResponse{StatusCode: 200, Body: []byte(`{}`)}, nil)

		resp, err := f.service.CallWithAuth(context.Background(), testUserID, models.ProviderQuickBooks, testRequest)

		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("non-401 error status is never retried", func(t *testing.T) {
		f := newServiceFixture()
		conn := connectedConnection(models.ProviderQuickBooks, testNow.Add(30*24*time.Hour), testNow.Add(-time.Hour))
		f.repo.On("GetConnection", mock.Anything, testUserID, models.ProviderQuickBooks).
			Return(mo.Some(conn), nil)
		f.quickbooksClient.On("Do", mock.Anything, "old-access-token", testRequest).
			Return(&clients.ResourceResponse{StatusCode: 429, Body: []byte(`{"fault":"throttled"}`)}, nil)

		_, err := f.service.CallWithAuth(context.Background(), testUserID, models.ProviderQuickBooks, testRequest)

		require.Error(t, err)
		var apiErr *core.ProviderAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 429, apiErr.StatusCode)
		f.quickbooksClient.AssertNumberOfCalls(t, "Do", 1)
		f.quickbooksClient.AssertNotCalled(t, "RefreshTokens", mock.Anything, mock.Anything)
	})

	t.Run("no connection - authorization required", func(t *testing.T) {
		f := newServiceFixture()
		f.repo.On("GetConnection", mock.Anything, testUserID, models.ProviderQuickBooks).
			Return(mo.None[*models.ProviderConnection](), nil)

		_, err := f.service.CallWithAuth(context.Background(), testUserID, models.ProviderQuickBooks, testRequest)

		assert.ErrorIs(t, err, core.ErrAuthorizationRequired)
	})

	t.Run("disconnected and refresh window closed - authorization required, no network call", func(t *testing.T) {
		f := newServiceFixture()
		lifetime := models.ProviderQuickBooks.Spec().RefreshTokenLifetime
		conn := connectedConnection(models.ProviderQuickBooks, testNow.Add(-time.Hour), testNow.Add(-lifetime-time.Hour))
		conn.AccessToken = nil
		f.repo.On("GetConnection", mock.Anything, testUserID, models.ProviderQuickBooks).
			Return(mo.Some(conn), nil)

		_, err := f.service.CallWithAuth(context.Background(), testUserID, models.ProviderQuickBooks, testRequest)

		assert.ErrorIs(t, err, core.ErrAuthorizationRequired)
		f.quickbooksClient.AssertNotCalled(t, "RefreshTokens", mock.Anything, mock.Anything)
		f.quickbooksClient.AssertNotCalled(t, "Do", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestConnectionsService_EnsureFreshConnection(t *testing.T) {
	t.Run("valid connection returned as-is", func(t *testing.T) {
		f := newServiceFixture()
		conn := connectedConnection(models.ProviderFreelancer, testNow.Add(30*24*time.Hour), testNow.Add(-time.Hour))
		f.repo.On("GetConnection", mock.Anything, testUserID, models.ProviderFreelancer).
			Return(mo.Some(conn), nil)

		got, err := f.service.EnsureFreshConnection(context.Background(), testUserID, models.ProviderFreelancer)

		require.NoError(t, err)
		assert.Equal(t, conn, got)
		f.freelancerClient.AssertNotCalled(t, "RefreshTokens", mock.Anything, mock.Anything)
	})

	t.Run("expiring-soon token is refreshed proactively", func(t *testing.T) {
		f := newServiceFixture()
		horizon := models.ProviderFreelancer.Spec().ExpiresSoonHorizon
		conn := connectedConnection(models.ProviderFreelancer, testNow.Add(horizon-time.Hour), testNow.Add(-time.Hour))
		f.repo.On("GetConnection", mock.Anything, testUserID, models.ProviderFreelancer).
			Return(mo.Some(conn), nil)
		f.freelancerClient.WithRefreshResponse(clients.CreateRefreshedTestTokens())
		f.repo.On("UpdateConnectionTokens", mock.Anything, conn).Return(nil)

		got, err := f.service.EnsureFreshConnection(context.Background(), testUserID, models.ProviderFreelancer)

		require.NoError(t, err)
		assert.Equal(t, "refreshed-access-token-789", *got.AccessToken)
		f.freelancerClient.AssertNumberOfCalls(t, "RefreshTokens", 1)
	})
}
