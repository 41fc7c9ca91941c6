package connections

import (
	"context"
	"fmt"
	"log"

	"gbbackend/clients"
	"gbbackend/core"
	"gbbackend/models"
)

// EnsureFreshConnection returns a connection ready for an API call. When the
// access token is expired or expiring soon and the refresh token is usable,
// a proactive refresh runs first; a failed proactive refresh falls back to
// the stale token (the call itself may then fail with a 401 and go through
// the reactive path).
func (s *ConnectionsService) EnsureFreshConnection(
	ctx context.Context,
	userID string,
	provider models.Provider,
) (*models.ProviderConnection, error) {
	conn, _, err := s.ensureFresh(ctx, userID, provider)
	return conn, err
}

// ensureFresh also reports whether a refresh was attempted, so the reactive
// 401 path can honor the at-most-one-refresh-per-call bound.
func (s *ConnectionsService) ensureFresh(
	ctx context.Context,
	userID string,
	provider models.Provider,
) (*models.ProviderConnection, bool, error) {
	maybeConn, err := s.GetConnection(ctx, userID, provider)
	if err != nil {
		return nil, false, err
	}
	if !maybeConn.IsPresent() {
		return nil, false, core.ErrAuthorizationRequired
	}

	conn := maybeConn.MustGet()
	spec := provider.Spec()
	now := s.nowFn()

	canRefresh := conn.CanRefresh(now, spec.RefreshTokenLifetime)

	// Fail fast before any network call when there is neither a usable
	// credential nor a way to mint one.
	if !conn.Connected() && !canRefresh {
		return nil, false, core.ErrAuthorizationRequired
	}

	needsRefresh := conn.NeedsRefresh(now, spec.ExpiresSoonHorizon) || !conn.Connected()
	if !needsRefresh || !canRefresh {
		return conn, false, nil
	}

	refreshed, err := s.RefreshConnection(ctx, conn)
	if err != nil {
		// Proceed with the stale token - the resource call may still
		// succeed, and if not the caller sees the provider's answer.
		log.Printf("⚠️ Proactive refresh failed for connection %s: %v - proceeding with stale token", conn.ID, err)
		return conn, true, nil
	}

	return refreshed, true, nil
}

// CallWithAuth issues an authenticated resource call through the refresh
// orchestrator. Each logical call is bounded to at most one refresh and one
// retry: a 401 after a refresh-and-retry is surfaced, never retried again.
func (s *ConnectionsService) CallWithAuth(
	ctx context.Context,
	userID string,
	provider models.Provider,
	req clients.ResourceRequest,
) (*clients.ResourceResponse, error) {
	conn, refreshAttempted, err := s.ensureFresh(ctx, userID, provider)
	if err != nil {
		return nil, err
	}
	if !conn.Connected() {
		return nil, core.ErrAuthorizationRequired
	}

	return s.doWithRetry(ctx, conn, req, refreshAttempted)
}

// doWithRetry carries the refreshAttempted flag explicitly rather than as
// service state, so concurrent calls through the same service instance
// cannot observe each other's retry budget.
func (s *ConnectionsService) doWithRetry(
	ctx context.Context,
	conn *models.ProviderConnection,
	req clients.ResourceRequest,
	refreshAttempted bool,
) (*clients.ResourceResponse, error) {
	client, err := s.clientFor(conn.Provider)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(ctx, *conn.AccessToken, req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s API: %w", conn.Provider, err)
	}
	if resp.OK() {
		return resp, nil
	}

	spec := conn.Provider.Spec()
	if resp.StatusCode == 401 && !refreshAttempted && conn.CanRefresh(s.nowFn(), spec.RefreshTokenLifetime) {
		log.Printf("🔄 Got 401 from %s - attempting reactive refresh and retry", conn.Provider)
		refreshed, err := s.RefreshConnection(ctx, conn)
		if err != nil {
			return nil, err
		}
		return s.doWithRetry(ctx, refreshed, req, true)
	}

	return nil, &core.ProviderAPIError{
		Provider:   string(conn.Provider),
		StatusCode: resp.StatusCode,
		Body:       string(resp.Body),
	}
}
