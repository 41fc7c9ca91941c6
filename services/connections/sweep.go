package connections

import (
	"context"
	"fmt"
	"log"

	"gbbackend/models"
)

// SweepExpiringTokens runs one pass of the scheduled refresh sweep: every
// refreshable connection whose access token is past or near expiry (or has
// no recorded expiry) gets refreshed, and connections whose refresh token
// window has closed are flagged for manual reauthorization.
//
// One connection's failure never aborts the sweep for the rest - errors are
// logged and counted. Only a repository-level selection failure is returned,
// for the surrounding scheduler to retry.
func (s *ConnectionsService) SweepExpiringTokens(ctx context.Context) (*models.SweepSummary, error) {
	log.Printf("🔄 Starting refresh sweep across all providers")
	summary := &models.SweepSummary{}

	for _, provider := range models.AllProviders {
		spec := provider.Spec()
		now := s.nowFn()

		conns, err := s.connectionsRepo.GetConnectionsNeedingRefresh(
			ctx,
			provider,
			now.Add(spec.ExpiresSoonHorizon),
			now.Add(-spec.RefreshTokenLifetime),
		)
		if err != nil {
			return summary, fmt.Errorf("failed to select %s connections needing refresh: %w", provider, err)
		}

		log.Printf("🔍 Found %d %s connections needing refresh", len(conns), provider)
		summary.Scanned += len(conns)

		for _, conn := range conns {
			if _, err := s.RefreshConnection(ctx, conn); err != nil {
				log.Printf("❌ Failed to refresh connection %s (user %s): %v", conn.ID, conn.UserID, err)
				summary.Failed++
				continue
			}
			summary.Refreshed++
		}

		stale, err := s.connectionsRepo.GetConnectionsRequiringReauth(
			ctx,
			provider,
			now.Add(-spec.RefreshTokenLifetime),
		)
		if err != nil {
			return summary, fmt.Errorf("failed to select %s connections requiring reauth: %w", provider, err)
		}

		for _, conn := range stale {
			log.Printf(
				"⚠️ Connection %s (user %s) has an expired refresh token - manual reauthorization required",
				conn.ID,
				conn.UserID,
			)
			summary.ReauthRequired++
			if s.notifier != nil {
				s.notifier.NotifyReauthRequired(conn.UserID, provider)
			}
		}
	}

	log.Printf(
		"🔄 Completed refresh sweep - scanned: %d, refreshed: %d, failed: %d, reauth required: %d",
		summary.Scanned,
		summary.Refreshed,
		summary.Failed,
		summary.ReauthRequired,
	)
	return summary, nil
}
