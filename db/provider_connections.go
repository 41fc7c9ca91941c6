package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"

	dbtx "gbbackend/db/tx"
	"gbbackend/models"
)

type PostgresProviderConnectionsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for provider_connections table
var providerConnectionsColumns = []string{
	"id",
	"user_id",
	"provider",
	"external_account_id",
	"access_token",
	"refresh_token",
	"token_expires_at",
	"connected_at",
	"scopes",
	"created_at",
	"updated_at",
}

func NewPostgresProviderConnectionsRepository(db *sqlx.DB, schema string) *PostgresProviderConnectionsRepository {
	return &PostgresProviderConnectionsRepository{db: db, schema: schema}
}

func (r *PostgresProviderConnectionsRepository) CreateConnection(
	ctx context.Context,
	conn *models.ProviderConnection,
) error {
	db := dbtx.GetTransactional(ctx, r.db)

	insertColumns := []string{
		"id",
		"user_id",
		"provider",
		"external_account_id",
		"access_token",
		"refresh_token",
		"token_expires_at",
		"connected_at",
		"scopes",
		"created_at",
		"updated_at",
	}
	columnsStr := strings.Join(insertColumns, ", ")
	returningStr := strings.Join(providerConnectionsColumns, ", ")

	// One row per user per provider - reconnecting replaces the whole
	// credential field group in place.
	query := fmt.Sprintf(`
		INSERT INTO %s.provider_connections (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (user_id, provider) DO UPDATE SET
			external_account_id = EXCLUDED.external_account_id,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			connected_at = EXCLUDED.connected_at,
			scopes = EXCLUDED.scopes,
			updated_at = NOW()
		RETURNING %s`, r.schema, columnsStr, returningStr)

	err := db.QueryRowxContext(
		ctx,
		query,
		conn.ID,
		conn.UserID,
		conn.Provider,
		conn.ExternalAccountID,
		conn.AccessToken,
		conn.RefreshToken,
		conn.TokenExpiresAt,
		conn.ConnectedAt,
		conn.Scopes,
	).StructScan(conn)
	if err != nil {
		return fmt.Errorf("failed to create provider connection: %w", err)
	}

	return nil
}

func (r *PostgresProviderConnectionsRepository) GetConnection(
	ctx context.Context,
	userID string,
	provider models.Provider,
) (mo.Option[*models.ProviderConnection], error) {
	db := dbtx.GetTransactional(ctx, r.db)

	columnsStr := strings.Join(providerConnectionsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.provider_connections
		WHERE user_id = $1 AND provider = $2`, columnsStr, r.schema)

	var conn models.ProviderConnection
	err := db.GetContext(ctx, &conn, query, userID, provider)
	if err != nil {
		if err == sql.ErrNoRows {
			return mo.None[*models.ProviderConnection](), nil
		}
		return mo.None[*models.ProviderConnection](), fmt.Errorf("failed to get provider connection: %w", err)
	}

	return mo.Some(&conn), nil
}

func (r *PostgresProviderConnectionsRepository) GetConnectionsByUserID(
	ctx context.Context,
	userID string,
) ([]*models.ProviderConnection, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	columnsStr := strings.Join(providerConnectionsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.provider_connections
		WHERE user_id = $1
		ORDER BY provider`, columnsStr, r.schema)

	conns := []*models.ProviderConnection{}
	err := db.SelectContext(ctx, &conns, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider connections: %w", err)
	}

	return conns, nil
}

// UpdateConnectionTokens persists the refreshed credential field group in a
// single statement so a crash cannot leave access_token and token_expires_at
// inconsistent.
func (r *PostgresProviderConnectionsRepository) UpdateConnectionTokens(
	ctx context.Context,
	conn *models.ProviderConnection,
) error {
	db := dbtx.GetTransactional(ctx, r.db)

	returningStr := strings.Join(providerConnectionsColumns, ", ")
	query := fmt.Sprintf(`
		UPDATE %s.provider_connections
		SET access_token = $1,
			refresh_token = $2,
			token_expires_at = $3,
			connected_at = $4,
			scopes = $5,
			updated_at = NOW()
		WHERE id = $6
		RETURNING %s`, r.schema, returningStr)

	err := db.QueryRowxContext(
		ctx,
		query,
		conn.AccessToken,
		conn.RefreshToken,
		conn.TokenExpiresAt,
		conn.ConnectedAt,
		conn.Scopes,
		conn.ID,
	).StructScan(conn)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("provider connection not found")
		}
		return fmt.Errorf("failed to update provider connection tokens: %w", err)
	}

	return nil
}

// ClearConnection nulls the entire credential field group atomically. Only
// this provider's row is touched - other providers' connections are
// unaffected.
func (r *PostgresProviderConnectionsRepository) ClearConnection(
	ctx context.Context,
	userID string,
	provider models.Provider,
) error {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		UPDATE %s.provider_connections
		SET external_account_id = NULL,
			access_token = NULL,
			refresh_token = NULL,
			token_expires_at = NULL,
			connected_at = NULL,
			scopes = NULL,
			updated_at = NOW()
		WHERE user_id = $1 AND provider = $2`, r.schema)

	if _, err := db.ExecContext(ctx, query, userID, provider); err != nil {
		return fmt.Errorf("failed to clear provider connection: %w", err)
	}

	return nil
}

// GetConnectionsNeedingRefresh selects refreshable connections whose access
// token expires before soonestExpiry or has no recorded expiry at all, and
// whose refresh token window (anchored at connected_at) is still open.
func (r *PostgresProviderConnectionsRepository) GetConnectionsNeedingRefresh(
	ctx context.Context,
	provider models.Provider,
	soonestExpiry time.Time,
	oldestConnectedAt time.Time,
) ([]*models.ProviderConnection, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	columnsStr := strings.Join(providerConnectionsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.provider_connections
		WHERE provider = $1
		  AND refresh_token IS NOT NULL
		  AND (token_expires_at <= $2 OR token_expires_at IS NULL)
		  AND connected_at > $3
		ORDER BY token_expires_at ASC NULLS LAST`, columnsStr, r.schema)

	conns := []*models.ProviderConnection{}
	err := db.SelectContext(ctx, &conns, query, provider, soonestExpiry, oldestConnectedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get connections needing refresh: %w", err)
	}

	return conns, nil
}

// GetConnectionsRequiringReauth selects connections whose refresh token
// window has closed - these cannot be refreshed and need the user to
// reauthorize interactively.
func (r *PostgresProviderConnectionsRepository) GetConnectionsRequiringReauth(
	ctx context.Context,
	provider models.Provider,
	oldestConnectedAt time.Time,
) ([]*models.ProviderConnection, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	columnsStr := strings.Join(providerConnectionsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.provider_connections
		WHERE provider = $1
		  AND refresh_token IS NOT NULL
		  AND connected_at <= $2
		ORDER BY connected_at ASC`, columnsStr, r.schema)

	conns := []*models.ProviderConnection{}
	err := db.SelectContext(ctx, &conns, query, provider, oldestConnectedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get connections requiring reauth: %w", err)
	}

	return conns, nil
}
