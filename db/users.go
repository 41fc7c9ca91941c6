package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"

	"gbbackend/core"
	dbtx "gbbackend/db/tx"
	"gbbackend/models"
)

type PostgresUsersRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for users table
var usersColumns = []string{
	"id",
	"auth_provider",
	"auth_provider_id",
	"email",
	"deleted_at",
	"created_at",
	"updated_at",
}

func NewPostgresUsersRepository(db *sqlx.DB, schema string) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db, schema: schema}
}

func (r *PostgresUsersRepository) GetUserByAuthProvider(
	ctx context.Context,
	authProvider, authProviderID string,
	forUpdate bool,
) (*models.User, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	returningStr := strings.Join(usersColumns, ", ")
	forUpdateClause := ""
	if forUpdate {
		forUpdateClause = " FOR UPDATE"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.users
		WHERE auth_provider = $1 AND auth_provider_id = $2 AND deleted_at IS NULL%s`,
		returningStr, r.schema, forUpdateClause)

	user := &models.User{}
	err := db.QueryRowxContext(ctx, query, authProvider, authProviderID).StructScan(user)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to get user by auth provider: %w", err)
	}

	return user, nil
}

func (r *PostgresUsersRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	returningStr := strings.Join(usersColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.users
		WHERE id = $1 AND deleted_at IS NULL`, returningStr, r.schema)

	user := &models.User{}
	err := db.QueryRowxContext(ctx, query, id).StructScan(user)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (r *PostgresUsersRepository) CreateUser(
	ctx context.Context,
	authProvider, authProviderID string,
	email *string,
) (*models.User, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	// Generate ULID for new users
	userID := core.NewID("u")

	insertColumns := []string{
		"id",
		"auth_provider",
		"auth_provider_id",
		"email",
		"created_at",
		"updated_at",
	}
	columnsStr := strings.Join(insertColumns, ", ")
	returningStr := strings.Join(usersColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.users (%s)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING %s`, r.schema, columnsStr, returningStr)

	user := &models.User{}
	err := db.QueryRowxContext(ctx, query, userID, authProvider, authProviderID, email).StructScan(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// SoftDeleteUser marks the user as deleted. Connection cleanup happens in
// the service layer before this is called.
func (r *PostgresUsersRepository) SoftDeleteUser(ctx context.Context, id string) error {
	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		UPDATE %s.users
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`, r.schema)

	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to soft delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return core.ErrNotFound
	}

	return nil
}
