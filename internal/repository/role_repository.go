package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// PostgresRoleRepository implements domain.RoleRepository against the
// backend's user_roles table
type PostgresRoleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRoleRepository creates a new role repository
func NewPostgresRoleRepository(db *sql.DB, logger *slog.Logger) *PostgresRoleRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRoleRepository{db: db, logger: logger}
}

// GetRole returns the role assigned to a user
func (r *PostgresRoleRepository) GetRole(ctx context.Context, userID string) (string, bool, error) {
	query := `
		SELECT role
		FROM user_roles
		WHERE user_id = $1
		LIMIT 1
	`

	var role string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		r.logger.Error("failed to get user role",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return "", false, fmt.Errorf("failed to get user role: %w", err)
	}
	return role, true, nil
}

// ListByRole returns the ids of users holding a role
func (r *PostgresRoleRepository) ListByRole(ctx context.Context, role string) ([]string, error) {
	query := `
		SELECT user_id
		FROM user_roles
		WHERE role = $1
		ORDER BY user_id
	`
	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user role: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
