package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"familyplanner/internal/database"
)

// SettingsRepository keeps per-account preferences such as the active member
type SettingsRepository struct {
	db      *database.DB
	ownerID string
}

func NewSettingsRepository(db *database.DB, ownerID string) *SettingsRepository {
	return &SettingsRepository{db: db, ownerID: ownerID}
}

// Get retrieves a setting value by key; ok is false when it was never set
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	query, args, err := sq.Select("value").
		From("settings").
		Where(sq.Eq{"owner_id": r.ownerID, "name": key}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("failed to build query: %w", err)
	}

	var value string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, true, nil
}

// Set updates or inserts a setting
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Dialect.UpsertSettings(), r.ownerID, key, value); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// Delete removes a setting; deleting a missing key succeeds
func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	query, args, err := sq.Delete("settings").
		Where(sq.Eq{"owner_id": r.ownerID, "name": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}
