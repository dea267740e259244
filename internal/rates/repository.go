package rates

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles database operations for settings and their audit log
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new settings repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetSetting returns the raw value of a setting
func (r *Repository) GetSetting(ctx context.Context, category, key string) (string, error) {
	var value string
	err := r.db.QueryRow(ctx,
		`SELECT value FROM settings WHERE category = $1 AND key = $2`,
		category, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrSettingNotFound
		}
		return "", fmt.Errorf("failed to get setting %s/%s: %w", category, key, err)
	}
	return value, nil
}

// ListSettings returns all settings in a category keyed by setting key
func (r *Repository) ListSettings(ctx context.Context, category string) (map[string]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT key, value FROM settings WHERE category = $1 ORDER BY key`,
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings for %s: %w", category, err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		settings[key] = value
	}

	return settings, rows.Err()
}

// Upsert writes one setting and, when requested, its audit row in a single transaction
func (r *Repository) Upsert(ctx context.Context, change SettingChange) error {
	return r.UpsertBatch(ctx, []SettingChange{change})
}

// UpsertBatch writes a set of settings changes atomically. Audit rows are
// appended inside the same transaction so a rate change can never land
// without its log entry.
func (r *Repository) UpsertBatch(ctx context.Context, changes []SettingChange) error {
	if len(changes) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin settings transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, change := range changes {
		if !change.AuditOnly {
			_, err = tx.Exec(ctx, `
				INSERT INTO settings (category, key, value, updated_at)
				VALUES ($1, $2, $3, NOW())
				ON CONFLICT (category, key)
				DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
			`, change.Category, change.Key, change.NewValue)
			if err != nil {
				return fmt.Errorf("failed to upsert setting %s/%s: %w", change.Category, change.Key, err)
			}
		}

		if change.Audit {
			_, err = tx.Exec(ctx, `
				INSERT INTO settings_audit (category, setting_key, old_value, new_value, changed_by, created_at)
				VALUES ($1, $2, $3, $4, $5, NOW())
			`, change.Category, change.Key, change.OldValue, change.NewValue, change.ChangedBy)
			if err != nil {
				return fmt.Errorf("failed to append audit record for %s/%s: %w", change.Category, change.Key, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit settings transaction: %w", err)
	}
	return nil
}

// ListAudit returns a page of the settings audit log, newest first, with the total count
func (r *Repository) ListAudit(ctx context.Context, limit, offset int) ([]SettingAudit, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM settings_audit`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit records: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, category, setting_key, old_value, new_value, changed_by, created_at
		FROM settings_audit
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	records := make([]SettingAudit, 0)
	for rows.Next() {
		var rec SettingAudit
		if err := rows.Scan(&rec.ID, &rec.Category, &rec.Key, &rec.OldValue, &rec.NewValue, &rec.ChangedBy, &rec.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan audit record: %w", err)
		}
		records = append(records, rec)
	}

	return records, total, rows.Err()
}
