package rates

import (
	"context"
	"errors"
)

// ErrSettingNotFound is returned by the repository when a setting key is absent
var ErrSettingNotFound = errors.New("setting not found")

// SettingChange describes one settings write, optionally audited. AuditOnly
// changes append a log record without touching the settings table (used for
// marker rows such as a full reset).
type SettingChange struct {
	Category  string
	Key       string
	NewValue  string
	OldValue  *string
	ChangedBy string
	Audit     bool
	AuditOnly bool
}

// Repo is the persistence boundary for the settings/rate store
type Repo interface {
	GetSetting(ctx context.Context, category, key string) (string, error)
	ListSettings(ctx context.Context, category string) (map[string]string, error)
	Upsert(ctx context.Context, change SettingChange) error
	UpsertBatch(ctx context.Context, changes []SettingChange) error
	ListAudit(ctx context.Context, limit, offset int) ([]SettingAudit, int64, error)
}
