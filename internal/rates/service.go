package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/saparov/charter-booking/pkg/logger"
	"go.uber.org/zap"
)

// rateValue is the JSON shape of a pricing setting value
type rateValue struct {
	BaseRate    float64 `json:"base_rate" validate:"gte=0"`
	PerKmRate   float64 `json:"per_km_rate" validate:"gte=0"`
	PerHourRate float64 `json:"per_hour_rate" validate:"gte=0"`
	MidstopRate float64 `json:"midstop_rate" validate:"gte=0"`
}

// Service owns the rate table: cached reads, validated audited writes, and
// the canonical defaults. The read cache has an injectable TTL and clock so
// staleness is testable; it is per-process only (stale reads across instances
// are bounded by the TTL).
type Service struct {
	repo           Repo
	validate       *validator.Validate
	defaultTaxRate float64
	cacheTTL       time.Duration
	now            func() time.Time

	mu          sync.RWMutex
	rateCache   map[string]RateEntry
	taxCache    *float64
	cacheExpiry time.Time
}

// NewService creates a new rate table service
func NewService(repo Repo, defaultTaxRate float64, cacheTTL time.Duration) *Service {
	return &Service{
		repo:           repo,
		validate:       validator.New(),
		defaultTaxRate: defaultTaxRate,
		cacheTTL:       cacheTTL,
		now:            time.Now,
		rateCache:      make(map[string]RateEntry),
	}
}

// GetRate returns the rate entry for a vehicle class. Lookup is
// case-insensitive; an unknown pair is an error, never a silent default.
func (s *Service) GetRate(ctx context.Context, vehicleType, vehicleSize string) (RateEntry, error) {
	t, size := NormalizeClass(vehicleType, vehicleSize)
	key := RateKey(t, size)

	if entry, ok := s.cachedRate(key); ok {
		return entry, nil
	}

	raw, err := s.repo.GetSetting(ctx, CategoryPricing, key)
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			return RateEntry{}, fmt.Errorf("%w: %s/%s", ErrUnknownVehicleClass, t, size)
		}
		return RateEntry{}, err
	}

	entry, err := parseRateValue(t, size, raw)
	if err != nil {
		return RateEntry{}, err
	}

	s.storeRate(key, entry)
	return entry, nil
}

// ListRates returns every configured rate entry
func (s *Service) ListRates(ctx context.Context) ([]RateEntry, error) {
	settings, err := s.repo.ListSettings(ctx, CategoryPricing)
	if err != nil {
		return nil, err
	}

	entries := make([]RateEntry, 0, len(settings))
	for key, raw := range settings {
		t, size, ok := splitRateKey(key)
		if !ok {
			continue // non-class pricing settings (e.g. reset markers) are skipped
		}
		entry, err := parseRateValue(t, size, raw)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// UpsertRate validates and persists a rate entry. Re-applying identical
// values is a no-op and writes no audit record; a change writes the setting
// and its audit row in one transaction. Returns the stored entry and whether
// anything changed.
func (s *Service) UpsertRate(ctx context.Context, vehicleType, vehicleSize string, req UpdateRateRequest, changedBy string) (RateEntry, bool, error) {
	t, size := NormalizeClass(vehicleType, vehicleSize)
	if !KnownVehicleType(t) || !KnownVehicleSize(size) {
		return RateEntry{}, false, fmt.Errorf("%w: %s/%s", ErrUnknownVehicleClass, t, size)
	}

	if req.BaseRate == nil || req.PerKmRate == nil || req.PerHourRate == nil || req.MidstopRate == nil {
		return RateEntry{}, false, fmt.Errorf("%w: all four rate fields are required", ErrInvalidRates)
	}

	value := rateValue{
		BaseRate:    *req.BaseRate,
		PerKmRate:   *req.PerKmRate,
		PerHourRate: *req.PerHourRate,
		MidstopRate: *req.MidstopRate,
	}
	if err := s.validate.Struct(value); err != nil {
		return RateEntry{}, false, fmt.Errorf("%w: %v", ErrInvalidRates, err)
	}

	entry := RateEntry{
		VehicleType: t,
		VehicleSize: size,
		BaseRate:    value.BaseRate,
		PerKmRate:   value.PerKmRate,
		PerHourRate: value.PerHourRate,
		MidstopRate: value.MidstopRate,
	}

	key := RateKey(t, size)
	var oldValue *string
	existing, err := s.repo.GetSetting(ctx, CategoryPricing, key)
	switch {
	case err == nil:
		current, parseErr := parseRateValue(t, size, existing)
		if parseErr == nil && current.Equal(entry) {
			return current, false, nil
		}
		oldValue = &existing
	case errors.Is(err, ErrSettingNotFound):
		// first write for this class
	default:
		return RateEntry{}, false, err
	}

	newValue, err := json.Marshal(value)
	if err != nil {
		return RateEntry{}, false, fmt.Errorf("failed to encode rate value: %w", err)
	}

	change := SettingChange{
		Category:  CategoryPricing,
		Key:       key,
		NewValue:  string(newValue),
		OldValue:  oldValue,
		ChangedBy: changedBy,
		Audit:     true,
	}
	if err := s.repo.Upsert(ctx, change); err != nil {
		return RateEntry{}, false, err
	}

	s.invalidateCache()

	logger.WithContext(ctx).Info("rate entry updated",
		zap.String("vehicle_type", t),
		zap.String("vehicle_size", size),
		zap.String("changed_by", changedBy),
	)

	return entry, true, nil
}

// ResetDefaults restores every class to the canonical default table. Each
// changed class gets an audit row, plus one marker row for the reset itself.
func (s *Service) ResetDefaults(ctx context.Context, changedBy string) error {
	current, err := s.repo.ListSettings(ctx, CategoryPricing)
	if err != nil {
		return err
	}

	var changes []SettingChange
	for _, def := range DefaultRates {
		key := RateKey(def.VehicleType, def.VehicleSize)
		newValue, err := json.Marshal(rateValue{
			BaseRate:    def.BaseRate,
			PerKmRate:   def.PerKmRate,
			PerHourRate: def.PerHourRate,
			MidstopRate: def.MidstopRate,
		})
		if err != nil {
			return fmt.Errorf("failed to encode default rate: %w", err)
		}

		var oldValue *string
		if existing, ok := current[key]; ok {
			if existing == string(newValue) {
				continue
			}
			v := existing
			oldValue = &v
		}

		changes = append(changes, SettingChange{
			Category:  CategoryPricing,
			Key:       key,
			NewValue:  string(newValue),
			OldValue:  oldValue,
			ChangedBy: changedBy,
			Audit:     true,
		})
	}

	changes = append(changes, SettingChange{
		Category:  CategoryPricing,
		Key:       "reset",
		NewValue:  fmt.Sprintf("restored defaults, %d classes changed", len(changes)),
		ChangedBy: changedBy,
		Audit:     true,
		AuditOnly: true,
	})

	if err := s.repo.UpsertBatch(ctx, changes); err != nil {
		return err
	}

	s.invalidateCache()

	logger.WithContext(ctx).Info("rate table reset to defaults",
		zap.Int("classes_changed", len(changes)-1),
		zap.String("changed_by", changedBy),
	)
	return nil
}

// Seed writes default entries for any class missing from storage. First-run
// seeding only; existing values are never overwritten and nothing is audited.
func (s *Service) Seed(ctx context.Context) error {
	current, err := s.repo.ListSettings(ctx, CategoryPricing)
	if err != nil {
		return err
	}

	var changes []SettingChange
	for _, def := range DefaultRates {
		key := RateKey(def.VehicleType, def.VehicleSize)
		if _, ok := current[key]; ok {
			continue
		}
		newValue, err := json.Marshal(rateValue{
			BaseRate:    def.BaseRate,
			PerKmRate:   def.PerKmRate,
			PerHourRate: def.PerHourRate,
			MidstopRate: def.MidstopRate,
		})
		if err != nil {
			return fmt.Errorf("failed to encode default rate: %w", err)
		}
		changes = append(changes, SettingChange{
			Category: CategoryPricing,
			Key:      key,
			NewValue: string(newValue),
		})
	}

	if len(changes) == 0 {
		return nil
	}

	if err := s.repo.UpsertBatch(ctx, changes); err != nil {
		return err
	}

	logger.Info("seeded default rate table", zap.Int("classes", len(changes)))
	return nil
}

// TaxRate returns the configured tax rate, falling back to the default when
// no commission setting exists or the stored value is unreadable.
func (s *Service) TaxRate(ctx context.Context) float64 {
	s.mu.RLock()
	if s.taxCache != nil && s.now().Before(s.cacheExpiry) {
		rate := *s.taxCache
		s.mu.RUnlock()
		return rate
	}
	s.mu.RUnlock()

	raw, err := s.repo.GetSetting(ctx, CategoryCommission, TaxRateKey)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			logger.WithContext(ctx).Warn("failed to read tax rate setting", zap.Error(err))
		}
		return s.defaultTaxRate
	}

	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || rate < 0 {
		logger.WithContext(ctx).Warn("unreadable tax rate setting, using default",
			zap.String("value", raw),
			zap.Float64("default", s.defaultTaxRate),
		)
		return s.defaultTaxRate
	}

	s.mu.Lock()
	s.beginWindowLocked()
	s.taxCache = &rate
	s.mu.Unlock()

	return rate
}

// AuditLog returns a page of the settings audit log, newest first
func (s *Service) AuditLog(ctx context.Context, limit, offset int) ([]SettingAudit, int64, error) {
	return s.repo.ListAudit(ctx, limit, offset)
}

// ---- cache internals ----

func (s *Service) cachedRate(key string) (RateEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now().After(s.cacheExpiry) {
		return RateEntry{}, false
	}
	entry, ok := s.rateCache[key]
	return entry, ok
}

func (s *Service) storeRate(key string, entry RateEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beginWindowLocked()
	s.rateCache[key] = entry
}

func (s *Service) invalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateCache = make(map[string]RateEntry)
	s.taxCache = nil
	s.cacheExpiry = time.Time{}
}

// beginWindowLocked opens a fresh cache window if the current one has lapsed.
// Entries cached in the old window are dropped with it; renewing the expiry
// alone would serve them as fresh past the TTL.
func (s *Service) beginWindowLocked() {
	if s.cacheExpiry.IsZero() || s.now().After(s.cacheExpiry) {
		s.rateCache = make(map[string]RateEntry)
		s.taxCache = nil
		s.cacheExpiry = s.now().Add(s.cacheTTL)
	}
}

func parseRateValue(vehicleType, vehicleSize, raw string) (RateEntry, error) {
	var value rateValue
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return RateEntry{}, fmt.Errorf("failed to parse rate setting %s.%s: %w", vehicleType, vehicleSize, err)
	}
	return RateEntry{
		VehicleType: vehicleType,
		VehicleSize: vehicleSize,
		BaseRate:    value.BaseRate,
		PerKmRate:   value.PerKmRate,
		PerHourRate: value.PerHourRate,
		MidstopRate: value.MidstopRate,
	}, nil
}

func splitRateKey(key string) (vehicleType, vehicleSize string, ok bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			t, s := key[:i], key[i+1:]
			if KnownVehicleType(t) && KnownVehicleSize(s) {
				return t, s, true
			}
			return "", "", false
		}
	}
	return "", "", false
}
