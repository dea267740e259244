package rates

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnknownVehicleClass is returned when no rate entry exists for a
	// (type, size) pair. Pricing must fail hard on this, never default.
	ErrUnknownVehicleClass = errors.New("unknown vehicle class")
	// ErrInvalidRates is returned when an upsert carries missing or negative fields
	ErrInvalidRates = errors.New("invalid rate values")
)

// Vehicle type and size constants
const (
	VehicleTypeSedan = "sedan"
	VehicleTypeSUV   = "suv"
	VehicleTypeVan   = "van"
	VehicleTypeBus   = "bus"

	VehicleSizeSmall  = "small"
	VehicleSizeMedium = "medium"
	VehicleSizeLarge  = "large"
)

// Settings categories
const (
	CategoryPricing    = "pricing"
	CategoryCommission = "commission"

	TaxRateKey = "tax_rate"
)

// RateEntry is the per-class price matrix row consulted by every pricing
// calculation. One row per (type, size) pair; overwritten, never deleted.
type RateEntry struct {
	VehicleType string  `json:"vehicle_type"`
	VehicleSize string  `json:"vehicle_size"`
	BaseRate    float64 `json:"base_rate"`
	PerKmRate   float64 `json:"per_km_rate"`
	PerHourRate float64 `json:"per_hour_rate"`
	MidstopRate float64 `json:"midstop_rate"`
}

// Equal reports whether two entries carry the same rate values
func (e RateEntry) Equal(other RateEntry) bool {
	return e.BaseRate == other.BaseRate &&
		e.PerKmRate == other.PerKmRate &&
		e.PerHourRate == other.PerHourRate &&
		e.MidstopRate == other.MidstopRate
}

// SettingAudit is an append-only record of a settings change
type SettingAudit struct {
	ID        uuid.UUID `json:"audit_id"`
	Category  string    `json:"category"`
	Key       string    `json:"setting_key"`
	OldValue  *string   `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ChangedBy string    `json:"changed_by_name"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateRateRequest is the request body for a rate upsert. Pointer fields so
// an absent value is distinguishable from zero.
type UpdateRateRequest struct {
	BaseRate    *float64 `json:"base_rate" binding:"required"`
	PerKmRate   *float64 `json:"per_km_rate" binding:"required"`
	PerHourRate *float64 `json:"per_hour_rate" binding:"required"`
	MidstopRate *float64 `json:"midstop_rate" binding:"required"`
}

// NormalizeClass lowercases and trims a vehicle type/size pair. Lookup keys
// are case-insensitive.
func NormalizeClass(vehicleType, vehicleSize string) (string, string) {
	return strings.ToLower(strings.TrimSpace(vehicleType)), strings.ToLower(strings.TrimSpace(vehicleSize))
}

// RateKey builds the settings key for a vehicle class
func RateKey(vehicleType, vehicleSize string) string {
	t, s := NormalizeClass(vehicleType, vehicleSize)
	return t + "." + s
}

// KnownVehicleType reports whether the (normalized) type is part of the fleet taxonomy
func KnownVehicleType(t string) bool {
	switch t {
	case VehicleTypeSedan, VehicleTypeSUV, VehicleTypeVan, VehicleTypeBus:
		return true
	}
	return false
}

// KnownVehicleSize reports whether the (normalized) size is part of the fleet taxonomy
func KnownVehicleSize(s string) bool {
	switch s {
	case VehicleSizeSmall, VehicleSizeMedium, VehicleSizeLarge:
		return true
	}
	return false
}
