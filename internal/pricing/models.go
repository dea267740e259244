package pricing

import (
	"strings"

	"github.com/saparov/charter-booking/internal/vehicles"
	"github.com/saparov/charter-booking/pkg/logger"
	"go.uber.org/zap"
)

// ServiceType is the booking category scaling the trip price
type ServiceType string

const (
	ServiceSingleTrip ServiceType = "single_trip"
	ServiceRoundTrip  ServiceType = "round_trip"
	ServiceMultiStop  ServiceType = "multi_stop"
)

// serviceMultipliers is the closed multiplier mapping. Round trips cover the
// return leg; multi-stop covers routing overhead between stops.
var serviceMultipliers = map[ServiceType]float64{
	ServiceSingleTrip: 1.0,
	ServiceRoundTrip:  1.8,
	ServiceMultiStop:  1.3,
}

// ParseServiceType normalizes a client-supplied service type string
// ("Round Trip", "round-trip", "ROUND_TRIP" all parse). An unrecognized value
// falls back to single_trip with a logged warning.
func ParseServiceType(raw string) ServiceType {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")

	st := ServiceType(normalized)
	if _, ok := serviceMultipliers[st]; ok {
		return st
	}

	logger.Warn("unrecognized service type, defaulting to single_trip", zap.String("service_type", raw))
	return ServiceSingleTrip
}

// Multiplier returns the price multiplier for the service type
func (s ServiceType) Multiplier() float64 {
	if m, ok := serviceMultipliers[s]; ok {
		return m
	}
	return 1.0
}

// QuoteInput carries everything the engine needs to price one trip
type QuoteInput struct {
	VehicleType   string
	VehicleSize   string
	DistanceKm    float64
	DurationHours float64
	MidStopsCount int
	ServiceType   ServiceType
}

// BreakdownInputs echoes the inputs a breakdown was computed from
type BreakdownInputs struct {
	DistanceKm    float64     `json:"distance_km"`
	DurationHours float64     `json:"duration_hours"`
	MidStopsCount int         `json:"mid_stops_count"`
	ServiceType   ServiceType `json:"service_type"`
	Multiplier    float64     `json:"multiplier"`
}

// PriceBreakdown is the itemized cost of a quote or booking. Computed fresh
// per request and never mutated afterward.
type PriceBreakdown struct {
	BasePrice     float64         `json:"base_price"`
	DistancePrice float64         `json:"distance_price"`
	TimePrice     float64         `json:"time_price"`
	MidstopPrice  float64         `json:"midstop_price"`
	Subtotal      float64         `json:"subtotal"`
	TaxAmount     float64         `json:"tax_amount"`
	TotalPrice    float64         `json:"total_price"`
	Inputs        BreakdownInputs `json:"inputs"`
}

// VehicleQuote pairs a candidate vehicle with its price breakdown
type VehicleQuote struct {
	Vehicle vehicles.Vehicle `json:"vehicle"`
	Pricing PriceBreakdown   `json:"pricing"`
}
