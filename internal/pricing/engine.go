package pricing

import (
	"context"

	"github.com/saparov/charter-booking/internal/geo"
	"github.com/saparov/charter-booking/internal/rates"
	"github.com/saparov/charter-booking/internal/vehicles"
)

// RateStore is the rate table consulted for every calculation. Satisfied by
// rates.Service.
type RateStore interface {
	GetRate(ctx context.Context, vehicleType, vehicleSize string) (rates.RateEntry, error)
	TaxRate(ctx context.Context) float64
}

// Engine computes price breakdowns from trip parameters and the rate table.
// Pure given the rate entry and tax rate; no side effects.
type Engine struct {
	store RateStore
}

// NewEngine creates a new pricing engine
func NewEngine(store RateStore) *Engine {
	return &Engine{store: store}
}

// CalculateTripPrice prices one trip for one vehicle class. An unknown
// (type, size) pair fails with rates.ErrUnknownVehicleClass, never a default
// rate. All monetary values are rounded half-up to 2 decimal places.
func (e *Engine) CalculateTripPrice(ctx context.Context, input QuoteInput) (*PriceBreakdown, error) {
	rate, err := e.store.GetRate(ctx, input.VehicleType, input.VehicleSize)
	if err != nil {
		return nil, err
	}

	multiplier := input.ServiceType.Multiplier()
	taxRate := e.store.TaxRate(ctx)

	basePrice := rate.BaseRate
	distancePrice := input.DistanceKm * rate.PerKmRate
	timePrice := input.DurationHours * rate.PerHourRate
	midstopPrice := float64(input.MidStopsCount) * rate.MidstopRate

	subtotal := geo.Round2((basePrice + distancePrice + timePrice + midstopPrice) * multiplier)
	taxAmount := geo.Round2(subtotal * taxRate)
	totalPrice := geo.Round2(subtotal + taxAmount)

	return &PriceBreakdown{
		BasePrice:     geo.Round2(basePrice),
		DistancePrice: geo.Round2(distancePrice),
		TimePrice:     geo.Round2(timePrice),
		MidstopPrice:  geo.Round2(midstopPrice),
		Subtotal:      subtotal,
		TaxAmount:     taxAmount,
		TotalPrice:    totalPrice,
		Inputs: BreakdownInputs{
			DistanceKm:    input.DistanceKm,
			DurationHours: input.DurationHours,
			MidStopsCount: input.MidStopsCount,
			ServiceType:   input.ServiceType,
			Multiplier:    multiplier,
		},
	}, nil
}

// QuoteForFleet prices the same trip for every candidate vehicle. A candidate
// whose class has no rate entry fails the whole batch rather than being
// silently skipped.
func (e *Engine) QuoteForFleet(ctx context.Context, candidates []vehicles.Vehicle, input QuoteInput) ([]VehicleQuote, error) {
	quotes := make([]VehicleQuote, 0, len(candidates))
	for _, v := range candidates {
		perVehicle := input
		perVehicle.VehicleType = v.Type
		perVehicle.VehicleSize = v.Size

		breakdown, err := e.CalculateTripPrice(ctx, perVehicle)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, VehicleQuote{Vehicle: v, Pricing: *breakdown})
	}
	return quotes, nil
}
