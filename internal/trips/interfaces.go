package trips

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/saparov/charter-booking/internal/pricing"
	"github.com/saparov/charter-booking/internal/vehicles"
)

// Repo is the persistence boundary for bookings
type Repo interface {
	// CreateTripWithStops persists the trip and its mid-stops atomically
	CreateTripWithStops(ctx context.Context, trip *Trip, stops []MidStop) error
}

// VehicleFinder supplies the candidate vehicle pool
type VehicleFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*vehicles.Vehicle, error)
	FindAvailable(ctx context.Context, vehicleType, vehicleSize *string, minCapacity int) ([]vehicles.Vehicle, error)
}

// Pricer computes price breakdowns. Satisfied by pricing.Engine.
type Pricer interface {
	CalculateTripPrice(ctx context.Context, input pricing.QuoteInput) (*pricing.PriceBreakdown, error)
	QuoteForFleet(ctx context.Context, candidates []vehicles.Vehicle, input pricing.QuoteInput) ([]pricing.VehicleQuote, error)
}

// QuoteCache is an optional short-TTL cache for computed quotes. Satisfied by
// pkg/redis.Client; a nil cache disables caching.
type QuoteCache interface {
	GetString(ctx context.Context, key string) (string, error)
	SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}
