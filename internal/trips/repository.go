package trips

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles database operations for trips
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new trips repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateTripWithStops inserts the trip row and its mid-stops in one
// transaction. Any failure rolls the whole booking back; a trip row without
// its stops (or vice versa) must never be observable.
func (r *Repository) CreateTripWithStops(ctx context.Context, trip *Trip, stops []MidStop) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to begin booking transaction: %v", ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO trips (
			id, pickup_lat, pickup_lng, pickup_name,
			drop_lat, drop_lng, drop_name,
			start_date, start_time, vehicle_id, service_type,
			distance_km, duration_hours, mid_stops_count,
			total_price, base_price, tax_amount, status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, NOW()
		)
	`,
		trip.ID, trip.PickupLat, trip.PickupLng, trip.PickupName,
		trip.DropLat, trip.DropLng, trip.DropName,
		trip.StartDate, trip.StartTime, trip.VehicleID, trip.ServiceType,
		trip.DistanceKm, trip.DurationHours, trip.MidStopsCount,
		trip.TotalPrice, trip.BasePrice, trip.TaxAmount, trip.Status,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to insert trip: %v", ErrPersistence, err)
	}

	for _, stop := range stops {
		_, err = tx.Exec(ctx, `
			INSERT INTO trip_mid_stops (trip_id, position, latitude, longitude, name, stay_duration_hours)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, stop.TripID, stop.Position, stop.Latitude, stop.Longitude, stop.Name, stop.StayDurationHours)
		if err != nil {
			return fmt.Errorf("%w: failed to insert mid-stop %d: %v", ErrPersistence, stop.Position, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: failed to commit booking: %v", ErrPersistence, err)
	}

	return nil
}
