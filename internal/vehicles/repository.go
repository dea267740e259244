package vehicles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrVehicleNotFound is returned when a vehicle id does not exist
var ErrVehicleNotFound = errors.New("vehicle not found")

// Repository handles database operations for fleet vehicles
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new vehicles repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const vehicleColumns = `id, fleet_company_id, name, plate_number, type, size, capacity, status, created_at, updated_at`

// GetByID returns a single vehicle
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`

	v := &Vehicle{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.FleetCompanyID, &v.Name, &v.PlateNumber,
		&v.Type, &v.Size, &v.Capacity, &v.Status,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return v, nil
}

// FindAvailable returns active vehicles, optionally filtered by class and
// minimum passenger capacity. The candidate pool for quoting.
func (r *Repository) FindAvailable(ctx context.Context, vehicleType, vehicleSize *string, minCapacity int) ([]Vehicle, error) {
	query := `
		SELECT ` + vehicleColumns + `
		FROM vehicles
		WHERE status = $1
		  AND capacity >= $2
		  AND ($3::text IS NULL OR LOWER(type) = LOWER($3))
		  AND ($4::text IS NULL OR LOWER(size) = LOWER($4))
		ORDER BY capacity ASC, name ASC
	`

	rows, err := r.db.Query(ctx, query, StatusActive, minCapacity, vehicleType, vehicleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to find available vehicles: %w", err)
	}
	defer rows.Close()

	result := make([]Vehicle, 0)
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(
			&v.ID, &v.FleetCompanyID, &v.Name, &v.PlateNumber,
			&v.Type, &v.Size, &v.Capacity, &v.Status,
			&v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		result = append(result, v)
	}

	return result, rows.Err()
}
