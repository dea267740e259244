package vehicles

import (
	"time"

	"github.com/google/uuid"
)

// Vehicle statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

// Vehicle is a fleet vehicle eligible for charter bookings
type Vehicle struct {
	ID             uuid.UUID `json:"id" db:"id"`
	FleetCompanyID uuid.UUID `json:"fleet_company_id" db:"fleet_company_id"`
	Name           string    `json:"name" db:"name"`
	PlateNumber    string    `json:"plate_number" db:"plate_number"`
	Type           string    `json:"type" db:"type"` // sedan, suv, van, bus
	Size           string    `json:"size" db:"size"` // small, medium, large
	Capacity       int       `json:"capacity" db:"capacity"`
	Status         string    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
