package trips

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saparov/charter-booking/internal/pricing"
)

// Trip statuses
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// ErrPersistence is returned when the booking transaction fails. The caller
// sees a generic failure and the request is not retried.
var ErrPersistence = errors.New("persistence failure")

// MissingFieldsError names the required request fields that were absent
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "required fields missing: " + strings.Join(e.Fields, ", ")
}

// LocationInput is a named coordinate in a quote/booking request
type LocationInput struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// MidStopInput is an intermediate stop with planned dwell time
type MidStopInput struct {
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	Name              string  `json:"name"`
	StayDurationHours float64 `json:"stay_duration_hours"`
}

// TripRequest is the request body for both quoting and booking. For a quote
// the vehicle fields are optional (absent means "quote the whole fleet");
// booking requires a concrete vehicle_id.
type TripRequest struct {
	PickupLocation *LocationInput `json:"pickup_location"`
	DropLocation   *LocationInput `json:"drop_location"`
	MidStops       []MidStopInput `json:"mid_stops"`
	StartDate      string         `json:"start_date"`
	StartTime      string         `json:"start_time"`
	ServiceType    string         `json:"service_type"`
	VehicleID      *uuid.UUID     `json:"vehicle_id,omitempty"`
	VehicleType    string         `json:"vehicle_type,omitempty"`
	VehicleSize    string         `json:"vehicle_size,omitempty"`
	PassengerCount int            `json:"passenger_count"`
}

// TripData is the computed trip summary echoed on every quote response
type TripData struct {
	DistanceKm    float64             `json:"distance_km"`
	DurationHours float64             `json:"duration_hours"`
	MidStopsCount int                 `json:"mid_stops_count"`
	ServiceType   pricing.ServiceType `json:"service_type"`
}

// QuoteResponse is the quote endpoint payload. HasVehicles false means the
// candidate pool was empty; trip data is still returned so the caller can
// fall back to manual contact.
type QuoteResponse struct {
	HasVehicles bool                   `json:"has_vehicles"`
	TripData    TripData               `json:"trip_data"`
	Vehicles    []pricing.VehicleQuote `json:"vehicles"`
}

// TripDetails summarizes a booked trip
type TripDetails struct {
	TotalDistance float64     `json:"total_distance"`
	DurationHours float64     `json:"duration_hours"`
	Vehicle       interface{} `json:"vehicle"`
}

// BookingResponse is the booking endpoint payload
type BookingResponse struct {
	TripID      uuid.UUID              `json:"trip_id"`
	Pricing     pricing.PriceBreakdown `json:"pricing"`
	TripDetails TripDetails            `json:"trip_details"`
}

// Trip is the persisted booking record. Price fields are frozen at creation:
// they reflect the rate table at the moment of booking and are never
// recomputed when rates change.
type Trip struct {
	ID            uuid.UUID           `json:"id" db:"id"`
	PickupLat     float64             `json:"pickup_lat" db:"pickup_lat"`
	PickupLng     float64             `json:"pickup_lng" db:"pickup_lng"`
	PickupName    string              `json:"pickup_name" db:"pickup_name"`
	DropLat       float64             `json:"drop_lat" db:"drop_lat"`
	DropLng       float64             `json:"drop_lng" db:"drop_lng"`
	DropName      string              `json:"drop_name" db:"drop_name"`
	StartDate     string              `json:"start_date" db:"start_date"`
	StartTime     string              `json:"start_time" db:"start_time"`
	VehicleID     uuid.UUID           `json:"vehicle_id" db:"vehicle_id"`
	ServiceType   pricing.ServiceType `json:"service_type" db:"service_type"`
	DistanceKm    float64             `json:"distance_km" db:"distance_km"`
	DurationHours float64             `json:"duration_hours" db:"duration_hours"`
	MidStopsCount int                 `json:"mid_stops_count" db:"mid_stops_count"`
	TotalPrice    float64             `json:"total_price" db:"total_price"`
	BasePrice     float64             `json:"base_price" db:"base_price"`
	TaxAmount     float64             `json:"tax_amount" db:"tax_amount"`
	Status        string              `json:"status" db:"status"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
}

// MidStop is a persisted intermediate stop, ordered by Position
type MidStop struct {
	TripID            uuid.UUID `json:"trip_id" db:"trip_id"`
	Position          int       `json:"position" db:"position"`
	Latitude          float64   `json:"latitude" db:"latitude"`
	Longitude         float64   `json:"longitude" db:"longitude"`
	Name              string    `json:"name" db:"name"`
	StayDurationHours float64   `json:"stay_duration_hours" db:"stay_duration_hours"`
}
