package trips

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/saparov/charter-booking/internal/geo"
	"github.com/saparov/charter-booking/internal/pricing"
	"github.com/saparov/charter-booking/internal/rates"
	"github.com/saparov/charter-booking/internal/vehicles"
	"github.com/saparov/charter-booking/pkg/logger"
	"go.uber.org/zap"
)

// Service orchestrates quoting and booking: waypoint validation, distance and
// duration computation, pricing, and the booking transaction.
type Service struct {
	repo     Repo
	fleet    VehicleFinder
	pricer   Pricer
	cache    QuoteCache // nil disables quote caching
	quoteTTL time.Duration
}

// NewService creates a new trips service
func NewService(repo Repo, fleet VehicleFinder, pricer Pricer, cache QuoteCache, quoteTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		fleet:    fleet,
		pricer:   pricer,
		cache:    cache,
		quoteTTL: quoteTTL,
	}
}

// Quote computes a price quote without persisting anything. An empty
// candidate pool is a valid terminal outcome, not an error: the response
// carries the computed trip data with has_vehicles false.
func (s *Service) Quote(ctx context.Context, req *TripRequest) (*QuoteResponse, error) {
	if err := s.validate(req, false); err != nil {
		return nil, err
	}

	if cached := s.cachedQuote(ctx, req); cached != nil {
		return cached, nil
	}

	waypoints := buildWaypoints(req)
	distanceKm, err := geo.RouteDistance(waypoints)
	if err != nil {
		return nil, err
	}
	durationHours := geo.TripDuration(distanceKm, waypoints)
	serviceType := pricing.ParseServiceType(req.ServiceType)

	resp := &QuoteResponse{
		TripData: TripData{
			DistanceKm:    distanceKm,
			DurationHours: durationHours,
			MidStopsCount: len(req.MidStops),
			ServiceType:   serviceType,
		},
		Vehicles: []pricing.VehicleQuote{},
	}

	candidates, err := s.candidates(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		// No price computed; caller falls back to manual contact.
		return resp, nil
	}

	quotes, err := s.pricer.QuoteForFleet(ctx, candidates, pricing.QuoteInput{
		DistanceKm:    distanceKm,
		DurationHours: durationHours,
		MidStopsCount: len(req.MidStops),
		ServiceType:   serviceType,
	})
	if err != nil {
		return nil, err
	}

	resp.HasVehicles = true
	resp.Vehicles = quotes

	s.storeQuote(ctx, req, resp)
	return resp, nil
}

// Book prices the selected vehicle and persists the trip with frozen price
// fields. Trip and mid-stops are created inside one transaction; any failure
// rolls both back and surfaces as ErrPersistence with no retry.
func (s *Service) Book(ctx context.Context, req *TripRequest) (*BookingResponse, error) {
	if err := s.validate(req, true); err != nil {
		return nil, err
	}

	waypoints := buildWaypoints(req)
	distanceKm, err := geo.RouteDistance(waypoints)
	if err != nil {
		return nil, err
	}
	durationHours := geo.TripDuration(distanceKm, waypoints)
	serviceType := pricing.ParseServiceType(req.ServiceType)

	vehicle, err := s.fleet.GetByID(ctx, *req.VehicleID)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.pricer.CalculateTripPrice(ctx, pricing.QuoteInput{
		VehicleType:   vehicle.Type,
		VehicleSize:   vehicle.Size,
		DistanceKm:    distanceKm,
		DurationHours: durationHours,
		MidStopsCount: len(req.MidStops),
		ServiceType:   serviceType,
	})
	if err != nil {
		return nil, err
	}

	trip := &Trip{
		ID:            uuid.New(),
		PickupLat:     req.PickupLocation.Latitude,
		PickupLng:     req.PickupLocation.Longitude,
		PickupName:    req.PickupLocation.Name,
		DropLat:       req.DropLocation.Latitude,
		DropLng:       req.DropLocation.Longitude,
		DropName:      req.DropLocation.Name,
		StartDate:     req.StartDate,
		StartTime:     req.StartTime,
		VehicleID:     vehicle.ID,
		ServiceType:   serviceType,
		DistanceKm:    distanceKm,
		DurationHours: durationHours,
		MidStopsCount: len(req.MidStops),
		TotalPrice:    breakdown.TotalPrice,
		BasePrice:     breakdown.BasePrice,
		TaxAmount:     breakdown.TaxAmount,
		Status:        StatusPending,
	}

	stops := make([]MidStop, 0, len(req.MidStops))
	for i, ms := range req.MidStops {
		stops = append(stops, MidStop{
			TripID:            trip.ID,
			Position:          i,
			Latitude:          ms.Latitude,
			Longitude:         ms.Longitude,
			Name:              ms.Name,
			StayDurationHours: ms.StayDurationHours,
		})
	}

	if err := s.repo.CreateTripWithStops(ctx, trip, stops); err != nil {
		logger.WithContext(ctx).Error("booking transaction failed",
			zap.String("vehicle_id", vehicle.ID.String()),
			zap.Float64("distance_km", distanceKm),
			zap.Float64("duration_hours", durationHours),
			zap.String("service_type", string(serviceType)),
			zap.Error(err),
		)
		return nil, err
	}

	logger.WithContext(ctx).Info("trip booked",
		zap.String("trip_id", trip.ID.String()),
		zap.String("vehicle_id", vehicle.ID.String()),
		zap.Float64("total_price", breakdown.TotalPrice),
	)

	return &BookingResponse{
		TripID:  trip.ID,
		Pricing: *breakdown,
		TripDetails: TripDetails{
			TotalDistance: distanceKm,
			DurationHours: durationHours,
			Vehicle:       vehicle,
		},
	}, nil
}

// validate checks required fields before any computation or write
func (s *Service) validate(req *TripRequest, booking bool) error {
	var missing []string
	if req.PickupLocation == nil {
		missing = append(missing, "pickup_location")
	}
	if req.DropLocation == nil {
		missing = append(missing, "drop_location")
	}
	if req.StartDate == "" {
		missing = append(missing, "start_date")
	}
	if req.StartTime == "" {
		missing = append(missing, "start_time")
	}
	if booking && req.VehicleID == nil {
		missing = append(missing, "vehicle_id")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// candidates resolves the vehicle pool: the explicitly selected vehicle, or
// every active vehicle matching the (normalized) class filter.
func (s *Service) candidates(ctx context.Context, req *TripRequest) ([]vehicles.Vehicle, error) {
	if req.VehicleID != nil {
		v, err := s.fleet.GetByID(ctx, *req.VehicleID)
		if err != nil {
			return nil, err
		}
		return []vehicles.Vehicle{*v}, nil
	}

	typeFilter, sizeFilter := classFilter(req.VehicleType, req.VehicleSize)
	return s.fleet.FindAvailable(ctx, typeFilter, sizeFilter, req.PassengerCount)
}

// classFilter normalizes an optional class filter. An unrecognized value is
// normalized to sedan/medium here, at the booking layer, so that pricing
// itself never has to default: the rate lookup still fails hard on classes
// missing from the table.
func classFilter(vehicleType, vehicleSize string) (*string, *string) {
	var typeFilter, sizeFilter *string

	if vehicleType != "" {
		t, _ := rates.NormalizeClass(vehicleType, "")
		if !rates.KnownVehicleType(t) {
			logger.Warn("unknown vehicle type in request, normalizing", zap.String("vehicle_type", vehicleType))
			t = rates.VehicleTypeSedan
		}
		typeFilter = &t
	}
	if vehicleSize != "" {
		_, sz := rates.NormalizeClass("", vehicleSize)
		if !rates.KnownVehicleSize(sz) {
			logger.Warn("unknown vehicle size in request, normalizing", zap.String("vehicle_size", vehicleSize))
			sz = rates.VehicleSizeMedium
		}
		sizeFilter = &sz
	}

	return typeFilter, sizeFilter
}

func buildWaypoints(req *TripRequest) []geo.Waypoint {
	waypoints := make([]geo.Waypoint, 0, len(req.MidStops)+2)
	waypoints = append(waypoints, geo.Waypoint{
		Latitude:  req.PickupLocation.Latitude,
		Longitude: req.PickupLocation.Longitude,
		Name:      req.PickupLocation.Name,
	})
	for _, ms := range req.MidStops {
		waypoints = append(waypoints, geo.Waypoint{
			Latitude:          ms.Latitude,
			Longitude:         ms.Longitude,
			Name:              ms.Name,
			StayDurationHours: ms.StayDurationHours,
		})
	}
	waypoints = append(waypoints, geo.Waypoint{
		Latitude:  req.DropLocation.Latitude,
		Longitude: req.DropLocation.Longitude,
		Name:      req.DropLocation.Name,
	})
	return waypoints
}

// ---- quote cache ----

func (s *Service) quoteCacheKey(req *TripRequest) string {
	canonical, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(canonical)
	return "quote:" + hex.EncodeToString(sum[:])
}

// cachedQuote returns a cached response, or nil on miss or any cache failure
func (s *Service) cachedQuote(ctx context.Context, req *TripRequest) *QuoteResponse {
	if s.cache == nil {
		return nil
	}
	key := s.quoteCacheKey(req)
	if key == "" {
		return nil
	}

	raw, err := s.cache.GetString(ctx, key)
	if err != nil {
		return nil
	}

	var resp QuoteResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		logger.WithContext(ctx).Warn("discarding unreadable cached quote", zap.Error(err))
		return nil
	}
	return &resp
}

// storeQuote caches a computed response; failures only cost the cache hit
func (s *Service) storeQuote(ctx context.Context, req *TripRequest, resp *QuoteResponse) {
	if s.cache == nil {
		return
	}
	key := s.quoteCacheKey(req)
	if key == "" {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.SetWithExpiration(ctx, key, data, s.quoteTTL); err != nil {
		logger.WithContext(ctx).Warn("failed to cache quote", zap.Error(err))
	}
}
