package trips

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/saparov/charter-booking/internal/geo"
	"github.com/saparov/charter-booking/internal/pricing"
	"github.com/saparov/charter-booking/internal/vehicles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateTripWithStops(ctx context.Context, trip *Trip, stops []MidStop) error {
	args := m.Called(ctx, trip, stops)
	return args.Error(0)
}

type mockFleet struct {
	mock.Mock
}

func (m *mockFleet) GetByID(ctx context.Context, id uuid.UUID) (*vehicles.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vehicles.Vehicle), args.Error(1)
}

func (m *mockFleet) FindAvailable(ctx context.Context, vehicleType, vehicleSize *string, minCapacity int) ([]vehicles.Vehicle, error) {
	args := m.Called(ctx, vehicleType, vehicleSize, minCapacity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vehicles.Vehicle), args.Error(1)
}

type mockPricer struct {
	mock.Mock
}

func (m *mockPricer) CalculateTripPrice(ctx context.Context, input pricing.QuoteInput) (*pricing.PriceBreakdown, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.PriceBreakdown), args.Error(1)
}

func (m *mockPricer) QuoteForFleet(ctx context.Context, candidates []vehicles.Vehicle, input pricing.QuoteInput) ([]pricing.VehicleQuote, error) {
	args := m.Called(ctx, candidates, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]pricing.VehicleQuote), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockCache) SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func validQuoteRequest() *TripRequest {
	return &TripRequest{
		PickupLocation: &LocationInput{Latitude: 43.238949, Longitude: 76.889709, Name: "Almaty"},
		DropLocation:   &LocationInput{Latitude: 42.882004, Longitude: 74.582748, Name: "Bishkek"},
		StartDate:      "2026-09-15",
		StartTime:      "09:00",
		ServiceType:    "single trip",
		PassengerCount: 3,
	}
}

func sampleBreakdown(total float64) *pricing.PriceBreakdown {
	return &pricing.PriceBreakdown{
		BasePrice:  60,
		TaxAmount:  geo.Round2(total * 0.13 / 1.13),
		Subtotal:   geo.Round2(total / 1.13),
		TotalPrice: total,
	}
}

func TestQuote_MissingFields(t *testing.T) {
	repo := new(mockRepo)
	fleet := new(mockFleet)
	pricer := new(mockPricer)
	svc := NewService(repo, fleet, pricer, nil, time.Minute)

	req := &TripRequest{
		DropLocation: &LocationInput{Latitude: 42.88, Longitude: 74.58},
		StartDate:    "2026-09-15",
	}

	_, err := svc.Quote(context.Background(), req)

	var missing *MissingFieldsError
	require.ErrorAs(t, err, &missing)
	assert.ElementsMatch(t, []string{"pickup_location", "start_time"}, missing.Fields)
	fleet.AssertNotCalled(t, "FindAvailable", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	pricer.AssertNotCalled(t, "QuoteForFleet", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuote_InvalidCoordinates(t *testing.T) {
	svc := NewService(new(mockRepo), new(mockFleet), new(mockPricer), nil, time.Minute)

	req := validQuoteRequest()
	req.PickupLocation.Latitude = 91

	_, err := svc.Quote(context.Background(), req)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
}

func TestQuote_NoVehiclesAvailable(t *testing.T) {
	fleet := new(mockFleet)
	fleet.On("FindAvailable", mock.Anything, (*string)(nil), (*string)(nil), 3).
		Return([]vehicles.Vehicle{}, nil).Once()
	pricer := new(mockPricer)

	svc := NewService(new(mockRepo), fleet, pricer, nil, time.Minute)

	resp, err := svc.Quote(context.Background(), validQuoteRequest())
	require.NoError(t, err)

	assert.False(t, resp.HasVehicles)
	assert.Empty(t, resp.Vehicles)
	// trip data is still computed so the caller can fall back to manual contact
	assert.Greater(t, resp.TripData.DistanceKm, 0.0)
	assert.Greater(t, resp.TripData.DurationHours, 0.0)
	assert.Equal(t, pricing.ServiceSingleTrip, resp.TripData.ServiceType)
	pricer.AssertNotCalled(t, "QuoteForFleet", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuote_FleetQuoted(t *testing.T) {
	pool := []vehicles.Vehicle{
		{ID: uuid.New(), Name: "Sedan One", Type: "sedan", Size: "medium"},
		{ID: uuid.New(), Name: "Big Van", Type: "van", Size: "large"},
	}

	fleet := new(mockFleet)
	fleet.On("FindAvailable", mock.Anything, (*string)(nil), (*string)(nil), 3).
		Return(pool, nil).Once()

	pricer := new(mockPricer)
	pricer.On("QuoteForFleet", mock.Anything, pool, mock.MatchedBy(func(in pricing.QuoteInput) bool {
		return in.DistanceKm > 0 && in.ServiceType == pricing.ServiceSingleTrip && in.MidStopsCount == 0
	})).Return([]pricing.VehicleQuote{
		{Vehicle: pool[0], Pricing: *sampleBreakdown(508.50)},
		{Vehicle: pool[1], Pricing: *sampleBreakdown(940.16)},
	}, nil).Once()

	svc := NewService(new(mockRepo), fleet, pricer, nil, time.Minute)

	resp, err := svc.Quote(context.Background(), validQuoteRequest())
	require.NoError(t, err)
	assert.True(t, resp.HasVehicles)
	require.Len(t, resp.Vehicles, 2)
	assert.Equal(t, 508.50, resp.Vehicles[0].Pricing.TotalPrice)
	fleet.AssertExpectations(t)
	pricer.AssertExpectations(t)
}

func TestQuote_UnknownClassFilterNormalized(t *testing.T) {
	fleet := new(mockFleet)
	fleet.On("FindAvailable", mock.Anything, mock.MatchedBy(func(t *string) bool {
		return t != nil && *t == "sedan"
	}), mock.MatchedBy(func(s *string) bool {
		return s != nil && *s == "medium"
	}), 3).Return([]vehicles.Vehicle{}, nil).Once()

	svc := NewService(new(mockRepo), fleet, new(mockPricer), nil, time.Minute)

	req := validQuoteRequest()
	req.VehicleType = "limousine"
	req.VehicleSize = "gigantic"

	_, err := svc.Quote(context.Background(), req)
	require.NoError(t, err)
	fleet.AssertExpectations(t)
}

func TestQuote_ExplicitVehicle(t *testing.T) {
	vehicleID := uuid.New()
	vehicle := &vehicles.Vehicle{ID: vehicleID, Type: "van", Size: "large"}

	fleet := new(mockFleet)
	fleet.On("GetByID", mock.Anything, vehicleID).Return(vehicle, nil).Once()

	pricer := new(mockPricer)
	pricer.On("QuoteForFleet", mock.Anything, []vehicles.Vehicle{*vehicle}, mock.Anything).
		Return([]pricing.VehicleQuote{{Vehicle: *vehicle, Pricing: *sampleBreakdown(940.16)}}, nil).Once()

	svc := NewService(new(mockRepo), fleet, pricer, nil, time.Minute)

	req := validQuoteRequest()
	req.VehicleID = &vehicleID

	resp, err := svc.Quote(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.HasVehicles)
	fleet.AssertNotCalled(t, "FindAvailable", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQuote_CacheHitSkipsComputation(t *testing.T) {
	req := validQuoteRequest()
	cached := QuoteResponse{
		HasVehicles: true,
		TripData:    TripData{DistanceKm: 230.5, DurationHours: 5.76, ServiceType: pricing.ServiceSingleTrip},
		Vehicles:    []pricing.VehicleQuote{{Pricing: *sampleBreakdown(508.50)}},
	}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)

	cache := new(mockCache)
	cache.On("GetString", mock.Anything, mock.Anything).Return(string(payload), nil).Once()
	fleet := new(mockFleet)

	svc := NewService(new(mockRepo), fleet, new(mockPricer), cache, time.Minute)

	resp, err := svc.Quote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 230.5, resp.TripData.DistanceKm)
	fleet.AssertNotCalled(t, "FindAvailable", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQuote_CacheFailureDegrades(t *testing.T) {
	cache := new(mockCache)
	cache.On("GetString", mock.Anything, mock.Anything).Return("", errors.New("connection refused")).Once()
	cache.On("SetWithExpiration", mock.Anything, mock.Anything, mock.Anything, time.Minute).
		Return(errors.New("connection refused")).Once()

	pool := []vehicles.Vehicle{{ID: uuid.New(), Type: "sedan", Size: "medium"}}
	fleet := new(mockFleet)
	fleet.On("FindAvailable", mock.Anything, (*string)(nil), (*string)(nil), 3).Return(pool, nil).Once()
	pricer := new(mockPricer)
	pricer.On("QuoteForFleet", mock.Anything, pool, mock.Anything).
		Return([]pricing.VehicleQuote{{Vehicle: pool[0], Pricing: *sampleBreakdown(508.50)}}, nil).Once()

	svc := NewService(new(mockRepo), fleet, pricer, cache, time.Minute)

	resp, err := svc.Quote(context.Background(), validQuoteRequest())
	require.NoError(t, err)
	assert.True(t, resp.HasVehicles)
	cache.AssertExpectations(t)
}

func TestBook_RequiresVehicleID(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(repo, new(mockFleet), new(mockPricer), nil, time.Minute)

	_, err := svc.Book(context.Background(), validQuoteRequest())

	var missing *MissingFieldsError
	require.ErrorAs(t, err, &missing)
	assert.Contains(t, missing.Fields, "vehicle_id")
	repo.AssertNotCalled(t, "CreateTripWithStops", mock.Anything, mock.Anything, mock.Anything)
}

func TestBook_PersistsTripWithOrderedStops(t *testing.T) {
	vehicleID := uuid.New()
	vehicle := &vehicles.Vehicle{ID: vehicleID, Type: "van", Size: "large"}

	fleet := new(mockFleet)
	fleet.On("GetByID", mock.Anything, vehicleID).Return(vehicle, nil).Once()

	breakdown := &pricing.PriceBreakdown{BasePrice: 120, Subtotal: 832, TaxAmount: 108.16, TotalPrice: 940.16}
	pricer := new(mockPricer)
	pricer.On("CalculateTripPrice", mock.Anything, mock.MatchedBy(func(in pricing.QuoteInput) bool {
		return in.VehicleType == "van" && in.VehicleSize == "large" && in.MidStopsCount == 2
	})).Return(breakdown, nil).Once()

	var savedTrip *Trip
	var savedStops []MidStop
	repo := new(mockRepo)
	repo.On("CreateTripWithStops", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			savedTrip = args.Get(1).(*Trip)
			savedStops = args.Get(2).([]MidStop)
		}).Return(nil).Once()

	svc := NewService(repo, fleet, pricer, nil, time.Minute)

	req := validQuoteRequest()
	req.VehicleID = &vehicleID
	req.ServiceType = "multi stop"
	req.MidStops = []MidStopInput{
		{Latitude: 43.0, Longitude: 75.5, Name: "first stop", StayDurationHours: 1},
		{Latitude: 42.95, Longitude: 75.0, Name: "second stop", StayDurationHours: 0.5},
	}

	resp, err := svc.Book(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, savedTrip)
	assert.Equal(t, resp.TripID, savedTrip.ID)
	assert.Equal(t, vehicleID, savedTrip.VehicleID)
	assert.Equal(t, StatusPending, savedTrip.Status)
	assert.Equal(t, pricing.ServiceMultiStop, savedTrip.ServiceType)

	// price fields are frozen from the breakdown at booking time
	assert.Equal(t, 940.16, savedTrip.TotalPrice)
	assert.Equal(t, 120.0, savedTrip.BasePrice)
	assert.Equal(t, 108.16, savedTrip.TaxAmount)
	assert.Equal(t, 940.16, resp.Pricing.TotalPrice)

	require.Len(t, savedStops, 2)
	assert.Equal(t, 0, savedStops[0].Position)
	assert.Equal(t, "first stop", savedStops[0].Name)
	assert.Equal(t, 1, savedStops[1].Position)
	assert.Equal(t, "second stop", savedStops[1].Name)
	assert.Equal(t, savedTrip.ID, savedStops[0].TripID)
}

func TestBook_PersistenceFailure(t *testing.T) {
	vehicleID := uuid.New()
	vehicle := &vehicles.Vehicle{ID: vehicleID, Type: "sedan", Size: "medium"}

	fleet := new(mockFleet)
	fleet.On("GetByID", mock.Anything, vehicleID).Return(vehicle, nil).Once()
	pricer := new(mockPricer)
	pricer.On("CalculateTripPrice", mock.Anything, mock.Anything).Return(sampleBreakdown(508.50), nil).Once()

	repo := new(mockRepo)
	repo.On("CreateTripWithStops", mock.Anything, mock.Anything, mock.Anything).
		Return(ErrPersistence).Once()

	svc := NewService(repo, fleet, pricer, nil, time.Minute)

	req := validQuoteRequest()
	req.VehicleID = &vehicleID

	_, err := svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestBook_UnknownVehicle(t *testing.T) {
	vehicleID := uuid.New()
	fleet := new(mockFleet)
	fleet.On("GetByID", mock.Anything, vehicleID).Return(nil, vehicles.ErrVehicleNotFound).Once()

	repo := new(mockRepo)
	svc := NewService(repo, fleet, new(mockPricer), nil, time.Minute)

	req := validQuoteRequest()
	req.VehicleID = &vehicleID

	_, err := svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, vehicles.ErrVehicleNotFound)
	repo.AssertNotCalled(t, "CreateTripWithStops", mock.Anything, mock.Anything, mock.Anything)
}
