package trips

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/saparov/charter-booking/internal/geo"
	"github.com/saparov/charter-booking/internal/rates"
	"github.com/saparov/charter-booking/internal/vehicles"
	"github.com/saparov/charter-booking/pkg/common"
	"github.com/saparov/charter-booking/pkg/logger"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for quoting and booking
type Handler struct {
	service *Service
}

// NewHandler creates a new trips handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Quote returns a price quote without creating a trip
func (h *Handler) Quote(c *gin.Context) {
	var req TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Quote(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.SuccessResponse(c, resp)
}

// Book creates a trip with frozen price fields
func (h *Handler) Book(c *gin.Context) {
	var req TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Book(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	common.CreatedResponse(c, resp)
}

// respondError wraps orchestrator errors into AppErrors at the handler
// boundary. Messages stay generic; full context is already in the server log.
func (h *Handler) respondError(c *gin.Context, err error) {
	var missingErr *MissingFieldsError
	switch {
	case errors.As(err, &missingErr):
		common.ErrorResponseWithFields(c, http.StatusBadRequest, "required fields missing", missingErr.Fields)
	case errors.Is(err, geo.ErrTooFewWaypoints), errors.Is(err, geo.ErrInvalidCoordinate):
		common.RespondError(c, common.NewBadRequestError("invalid route coordinates", err))
	case errors.Is(err, rates.ErrUnknownVehicleClass):
		common.RespondError(c, common.NewBadRequestError("unknown vehicle class", err))
	case errors.Is(err, vehicles.ErrVehicleNotFound):
		common.RespondError(c, common.NewBadRequestError("vehicle not found", err))
	default:
		logger.WithContext(c.Request.Context()).Error("trip request failed", zap.Error(err))
		common.RespondError(c, err)
	}
}

// RegisterRoutes registers trip routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	trips := rg.Group("/trips")
	{
		trips.POST("/quote", h.Quote)
		trips.POST("", h.Book)
	}
}
