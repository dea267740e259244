package rates

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/saparov/charter-booking/pkg/common"
	"github.com/saparov/charter-booking/pkg/logger"
	"github.com/saparov/charter-booking/pkg/middleware"
	"github.com/saparov/charter-booking/pkg/pagination"
	"go.uber.org/zap"
)

// Handler handles admin HTTP requests for the rate table and settings audit log
type Handler struct {
	service *Service
}

// NewHandler creates a new rates handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// ListRates returns every configured rate entry
func (h *Handler) ListRates(c *gin.Context) {
	entries, err := h.service.ListRates(c.Request.Context())
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("failed to list rates", zap.Error(err))
		common.RespondError(c, common.NewInternalServerError("failed to list rates"))
		return
	}
	common.SuccessResponse(c, entries)
}

// GetRate returns the rate entry for one vehicle class
func (h *Handler) GetRate(c *gin.Context) {
	entry, err := h.service.GetRate(c.Request.Context(), c.Param("type"), c.Param("size"))
	if err != nil {
		if errors.Is(err, ErrUnknownVehicleClass) {
			common.RespondError(c, common.NewNotFoundError("rate entry not found", err))
			return
		}
		logger.WithContext(c.Request.Context()).Error("failed to get rate", zap.Error(err))
		common.RespondError(c, common.NewInternalServerError("failed to get rate"))
		return
	}
	common.SuccessResponse(c, entry)
}

// UpsertRate creates or updates the rate entry for one vehicle class
func (h *Handler) UpsertRate(c *gin.Context) {
	var req UpdateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	entry, changed, err := h.service.UpsertRate(
		c.Request.Context(),
		c.Param("type"), c.Param("size"),
		req,
		middleware.CallerName(c),
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownVehicleClass):
			common.RespondError(c, common.NewBadRequestError("unknown vehicle class", err))
		case errors.Is(err, ErrInvalidRates):
			common.RespondError(c, common.NewValidationError("rate fields must be present and non-negative", err))
		default:
			logger.WithContext(c.Request.Context()).Error("failed to upsert rate", zap.Error(err))
			common.RespondError(c, common.NewInternalServerError("failed to upsert rate"))
		}
		return
	}

	common.SuccessResponse(c, gin.H{"rate": entry, "changed": changed})
}

// ResetDefaults restores the canonical default rate table
func (h *Handler) ResetDefaults(c *gin.Context) {
	if err := h.service.ResetDefaults(c.Request.Context(), middleware.CallerName(c)); err != nil {
		logger.WithContext(c.Request.Context()).Error("failed to reset rates", zap.Error(err))
		common.RespondError(c, common.NewInternalServerError("failed to reset rates"))
		return
	}
	common.SuccessResponse(c, gin.H{"reset": true})
}

// AuditLog returns a page of the settings audit log
func (h *Handler) AuditLog(c *gin.Context) {
	params := pagination.ParseParams(c)

	records, total, err := h.service.AuditLog(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("failed to list settings audit", zap.Error(err))
		common.RespondError(c, common.NewInternalServerError("failed to list settings audit"))
		return
	}

	common.SuccessResponse(c, gin.H{
		"records": records,
		"meta":    pagination.BuildMeta(params.Limit, params.Offset, total),
	})
}

// RegisterRoutes registers admin rate routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/rates", h.ListRates)
	rg.GET("/rates/:type/:size", h.GetRate)
	rg.PUT("/rates/:type/:size", h.UpsertRate)
	rg.POST("/rates/reset", h.ResetDefaults)
	rg.GET("/settings/audit", h.AuditLog)
}
