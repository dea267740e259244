package rates

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/saparov/charter-booking/pkg/common"
	"github.com/saparov/charter-booking/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupRouter(repo Repo, identity gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	admin := router.Group("/api/v1/admin")
	if identity != nil {
		admin.Use(identity)
	}
	NewHandler(NewService(repo, 0.13, 5*time.Minute)).RegisterRoutes(admin)
	return router
}

func TestGetRateEndpoint(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetSetting", mock.Anything, CategoryPricing, "sedan.medium").
		Return(encodeRates(60, 3.0, 30, 20), nil).Once()

	router := setupRouter(repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/rates/sedan/medium", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool      `json:"success"`
		Data    RateEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 60.0, resp.Data.BaseRate)
}

func TestGetRateEndpoint_UnknownClass(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetSetting", mock.Anything, CategoryPricing, "bus.small").
		Return("", ErrSettingNotFound).Once()

	router := setupRouter(repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/rates/bus/small", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp common.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rate entry not found", resp.Error)
}

func TestUpsertRateEndpoint_AttributesCaller(t *testing.T) {
	repo := new(mockRepo)
	repo.On("GetSetting", mock.Anything, CategoryPricing, "sedan.medium").
		Return("", ErrSettingNotFound).Once()
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(c SettingChange) bool {
		return c.ChangedBy == "fleet ops" && c.Audit
	})).Return(nil).Once()

	identity := func(c *gin.Context) {
		c.Set(middleware.UserNameKey, "fleet ops")
		c.Next()
	}
	router := setupRouter(repo, identity)

	body, _ := json.Marshal(map[string]float64{
		"base_rate":     75,
		"per_km_rate":   3.5,
		"per_hour_rate": 35,
		"midstop_rate":  25,
	})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/rates/sedan/medium", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}

func TestUpsertRateEndpoint_MissingBodyField(t *testing.T) {
	router := setupRouter(new(mockRepo), nil)

	body, _ := json.Marshal(map[string]float64{"base_rate": 75})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/rates/sedan/medium", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuditLogEndpoint_Paginated(t *testing.T) {
	old := "old"
	records := []SettingAudit{
		{ID: uuid.New(), Category: CategoryPricing, Key: "sedan.medium", OldValue: &old, NewValue: "new", ChangedBy: "admin", CreatedAt: time.Now()},
	}

	repo := new(mockRepo)
	repo.On("ListAudit", mock.Anything, 10, 20).Return(records, int64(45), nil).Once()

	router := setupRouter(repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/settings/audit?limit=10&offset=20", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Records []SettingAudit `json:"records"`
			Meta    struct {
				Total      int64 `json:"total"`
				TotalPages int   `json:"total_pages"`
				Page       int   `json:"page"`
				HasMore    bool  `json:"has_more"`
			} `json:"meta"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Records, 1)
	assert.Equal(t, int64(45), resp.Data.Meta.Total)
	assert.Equal(t, 5, resp.Data.Meta.TotalPages)
	assert.Equal(t, 3, resp.Data.Meta.Page)
	assert.True(t, resp.Data.Meta.HasMore)
	repo.AssertExpectations(t)
}

func TestResetEndpoint(t *testing.T) {
	current := make(map[string]string)
	for _, def := range DefaultRates {
		current[def.VehicleType+"."+def.VehicleSize] = encodeRates(def.BaseRate, def.PerKmRate, def.PerHourRate, def.MidstopRate)
	}

	repo := new(mockRepo)
	repo.On("ListSettings", mock.Anything, CategoryPricing).Return(current, nil).Once()
	repo.On("UpsertBatch", mock.Anything, mock.MatchedBy(func(changes []SettingChange) bool {
		// nothing diverged from defaults, only the marker row remains
		return len(changes) == 1 && changes[0].AuditOnly && changes[0].ChangedBy == "unknown"
	})).Return(nil).Once()

	router := setupRouter(repo, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/rates/reset", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}
