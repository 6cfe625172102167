package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AgendaLivre/service-scheduling/internal/application"
	"github.com/AgendaLivre/service-scheduling/pkg/auth"
	"github.com/AgendaLivre/service-scheduling/pkg/middleware"
	"github.com/AgendaLivre/service-scheduling/pkg/response"
)

// StoreHandler handles HTTP requests for store settings, catalog and slots.
type StoreHandler struct {
	storeService *application.StoreService
	slotService  *application.SlotService
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(storeService *application.StoreService, slotService *application.SlotService) *StoreHandler {
	return &StoreHandler{storeService: storeService, slotService: slotService}
}

// RegisterRoutes registers all store routes. Reads are public; writes need
// a store or admin role.
func (h *StoreHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	manageRole := middleware.RequireRole(auth.RoleStore, auth.RoleAdmin)

	stores := r.Group("/stores")
	{
		stores.GET("/:id", h.GetStore)
		stores.GET("/:id/services", h.ListServices)
		stores.GET("/:id/slots", h.GetSlots)

		stores.POST("", authMW, middleware.RequireRole(auth.RoleAdmin), h.CreateStore)
		stores.PUT("/:id/working-hours", authMW, manageRole, h.UpdateWorkingHours)
		stores.POST("/:id/services", authMW, manageRole, h.CreateService)
	}
}

// CreateStore handles POST /api/v1/stores.
func (h *StoreHandler) CreateStore(c *gin.Context) {
	var req application.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.storeService.CreateStore(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetStore handles GET /api/v1/stores/:id.
func (h *StoreHandler) GetStore(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid store ID")
		return
	}

	result, err := h.storeService.GetStore(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateWorkingHours handles PUT /api/v1/stores/:id/working-hours.
func (h *StoreHandler) UpdateWorkingHours(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid store ID")
		return
	}

	var req application.UpdateWorkingHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.storeService.UpdateWorkingHours(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CreateService handles POST /api/v1/stores/:id/services.
func (h *StoreHandler) CreateService(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid store ID")
		return
	}

	var req application.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.storeService.CreateService(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListServices handles GET /api/v1/stores/:id/services.
func (h *StoreHandler) ListServices(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid store ID")
		return
	}

	result, err := h.storeService.ListServices(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetSlots handles GET /api/v1/stores/:id/slots?service_id=...&date=YYYY-MM-DD.
func (h *StoreHandler) GetSlots(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid store ID")
		return
	}

	serviceID, err := uuid.Parse(c.Query("service_id"))
	if err != nil {
		response.BadRequest(c, "invalid or missing service_id")
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.BadRequest(c, "invalid or missing date (use YYYY-MM-DD)")
		return
	}

	slots, err := h.slotService.GenerateSlots(c.Request.Context(), storeID, serviceID, date)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"store_id":   storeID,
		"service_id": serviceID,
		"date":       c.Query("date"),
		"slots":      slots,
	})
}
