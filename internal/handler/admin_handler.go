package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AgendaLivre/service-scheduling/internal/application"
	"github.com/AgendaLivre/service-scheduling/pkg/auth"
	"github.com/AgendaLivre/service-scheduling/pkg/middleware"
	"github.com/AgendaLivre/service-scheduling/pkg/response"
)

// AdminHandler handles admin HTTP requests for appointment oversight.
type AdminHandler struct {
	bookingService *application.BookingService
	couponService  *application.CouponService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(bookingService *application.BookingService, couponService *application.CouponService) *AdminHandler {
	return &AdminHandler{
		bookingService: bookingService,
		couponService:  couponService,
	}
}

// RegisterRoutes registers admin routes. Store owners can read their own
// store's data through these as well.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	manageRole := middleware.RequireRole(auth.RoleStore, auth.RoleAdmin)

	admin := r.Group("/admin")
	admin.Use(authMW, manageRole)
	{
		admin.GET("/stores/:id/appointments", h.ListStoreAppointments)
		admin.GET("/stores/:id/stats", h.StoreStats)
		admin.GET("/stores/:id/coupons", h.ListStoreCoupons)
	}
}

// ListStoreAppointments handles GET /api/v1/admin/stores/:id/appointments.
func (h *AdminHandler) ListStoreAppointments(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid store ID")
		return
	}

	page, limit := pagination(c)
	appointments, total, err := h.bookingService.ListStoreAppointments(c.Request.Context(), storeID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, appointments, total, page, limit)
}

// StoreStats handles GET /api/v1/admin/stores/:id/stats.
func (h *AdminHandler) StoreStats(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid store ID")
		return
	}

	stats, err := h.bookingService.GetStats(c.Request.Context(), storeID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// ListStoreCoupons handles GET /api/v1/admin/stores/:id/coupons.
func (h *AdminHandler) ListStoreCoupons(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid store ID")
		return
	}

	coupons, err := h.couponService.GetActiveCoupons(c.Request.Context(), storeID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, coupons)
}
