package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AgendaLivre/service-scheduling/internal/application"
	"github.com/AgendaLivre/service-scheduling/pkg/auth"
	"github.com/AgendaLivre/service-scheduling/pkg/middleware"
	"github.com/AgendaLivre/service-scheduling/pkg/response"
)

// CouponHandler handles HTTP requests for coupon operations.
type CouponHandler struct {
	service *application.CouponService
}

// NewCouponHandler creates a new CouponHandler.
func NewCouponHandler(service *application.CouponService) *CouponHandler {
	return &CouponHandler{service: service}
}

// RegisterRoutes registers all coupon routes.
func (h *CouponHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	manageRole := middleware.RequireRole(auth.RoleStore, auth.RoleAdmin)

	coupons := r.Group("/coupons")
	coupons.Use(authMW)
	{
		coupons.POST("", manageRole, h.CreateCoupon)
		coupons.POST("/validate", h.ValidateCoupon)
		coupons.GET("/active", h.GetActiveCoupons)
		coupons.DELETE("/:id", manageRole, h.DeactivateCoupon)
	}
}

// CreateCoupon handles POST /api/v1/coupons.
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req application.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateCoupon(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ValidateCoupon handles POST /api/v1/coupons/validate.
func (h *CouponHandler) ValidateCoupon(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ValidateCoupon(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetActiveCoupons handles GET /api/v1/coupons/active?store_id=....
func (h *CouponHandler) GetActiveCoupons(c *gin.Context) {
	storeID, err := uuid.Parse(c.Query("store_id"))
	if err != nil {
		response.BadRequest(c, "invalid or missing store_id")
		return
	}

	result, err := h.service.GetActiveCoupons(c.Request.Context(), storeID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeactivateCoupon handles DELETE /api/v1/coupons/:id.
func (h *CouponHandler) DeactivateCoupon(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid coupon ID")
		return
	}

	result, err := h.service.DeactivateCoupon(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
