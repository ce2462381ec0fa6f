package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/BengkelGo/service-marketplace/internal/application"
	"github.com/BengkelGo/service-marketplace/internal/auth"
	"github.com/BengkelGo/service-marketplace/internal/domain/refund"
	"github.com/BengkelGo/service-marketplace/internal/middleware"
	"github.com/BengkelGo/service-marketplace/internal/response"
)

// RefundHandler handles HTTP requests for refund case operations.
type RefundHandler struct {
	service *application.RefundService
}

// NewRefundHandler creates a new RefundHandler.
func NewRefundHandler(service *application.RefundService) *RefundHandler {
	return &RefundHandler{service: service}
}

// RegisterRoutes registers all refund routes on the given router group.
func (h *RefundHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("/:id/refund", middleware.RequireRole(auth.RoleCustomer), h.CreateRefundCase)
		bookings.GET("/:id/refund", h.GetBookingRefund)
	}

	refunds := r.Group("/api/v1/refunds")
	refunds.Use(authMW)
	{
		refunds.GET("/:id", h.GetRefundCase)
		refunds.POST("/:id/resolve", middleware.RequireRole(auth.RoleOwner), h.ResolveRefund)
		refunds.POST("/:id/comments", h.AddComment)
	}

	workshops := r.Group("/api/v1/workshops")
	workshops.Use(authMW)
	{
		workshops.GET("/:id/refunds", middleware.RequireRole(auth.RoleOwner), h.ListWorkshopRefunds)
	}
}

// CreateRefundCase handles POST /api/v1/bookings/:id/refund.
func (h *RefundHandler) CreateRefundCase(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}
	customerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateRefundCase(c.Request.Context(), customerID, bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// GetBookingRefund handles GET /api/v1/bookings/:id/refund.
func (h *RefundHandler) GetBookingRefund(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.GetBookingRefund(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetRefundCase handles GET /api/v1/refunds/:id.
func (h *RefundHandler) GetRefundCase(c *gin.Context) {
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid refund ID")
		return
	}

	result, err := h.service.GetRefundCase(c.Request.Context(), refundID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ResolveRefund handles POST /api/v1/refunds/:id/resolve.
func (h *RefundHandler) ResolveRefund(c *gin.Context) {
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid refund ID")
		return
	}
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.ResolveRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.ResolveRefund(c.Request.Context(), ownerID, refundID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// AddComment handles POST /api/v1/refunds/:id/comments. The author role is
// derived from the authenticated role, never from the request body.
func (h *RefundHandler) AddComment(c *gin.Context) {
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid refund ID")
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	role, ok := middleware.GetUserRole(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	authorRole := refund.AuthorUser
	if role == auth.RoleOwner {
		authorRole = refund.AuthorOwner
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.AddComment(c.Request.Context(), userID, refundID, authorRole, req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListWorkshopRefunds handles GET /api/v1/workshops/:id/refunds.
func (h *RefundHandler) ListWorkshopRefunds(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop ID")
		return
	}
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.ListWorkshopRefunds(c.Request.Context(), ownerID, workshopID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}
