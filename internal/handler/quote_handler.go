package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/BengkelGo/service-marketplace/internal/application"
	"github.com/BengkelGo/service-marketplace/internal/auth"
	"github.com/BengkelGo/service-marketplace/internal/middleware"
	"github.com/BengkelGo/service-marketplace/internal/response"
)

// QuoteHandler handles HTTP requests for quote operations.
type QuoteHandler struct {
	service *application.QuoteService
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(service *application.QuoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// RegisterRoutes registers all quote routes on the given router group.
func (h *QuoteHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("/:id/quote", middleware.RequireRole(auth.RoleOwner), h.CreateQuote)
		bookings.GET("/:id/quote", h.GetBookingQuote)
	}

	quotes := r.Group("/api/v1/quotes")
	quotes.Use(authMW)
	{
		quotes.GET("/:id", h.GetQuote)
		quotes.DELETE("/:id", middleware.RequireRole(auth.RoleOwner), h.WithdrawQuote)
		quotes.POST("/:id/accept", middleware.RequireRole(auth.RoleCustomer), h.AcceptQuote)
		quotes.POST("/:id/reject", middleware.RequireRole(auth.RoleCustomer), h.RejectQuote)
	}
}

// CreateQuote handles POST /api/v1/bookings/:id/quote.
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateQuote(c.Request.Context(), ownerID, bookingID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// GetBookingQuote handles GET /api/v1/bookings/:id/quote.
func (h *QuoteHandler) GetBookingQuote(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.GetBookingQuote(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetQuote handles GET /api/v1/quotes/:id.
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	quoteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quote ID")
		return
	}

	result, err := h.service.GetQuote(c.Request.Context(), quoteID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// WithdrawQuote handles DELETE /api/v1/quotes/:id.
func (h *QuoteHandler) WithdrawQuote(c *gin.Context) {
	quoteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quote ID")
		return
	}
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.WithdrawQuote(c.Request.Context(), ownerID, quoteID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AcceptQuote handles POST /api/v1/quotes/:id/accept.
func (h *QuoteHandler) AcceptQuote(c *gin.Context) {
	quoteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quote ID")
		return
	}
	customerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.AcceptQuote(c.Request.Context(), customerID, quoteID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RejectQuote handles POST /api/v1/quotes/:id/reject.
func (h *QuoteHandler) RejectQuote(c *gin.Context) {
	quoteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid quote ID")
		return
	}
	customerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.RejectQuote(c.Request.Context(), customerID, quoteID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
