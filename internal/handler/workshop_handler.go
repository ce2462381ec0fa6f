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

// WorkshopHandler handles HTTP requests for workshop operations.
type WorkshopHandler struct {
	service *application.WorkshopService
}

// NewWorkshopHandler creates a new WorkshopHandler.
func NewWorkshopHandler(service *application.WorkshopService) *WorkshopHandler {
	return &WorkshopHandler{service: service}
}

// RegisterRoutes registers all workshop routes on the given router group.
func (h *WorkshopHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	// The workshop directory is public.
	r.GET("/api/v1/workshops", h.ListWorkshops)
	r.GET("/api/v1/workshops/:id", h.GetWorkshop)

	workshops := r.Group("/api/v1/workshops")
	workshops.Use(authMW, middleware.RequireRole(auth.RoleOwner))
	{
		workshops.POST("", h.CreateWorkshop)
		workshops.PUT("/:id", h.UpdateWorkshop)
	}

	owner := r.Group("/api/v1/owner")
	owner.Use(authMW, middleware.RequireRole(auth.RoleOwner))
	{
		owner.GET("/workshops", h.GetOwnerWorkshops)
	}
}

// CreateWorkshop handles POST /api/v1/workshops.
func (h *WorkshopHandler) CreateWorkshop(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateWorkshopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateWorkshop(c.Request.Context(), ownerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// UpdateWorkshop handles PUT /api/v1/workshops/:id.
func (h *WorkshopHandler) UpdateWorkshop(c *gin.Context) {
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

	var req application.UpdateWorkshopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateWorkshop(c.Request.Context(), ownerID, workshopID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetWorkshop handles GET /api/v1/workshops/:id.
func (h *WorkshopHandler) GetWorkshop(c *gin.Context) {
	workshopID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop ID")
		return
	}

	result, err := h.service.GetWorkshop(c.Request.Context(), workshopID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetOwnerWorkshops handles GET /api/v1/owner/workshops.
func (h *WorkshopHandler) GetOwnerWorkshops(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetOwnerWorkshops(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListWorkshops handles GET /api/v1/workshops.
func (h *WorkshopHandler) ListWorkshops(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListWorkshops(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}
