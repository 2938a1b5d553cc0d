package handler

import (
	"github.com/gin-gonic/gin"

	appbundle "github.com/fieldstock/backend/internal/application/bundle"
	"github.com/fieldstock/backend/internal/interfaces/http/middleware"
	"github.com/fieldstock/backend/internal/interfaces/http/router"
)

// BundleHandler handles kit template and availability endpoints
type BundleHandler struct {
	BaseHandler
	bundleService *appbundle.BundleService
}

// NewBundleHandler creates a new BundleHandler
func NewBundleHandler(bundleService *appbundle.BundleService) *BundleHandler {
	return &BundleHandler{bundleService: bundleService}
}

// Routes returns the bundle route group
func (h *BundleHandler) Routes() *router.DomainGroup {
	routes := router.NewDomainGroup("bundle", "/bundles")

	routes.POST("/templates", h.CreateTemplate)
	routes.GET("/templates", h.ListTemplates)
	routes.GET("/templates/:id", h.GetTemplate)
	routes.POST("/templates/:id/components", h.AddComponent)
	routes.POST("/templates/:id/deactivate", h.DeactivateTemplate)
	routes.GET("/templates/:id/availability", h.KitAvailability)
	routes.POST("/allocate", h.AllocateKit)

	return routes
}

// CreateTemplate defines a new kit with its component lines
func (h *BundleHandler) CreateTemplate(c *gin.Context) {
	var req appbundle.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	template, err := h.bundleService.CreateTemplate(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, template)
}

// GetTemplate retrieves a template with its components
func (h *BundleHandler) GetTemplate(c *gin.Context) {
	templateID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid template ID format")
		return
	}

	template, err := h.bundleService.GetTemplate(c.Request.Context(), templateID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, template)
}

// ListTemplates lists templates with optional search and pagination
func (h *BundleHandler) ListTemplates(c *gin.Context) {
	filter, err := bindFilter(c)
	if err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if active := c.Query("active"); active != "" {
		filter.Filters["active"] = active == "true"
	}

	page, err := h.bundleService.ListTemplates(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// AddComponent appends a component line to a template
func (h *BundleHandler) AddComponent(c *gin.Context) {
	templateID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid template ID format")
		return
	}

	var req appbundle.ComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	template, err := h.bundleService.AddTemplateComponent(c.Request.Context(), templateID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, template)
}

// DeactivateTemplate retires a template from dispatch use
func (h *BundleHandler) DeactivateTemplate(c *gin.Context) {
	templateID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid template ID format")
		return
	}

	template, err := h.bundleService.DeactivateTemplate(c.Request.Context(), templateID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, template)
}

// KitAvailability reports how many complete kits current stock can cover
func (h *BundleHandler) KitAvailability(c *gin.Context) {
	templateID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid template ID format")
		return
	}

	availability, err := h.bundleService.ResolveKitAvailability(c.Request.Context(), templateID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, availability)
}

// AllocateKit reserves every component of a kit as one all-or-nothing unit
func (h *BundleHandler) AllocateKit(c *gin.Context) {
	var req appbundle.AllocateKitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	allocation, err := h.bundleService.AllocateKit(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, allocation)
}
