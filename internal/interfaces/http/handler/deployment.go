package handler

import (
	"github.com/gin-gonic/gin"

	appsite "github.com/fieldstock/backend/internal/application/site"
	"github.com/fieldstock/backend/internal/interfaces/http/middleware"
	"github.com/fieldstock/backend/internal/interfaces/http/router"
)

// DeploymentHandler handles site deployment tracking endpoints
type DeploymentHandler struct {
	BaseHandler
	deploymentService *appsite.DeploymentService
}

// NewDeploymentHandler creates a new DeploymentHandler
func NewDeploymentHandler(deploymentService *appsite.DeploymentService) *DeploymentHandler {
	return &DeploymentHandler{deploymentService: deploymentService}
}

// Routes returns the site route group
func (h *DeploymentHandler) Routes() *router.DomainGroup {
	routes := router.NewDomainGroup("site", "/sites")

	routes.POST("/deployments", h.Deploy)
	routes.POST("/deployments/transfer", h.Transfer)
	routes.POST("/deployments/:id/close", h.CloseOut)
	routes.GET("/deployments/:id", h.GetDeployment)
	routes.GET("/:site_id/deployments", h.ListBySite)
	routes.GET("/items/:item_id/deployments", h.ListByItem)
	routes.GET("/items/:item_id/deployed-quantity", h.DeployedQuantity)

	return routes
}

// Deploy reserves warehouse stock and opens or extends a site deployment
func (h *DeploymentHandler) Deploy(c *gin.Context) {
	var req appsite.DeployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	deployment, err := h.deploymentService.Deploy(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, deployment)
}

// Transfer moves deployed stock between sites without touching the warehouse
func (h *DeploymentHandler) Transfer(c *gin.Context) {
	var req appsite.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	deployment, err := h.deploymentService.Transfer(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, deployment)
}

// CloseOut returns a deployment's remaining units to the warehouse and
// closes it
func (h *DeploymentHandler) CloseOut(c *gin.Context) {
	deploymentID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid deployment ID format")
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	deployment, err := h.deploymentService.CloseOut(c.Request.Context(), appsite.CloseOutRequest{
		DeploymentID: deploymentID,
		Reason:       body.Reason,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, deployment)
}

// GetDeployment retrieves one deployment record
func (h *DeploymentHandler) GetDeployment(c *gin.Context) {
	deploymentID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid deployment ID format")
		return
	}

	deployment, err := h.deploymentService.GetDeployment(c.Request.Context(), deploymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, deployment)
}

// ListBySite lists the open deployments at one site
func (h *DeploymentHandler) ListBySite(c *gin.Context) {
	siteID, ok := parseUUIDParam(c, "site_id")
	if !ok {
		h.BadRequest(c, "Invalid site ID format")
		return
	}

	deployments, err := h.deploymentService.ListOpenBySite(c.Request.Context(), siteID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, deployments)
}

// ListByItem lists the open deployments of one item across sites
func (h *DeploymentHandler) ListByItem(c *gin.Context) {
	itemID, ok := parseUUIDParam(c, "item_id")
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	deployments, err := h.deploymentService.ListOpenByItem(c.Request.Context(), itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, deployments)
}

// DeployedQuantityResponse reports the total quantity of an item out at sites
type DeployedQuantityResponse struct {
	ItemID           string `json:"item_id"`
	DeployedQuantity string `json:"deployed_quantity"`
}

// DeployedQuantity reports the total deployed quantity of one item
func (h *DeploymentHandler) DeployedQuantity(c *gin.Context) {
	itemID, ok := parseUUIDParam(c, "item_id")
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	quantity, err := h.deploymentService.DeployedQuantity(c.Request.Context(), itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, DeployedQuantityResponse{
		ItemID:           itemID.String(),
		DeployedQuantity: quantity.String(),
	})
}
