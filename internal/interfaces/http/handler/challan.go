package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	appdispatch "github.com/fieldstock/backend/internal/application/dispatch"
	"github.com/fieldstock/backend/internal/interfaces/http/middleware"
	"github.com/fieldstock/backend/internal/interfaces/http/router"
)

// ChallanHandler handles challan lifecycle and return reconciliation endpoints
type ChallanHandler struct {
	BaseHandler
	challanService *appdispatch.ChallanService
	returnService  *appdispatch.ReturnService
}

// NewChallanHandler creates a new ChallanHandler
func NewChallanHandler(challanService *appdispatch.ChallanService, returnService *appdispatch.ReturnService) *ChallanHandler {
	return &ChallanHandler{
		challanService: challanService,
		returnService:  returnService,
	}
}

// Routes returns the dispatch route group
func (h *ChallanHandler) Routes() *router.DomainGroup {
	routes := router.NewDomainGroup("dispatch", "/dispatch")

	routes.POST("/challans", h.Create)
	routes.GET("/challans", h.List)
	routes.GET("/challans/number/:number", h.GetByNumber)
	routes.GET("/challans/:id", h.GetByID)
	routes.PUT("/challans/:id/lines", h.UpdateDraftLine)
	routes.POST("/challans/:id/send", h.Send)
	routes.POST("/challans/:id/cancel", h.Cancel)
	routes.POST("/challans/:id/returns", h.SubmitReturn)
	routes.GET("/challans/:id/returns", h.ListReturns)

	return routes
}

// Create creates a challan. With transport details in the body the challan
// is dispatched immediately, otherwise it stays an editable draft.
func (h *ChallanHandler) Create(c *gin.Context) {
	var req appdispatch.CreateChallanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	challan, err := h.challanService.CreateChallan(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, challan)
}

// GetByID retrieves a challan with its lines
func (h *ChallanHandler) GetByID(c *gin.Context) {
	challanID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid challan ID format")
		return
	}

	challan, err := h.challanService.GetChallan(c.Request.Context(), challanID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, challan)
}

// GetByNumber retrieves a challan by document number
func (h *ChallanHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Challan number is required")
		return
	}

	challan, err := h.challanService.GetChallanByNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, challan)
}

// List lists challans, optionally restricted to one status
func (h *ChallanHandler) List(c *gin.Context) {
	filter, err := bindFilter(c)
	if err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if siteID := c.Query("site_id"); siteID != "" {
		filter.Filters["site_id"] = siteID
	}
	if projectID := c.Query("project_id"); projectID != "" {
		filter.Filters["project_id"] = projectID
	}

	page, err := h.challanService.ListChallans(c.Request.Context(), c.Query("status"), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// UpdateDraftLine adds, changes or removes one draft line. Quantity zero
// removes the line.
func (h *ChallanHandler) UpdateDraftLine(c *gin.Context) {
	challanID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid challan ID format")
		return
	}

	var req appdispatch.ChallanLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	challan, err := h.challanService.UpdateDraftLine(c.Request.Context(), challanID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, challan)
}

// SendChallanRequest dispatches a draft challan
type SendChallanRequest struct {
	Transport          appdispatch.TransportRequest `json:"transport" binding:"required"`
	ExpectedReturnDate *time.Time                   `json:"expected_return_date"`
}

// Send dispatches a draft challan with transport details
func (h *ChallanHandler) Send(c *gin.Context) {
	challanID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid challan ID format")
		return
	}

	var req SendChallanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	challan, err := h.challanService.SendChallan(c.Request.Context(), challanID, req.Transport, req.ExpectedReturnDate)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, challan)
}

// Cancel aborts a challan and releases its outstanding stock
func (h *ChallanHandler) Cancel(c *gin.Context) {
	challanID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid challan ID format")
		return
	}

	var req appdispatch.CancelChallanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	challan, err := h.challanService.CancelChallan(c.Request.Context(), challanID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, challan)
}

// SubmitReturn reconciles returned stock against a dispatched challan
func (h *ChallanHandler) SubmitReturn(c *gin.Context) {
	challanID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid challan ID format")
		return
	}

	var req appdispatch.SubmitReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	challan, err := h.returnService.SubmitReturn(c.Request.Context(), challanID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, challan)
}

// ListReturns lists the return records of one challan
func (h *ChallanHandler) ListReturns(c *gin.Context) {
	challanID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid challan ID format")
		return
	}

	records, err := h.returnService.ListReturns(c.Request.Context(), challanID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, records)
}
