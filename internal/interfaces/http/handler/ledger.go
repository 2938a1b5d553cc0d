package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appinventory "github.com/fieldstock/backend/internal/application/inventory"
	"github.com/fieldstock/backend/internal/interfaces/http/middleware"
	"github.com/fieldstock/backend/internal/interfaces/http/router"
)

// LedgerHandler handles item registry and stock ledger endpoints
type LedgerHandler struct {
	BaseHandler
	ledgerService *appinventory.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *appinventory.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// Routes returns the inventory route group
func (h *LedgerHandler) Routes() *router.DomainGroup {
	routes := router.NewDomainGroup("inventory", "/inventory")

	routes.POST("/items", h.CreateItem)
	routes.GET("/items", h.ListItems)
	routes.GET("/items/sku/:sku", h.GetItemBySKU)
	routes.GET("/items/:id", h.GetItem)
	routes.GET("/items/:id/movements", h.ListMovements)
	routes.POST("/items/snapshot", h.StockSnapshot)

	routes.POST("/stock/reserve", h.Reserve)
	routes.POST("/stock/reserve-batch", h.ReserveMany)
	routes.POST("/stock/release", h.Release)
	routes.POST("/stock/write-off", h.WriteOff)
	routes.POST("/stock/receive", h.ReceivePurchase)
	routes.POST("/stock/adjust", h.Adjust)

	routes.POST("/repairs/move", h.MoveToRepair)
	routes.POST("/repairs/complete", h.CompleteRepair)

	return routes
}

// CreateItem registers a new SKU with zero stock
func (h *LedgerHandler) CreateItem(c *gin.Context) {
	var req appinventory.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	item, err := h.ledgerService.CreateItem(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, item)
}

// GetItem retrieves an item by ID
func (h *LedgerHandler) GetItem(c *gin.Context) {
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	item, err := h.ledgerService.GetItem(c.Request.Context(), itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, item)
}

// GetItemBySKU retrieves an item by its SKU
func (h *LedgerHandler) GetItemBySKU(c *gin.Context) {
	sku := c.Param("sku")
	if sku == "" {
		h.BadRequest(c, "SKU is required")
		return
	}

	item, err := h.ledgerService.GetItemBySKU(c.Request.Context(), sku)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, item)
}

// ListItems lists items with optional search and pagination
func (h *LedgerHandler) ListItems(c *gin.Context) {
	filter, err := bindFilter(c)
	if err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	items, err := h.ledgerService.ListItems(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, items)
}

// ListMovements lists the ledger entries of one item
func (h *LedgerHandler) ListMovements(c *gin.Context) {
	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	filter, err := bindFilter(c)
	if err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if kind := c.Query("kind"); kind != "" {
		filter.Filters["kind"] = kind
	}

	movements, err := h.ledgerService.ListMovements(c.Request.Context(), itemID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, movements)
}

// StockSnapshotRequest asks for current availability of a set of items
type StockSnapshotRequest struct {
	ItemIDs []uuid.UUID `json:"item_ids" binding:"required,min=1"`
}

// StockSnapshot reports available quantities for a set of items in one read
func (h *LedgerHandler) StockSnapshot(c *gin.Context) {
	var req StockSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	snapshot, err := h.ledgerService.StockSnapshot(c.Request.Context(), req.ItemIDs)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, snapshot)
}

// Reserve moves stock out of the available pool
func (h *LedgerHandler) Reserve(c *gin.Context) {
	h.stockOperation(c, h.ledgerService.Reserve)
}

// Release moves stock back into the available pool
func (h *LedgerHandler) Release(c *gin.Context) {
	h.stockOperation(c, h.ledgerService.Release)
}

// WriteOff removes lost or damaged stock from the available pool
func (h *LedgerHandler) WriteOff(c *gin.Context) {
	h.stockOperation(c, h.ledgerService.WriteOff)
}

// ReceivePurchase adds purchased stock to the available pool
func (h *LedgerHandler) ReceivePurchase(c *gin.Context) {
	h.stockOperation(c, h.ledgerService.ReceivePurchase)
}

// MoveToRepair moves stock from the available pool into the repair pool
func (h *LedgerHandler) MoveToRepair(c *gin.Context) {
	h.stockOperation(c, h.ledgerService.MoveToRepair)
}

func (h *LedgerHandler) stockOperation(
	c *gin.Context,
	op func(ctx context.Context, req appinventory.StockRequest) (*appinventory.ItemResponse, error),
) {
	var req appinventory.StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	item, err := op(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, item)
}

// ReserveMany reserves several items as one all-or-nothing unit
func (h *LedgerHandler) ReserveMany(c *gin.Context) {
	var req appinventory.ReserveManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	items, err := h.ledgerService.ReserveMany(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, items)
}

// Adjust corrects an item's available quantity to a counted value
func (h *LedgerHandler) Adjust(c *gin.Context) {
	var req appinventory.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	item, err := h.ledgerService.Adjust(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, item)
}

// CompleteRepair moves units out of the repair pool
func (h *LedgerHandler) CompleteRepair(c *gin.Context) {
	var req appinventory.CompleteRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	item, err := h.ledgerService.CompleteRepair(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, item)
}
