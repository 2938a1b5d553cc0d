package dispatch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldstock/backend/internal/domain/shared"
)

// ChallanStatus represents the lifecycle state of a dispatch challan
type ChallanStatus string

const (
	// StatusDraft is an editable scaffold with no stock impact
	StatusDraft ChallanStatus = "DRAFT"
	// StatusSent means stock has been reserved and dispatched
	StatusSent ChallanStatus = "SENT"
	// StatusPartiallyReturned means some but not all dispatched stock is back
	StatusPartiallyReturned ChallanStatus = "PARTIALLY_RETURNED"
	// StatusReturned means every line is fully accounted for
	StatusReturned ChallanStatus = "RETURNED"
	// StatusCancelled means the challan was aborted and outstanding stock released
	StatusCancelled ChallanStatus = "CANCELLED"
)

// String returns the string representation of ChallanStatus
func (s ChallanStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is valid
func (s ChallanStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPartiallyReturned, StatusReturned, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status permits no further mutation
func (s ChallanStatus) IsTerminal() bool {
	return s == StatusReturned || s == StatusCancelled
}

// CanTransitionTo checks whether the state machine allows the transition
func (s ChallanStatus) CanTransitionTo(target ChallanStatus) bool {
	switch s {
	case StatusDraft:
		return target == StatusSent || target == StatusCancelled
	case StatusSent:
		return target == StatusPartiallyReturned || target == StatusReturned || target == StatusCancelled
	case StatusPartiallyReturned:
		return target == StatusReturned || target == StatusCancelled
	}
	return false
}

// LineReturnStatus summarises how a challan line's returns resolved so far
type LineReturnStatus string

const (
	// LinePending means nothing has come back yet
	LinePending LineReturnStatus = "PENDING"
	// LinePartial means part of the line is accounted for
	LinePartial LineReturnStatus = "PARTIAL"
	// LineSettled means the full quantity is accounted for
	LineSettled LineReturnStatus = "SETTLED"
)

// TransportDetails carries the dispatch particulars supplied when a challan
// is sent
type TransportDetails struct {
	VehicleNumber string    `gorm:"type:varchar(50)"`
	DriverName    string    `gorm:"type:varchar(100)"`
	DriverPhone   string    `gorm:"type:varchar(20)"`
	DispatchDate  time.Time
}

// Validate checks the transport details are complete enough to dispatch
func (t TransportDetails) Validate() error {
	if t.VehicleNumber == "" {
		return shared.NewDomainError(shared.CodeValidationError, "Vehicle number is required to dispatch")
	}
	if t.DriverName == "" {
		return shared.NewDomainError(shared.CodeValidationError, "Driver name is required to dispatch")
	}
	return nil
}

// ChallanItem is one dispatched line on a challan
type ChallanItem struct {
	shared.BaseEntity
	ChallanID        uuid.UUID        `gorm:"type:uuid;not null;index:idx_challan_item_challan"`
	ItemID           uuid.UUID        `gorm:"type:uuid;not null;index:idx_challan_item_item"`
	Quantity         decimal.Decimal  `gorm:"type:decimal(18,0);not null"`
	ReturnedQuantity decimal.Decimal  `gorm:"type:decimal(18,0);not null;default:0"`
	ReturnStatus     LineReturnStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
}

// TableName returns the table name for GORM
func (ChallanItem) TableName() string {
	return "challan_items"
}

// OutstandingQuantity returns the dispatched quantity not yet accounted for
func (ci *ChallanItem) OutstandingQuantity() decimal.Decimal {
	return ci.Quantity.Sub(ci.ReturnedQuantity)
}

// IsSettled reports whether the full line quantity is accounted for
func (ci *ChallanItem) IsSettled() bool {
	return ci.ReturnedQuantity.GreaterThanOrEqual(ci.Quantity)
}

// Challan is a dispatch document: an ordered set of item lines sent to a
// project site, tracked until every unit is returned, transferred, scrapped
// or the challan is cancelled.
type Challan struct {
	shared.BaseAggregateRoot
	ChallanNumber string           `gorm:"type:varchar(50);not null;uniqueIndex:idx_challans_number"`
	ProjectID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_challan_project"`
	SiteID        uuid.UUID        `gorm:"type:uuid;not null;index:idx_challan_site"`
	Status        ChallanStatus    `gorm:"type:varchar(20);not null;default:'DRAFT';index:idx_challan_status"`
	Transport     TransportDetails `gorm:"embedded;embeddedPrefix:transport_"`
	Items         []ChallanItem    `gorm:"foreignKey:ChallanID;constraint:OnDelete:CASCADE"`
	Remarks       string           `gorm:"type:varchar(500)"`
	CancelReason  string           `gorm:"type:varchar(255)"`
	SentAt        *time.Time
	ClosedAt      *time.Time
}

// TableName returns the table name for GORM
func (Challan) TableName() string {
	return "challans"
}

// NewChallan creates a new challan in DRAFT status
func NewChallan(challanNumber string, projectID, siteID uuid.UUID) (*Challan, error) {
	if challanNumber == "" {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Challan number cannot be empty")
	}
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Project ID cannot be empty")
	}
	if siteID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationError, "Site ID cannot be empty")
	}

	challan := &Challan{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ChallanNumber:     challanNumber,
		ProjectID:         projectID,
		SiteID:            siteID,
		Status:            StatusDraft,
	}
	challan.AddDomainEvent(NewChallanCreatedEvent(challan))
	return challan, nil
}

// ItemLine returns the line with the given ID, or a NOT_FOUND error
func (c *Challan) ItemLine(challanItemID uuid.UUID) (*ChallanItem, error) {
	for i := range c.Items {
		if c.Items[i].ID == challanItemID {
			return &c.Items[i], nil
		}
	}
	return nil, shared.NewDomainError(shared.CodeNotFound,
		fmt.Sprintf("Challan line %s not found", challanItemID))
}

// AddItem appends a dispatch line. Lines can only change while DRAFT.
func (c *Challan) AddItem(itemID uuid.UUID, quantity decimal.Decimal) error {
	if c.Status != StatusDraft {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			"Challan lines can only be edited in DRAFT status")
	}
	if itemID == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidationError, "Item ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) || !quantity.IsInteger() {
		return shared.NewDomainError(shared.CodeValidationError,
			"Line quantity must be a positive whole number")
	}
	for _, line := range c.Items {
		if line.ItemID == itemID {
			return shared.NewDomainError(shared.CodeAlreadyExists,
				"Item already present on challan; update the existing line")
		}
	}

	c.Items = append(c.Items, ChallanItem{
		BaseEntity:       shared.NewBaseEntity(),
		ChallanID:        c.ID,
		ItemID:           itemID,
		Quantity:         quantity,
		ReturnedQuantity: decimal.Zero,
		ReturnStatus:     LinePending,
	})
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// UpdateItemQuantity changes a DRAFT line's quantity
func (c *Challan) UpdateItemQuantity(challanItemID uuid.UUID, quantity decimal.Decimal) error {
	if c.Status != StatusDraft {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			"Challan lines can only be edited in DRAFT status")
	}
	if quantity.LessThanOrEqual(decimal.Zero) || !quantity.IsInteger() {
		return shared.NewDomainError(shared.CodeValidationError,
			"Line quantity must be a positive whole number")
	}

	line, err := c.ItemLine(challanItemID)
	if err != nil {
		return err
	}
	line.Quantity = quantity
	line.UpdatedAt = time.Now()
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// RemoveItem deletes a DRAFT line
func (c *Challan) RemoveItem(challanItemID uuid.UUID) error {
	if c.Status != StatusDraft {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			"Challan lines can only be edited in DRAFT status")
	}
	for i := range c.Items {
		if c.Items[i].ID == challanItemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.UpdatedAt = time.Now()
			c.IncrementVersion()
			return nil
		}
	}
	return shared.NewDomainError(shared.CodeNotFound,
		fmt.Sprintf("Challan line %s not found", challanItemID))
}

// Send transitions DRAFT to SENT with the supplied transport details. Stock
// reservation happens in the application layer within the same transaction.
func (c *Challan) Send(transport TransportDetails) error {
	if !c.Status.CanTransitionTo(StatusSent) {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot send challan in %s status", c.Status))
	}
	if len(c.Items) == 0 {
		return shared.NewDomainError(shared.CodeValidationError,
			"Cannot send a challan with no lines")
	}
	if err := transport.Validate(); err != nil {
		return err
	}
	if transport.DispatchDate.IsZero() {
		transport.DispatchDate = time.Now()
	}

	c.Transport = transport
	c.Status = StatusSent
	now := time.Now()
	c.SentAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()
	c.AddDomainEvent(NewChallanSentEvent(c))
	return nil
}

// ApplyReturn records accounted-for quantity against a line and recomputes
// line and challan status. The caller validates the submission beforehand.
func (c *Challan) ApplyReturn(challanItemID uuid.UUID, quantity decimal.Decimal) error {
	if c.Status != StatusSent && c.Status != StatusPartiallyReturned {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot apply returns to a challan in %s status", c.Status))
	}

	line, err := c.ItemLine(challanItemID)
	if err != nil {
		return err
	}
	if quantity.LessThanOrEqual(decimal.Zero) || !quantity.IsInteger() {
		return shared.NewDomainError(shared.CodeValidationError,
			"Returned quantity must be a positive whole number")
	}
	if quantity.GreaterThan(line.OutstandingQuantity()) {
		return shared.NewDomainError(shared.CodeReconciliationMismatch,
			"Returned quantity exceeds the line's outstanding balance")
	}

	line.ReturnedQuantity = line.ReturnedQuantity.Add(quantity)
	if line.IsSettled() {
		line.ReturnStatus = LineSettled
	} else {
		line.ReturnStatus = LinePartial
	}
	line.UpdatedAt = time.Now()

	c.recomputeStatus()
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// recomputeStatus advances the challan once lines settle. A fully settled
// challan becomes RETURNED; any accounted-for quantity short of that makes
// it PARTIALLY_RETURNED.
func (c *Challan) recomputeStatus() {
	allSettled := true
	anyReturned := false
	for i := range c.Items {
		if !c.Items[i].IsSettled() {
			allSettled = false
		}
		if c.Items[i].ReturnedQuantity.GreaterThan(decimal.Zero) {
			anyReturned = true
		}
	}

	switch {
	case allSettled:
		c.Status = StatusReturned
		now := time.Now()
		c.ClosedAt = &now
		c.AddDomainEvent(NewChallanReturnedEvent(c))
	case anyReturned:
		c.Status = StatusPartiallyReturned
	}
}

// OutstandingQuantity totals the not-yet-accounted-for quantity across lines
func (c *Challan) OutstandingQuantity() decimal.Decimal {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].OutstandingQuantity())
	}
	return total
}

// Cancel aborts the challan. DRAFT challans cancel freely; SENT and
// PARTIALLY_RETURNED challans cancel only while outstanding quantity remains,
// and the application layer releases that quantity in the same transaction.
func (c *Challan) Cancel(reason string) error {
	if !c.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot cancel challan in %s status", c.Status))
	}
	if c.Status != StatusDraft && !c.OutstandingQuantity().GreaterThan(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			"Challan has no outstanding quantity; it is already fully accounted for")
	}
	if reason == "" {
		return shared.NewDomainError(shared.CodeValidationError, "Cancel reason is required")
	}

	c.Status = StatusCancelled
	c.CancelReason = reason
	now := time.Now()
	c.ClosedAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()
	c.AddDomainEvent(NewChallanCancelledEvent(c, reason))
	return nil
}
