package dispatch

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldstock/backend/internal/domain/dispatch"
)

// TransportRequest carries dispatch particulars when sending a challan
type TransportRequest struct {
	VehicleNumber string     `json:"vehicle_number" binding:"required,max=50"`
	DriverName    string     `json:"driver_name" binding:"required,max=100"`
	DriverPhone   string     `json:"driver_phone" binding:"omitempty,max=20"`
	DispatchDate  *time.Time `json:"dispatch_date"`
}

func (r TransportRequest) toDomain() dispatch.TransportDetails {
	details := dispatch.TransportDetails{
		VehicleNumber: r.VehicleNumber,
		DriverName:    r.DriverName,
		DriverPhone:   r.DriverPhone,
	}
	if r.DispatchDate != nil {
		details.DispatchDate = *r.DispatchDate
	}
	return details
}

// ChallanLineRequest is one dispatch line when creating or editing a challan
type ChallanLineRequest struct {
	ItemID   uuid.UUID       `json:"item_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// CreateChallanRequest creates a challan. With Transport set the challan is
// dispatched immediately; without it the challan stays an editable draft.
type CreateChallanRequest struct {
	ProjectID          uuid.UUID            `json:"project_id" binding:"required"`
	SiteID             uuid.UUID            `json:"site_id" binding:"required"`
	Lines              []ChallanLineRequest `json:"lines" binding:"omitempty,dive"`
	Remarks            string               `json:"remarks" binding:"omitempty,max=500"`
	Transport          *TransportRequest    `json:"transport"`
	ExpectedReturnDate *time.Time           `json:"expected_return_date"`
}

// CancelChallanRequest aborts a challan
type CancelChallanRequest struct {
	Reason string `json:"reason" binding:"required,max=255"`
}

// ReturnEntryRequest is one outcome bucket in a return submission
type ReturnEntryRequest struct {
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	Outcome      string          `json:"outcome" binding:"required,oneof=RETURNED REPAIR SCRAP TRANSFERRED"`
	Notes        string          `json:"notes" binding:"omitempty,max=500"`
	TargetSiteID *uuid.UUID      `json:"target_site_id"`
}

// ReturnLineRequest groups the entries submitted against one challan line
type ReturnLineRequest struct {
	ChallanItemID uuid.UUID            `json:"challan_item_id" binding:"required"`
	Entries       []ReturnEntryRequest `json:"entries" binding:"required,min=1,dive"`
}

// SubmitReturnRequest reconciles returned stock against one challan
type SubmitReturnRequest struct {
	Lines []ReturnLineRequest `json:"lines" binding:"required,min=1,dive"`
}

func (r SubmitReturnRequest) toDomain(challanID uuid.UUID) dispatch.ReturnSubmission {
	submission := dispatch.ReturnSubmission{ChallanID: challanID}
	for _, line := range r.Lines {
		domainLine := dispatch.ReturnLine{ChallanItemID: line.ChallanItemID}
		for _, entry := range line.Entries {
			domainLine.Entries = append(domainLine.Entries, dispatch.ReturnEntry{
				Quantity:     entry.Quantity,
				Outcome:      dispatch.ReturnOutcome(entry.Outcome),
				Notes:        entry.Notes,
				TargetSiteID: entry.TargetSiteID,
			})
		}
		submission.Lines = append(submission.Lines, domainLine)
	}
	return submission
}

// ChallanLineResponse represents one challan line in API responses
type ChallanLineResponse struct {
	ID               uuid.UUID       `json:"id"`
	ItemID           uuid.UUID       `json:"item_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	ReturnedQuantity decimal.Decimal `json:"returned_quantity"`
	Outstanding      decimal.Decimal `json:"outstanding"`
	ReturnStatus     string          `json:"return_status"`
}

// TransportResponse represents transport details in API responses
type TransportResponse struct {
	VehicleNumber string    `json:"vehicle_number"`
	DriverName    string    `json:"driver_name"`
	DriverPhone   string    `json:"driver_phone,omitempty"`
	DispatchDate  time.Time `json:"dispatch_date"`
}

// ChallanResponse represents a challan in API responses
type ChallanResponse struct {
	ID            uuid.UUID             `json:"id"`
	ChallanNumber string                `json:"challan_number"`
	ProjectID     uuid.UUID             `json:"project_id"`
	SiteID        uuid.UUID             `json:"site_id"`
	Status        string                `json:"status"`
	Transport     *TransportResponse    `json:"transport,omitempty"`
	Items         []ChallanLineResponse `json:"items"`
	Outstanding   decimal.Decimal       `json:"outstanding"`
	Remarks       string                `json:"remarks,omitempty"`
	CancelReason  string                `json:"cancel_reason,omitempty"`
	SentAt        *time.Time            `json:"sent_at,omitempty"`
	ClosedAt      *time.Time            `json:"closed_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// ToChallanResponse converts a challan to its response form
func ToChallanResponse(challan *dispatch.Challan) ChallanResponse {
	lines := make([]ChallanLineResponse, len(challan.Items))
	for i := range challan.Items {
		line := &challan.Items[i]
		lines[i] = ChallanLineResponse{
			ID:               line.ID,
			ItemID:           line.ItemID,
			Quantity:         line.Quantity,
			ReturnedQuantity: line.ReturnedQuantity,
			Outstanding:      line.OutstandingQuantity(),
			ReturnStatus:     string(line.ReturnStatus),
		}
	}

	response := ChallanResponse{
		ID:            challan.ID,
		ChallanNumber: challan.ChallanNumber,
		ProjectID:     challan.ProjectID,
		SiteID:        challan.SiteID,
		Status:        challan.Status.String(),
		Items:         lines,
		Outstanding:   challan.OutstandingQuantity(),
		Remarks:       challan.Remarks,
		CancelReason:  challan.CancelReason,
		SentAt:        challan.SentAt,
		ClosedAt:      challan.ClosedAt,
		CreatedAt:     challan.CreatedAt,
		UpdatedAt:     challan.UpdatedAt,
	}
	if challan.SentAt != nil {
		response.Transport = &TransportResponse{
			VehicleNumber: challan.Transport.VehicleNumber,
			DriverName:    challan.Transport.DriverName,
			DriverPhone:   challan.Transport.DriverPhone,
			DispatchDate:  challan.Transport.DispatchDate,
		}
	}
	return response
}

// ReturnRecordResponse represents one applied return entry
type ReturnRecordResponse struct {
	ID           uuid.UUID       `json:"id"`
	ChallanID    uuid.UUID       `json:"challan_id"`
	ItemID       uuid.UUID       `json:"item_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Outcome      string          `json:"outcome"`
	Notes        string          `json:"notes,omitempty"`
	TargetSiteID *uuid.UUID      `json:"target_site_id,omitempty"`
	RecordedAt   time.Time       `json:"recorded_at"`
}

// ToReturnRecordResponse converts a return record to its response form
func ToReturnRecordResponse(record *dispatch.ReturnRecord) ReturnRecordResponse {
	return ReturnRecordResponse{
		ID:           record.ID,
		ChallanID:    record.ChallanID,
		ItemID:       record.ItemID,
		Quantity:     record.Quantity,
		Outcome:      record.Outcome.String(),
		Notes:        record.Notes,
		TargetSiteID: record.TargetSiteID,
		RecordedAt:   record.RecordedAt,
	}
}
