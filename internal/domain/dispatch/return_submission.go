package dispatch

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldstock/backend/internal/domain/shared"
)

// ReturnOutcome describes what happened to a returned quantity
type ReturnOutcome string

const (
	// OutcomeReturned means the units came back to the warehouse in usable condition
	OutcomeReturned ReturnOutcome = "RETURNED"
	// OutcomeRepair means the units came back but need repair before re-use
	OutcomeRepair ReturnOutcome = "REPAIR"
	// OutcomeScrap means the units are permanently written off
	OutcomeScrap ReturnOutcome = "SCRAP"
	// OutcomeTransferred means the units moved to a different site without
	// returning to the warehouse
	OutcomeTransferred ReturnOutcome = "TRANSFERRED"
)

// IsValid returns true if the outcome is valid
func (o ReturnOutcome) IsValid() bool {
	switch o {
	case OutcomeReturned, OutcomeRepair, OutcomeScrap, OutcomeTransferred:
		return true
	}
	return false
}

// String returns the string representation of ReturnOutcome
func (o ReturnOutcome) String() string {
	return string(o)
}

// ReturnEntry is one outcome bucket within a submission line: a quantity and
// what happened to it.
type ReturnEntry struct {
	Quantity     decimal.Decimal
	Outcome      ReturnOutcome
	Notes        string
	TargetSiteID *uuid.UUID // required for TRANSFERRED
}

// ReturnLine groups the entries submitted against one challan line
type ReturnLine struct {
	ChallanItemID uuid.UUID
	Entries       []ReturnEntry
}

// TotalQuantity sums the line's entry quantities
func (l ReturnLine) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range l.Entries {
		total = total.Add(entry.Quantity)
	}
	return total
}

// ReturnSubmission is a single reconciliation against one challan. Every
// included line must account for exactly its outstanding balance; lines not
// included are left for a later submission.
type ReturnSubmission struct {
	ChallanID uuid.UUID
	Lines     []ReturnLine
}

// Validate checks the submission against the challan before any effect is
// applied. Order of checks: challan state, line existence, entry shape, then
// the outstanding-balance sum per line.
func (s ReturnSubmission) Validate(challan *Challan) error {
	if challan.Status.IsTerminal() {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Challan %s is %s; no further returns accepted",
				challan.ChallanNumber, challan.Status))
	}
	if challan.Status == StatusDraft {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			"Cannot submit returns against a DRAFT challan")
	}
	if len(s.Lines) == 0 {
		return shared.NewDomainError(shared.CodeValidationError,
			"Return submission must include at least one line")
	}

	seen := make(map[uuid.UUID]bool, len(s.Lines))
	for _, line := range s.Lines {
		if seen[line.ChallanItemID] {
			return shared.NewDomainError(shared.CodeValidationError,
				fmt.Sprintf("Challan line %s appears more than once in the submission", line.ChallanItemID))
		}
		seen[line.ChallanItemID] = true

		challanLine, err := challan.ItemLine(line.ChallanItemID)
		if err != nil {
			return err
		}
		if len(line.Entries) == 0 {
			return shared.NewDomainError(shared.CodeValidationError,
				"Return line must include at least one entry")
		}

		for _, entry := range line.Entries {
			if entry.Quantity.LessThanOrEqual(decimal.Zero) || !entry.Quantity.IsInteger() {
				return shared.NewDomainError(shared.CodeValidationError,
					"Entry quantity must be a positive whole number")
			}
			if !entry.Outcome.IsValid() {
				return shared.NewDomainError(shared.CodeValidationError,
					fmt.Sprintf("Invalid return outcome %q", entry.Outcome))
			}
			if entry.Outcome == OutcomeTransferred {
				if entry.TargetSiteID == nil || *entry.TargetSiteID == uuid.Nil {
					return shared.NewDomainError(shared.CodeValidationError,
						"TRANSFERRED entries must name a target site")
				}
				if *entry.TargetSiteID == challan.SiteID {
					return shared.NewDomainError(shared.CodeValidationError,
						"Cannot transfer stock to the site it is already at")
				}
			}
		}

		outstanding := challanLine.OutstandingQuantity()
		if !line.TotalQuantity().Equal(outstanding) {
			return shared.NewDomainError(shared.CodeReconciliationMismatch,
				fmt.Sprintf("Line entries sum to %s but the outstanding balance is %s; a submission must account for exactly the outstanding quantity",
					line.TotalQuantity().String(), outstanding.String()))
		}
	}
	return nil
}
