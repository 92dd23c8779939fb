package shipments

import (
	"net/url"

	"github.com/lodestarfreight/mailroom/pkg/query"
	"github.com/lodestarfreight/mailroom/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "shipments", "s").
	Project("id", "ID").
	Project("reference", "Reference").
	Project("booking_number", "BookingNumber").
	Project("bl_number", "BLNumber").
	Project("carrier_id", "CarrierID").
	Project("workflow_state", "WorkflowState").
	Project("workflow_phase", "WorkflowPhase").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UpdatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for shipment queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	Reference     *string `json:"reference,omitempty"`
	BookingNumber *string `json:"booking_number,omitempty"`
	BLNumber      *string `json:"bl_number,omitempty"`
	CarrierID     *string `json:"carrier_id,omitempty"`
	WorkflowState *string `json:"workflow_state,omitempty"`
	WorkflowPhase *string `json:"workflow_phase,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Reference", f.Reference).
		WhereEquals("BookingNumber", f.BookingNumber).
		WhereEquals("BLNumber", f.BLNumber).
		WhereEquals("CarrierID", f.CarrierID).
		WhereEquals("WorkflowState", f.WorkflowState).
		WhereEquals("WorkflowPhase", f.WorkflowPhase)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	for param, target := range map[string]**string{
		"reference":      &f.Reference,
		"booking_number": &f.BookingNumber,
		"bl_number":      &f.BLNumber,
		"carrier_id":     &f.CarrierID,
		"workflow_state": &f.WorkflowState,
		"workflow_phase": &f.WorkflowPhase,
	} {
		if v := values.Get(param); v != "" {
			value := v
			*target = &value
		}
	}

	return f
}

func scanShipment(s repository.Scanner) (Shipment, error) {
	var sh Shipment

	err := s.Scan(
		&sh.ID,
		&sh.Reference,
		&sh.BookingNumber,
		&sh.BLNumber,
		&sh.CarrierID,
		&sh.WorkflowState,
		&sh.WorkflowPhase,
		&sh.CreatedAt,
		&sh.UpdatedAt,
	)

	return sh, err
}

func scanTransition(s repository.Scanner) (Transition, error) {
	var t Transition

	err := s.Scan(
		&t.ID,
		&t.ShipmentID,
		&t.FromState,
		&t.ToState,
		&t.TriggeredByDocumentType,
		&t.TriggeredByEmailID,
		&t.CreatedAt,
	)

	return t, err
}
