// Package shipments implements the shipment workflow runtime for
// Mailroom. It owns shipment rows, the append-only transition audit log,
// the workflow state definition table with its TTL cache, and the
// auto-transition path driven by classified documents.
package shipments

import (
	"time"

	"github.com/google/uuid"
)

// Shipment represents one forwarding file. WorkflowState is nil until the
// first transition lands the shipment in the entry state.
type Shipment struct {
	ID            uuid.UUID `json:"id"`
	Reference     string    `json:"reference"`
	BookingNumber *string   `json:"booking_number"`
	BLNumber      *string   `json:"bl_number"`
	CarrierID     *string   `json:"carrier_id"`
	WorkflowState *string   `json:"workflow_state"`
	WorkflowPhase *string   `json:"workflow_phase"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateCommand carries the data needed to open a shipment file.
type CreateCommand struct {
	Reference     string  `json:"reference"`
	BookingNumber *string `json:"booking_number,omitempty"`
	BLNumber      *string `json:"bl_number,omitempty"`
	CarrierID     *string `json:"carrier_id,omitempty"`
}

// TransitionCommand requests a workflow state change. SkipValidation
// bypasses edge checking for trusted callers; forward ordering is still
// the caller's responsibility on that path.
type TransitionCommand struct {
	TargetState             string     `json:"target_state"`
	SkipValidation          bool       `json:"skip_validation,omitempty"`
	TriggeredByDocumentType *string    `json:"triggered_by_document_type,omitempty"`
	TriggeredByEmailID      *uuid.UUID `json:"triggered_by_email_id,omitempty"`
}

// ForceStateCommand overwrites a shipment's workflow state without
// validation or an audit record. Migration and backfill use only.
type ForceStateCommand struct {
	TargetState string `json:"target_state"`
}

// DocumentCommand triggers an auto-transition from a newly classified
// document. Direction and sender identity are resolved from the email.
type DocumentCommand struct {
	DocumentType string    `json:"document_type"`
	EmailID      uuid.UUID `json:"email_id"`
}

// TransitionResult is the structured outcome of a transition attempt.
// Invalid transitions are results, not errors: Success false with Error
// explaining the rejection. Skipped marks forward-only no-ops on the
// auto-transition path.
type TransitionResult struct {
	Success   bool      `json:"success"`
	Skipped   bool      `json:"skipped,omitempty"`
	Error     string    `json:"error,omitempty"`
	FromState *string   `json:"from_state"`
	ToState   string    `json:"to_state,omitempty"`
	Shipment  *Shipment `json:"shipment,omitempty"`
}

// Transition is one audit record. Append-only; one record per successful
// transition.
type Transition struct {
	ID                      uuid.UUID  `json:"id"`
	ShipmentID              uuid.UUID  `json:"shipment_id"`
	FromState               *string    `json:"from_state"`
	ToState                 string     `json:"to_state"`
	TriggeredByDocumentType *string    `json:"triggered_by_document_type"`
	TriggeredByEmailID      *uuid.UUID `json:"triggered_by_email_id"`
	CreatedAt               time.Time  `json:"created_at"`
}

// Status reports a shipment's workflow position.
type Status struct {
	ShipmentID    uuid.UUID `json:"shipment_id"`
	WorkflowState *string   `json:"workflow_state"`
	WorkflowPhase *string   `json:"workflow_phase"`
	Progress      int       `json:"progress"`
	IsComplete    bool      `json:"is_complete"`
}
