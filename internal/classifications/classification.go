// Package classifications implements the classification domain for
// Mailroom. It wires the deterministic engine, PDF text extraction, and
// entity extraction together and persists one classification row per
// email. Reclassification replaces the prior row, never merges.
package classifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/lodestarfreight/mailroom/extract"
)

// Classification represents a stored classification result for an email.
// It mirrors the classifications table schema.
type Classification struct {
	ID                uuid.UUID        `json:"id"`
	EmailID           uuid.UUID        `json:"email_id"`
	DocumentType      string           `json:"document_type"`
	SubType           *string          `json:"sub_type"`
	CarrierID         *string          `json:"carrier_id"`
	Confidence        int              `json:"confidence"`
	Method            string           `json:"method"`
	MatchedPattern    *string          `json:"matched_pattern"`
	Direction         string           `json:"direction"`
	WorkflowState     *string          `json:"workflow_state"`
	NeedsManualReview bool             `json:"needs_manual_review"`
	Reason            string           `json:"reason"`
	Entities          []extract.Entity `json:"entities"`
	QualityScore      int              `json:"quality_score"`
	ClassifiedAt      time.Time        `json:"classified_at"`
}

// BatchResult reports the outcome of one email within a batch
// classification. On failure Error describes the problem and
// Classification is nil.
type BatchResult struct {
	EmailID        uuid.UUID       `json:"email_id"`
	Classification *Classification `json:"classification,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// BatchCommand carries the email ids for a batch classification request.
type BatchCommand struct {
	EmailIDs []uuid.UUID `json:"email_ids"`
}
