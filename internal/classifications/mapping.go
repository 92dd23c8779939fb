package classifications

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/lodestarfreight/mailroom/extract"
	"github.com/lodestarfreight/mailroom/pkg/query"
	"github.com/lodestarfreight/mailroom/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "classifications", "c").
	Project("id", "ID").
	Project("email_id", "EmailID").
	Project("document_type", "DocumentType").
	Project("sub_type", "SubType").
	Project("carrier_id", "CarrierID").
	Project("confidence", "Confidence").
	Project("method", "Method").
	Project("matched_pattern", "MatchedPattern").
	Project("direction", "Direction").
	Project("workflow_state", "WorkflowState").
	Project("needs_manual_review", "NeedsManualReview").
	Project("reason", "Reason").
	Project("entities", "Entities").
	Project("quality_score", "QualityScore").
	Project("classified_at", "ClassifiedAt")

var defaultSort = query.SortField{
	Field:      "ClassifiedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for classification queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	DocumentType      *string    `json:"document_type,omitempty"`
	CarrierID         *string    `json:"carrier_id,omitempty"`
	Direction         *string    `json:"direction,omitempty"`
	Method            *string    `json:"method,omitempty"`
	WorkflowState     *string    `json:"workflow_state,omitempty"`
	NeedsManualReview *bool      `json:"needs_manual_review,omitempty"`
	EmailID           *uuid.UUID `json:"email_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("DocumentType", f.DocumentType).
		WhereEquals("CarrierID", f.CarrierID).
		WhereEquals("Direction", f.Direction).
		WhereEquals("Method", f.Method).
		WhereEquals("WorkflowState", f.WorkflowState).
		WhereEquals("NeedsManualReview", f.NeedsManualReview).
		WhereEquals("EmailID", f.EmailID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("document_type"); v != "" {
		f.DocumentType = &v
	}
	if v := values.Get("carrier_id"); v != "" {
		f.CarrierID = &v
	}
	if v := values.Get("direction"); v != "" {
		f.Direction = &v
	}
	if v := values.Get("method"); v != "" {
		f.Method = &v
	}
	if v := values.Get("workflow_state"); v != "" {
		f.WorkflowState = &v
	}
	if v := values.Get("needs_manual_review"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.NeedsManualReview = &b
		}
	}
	if v := values.Get("email_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.EmailID = &id
		}
	}

	return f
}

func scanClassification(s repository.Scanner) (Classification, error) {
	var c Classification
	var entitiesRaw []byte

	err := s.Scan(
		&c.ID,
		&c.EmailID,
		&c.DocumentType,
		&c.SubType,
		&c.CarrierID,
		&c.Confidence,
		&c.Method,
		&c.MatchedPattern,
		&c.Direction,
		&c.WorkflowState,
		&c.NeedsManualReview,
		&c.Reason,
		&entitiesRaw,
		&c.QualityScore,
		&c.ClassifiedAt,
	)
	if err != nil {
		return c, err
	}

	if len(entitiesRaw) > 0 {
		if err := json.Unmarshal(entitiesRaw, &c.Entities); err != nil {
			return c, fmt.Errorf("unmarshal entities: %w", err)
		}
	}
	if c.Entities == nil {
		c.Entities = []extract.Entity{}
	}

	return c, nil
}
