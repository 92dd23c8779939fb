package emails

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/lodestarfreight/mailroom/pkg/query"
	"github.com/lodestarfreight/mailroom/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "emails", "e").
	Project("id", "ID").
	Project("subject", "Subject").
	Project("sender_email", "SenderEmail").
	Project("true_sender_email", "TrueSenderEmail").
	Project("body_text", "BodyText").
	Project("has_attachments", "HasAttachments").
	Project("attachment_filenames", "AttachmentFilenames").
	Project("attachment_key", "AttachmentKey").
	Project("received_at", "ReceivedAt").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "ReceivedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for email queries.
// Nil fields are ignored.
type Filters struct {
	SenderEmail    *string `json:"sender_email,omitempty"`
	HasAttachments *bool   `json:"has_attachments,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("SenderEmail", f.SenderEmail).
		WhereEquals("HasAttachments", f.HasAttachments)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("sender_email"); s != "" {
		f.SenderEmail = &s
	}
	if h := values.Get("has_attachments"); h != "" {
		if b, err := strconv.ParseBool(h); err == nil {
			f.HasAttachments = &b
		}
	}

	return f
}

func scanEmail(s repository.Scanner) (Email, error) {
	var e Email
	var filenamesRaw []byte

	err := s.Scan(
		&e.ID,
		&e.Subject,
		&e.SenderEmail,
		&e.TrueSenderEmail,
		&e.BodyText,
		&e.HasAttachments,
		&filenamesRaw,
		&e.AttachmentKey,
		&e.ReceivedAt,
		&e.CreatedAt,
	)
	if err != nil {
		return e, err
	}

	if len(filenamesRaw) > 0 {
		if err := json.Unmarshal(filenamesRaw, &e.AttachmentFilenames); err != nil {
			return e, fmt.Errorf("unmarshal attachment_filenames: %w", err)
		}
	}
	if e.AttachmentFilenames == nil {
		e.AttachmentFilenames = []string{}
	}

	return e, nil
}
