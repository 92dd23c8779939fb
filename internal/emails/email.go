// Package emails implements the email registry for Mailroom. Ingested
// emails are the unit of classification: the classifications system reads
// sender identity and body text from here, and the shipments system reads
// direction context for auto-transitions.
package emails

import (
	"time"

	"github.com/google/uuid"
)

// Email represents one ingested email. BodyText is plain text; attachment
// bytes live in blob storage under AttachmentKey.
type Email struct {
	ID                  uuid.UUID `json:"id"`
	Subject             string    `json:"subject"`
	SenderEmail         string    `json:"sender_email"`
	TrueSenderEmail     *string   `json:"true_sender_email"`
	BodyText            string    `json:"body_text"`
	HasAttachments      bool      `json:"has_attachments"`
	AttachmentFilenames []string  `json:"attachment_filenames"`
	AttachmentKey       *string   `json:"attachment_key"`
	ReceivedAt          time.Time `json:"received_at"`
	CreatedAt           time.Time `json:"created_at"`
}

// CreateCommand carries the data needed to register an email. ReceivedAt
// defaults to the current time when nil. TrueSenderEmail records the
// originating address when the envelope sender is a relay.
type CreateCommand struct {
	Subject             string     `json:"subject"`
	SenderEmail         string     `json:"sender_email"`
	TrueSenderEmail     *string    `json:"true_sender_email,omitempty"`
	BodyText            string     `json:"body_text,omitempty"`
	AttachmentFilenames []string   `json:"attachment_filenames,omitempty"`
	ReceivedAt          *time.Time `json:"received_at,omitempty"`
}
