package classify

import "github.com/google/uuid"

// Direction indicates whether an email originated outside the organization
// (inbound) or was sent by internal staff (outbound).
type Direction string

// Message directions. Direction is derived purely from sender identity,
// never from document content.
const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Method records how a classification was produced.
type Method string

// Classification methods.
const (
	MethodDeterministic Method = "deterministic"
	MethodAI            Method = "ai"
)

// DocTypeGeneralCorrespondence is the terminal fallback document type used
// when no deterministic signal matches and the AI fallback yields nothing.
const DocTypeGeneralCorrespondence = "general_correspondence"

// Input carries the email fields consumed by a single classification call.
// It is immutable for the duration of the call.
type Input struct {
	EmailID             uuid.UUID `json:"email_id"`
	Subject             string    `json:"subject"`
	SenderEmail         string    `json:"sender_email"`
	TrueSenderEmail     string    `json:"true_sender_email,omitempty"`
	BodyText            string    `json:"body_text,omitempty"`
	HasAttachments      bool      `json:"has_attachments"`
	AttachmentFilenames []string  `json:"attachment_filenames,omitempty"`
	AttachmentContent   string    `json:"attachment_content,omitempty"`
}

// Sender returns the address used for identity decisions: the true
// originating address when present, otherwise the envelope sender. Some
// ingestion rows carry a carrier's real address even when the mail was
// routed through an internal relay field.
func (in *Input) Sender() string {
	if in.TrueSenderEmail != "" {
		return in.TrueSenderEmail
	}
	return in.SenderEmail
}

// Result is the outcome of classifying one email. Reclassification
// overwrites a prior result, never merges with it.
type Result struct {
	EmailID           uuid.UUID `json:"email_id"`
	DocumentType      string    `json:"document_type"`
	SubType           string    `json:"sub_type,omitempty"`
	CarrierID         string    `json:"carrier_id,omitempty"`
	Confidence        int       `json:"confidence"`
	Method            Method    `json:"method"`
	MatchedPattern    string    `json:"matched_pattern,omitempty"`
	Direction         Direction `json:"direction"`
	WorkflowState     string    `json:"workflow_state,omitempty"`
	NeedsManualReview bool      `json:"needs_manual_review"`
	Reason            string    `json:"reason"`
}

// MatchCandidate is the uniform output of every signal matcher: the single
// best rule match within one signal category.
type MatchCandidate struct {
	DocumentType string
	CarrierID    string
	Confidence   int
	Priority     int
	Pattern      string
	Source       string
	Reason       string
}

// SignalMatcher is the capability shared by all five signal categories.
// Match returns the highest-priority candidate in its category, or false
// when nothing in the category applies. Among rules with equal priority the
// one declared earlier in the table wins, which keeps repeated runs over
// identical input byte-for-byte reproducible.
type SignalMatcher interface {
	Match(in *Input) (*MatchCandidate, bool)
}

// StateMapper resolves the workflow state a classified document maps to.
// Implemented by the workflow package's mapping table.
type StateMapper interface {
	StateFor(documentType string, direction string) (string, bool)
}
