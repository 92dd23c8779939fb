package classify

import "context"

// FallbackQuery carries the email fields sent to the external AI
// classifier when no deterministic signal matches.
type FallbackQuery struct {
	Subject             string   `json:"subject"`
	SenderEmail         string   `json:"sender_email"`
	BodyText            string   `json:"body_text,omitempty"`
	AttachmentFilenames []string `json:"attachment_filenames,omitempty"`
	AttachmentContent   string   `json:"attachment_content,omitempty"`
}

// FallbackResult is the structured output of the AI classifier.
type FallbackResult struct {
	DocumentType string `json:"document_type"`
	SubType      string `json:"sub_type,omitempty"`
	Confidence   int    `json:"confidence"`
	CarrierID    string `json:"carrier_id,omitempty"`
	Reasoning    string `json:"reasoning"`
}

// Fallback is the external AI classification capability. Implementations
// must honor context cancellation and may fail for any reason; the engine
// treats every error as "no match" and never lets one abort classification.
type Fallback interface {
	Classify(ctx context.Context, q FallbackQuery) (*FallbackResult, error)
}
