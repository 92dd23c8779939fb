// Package ai provides the AI fallback classifier consulted when no
// deterministic signal matches an email.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lodestarfreight/mailroom/classify"
	"github.com/lodestarfreight/mailroom/internal/config"
	"github.com/lodestarfreight/mailroom/pkg/formatting"
)

// bodyLimit caps how much email body is sent to the model.
const bodyLimit = 4000

// Classifier implements classify.Fallback against an OpenAI-compatible
// chat completion endpoint.
type Classifier struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// New creates a Classifier from the AI configuration. Returns nil when the
// fallback is disabled; the engine tolerates a nil fallback.
func New(cfg *config.AIConfig, logger *slog.Logger) *Classifier {
	if !cfg.Enabled {
		return nil
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey())
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Classifier{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: logger.With("system", "ai"),
	}
}

const systemPrompt = `You classify freight-forwarding emails into shipping document types.
Valid document types: booking_confirmation, booking_amendment, booking_cancellation,
si_draft, si_confirmation, vgm_filing, customs_clearance_origin, bl_draft, sob_confirmation,
mbl, hbl, isf_filing, arrival_notice, customs_entry, delivery_order, pod,
commercial_invoice, packing_list, rate_quote, general_correspondence.
Respond with a JSON object:
{"document_type": string, "sub_type": string, "confidence": integer 0-100, "carrier_id": string, "reasoning": string}
Use empty strings for unknown sub_type or carrier_id. Use general_correspondence when nothing fits.`

type response struct {
	DocumentType string `json:"document_type"`
	SubType      string `json:"sub_type"`
	Confidence   int    `json:"confidence"`
	CarrierID    string `json:"carrier_id"`
	Reasoning    string `json:"reasoning"`
}

// Classify sends one email to the model and parses its structured answer.
// A single attempt, no retries; callers degrade on any error.
func (c *Classifier) Classify(ctx context.Context, q classify.FallbackQuery) (*classify.FallbackResult, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(q)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	parsed, err := formatting.Parse[response](resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("ai classification",
		"document_type", parsed.DocumentType,
		"confidence", parsed.Confidence,
	)

	return &classify.FallbackResult{
		DocumentType: parsed.DocumentType,
		SubType:      parsed.SubType,
		Confidence:   parsed.Confidence,
		CarrierID:    parsed.CarrierID,
		Reasoning:    parsed.Reasoning,
	}, nil
}

func buildPrompt(q classify.FallbackQuery) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Subject: %s\nSender: %s\n", q.Subject, q.SenderEmail)

	if len(q.AttachmentFilenames) > 0 {
		fmt.Fprintf(&sb, "Attachments: %s\n", strings.Join(q.AttachmentFilenames, ", "))
	}
	if q.BodyText != "" {
		fmt.Fprintf(&sb, "\nBody:\n%s\n", truncate(q.BodyText, bodyLimit))
	}
	if q.AttachmentContent != "" {
		fmt.Fprintf(&sb, "\nAttachment text:\n%s\n", truncate(q.AttachmentContent, bodyLimit))
	}

	return sb.String()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
