package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lodestarfreight/mailroom/extract"
	"github.com/lodestarfreight/mailroom/pkg/handlers"
	"github.com/lodestarfreight/mailroom/pkg/routes"
)

// extractHandler exposes stateless entity extraction: text in, entities
// out, nothing persisted. Useful for previewing what classification would
// pull from an email before registering it.
type extractHandler struct {
	runtime *Runtime
	logger  *slog.Logger
}

func newExtractHandler(runtime *Runtime, logger *slog.Logger) *extractHandler {
	return &extractHandler{
		runtime: runtime,
		logger:  logger.With("handler", "extract"),
	}
}

type extractRequest struct {
	Subject      string `json:"subject"`
	Body         string `json:"body"`
	DocumentType string `json:"document_type,omitempty"`
}

type extractResponse struct {
	Entities     []extract.Entity `json:"entities"`
	CarrierID    string           `json:"carrier_id,omitempty"`
	QualityScore *int             `json:"quality_score,omitempty"`
}

func (h *extractHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/extract",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.extract},
		},
	}
}

func (h *extractHandler) extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	entities := extract.Extract(req.Subject, req.Body)

	resp := extractResponse{
		Entities:  entities,
		CarrierID: extract.DetectCarrier(req.Subject + "\n" + req.Body),
	}
	if req.DocumentType != "" {
		score := extract.ScoreCompleteness(req.DocumentType, extract.FieldsFromEntities(entities))
		resp.QualityScore = &score
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}
