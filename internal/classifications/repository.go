package classifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lodestarfreight/mailroom/classify"
	"github.com/lodestarfreight/mailroom/extract"
	"github.com/lodestarfreight/mailroom/internal/emails"
	"github.com/lodestarfreight/mailroom/pkg/pagination"
	"github.com/lodestarfreight/mailroom/pkg/pdftext"
	"github.com/lodestarfreight/mailroom/pkg/query"
	"github.com/lodestarfreight/mailroom/pkg/repository"
	"github.com/lodestarfreight/mailroom/pkg/storage"
)

// batchWorkers bounds concurrent batch classification. Emails are
// independent; operations on the same shipment are serialized downstream.
const batchWorkers = 4

type repo struct {
	db         *sql.DB
	engine     *classify.Engine
	extractor  *pdftext.Extractor
	storage    storage.System
	emails     emails.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a classification repository implementing the System interface.
func New(
	db *sql.DB,
	engine *classify.Engine,
	extractor *pdftext.Extractor,
	store storage.System,
	emailSys emails.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		engine:     engine,
		extractor:  extractor,
		storage:    store,
		emails:     emailSys,
		logger:     logger.With("system", "classifications"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Classification], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "DocumentType", "Reason")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count classifications: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanClassification)
	if err != nil {
		return nil, fmt.Errorf("query classifications: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Classification, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanClassification)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) FindByEmail(ctx context.Context, emailID uuid.UUID) (*Classification, error) {
	q, args := query.NewBuilder(projection).BuildSingle("EmailID", emailID)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanClassification)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

// Classify runs the engine over one email and replaces any prior
// classification row for it. Every email ends with exactly one row: an
// unmatched email is stored as general correspondence flagged for review.
// When the write fails the computed classification is still returned
// alongside the error.
func (r *repo) Classify(ctx context.Context, emailID uuid.UUID) (*Classification, error) {
	email, err := r.emails.Find(ctx, emailID)
	if err != nil {
		return nil, fmt.Errorf("load email %s: %w", emailID, err)
	}

	attachmentText := r.attachmentText(ctx, email)

	result := r.engine.Classify(ctx, classify.Input{
		EmailID:             email.ID,
		Subject:             email.Subject,
		SenderEmail:         email.SenderEmail,
		TrueSenderEmail:     deref(email.TrueSenderEmail),
		BodyText:            email.BodyText,
		HasAttachments:      email.HasAttachments,
		AttachmentFilenames: email.AttachmentFilenames,
		AttachmentContent:   attachmentText,
	})

	entities := extract.Extract(email.Subject, email.BodyText+"\n"+attachmentText)
	quality := extract.ScoreCompleteness(result.DocumentType, extract.FieldsFromEntities(entities))

	entitiesJSON, err := json.Marshal(entities)
	if err != nil {
		return nil, fmt.Errorf("marshal entities: %w", err)
	}

	insertQ := `
		INSERT INTO classifications(
			email_id, document_type, sub_type, carrier_id, confidence, method,
			matched_pattern, direction, workflow_state, needs_manual_review,
			reason, entities, quality_score
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, email_id, document_type, sub_type, carrier_id, confidence,
				  method, matched_pattern, direction, workflow_state,
				  needs_manual_review, reason, entities, quality_score, classified_at`

	insertArgs := []any{
		emailID,
		result.DocumentType,
		nullable(result.SubType),
		nullable(result.CarrierID),
		result.Confidence,
		string(result.Method),
		nullable(result.MatchedPattern),
		string(result.Direction),
		nullable(result.WorkflowState),
		result.NeedsManualReview,
		result.Reason,
		entitiesJSON,
		quality,
	}

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Classification, error) {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM classifications WHERE email_id = $1", emailID,
		); err != nil {
			return Classification{}, fmt.Errorf("replace classification: %w", err)
		}
		return repository.QueryOne(ctx, tx, insertQ, insertArgs, scanClassification)
	})
	if err != nil {
		// The engine already ran; hand the caller the unsaved result so a
		// storage outage never discards a classification.
		return unsaved(emailID, result, entities, quality), repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("email classified",
		"id", c.ID,
		"email_id", emailID,
		"document_type", c.DocumentType,
		"direction", c.Direction,
		"confidence", c.Confidence,
		"method", c.Method,
	)
	return &c, nil
}

// ClassifyBatch classifies independent emails with bounded concurrency.
// Result order matches input order; per-email failures are reported in
// place, never abort the batch.
func (r *repo) ClassifyBatch(ctx context.Context, cmd BatchCommand) ([]BatchResult, error) {
	if len(cmd.EmailIDs) == 0 {
		return nil, ErrNoEmails
	}

	results := make([]BatchResult, len(cmd.EmailIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchWorkers)

	for i, emailID := range cmd.EmailIDs {
		g.Go(func() error {
			results[i] = BatchResult{EmailID: emailID}

			c, err := r.Classify(gctx, emailID)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Classification = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM classifications WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("classification deleted", "id", id)
	return nil
}

// attachmentText downloads the stored attachment and extracts its text.
// Any failure along the way degrades to classification without content
// signals.
func (r *repo) attachmentText(ctx context.Context, email *emails.Email) string {
	if email.AttachmentKey == nil || r.extractor == nil {
		return ""
	}

	dl, err := r.storage.Download(ctx, *email.AttachmentKey)
	if err != nil {
		r.logger.Warn("attachment download failed", "email_id", email.ID, "error", err)
		return ""
	}
	defer dl.Body.Close()

	data, err := io.ReadAll(dl.Body)
	if err != nil {
		r.logger.Warn("attachment read failed", "email_id", email.ID, "error", err)
		return ""
	}

	res := r.extractor.Extract(data)
	if !res.Success {
		return ""
	}
	return res.Text
}

// unsaved builds the in-memory classification returned when persistence
// fails. ID and ClassifiedAt stay zero: no row was written.
func unsaved(emailID uuid.UUID, result classify.Result, entities []extract.Entity, quality int) *Classification {
	return &Classification{
		EmailID:           emailID,
		DocumentType:      result.DocumentType,
		SubType:           nullable(result.SubType),
		CarrierID:         nullable(result.CarrierID),
		Confidence:        result.Confidence,
		Method:            string(result.Method),
		MatchedPattern:    nullable(result.MatchedPattern),
		Direction:         string(result.Direction),
		WorkflowState:     nullable(result.WorkflowState),
		NeedsManualReview: result.NeedsManualReview,
		Reason:            result.Reason,
		Entities:          entities,
		QualityScore:      quality,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
