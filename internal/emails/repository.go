package emails

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/lodestarfreight/mailroom/pkg/pagination"
	"github.com/lodestarfreight/mailroom/pkg/query"
	"github.com/lodestarfreight/mailroom/pkg/repository"
	"github.com/lodestarfreight/mailroom/pkg/storage"
)

const emailColumns = `id, subject, sender_email, true_sender_email, body_text,
		has_attachments, attachment_filenames, attachment_key, received_at, created_at`

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an email repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "emails"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Email], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Subject", "SenderEmail")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count emails: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEmail)
	if err != nil {
		return nil, fmt.Errorf("query emails: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Email, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEmail)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Email, error) {
	if cmd.Subject == "" || cmd.SenderEmail == "" {
		return nil, ErrMissingField
	}

	receivedAt := time.Now().UTC()
	if cmd.ReceivedAt != nil {
		receivedAt = *cmd.ReceivedAt
	}

	filenames := cmd.AttachmentFilenames
	if filenames == nil {
		filenames = []string{}
	}
	filenamesJSON, err := json.Marshal(filenames)
	if err != nil {
		return nil, fmt.Errorf("marshal attachment_filenames: %w", err)
	}

	q := `
		INSERT INTO emails(id, subject, sender_email, true_sender_email, body_text,
			has_attachments, attachment_filenames, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + emailColumns

	insertArgs := []any{
		uuid.New(),
		cmd.Subject,
		cmd.SenderEmail,
		cmd.TrueSenderEmail,
		cmd.BodyText,
		len(filenames) > 0,
		filenamesJSON,
		receivedAt,
	}

	e, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Email, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanEmail)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("email registered", "id", e.ID, "sender", e.SenderEmail)
	return &e, nil
}

func (r *repo) AttachFile(
	ctx context.Context,
	id uuid.UUID,
	filename string,
	data []byte,
	contentType string,
) (*Email, error) {
	if _, err := r.Find(ctx, id); err != nil {
		return nil, err
	}

	key := buildStorageKey(id, sanitizeFilename(filename))
	if err := r.storage.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return nil, fmt.Errorf("upload attachment blob: %w", err)
	}

	q := `
		UPDATE emails
		SET has_attachments = TRUE,
			attachment_key = $1,
			attachment_filenames = (
				SELECT to_jsonb(array_agg(DISTINCT f))
				FROM jsonb_array_elements_text(attachment_filenames || to_jsonb(ARRAY[$2::text])) AS f
			)
		WHERE id = $3
		RETURNING ` + emailColumns

	e, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Email, error) {
		return repository.QueryOne(ctx, tx, q, []any{key, filename, id}, scanEmail)
	})
	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("attachment stored", "id", id, "key", key)
	return &e, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	e, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM emails WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if e.AttachmentKey != nil {
		if delErr := r.storage.Delete(ctx, *e.AttachmentKey); delErr != nil {
			r.logger.Warn("blob delete failed after DB delete", "key", *e.AttachmentKey, "error", delErr)
		}
	}

	r.logger.Info("email deleted", "id", id)
	return nil
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("emails/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "attachment"
	}
	return url.PathEscape(name)
}
