package emails_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestarfreight/mailroom/internal/emails"
	"github.com/lodestarfreight/mailroom/pkg/lifecycle"
	"github.com/lodestarfreight/mailroom/pkg/pagination"
	"github.com/lodestarfreight/mailroom/pkg/storage"
)

type blobStub struct {
	uploads map[string][]byte
	deleted []string
}

func (s *blobStub) Start(*lifecycle.Coordinator) error { return nil }

func (s *blobStub) Upload(_ context.Context, key string, reader io.Reader, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if s.uploads == nil {
		s.uploads = map[string][]byte{}
	}
	s.uploads[key] = data
	return nil
}

func (s *blobStub) Download(context.Context, string) (*storage.DownloadResult, error) {
	return nil, storage.ErrNotFound
}

func (s *blobStub) Find(context.Context, string) (*storage.Metadata, error) {
	return nil, storage.ErrNotFound
}

func (s *blobStub) List(context.Context, string, string, int32) (*storage.ListResult, error) {
	return &storage.ListResult{}, nil
}

func (s *blobStub) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *blobStub) Exists(context.Context, string) (bool, error) { return false, nil }

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, mock
}

func newSystem(db *sql.DB, blob *blobStub) emails.System {
	return emails.New(db, blob, slog.Default(), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})
}

var emailCols = []string{
	"id", "subject", "sender_email", "true_sender_email", "body_text",
	"has_attachments", "attachment_filenames", "attachment_key",
	"received_at", "created_at",
}

func emailRow(id uuid.UUID, subject, sender string, filenames []byte, key any) *sqlmock.Rows {
	hasAttachments := key != nil
	return sqlmock.NewRows(emailCols).AddRow(
		id.String(), subject, sender, nil, "body text",
		hasAttachments, filenames, key, time.Now(), time.Now(),
	)
}

func TestCreateRequiresFields(t *testing.T) {
	db, mock := newMock(t)
	sys := newSystem(db, &blobStub{})

	tests := []struct {
		name string
		cmd  emails.CreateCommand
	}{
		{"missing subject", emails.CreateCommand{SenderEmail: "ops@acme.com"}},
		{"missing sender", emails.CreateCommand{Subject: "Booking request"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sys.Create(context.Background(), tt.cmd)
			require.ErrorIs(t, err, emails.ErrMissingField)
		})
	}

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate(t *testing.T) {
	db, mock := newMock(t)
	sys := newSystem(db, &blobStub{})
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO emails`).
		WithArgs(
			sqlmock.AnyArg(),
			"Booking Confirmation: 123456789",
			"noreply@maersk.com",
			nil,
			"body text",
			false,
			[]byte(`[]`),
			sqlmock.AnyArg(),
		).
		WillReturnRows(emailRow(id, "Booking Confirmation: 123456789", "noreply@maersk.com", []byte(`[]`), nil))
	mock.ExpectCommit()

	got, err := sys.Create(context.Background(), emails.CreateCommand{
		Subject:     "Booking Confirmation: 123456789",
		SenderEmail: "noreply@maersk.com",
		BodyText:    "body text",
	})
	require.NoError(t, err)

	assert.Equal(t, id, got.ID)
	assert.False(t, got.HasAttachments)
	assert.Empty(t, got.AttachmentFilenames)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindNotFound(t *testing.T) {
	db, mock := newMock(t)
	sys := newSystem(db, &blobStub{})

	mock.ExpectQuery(`FROM public\.emails e WHERE e\.id = \$1`).
		WillReturnError(sql.ErrNoRows)

	_, err := sys.Find(context.Background(), uuid.New())
	require.ErrorIs(t, err, emails.ErrNotFound)
}

func TestAttachFile(t *testing.T) {
	db, mock := newMock(t)
	blob := &blobStub{}
	sys := newSystem(db, blob)
	id := uuid.New()
	key := fmt.Sprintf("emails/%s/invoice.pdf", id)

	mock.ExpectQuery(`FROM public\.emails e WHERE e\.id = \$1`).
		WithArgs(id).
		WillReturnRows(emailRow(id, "Invoice", "billing@maersk.com", []byte(`[]`), nil))
	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE emails`).
		WithArgs(key, "invoice.pdf", id).
		WillReturnRows(emailRow(id, "Invoice", "billing@maersk.com", []byte(`["invoice.pdf"]`), key))
	mock.ExpectCommit()

	got, err := sys.AttachFile(context.Background(), id, "invoice.pdf", []byte("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)

	require.NotNil(t, got.AttachmentKey)
	assert.Equal(t, key, *got.AttachmentKey)
	assert.Equal(t, []string{"invoice.pdf"}, got.AttachmentFilenames)
	assert.Equal(t, []byte("%PDF-1.4"), blob.uploads[key])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachFileCompensatesFailedUpdate(t *testing.T) {
	db, mock := newMock(t)
	blob := &blobStub{}
	sys := newSystem(db, blob)
	id := uuid.New()
	key := fmt.Sprintf("emails/%s/invoice.pdf", id)

	mock.ExpectQuery(`FROM public\.emails e WHERE e\.id = \$1`).
		WithArgs(id).
		WillReturnRows(emailRow(id, "Invoice", "billing@maersk.com", []byte(`[]`), nil))
	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE emails`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := sys.AttachFile(context.Background(), id, "invoice.pdf", []byte("%PDF-1.4"), "application/pdf")
	require.Error(t, err)

	assert.Contains(t, blob.deleted, key)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRemovesBlob(t *testing.T) {
	db, mock := newMock(t)
	blob := &blobStub{}
	sys := newSystem(db, blob)
	id := uuid.New()
	key := fmt.Sprintf("emails/%s/bl_copy.pdf", id)

	mock.ExpectQuery(`FROM public\.emails e WHERE e\.id = \$1`).
		WithArgs(id).
		WillReturnRows(emailRow(id, "BL Copy", "docs@hapag-lloyd.com", []byte(`["bl_copy.pdf"]`), key))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM emails WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := sys.Delete(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, []string{key}, blob.deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
