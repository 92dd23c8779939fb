package shipments_test

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestarfreight/mailroom/classify"
	"github.com/lodestarfreight/mailroom/internal/emails"
	"github.com/lodestarfreight/mailroom/internal/shipments"
	"github.com/lodestarfreight/mailroom/pkg/pagination"
)

const (
	findShipmentSQL     = `FROM public\.shipments s WHERE s\.id = \$1`
	loadStatesSQL       = `FROM workflow_states`
	updateShipmentSQL   = `UPDATE shipments`
	insertShipmentSQL   = `INSERT INTO shipments`
	insertTransitionSQL = `INSERT INTO workflow_transitions`
)

var shipmentCols = []string{
	"id", "reference", "booking_number", "bl_number", "carrier_id",
	"workflow_state", "workflow_phase", "created_at", "updated_at",
}

type emailStub struct {
	email *emails.Email
	err   error
}

func (s *emailStub) Handler(int64) *emails.Handler { return nil }

func (s *emailStub) List(context.Context, pagination.PageRequest, emails.Filters) (*pagination.PageResult[emails.Email], error) {
	return nil, nil
}

func (s *emailStub) Find(context.Context, uuid.UUID) (*emails.Email, error) {
	return s.email, s.err
}

func (s *emailStub) Create(context.Context, emails.CreateCommand) (*emails.Email, error) {
	return nil, nil
}

func (s *emailStub) AttachFile(context.Context, uuid.UUID, string, []byte, string) (*emails.Email, error) {
	return nil, nil
}

func (s *emailStub) Delete(context.Context, uuid.UUID) error { return nil }

func newSystem(t *testing.T, db *sql.DB, emailSys emails.System) shipments.System {
	t.Helper()

	patterns, err := classify.Load(slog.Default())
	require.NoError(t, err)

	if emailSys == nil {
		emailSys = &emailStub{}
	}

	return shipments.New(
		db,
		patterns,
		emailSys,
		time.Minute,
		slog.Default(),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, mock
}

func shipmentRows(id uuid.UUID, reference string, state, phase any) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(shipmentCols).
		AddRow(id.String(), reference, nil, nil, nil, state, phase, now, now)
}

func emptyStateRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"code", "label", "phase", "state_order", "document_types",
		"direction", "optional", "milestone", "terminal", "next_states",
	})
}

func TestCreateRequiresReference(t *testing.T) {
	db, _ := newMock(t)
	sys := newSystem(t, db, nil)

	_, err := sys.Create(context.Background(), shipments.CreateCommand{})
	require.ErrorIs(t, err, shipments.ErrMissingField)
}

func TestCreate(t *testing.T) {
	db, mock := newMock(t)
	sys := newSystem(t, db, nil)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(insertShipmentSQL).
		WithArgs(sqlmock.AnyArg(), "LSF-26-0001", nil, nil, nil).
		WillReturnRows(shipmentRows(id, "LSF-26-0001", nil, nil))
	mock.ExpectCommit()

	got, err := sys.Create(context.Background(), shipments.CreateCommand{Reference: "LSF-26-0001"})
	require.NoError(t, err)

	assert.Equal(t, "LSF-26-0001", got.Reference)
	assert.Nil(t, got.WorkflowState)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindNotFound(t *testing.T) {
	db, mock := newMock(t)
	sys := newSystem(t, db, nil)

	mock.ExpectQuery(findShipmentSQL).WillReturnError(sql.ErrNoRows)

	_, err := sys.Find(context.Background(), uuid.New())
	require.ErrorIs(t, err, shipments.ErrNotFound)
}

func TestTransitionTo(t *testing.T) {
	db, mock := newMock(t)
	sys := newSystem(t, db, nil)
	id := uuid.New()

	mock.ExpectQuery(loadStatesSQL).WillReturnRows(emptyStateRows())
	mock.ExpectQuery(findShipmentSQL).
		WillReturnRows(shipmentRows(id, "LSF-26-0001", "booking_confirmation_received", "pre_shipment"))
	mock.ExpectBegin()
	mock.ExpectExec(updateShipmentSQL).
		WithArgs("si_submitted", "pre_shipment", id, "booking_confirmation_received").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertTransitionSQL).
		WithArgs(sqlmock.AnyArg(), id, "booking_confirmation_received", "si_submitted", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(findShipmentSQL).
		WillReturnRows(shipmentRows(id, "LSF-26-0001", "si_submitted", "pre_shipment"))
	mock.ExpectCommit()

	res, err := sys.TransitionTo(context.Background(), id, shipments.TransitionCommand{
		TargetState: "si_submitted",
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	require.NotNil(t, res.FromState)
	assert.Equal(t, "booking_confirmation_received", *res.FromState)
	assert.Equal(t, "si_submitted", res.ToState)
	require.NotNil(t, res.Shipment)
	require.NotNil(t, res.Shipment.WorkflowState)
	assert.Equal(t, "si_submitted", *res.Shipment.WorkflowState)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionToRejectsBackward(t *testing.T) {
	db, mock := newMock(t)
	sys := newSystem(t, db, nil)
	id := uuid.New()

	mock.ExpectQuery(loadStatesSQL).WillReturnRows(emptyStateRows())
	mock.ExpectQuery(findShipmentSQL).
		WillReturnRows(shipmentRows(id, "LSF-26-0001", "arrival_notice_received", "arrival"))

	res, err := sys.TransitionTo(context.Background(), id, shipments.TransitionCommand{
		TargetState: "si_submitted",
	})
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionToUnknownState(t *testing.T) {
	db, mock := newMock(t)
	sys := newSystem(t, db, nil)
	id := uuid.New()

	mock.ExpectQuery(loadStatesSQL).WillReturnRows(emptyStateRows())
	mock.ExpectQuery(findShipmentSQL).
		WillReturnRows(shipmentRows(id, "LSF-26-0001", nil, nil))

	_, err := sys.TransitionTo(context.Background(), id, shipments.TransitionCommand{
		TargetState: "teleported",
	})
	require.ErrorIs(t, err, shipments.ErrUnknownState)
}

func TestTransitionToConflict(t *testing.T) {
	db, mock := newMock(t)
	sys := newSystem(t, db, nil)
	id := uuid.New()

	mock.ExpectQuery(loadStatesSQL).WillReturnRows(emptyStateRows())
	mock.ExpectQuery(findShipmentSQL).
		WillReturnRows(shipmentRows(id, "LSF-26-0001", "booking_confirmation_received", "pre_shipment"))
	mock.ExpectBegin()
	mock.ExpectExec(updateShipmentSQL).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := sys.TransitionTo(context.Background(), id, shipments.TransitionCommand{
		TargetState: "si_submitted",
	})
	require.ErrorIs(t, err, shipments.ErrStateConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionToPropagatesUpdateFailure(t *testing.T) {
	db, mock := newMock(t)
	sys := newSystem(t, db, nil)
	id := uuid.New()

	mock.ExpectQuery(loadStatesSQL).WillReturnRows(emptyStateRows())
	mock.ExpectQuery(findShipmentSQL).
		WillReturnRows(shipmentRows(id, "LSF-26-0001", "booking_confirmation_received", "pre_shipment"))
	mock.ExpectBegin()
	mock.ExpectExec(updateShipmentSQL).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := sys.TransitionTo(context.Background(), id, shipments.TransitionCommand{
		TargetState: "si_submitted",
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, shipments.ErrStateConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoTransitionAdvances(t *testing.T) {
	db, mock := newMock(t)
	id := uuid.New()
	emailID := uuid.New()

	sys := newSystem(t, db, &emailStub{email: &emails.Email{
		ID:          emailID,
		Subject:     "Shipped on Board MAEU123456789",
		SenderEmail: "noreply@maersk.com",
	}})

	mock.ExpectQuery(loadStatesSQL).WillReturnRows(emptyStateRows())
	mock.ExpectQuery(findShipmentSQL).
		WillReturnRows(shipmentRows(id, "LSF-26-0001", "booking_confirmation_received", "pre_shipment"))
	mock.ExpectBegin()
	mock.ExpectExec(updateShipmentSQL).
		WithArgs("sob_confirmed", "in_transit", id, "booking_confirmation_received").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertTransitionSQL).
		WithArgs(sqlmock.AnyArg(), id, "booking_confirmation_received", "sob_confirmed", "sob_confirmation", emailID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(findShipmentSQL).
		WillReturnRows(shipmentRows(id, "LSF-26-0001", "sob_confirmed", "in_transit"))
	mock.ExpectCommit()

	res, err := sys.AutoTransitionFromDocument(context.Background(), id, shipments.DocumentCommand{
		DocumentType: "sob_confirmation",
		EmailID:      emailID,
	})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "sob_confirmed", res.ToState)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoTransitionSkipsBackwardDocument(t *testing.T) {
	db, mock := newMock(t)
	id := uuid.New()
	emailID := uuid.New()

	sys := newSystem(t, db, &emailStub{email: &emails.Email{
		ID:          emailID,
		Subject:     "Booking Confirmation: 123456789",
		SenderEmail: "noreply@maersk.com",
	}})

	mock.ExpectQuery(loadStatesSQL).WillReturnRows(emptyStateRows())
	mock.ExpectQuery(findShipmentSQL).
		WillReturnRows(shipmentRows(id, "LSF-26-0001", "arrival_notice_received", "arrival"))

	res, err := sys.AutoTransitionFromDocument(context.Background(), id, shipments.DocumentCommand{
		DocumentType: "booking_confirmation",
		EmailID:      emailID,
	})
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.False(t, res.Success)
	assert.Equal(t, "booking_confirmation_received", res.ToState)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoTransitionTerminalState(t *testing.T) {
	db, mock := newMock(t)
	id := uuid.New()
	emailID := uuid.New()

	sys := newSystem(t, db, &emailStub{email: &emails.Email{
		ID:          emailID,
		Subject:     "POD for container MSKU1234565",
		SenderEmail: "dispatch@inland-trucking.com",
	}})

	mock.ExpectQuery(loadStatesSQL).WillReturnRows(emptyStateRows())
	mock.ExpectQuery(findShipmentSQL).
		WillReturnRows(shipmentRows(id, "LSF-26-0001", "pod_received", "delivery"))

	res, err := sys.AutoTransitionFromDocument(context.Background(), id, shipments.DocumentCommand{
		DocumentType: "pod",
		EmailID:      emailID,
	})
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.NotEmpty(t, res.Error)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoTransitionSIBySender(t *testing.T) {
	tests := []struct {
		name      string
		sender    string
		wantState string
		wantPhase string
	}{
		{
			name:      "carrier sender confirms submission",
			sender:    "noreply@maersk.com",
			wantState: "si_submitted",
			wantPhase: "pre_shipment",
		},
		{
			name:      "shipper sender is a draft",
			sender:    "exports@acme-trading.com",
			wantState: "si_draft_received",
			wantPhase: "pre_shipment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			id := uuid.New()
			emailID := uuid.New()

			sys := newSystem(t, db, &emailStub{email: &emails.Email{
				ID:          emailID,
				Subject:     "SI for booking 123456789",
				SenderEmail: tt.sender,
			}})

			mock.ExpectQuery(loadStatesSQL).WillReturnRows(emptyStateRows())
			mock.ExpectQuery(findShipmentSQL).
				WillReturnRows(shipmentRows(id, "LSF-26-0001", nil, nil))
			mock.ExpectBegin()
			mock.ExpectExec(updateShipmentSQL).
				WithArgs(tt.wantState, tt.wantPhase, id, nil).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(insertTransitionSQL).
				WithArgs(sqlmock.AnyArg(), id, nil, tt.wantState, "si_draft", emailID).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectQuery(findShipmentSQL).
				WillReturnRows(shipmentRows(id, "LSF-26-0001", tt.wantState, tt.wantPhase))
			mock.ExpectCommit()

			res, err := sys.AutoTransitionFromDocument(context.Background(), id, shipments.DocumentCommand{
				DocumentType: "si_draft",
				EmailID:      emailID,
			})
			require.NoError(t, err)

			assert.True(t, res.Success)
			assert.Equal(t, tt.wantState, res.ToState)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestList(t *testing.T) {
	db, mock := newMock(t)
	sys := newSystem(t, db, nil)
	id := uuid.New()
	state := "sob_confirmed"

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM public\.shipments s WHERE s\.workflow_state = \$1`).
		WithArgs(state).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM public\.shipments s WHERE s\.workflow_state = \$1 ORDER BY s\.updated_at DESC LIMIT 20 OFFSET 0`).
		WithArgs(state).
		WillReturnRows(shipmentRows(id, "LSF-26-0001", state, "in_transit"))

	result, err := sys.List(context.Background(), pagination.PageRequest{}, shipments.Filters{
		WorkflowState: &state,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "LSF-26-0001", result.Data[0].Reference)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatus(t *testing.T) {
	db, mock := newMock(t)
	sys := newSystem(t, db, nil)
	id := uuid.New()

	mock.ExpectQuery(loadStatesSQL).WillReturnRows(emptyStateRows())
	mock.ExpectQuery(findShipmentSQL).
		WillReturnRows(shipmentRows(id, "LSF-26-0001", "sob_confirmed", "in_transit"))

	status, err := sys.Status(context.Background(), id)
	require.NoError(t, err)

	require.NotNil(t, status.WorkflowState)
	assert.Equal(t, "sob_confirmed", *status.WorkflowState)
	assert.Equal(t, 40, status.Progress)
	assert.False(t, status.IsComplete)
}

func TestTransitions(t *testing.T) {
	db, mock := newMock(t)
	sys := newSystem(t, db, nil)
	id := uuid.New()

	rows := sqlmock.NewRows([]string{
		"id", "shipment_id", "from_state", "to_state",
		"triggered_by_document_type", "triggered_by_email_id", "created_at",
	}).
		AddRow(uuid.New().String(), id.String(), nil, "booking_confirmation_received", "booking_confirmation", nil, time.Now()).
		AddRow(uuid.New().String(), id.String(), "booking_confirmation_received", "si_submitted", nil, nil, time.Now())

	mock.ExpectQuery(`FROM workflow_transitions`).
		WithArgs(id).
		WillReturnRows(rows)

	got, err := sys.Transitions(context.Background(), id)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Nil(t, got[0].FromState)
	assert.Equal(t, "booking_confirmation_received", got[0].ToState)
	assert.Equal(t, "si_submitted", got[1].ToState)
}

func TestStatesFallBackToEmbedded(t *testing.T) {
	db, mock := newMock(t)
	sys := newSystem(t, db, nil)

	mock.ExpectQuery(loadStatesSQL).WillReturnRows(emptyStateRows())

	states, err := sys.States(context.Background())
	require.NoError(t, err)

	require.Len(t, states, 17)
	assert.Equal(t, "booking_confirmation_received", states[0].Code)
	assert.Equal(t, "shipment_closed", states[len(states)-1].Code)
}
