package shipments

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lodestarfreight/mailroom/classify"
	"github.com/lodestarfreight/mailroom/internal/emails"
	"github.com/lodestarfreight/mailroom/pkg/pagination"
	"github.com/lodestarfreight/mailroom/pkg/query"
	"github.com/lodestarfreight/mailroom/pkg/repository"
	"github.com/lodestarfreight/mailroom/workflow"
)

const shipmentColumns = `id, reference, booking_number, bl_number, carrier_id,
		workflow_state, workflow_phase, created_at, updated_at`

type repo struct {
	db         *sql.DB
	patterns   *classify.PatternSet
	emails     emails.System
	states     *stateCache
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a shipment repository implementing the System interface.
// The state definition cache refreshes from the workflow_states table on
// the given TTL, falling back to the embedded defaults when the table is
// empty.
func New(
	db *sql.DB,
	patterns *classify.PatternSet,
	emailSys emails.System,
	stateCacheTTL time.Duration,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	logger = logger.With("system", "shipments")

	r := &repo{
		db:         db,
		patterns:   patterns,
		emails:     emailSys,
		logger:     logger,
		pagination: pagination,
	}
	r.states = newStateCache(stateCacheTTL, r.loadStates, logger)

	return r
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Shipment], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Reference", "BookingNumber", "BLNumber")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count shipments: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanShipment)
	if err != nil {
		return nil, fmt.Errorf("query shipments: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Shipment, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	s, err := repository.QueryOne(ctx, r.db, q, args, scanShipment)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Shipment, error) {
	if cmd.Reference == "" {
		return nil, ErrMissingField
	}

	q := `
		INSERT INTO shipments(id, reference, booking_number, bl_number, carrier_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + shipmentColumns

	insertArgs := []any{
		uuid.New(),
		cmd.Reference,
		cmd.BookingNumber,
		cmd.BLNumber,
		cmd.CarrierID,
	}

	s, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Shipment, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanShipment)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("shipment created", "id", s.ID, "reference", s.Reference)
	return &s, nil
}

// TransitionTo validates and applies a workflow state change. The shipment
// row update is conditioned on the state read during validation, so a
// concurrent transition on the same shipment surfaces as a conflict
// instead of silently overwriting.
func (r *repo) TransitionTo(ctx context.Context, id uuid.UUID, cmd TransitionCommand) (*TransitionResult, error) {
	set, err := r.states.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load workflow states: %w", err)
	}

	shipment, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	target, ok := set.Get(cmd.TargetState)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, cmd.TargetState)
	}

	from := shipment.WorkflowState

	if !cmd.SkipValidation {
		if err := set.ValidateTransition(derefState(from), target.Code); err != nil {
			return &TransitionResult{
				Success:   false,
				Error:     err.Error(),
				FromState: from,
				ToState:   target.Code,
			}, nil
		}
	}

	updated, err := r.applyTransition(ctx, shipment, target, cmd.TriggeredByDocumentType, cmd.TriggeredByEmailID)
	if err != nil {
		return nil, err
	}

	r.logger.Info("shipment transitioned",
		"id", id,
		"from", derefState(from),
		"to", target.Code,
	)
	return &TransitionResult{
		Success:   true,
		FromState: from,
		ToState:   target.Code,
		Shipment:  updated,
	}, nil
}

// ForceSetState overwrites the workflow state directly. No validation
// beyond state existence, no audit record.
func (r *repo) ForceSetState(ctx context.Context, id uuid.UUID, cmd ForceStateCommand) (*Shipment, error) {
	set, err := r.states.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load workflow states: %w", err)
	}

	target, ok := set.Get(cmd.TargetState)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownState, cmd.TargetState)
	}

	q := `
		UPDATE shipments
		SET workflow_state = $1, workflow_phase = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + shipmentColumns

	s, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Shipment, error) {
		return repository.QueryOne(ctx, tx, q, []any{target.Code, string(target.Phase), id}, scanShipment)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Warn("shipment state force-set", "id", id, "state", target.Code)
	return &s, nil
}

// AutoTransitionFromDocument resolves the target state for a classified
// document and applies it only when it advances the workflow. Shipping
// instruction documents disambiguate by sender identity; unmapped
// document types fall back to the nearest forward candidate state.
func (r *repo) AutoTransitionFromDocument(ctx context.Context, id uuid.UUID, cmd DocumentCommand) (*TransitionResult, error) {
	set, err := r.states.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load workflow states: %w", err)
	}

	shipment, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	email, err := r.emails.Find(ctx, cmd.EmailID)
	if err != nil {
		return nil, fmt.Errorf("load email %s: %w", cmd.EmailID, err)
	}

	sender := email.SenderEmail
	if email.TrueSenderEmail != nil && *email.TrueSenderEmail != "" {
		sender = *email.TrueSenderEmail
	}
	direction := r.patterns.DetectDirection(sender, email.Subject)
	senderIsCarrier := r.patterns.CarrierByAddress(sender) != nil

	currentOrder := -1
	if shipment.WorkflowState != nil {
		if current, ok := set.Get(*shipment.WorkflowState); ok {
			if current.Terminal {
				return &TransitionResult{
					Skipped:   true,
					Error:     "shipment is in a terminal state",
					FromState: shipment.WorkflowState,
				}, nil
			}
			currentOrder = current.Order
		}
	}

	target, ok := r.resolveTarget(set, cmd.DocumentType, string(direction), senderIsCarrier, currentOrder)
	if !ok {
		return &TransitionResult{
			Skipped:   true,
			Error:     fmt.Sprintf("no workflow state maps to document type %q", cmd.DocumentType),
			FromState: shipment.WorkflowState,
		}, nil
	}

	if target.Order <= currentOrder {
		return &TransitionResult{
			Skipped:   true,
			Error:     "target state does not advance the workflow",
			FromState: shipment.WorkflowState,
			ToState:   target.Code,
		}, nil
	}

	updated, err := r.applyTransition(ctx, shipment, target, &cmd.DocumentType, &cmd.EmailID)
	if err != nil {
		return nil, err
	}

	r.logger.Info("shipment auto-transitioned",
		"id", id,
		"document_type", cmd.DocumentType,
		"direction", direction,
		"to", target.Code,
	)
	return &TransitionResult{
		Success:   true,
		FromState: shipment.WorkflowState,
		ToState:   target.Code,
		Shipment:  updated,
	}, nil
}

// resolveTarget picks the workflow state for a document: SI sender
// disambiguation first, then the static mapping, then the nearest forward
// state whose document type set contains the type.
func (r *repo) resolveTarget(
	set *workflow.StateSet,
	documentType, direction string,
	senderIsCarrier bool,
	currentOrder int,
) (workflow.StateDefinition, bool) {
	if code, ok := workflow.ShippingInstructionState(documentType, senderIsCarrier); ok {
		if def, found := set.Get(code); found {
			return def, true
		}
	}

	if code, ok := set.StateFor(documentType, direction); ok {
		if def, found := set.Get(code); found {
			return def, true
		}
	}

	return set.NextForward(currentOrder, documentType)
}

// applyTransition updates the shipment row and appends the audit record
// in one transaction. The update is conditioned on the previously read
// state; zero rows affected means a concurrent writer won.
func (r *repo) applyTransition(
	ctx context.Context,
	shipment *Shipment,
	target workflow.StateDefinition,
	documentType *string,
	emailID *uuid.UUID,
) (*Shipment, error) {
	updateQ := `
		UPDATE shipments
		SET workflow_state = $1, workflow_phase = $2, updated_at = NOW()
		WHERE id = $3 AND workflow_state IS NOT DISTINCT FROM $4`

	auditQ := `
		INSERT INTO workflow_transitions(id, shipment_id, from_state, to_state,
			triggered_by_document_type, triggered_by_email_id)
		VALUES ($1, $2, $3, $4, $5, $6)`

	s, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Shipment, error) {
		if err := repository.ExecExpectOne(
			ctx, tx, updateQ,
			target.Code, string(target.Phase), shipment.ID, shipment.WorkflowState,
		); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return Shipment{}, ErrStateConflict
			}
			return Shipment{}, fmt.Errorf("update shipment state: %w", err)
		}

		if err := repository.ExecExpectOne(
			ctx, tx, auditQ,
			uuid.New(), shipment.ID, shipment.WorkflowState, target.Code,
			documentType, emailID,
		); err != nil {
			return Shipment{}, fmt.Errorf("append transition record: %w", err)
		}

		q, args := query.NewBuilder(projection).BuildSingle("ID", shipment.ID)
		return repository.QueryOne(ctx, tx, q, args, scanShipment)
	})
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *repo) Status(ctx context.Context, id uuid.UUID) (*Status, error) {
	set, err := r.states.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load workflow states: %w", err)
	}

	shipment, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	status := &Status{
		ShipmentID:    shipment.ID,
		WorkflowState: shipment.WorkflowState,
		WorkflowPhase: shipment.WorkflowPhase,
	}
	if shipment.WorkflowState != nil {
		status.Progress = set.Progress(*shipment.WorkflowState)
		status.IsComplete = set.IsTerminal(*shipment.WorkflowState)
	}

	return status, nil
}

func (r *repo) Transitions(ctx context.Context, id uuid.UUID) ([]Transition, error) {
	q := `
		SELECT id, shipment_id, from_state, to_state,
			   triggered_by_document_type, triggered_by_email_id, created_at
		FROM workflow_transitions
		WHERE shipment_id = $1
		ORDER BY created_at ASC`

	items, err := repository.QueryMany(ctx, r.db, q, []any{id}, scanTransition)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	return items, nil
}

func (r *repo) States(ctx context.Context) ([]workflow.StateDefinition, error) {
	set, err := r.states.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load workflow states: %w", err)
	}
	return set.States(), nil
}

// loadStates reads the workflow state table override, falling back to the
// embedded defaults when no rows exist. The document mapping always comes
// from the embedded table.
func (r *repo) loadStates(ctx context.Context) (*workflow.StateSet, error) {
	embedded, err := workflow.Load()
	if err != nil {
		return nil, err
	}

	q := `
		SELECT code, label, phase, state_order, document_types, direction,
			   optional, milestone, terminal, next_states
		FROM workflow_states
		WHERE active
		ORDER BY state_order ASC`

	defs, err := repository.QueryMany(ctx, r.db, q, nil, scanStateDefinition)
	if err != nil {
		return nil, fmt.Errorf("query workflow states: %w", err)
	}
	if len(defs) == 0 {
		return embedded, nil
	}

	return workflow.New(defs, embedded.Mapping())
}

func scanStateDefinition(s repository.Scanner) (workflow.StateDefinition, error) {
	var def workflow.StateDefinition
	var phase string
	var docTypesRaw, nextStatesRaw []byte

	err := s.Scan(
		&def.Code,
		&def.Label,
		&phase,
		&def.Order,
		&docTypesRaw,
		&def.Direction,
		&def.Optional,
		&def.Milestone,
		&def.Terminal,
		&nextStatesRaw,
	)
	if err != nil {
		return def, err
	}

	def.Phase = workflow.Phase(phase)
	if len(docTypesRaw) > 0 {
		if err := json.Unmarshal(docTypesRaw, &def.DocumentTypes); err != nil {
			return def, fmt.Errorf("unmarshal document_types: %w", err)
		}
	}
	if len(nextStatesRaw) > 0 {
		if err := json.Unmarshal(nextStatesRaw, &def.NextStates); err != nil {
			return def, fmt.Errorf("unmarshal next_states: %w", err)
		}
	}

	return def, nil
}

func derefState(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
