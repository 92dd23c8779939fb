package shipments

import (
	"context"

	"github.com/google/uuid"

	"github.com/lodestarfreight/mailroom/pkg/pagination"
	"github.com/lodestarfreight/mailroom/workflow"
)

// System defines the public contract for shipment workflow operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Shipment], error)

	Find(ctx context.Context, id uuid.UUID) (*Shipment, error)
	Create(ctx context.Context, cmd CreateCommand) (*Shipment, error)

	// TransitionTo validates and applies a workflow state change. Invalid
	// transitions come back as unsuccessful results, not errors.
	TransitionTo(ctx context.Context, id uuid.UUID, cmd TransitionCommand) (*TransitionResult, error)

	// ForceSetState overwrites the workflow state without validation or an
	// audit record. Migration and backfill use only.
	ForceSetState(ctx context.Context, id uuid.UUID, cmd ForceStateCommand) (*Shipment, error)

	// AutoTransitionFromDocument infers the target state from a classified
	// document and applies it when it advances the workflow.
	AutoTransitionFromDocument(ctx context.Context, id uuid.UUID, cmd DocumentCommand) (*TransitionResult, error)

	Status(ctx context.Context, id uuid.UUID) (*Status, error)
	Transitions(ctx context.Context, id uuid.UUID) ([]Transition, error)
	States(ctx context.Context) ([]workflow.StateDefinition, error)
}
