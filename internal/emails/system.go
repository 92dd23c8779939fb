package emails

import (
	"context"

	"github.com/google/uuid"

	"github.com/lodestarfreight/mailroom/pkg/pagination"
)

// System defines the public contract for email registry operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Email], error)

	Find(ctx context.Context, id uuid.UUID) (*Email, error)
	Create(ctx context.Context, cmd CreateCommand) (*Email, error)
	AttachFile(
		ctx context.Context,
		id uuid.UUID,
		filename string,
		data []byte,
		contentType string,
	) (*Email, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
