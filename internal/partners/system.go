package partners

import (
	"context"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/pkg/pagination"
)

type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Partner], error)
	Find(ctx context.Context, id uuid.UUID) (*Partner, error)
	Create(ctx context.Context, cmd CreateCommand) (*Partner, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Partner, error)
	Patch(ctx context.Context, id uuid.UUID, cmd PatchCommand) (*Partner, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
