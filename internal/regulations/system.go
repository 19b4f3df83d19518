package regulations

import (
	"context"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/pkg/pagination"
)

type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Regulation], error)
	Find(ctx context.Context, id uuid.UUID) (*Regulation, error)
	Create(ctx context.Context, cmd CreateCommand) (*Regulation, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Regulation, error)
	Patch(ctx context.Context, id uuid.UUID, cmd PatchCommand) (*Regulation, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Notify emails every customer that has an email address and records
	// the run. Individual delivery failures are counted, not returned.
	Notify(ctx context.Context, id uuid.UUID) (*NotifyResult, error)
	// EmailsSent sums the emails sent over all recorded runs.
	EmailsSent(ctx context.Context) (int, error)
}
