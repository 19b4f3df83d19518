package users

import (
	"context"

	"github.com/reactit/kycdesk/pkg/pagination"
)

// System defines the user administration operations.
type System interface {
	Handler() *Handler

	Create(ctx context.Context, cmd CreateCommand) (*User, error)
	Find(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[User], error)
	Delete(ctx context.Context, id string) error
	// Count returns the number of users in the realm.
	Count(ctx context.Context) (int, error)
}
