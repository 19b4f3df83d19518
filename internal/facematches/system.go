package facematches

import (
	"context"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/internal/faceverify"
	"github.com/reactit/kycdesk/pkg/pagination"
)

// System defines the face match operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[FaceMatch], error)

	Find(ctx context.Context, id uuid.UUID) (*FaceMatch, error)
	Create(ctx context.Context, cmd CreateCommand) (*FaceMatch, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*FaceMatch, error)
	Patch(ctx context.Context, id uuid.UUID, cmd PatchCommand) (*FaceMatch, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Verify stores both images, compares them and records the result.
	// Comparator failures record nothing.
	Verify(ctx context.Context, cmd VerifyCommand) (*VerifyResult, error)
	// Count returns the number of recorded face matches.
	Count(ctx context.Context) (int, error)
}

// Comparator decides whether two images show the same face.
type Comparator interface {
	Compare(ctx context.Context, selfie, idPhoto faceverify.Image) (*faceverify.Comparison, error)
}
