package customers

import (
	"context"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/internal/kyc"
	"github.com/reactit/kycdesk/internal/verification"
	"github.com/reactit/kycdesk/pkg/pagination"
)

// System defines the public contract for customer domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Customer], error)

	Find(ctx context.Context, id uuid.UUID) (*Customer, error)
	Create(ctx context.Context, cmd CreateCommand) (*Customer, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Customer, error)
	Patch(ctx context.Context, id uuid.UUID, cmd PatchCommand) (*Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Verify runs the verification pipeline for the customer and writes the
	// resulting status with a compare-and-swap on the customer's version.
	Verify(ctx context.Context, id uuid.UUID, cmd VerifyCommand) (*VerifyResult, error)
}

// Verifier decides a claim against a document image.
type Verifier interface {
	Verify(ctx context.Context, claim kyc.Claim, data []byte) (*verification.Result, error)
	VerifyBase64(ctx context.Context, claim kyc.Claim, encoded string) (*verification.Result, error)
}

// DocumentImages loads the stored file of a customer's document.
type DocumentImages interface {
	Image(ctx context.Context, customerID, documentID uuid.UUID) ([]byte, error)
}
