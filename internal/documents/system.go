package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/internal/analysis"
	"github.com/reactit/kycdesk/pkg/pagination"
)

// System defines the public contract for document domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Document, error)
	Patch(ctx context.Context, id uuid.UUID, cmd PatchCommand) (*Document, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Upload stores the file, scores images with the analyzer and registers
	// the document. An analyzer failure leaves the score empty.
	Upload(ctx context.Context, cmd UploadCommand) (*Document, error)
	// Analyze re-scores the stored file and records the result.
	Analyze(ctx context.Context, id uuid.UUID) (*Document, error)
	// Image returns the stored file of a document owned by customerID.
	Image(ctx context.Context, customerID, documentID uuid.UUID) ([]byte, error)
}

// Analyzer scores an image held in memory.
type Analyzer interface {
	AnalyzeBytes(ctx context.Context, data []byte, filename string) (*analysis.Quality, error)
}
