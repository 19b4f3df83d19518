package documents

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/pkg/pagination"
	"github.com/reactit/kycdesk/pkg/query"
	"github.com/reactit/kycdesk/pkg/repository"
	"github.com/reactit/kycdesk/pkg/storage"
)

type repo struct {
	db          *sql.DB
	storage     storage.System
	analyzer    Analyzer
	logger      *slog.Logger
	pagination  pagination.Config
	filesPath   string
	maxFileSize int64
}

// New creates a document repository implementing the System interface.
// Uploaded files are linked as filesPath + storage key; files read back
// into memory are limited to maxFileSize bytes.
func New(
	db *sql.DB,
	store storage.System,
	analyzer Analyzer,
	logger *slog.Logger,
	pagination pagination.Config,
	filesPath string,
	maxFileSize int64,
) System {
	return &repo{
		db:          db,
		storage:     store,
		analyzer:    analyzer,
		logger:      logger.With("system", "documents"),
		pagination:  pagination,
		filesPath:   strings.TrimSuffix(filesPath, "/"),
		maxFileSize: maxFileSize,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Document], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Filename", "FileURL", "Issues")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.QueryInt(ctx, r.db, countSQL, countArgs...)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	docs, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanDocument)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}

	result := pagination.NewPageResult(docs, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Document, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Document, error) {
	q := `
		INSERT INTO documents(customer_id, file_url, filename, content_type, quality_score, issues)
		VALUES ($1, $2, $3, $4, $5, $6)
		` + returning

	args := []any{
		cmd.CustomerID,
		cmd.FileURL,
		cmd.Filename,
		cmd.ContentType,
		cmd.QualityScore,
		cmd.Issues,
	}

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, mapError(err)
	}

	r.logger.Info("document created", "id", d.ID, "customer_id", d.CustomerID)
	return &d, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Document, error) {
	q := `
		UPDATE documents
		SET customer_id = $1, file_url = $2, filename = $3, content_type = $4,
			quality_score = $5, issues = $6
		WHERE id = $7
		` + returning

	args := []any{
		cmd.CustomerID,
		cmd.FileURL,
		cmd.Filename,
		cmd.ContentType,
		cmd.QualityScore,
		cmd.Issues,
		id,
	}

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, mapError(err)
	}

	r.logger.Info("document updated", "id", d.ID)
	return &d, nil
}

func (r *repo) Patch(ctx context.Context, id uuid.UUID, cmd PatchCommand) (*Document, error) {
	q := `
		UPDATE documents
		SET customer_id = COALESCE($1, customer_id),
			file_url = COALESCE($2, file_url),
			filename = COALESCE($3, filename),
			content_type = COALESCE($4, content_type),
			quality_score = COALESCE($5, quality_score),
			issues = COALESCE($6, issues)
		WHERE id = $7
		` + returning

	args := []any{
		cmd.CustomerID,
		cmd.FileURL,
		cmd.Filename,
		cmd.ContentType,
		cmd.QualityScore,
		cmd.Issues,
		id,
	}

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, mapError(err)
	}

	r.logger.Info("document patched", "id", d.ID)
	return &d, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	if err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM documents WHERE id = $1", id); err != nil {
		return mapError(err)
	}

	// the row is gone either way; a stranded blob is only logged
	if doc.StorageKey != nil {
		if err := r.storage.Delete(ctx, *doc.StorageKey); err != nil {
			r.logger.Warn("document blob delete failed", "key", *doc.StorageKey, "error", err)
		}
	}

	r.logger.Info("document deleted", "id", id)
	return nil
}

func (r *repo) Upload(ctx context.Context, cmd UploadCommand) (*Document, error) {
	id := uuid.New()
	key := buildStorageKey(cmd.CustomerID, id, storage.SafeName(cmd.Filename, "document"))

	score, issues := r.score(ctx, cmd)

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload document blob: %w", err)
	}

	q := `
		INSERT INTO documents(id, customer_id, file_url, storage_key, filename, content_type,
			size_bytes, page_count, quality_score, issues)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		` + returning

	args := []any{
		id,
		cmd.CustomerID,
		r.filesPath + "/" + key,
		key,
		cmd.Filename,
		cmd.ContentType,
		int64(len(cmd.Data)),
		cmd.PageCount,
		score,
		issues,
	}

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, mapError(err)
	}

	r.logger.Info("document uploaded", "id", d.ID, "customer_id", d.CustomerID, "filename", cmd.Filename)
	return &d, nil
}

// score runs the analyzer on image uploads. Failures are logged and leave
// the score empty.
func (r *repo) score(ctx context.Context, cmd UploadCommand) (*float64, *string) {
	if r.analyzer == nil || !strings.HasPrefix(cmd.ContentType, "image/") {
		return nil, nil
	}

	q, err := r.analyzer.AnalyzeBytes(ctx, cmd.Data, cmd.Filename)
	if err != nil {
		r.logger.Warn("document analysis failed", "filename", cmd.Filename, "error", err)
		return nil, nil
	}

	issues := JoinIssues(q.Issues)
	return &q.Score, &issues
}

func (r *repo) Analyze(ctx context.Context, id uuid.UUID) (*Document, error) {
	doc, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.StorageKey == nil {
		return nil, ErrNoStoredFile
	}

	data, err := storage.ReadAll(ctx, r.storage, *doc.StorageKey, r.maxFileSize)
	if err != nil {
		return nil, err
	}

	name := path.Base(*doc.StorageKey)
	if doc.Filename != nil {
		name = *doc.Filename
	}

	quality, err := r.analyzer.AnalyzeBytes(ctx, data, name)
	if err != nil {
		return nil, err
	}

	q := `
		UPDATE documents
		SET quality_score = $1, issues = $2
		WHERE id = $3
		` + returning

	args := []any{quality.Score, JoinIssues(quality.Issues), id}

	d, err := repository.QueryOne(ctx, r.db, q, args, scanDocument)
	if err != nil {
		return nil, mapError(err)
	}

	r.logger.Info("document analyzed", "id", id, "quality_score", quality.Score)
	return &d, nil
}

func (r *repo) Image(ctx context.Context, customerID, documentID uuid.UUID) ([]byte, error) {
	doc, err := r.Find(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.CustomerID != customerID {
		return nil, ErrNotFound
	}
	if doc.StorageKey == nil {
		return nil, ErrNoStoredFile
	}
	return storage.ReadAll(ctx, r.storage, *doc.StorageKey, r.maxFileSize)
}

func mapError(err error) error {
	if repository.IsForeignKeyViolation(err) {
		return ErrInvalidOwner
	}
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}

func buildStorageKey(customerID, id uuid.UUID, filename string) string {
	return fmt.Sprintf("documents/%s/%s/%s", customerID, id, filename)
}
