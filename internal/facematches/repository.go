package facematches

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/internal/faceverify"
	"github.com/reactit/kycdesk/pkg/pagination"
	"github.com/reactit/kycdesk/pkg/query"
	"github.com/reactit/kycdesk/pkg/repository"
	"github.com/reactit/kycdesk/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	comparator Comparator
	logger     *slog.Logger
	pagination pagination.Config
	filesPath  string
}

// New creates a face match repository. Images stored by Verify are linked
// as filesPath + storage key.
func New(
	db *sql.DB,
	store storage.System,
	comparator Comparator,
	logger *slog.Logger,
	pagination pagination.Config,
	filesPath string,
) System {
	return &repo{
		db:         db,
		storage:    store,
		comparator: comparator,
		logger:     logger.With("system", "facematches"),
		pagination: pagination,
		filesPath:  strings.TrimSuffix(filesPath, "/"),
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[FaceMatch], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.QueryInt(ctx, r.db, countSQL, countArgs...)
	if err != nil {
		return nil, fmt.Errorf("count face matches: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanFaceMatch)
	if err != nil {
		return nil, fmt.Errorf("query face matches: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*FaceMatch, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	m, err := repository.QueryOne(ctx, r.db, q, args, scanFaceMatch)
	if err != nil {
		return nil, mapError(err)
	}
	return &m, nil
}

func (r *repo) Count(ctx context.Context) (int, error) {
	q, args := query.NewBuilder(projection).BuildCount()
	return repository.QueryInt(ctx, r.db, q, args...)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*FaceMatch, error) {
	q := `
		INSERT INTO face_matches(customer_id, selfie_url, id_photo_url, match, score)
		VALUES ($1, $2, $3, $4, $5)
		` + returning

	args := []any{cmd.CustomerID, cmd.SelfieURL, cmd.IDPhotoURL, cmd.Match, cmd.Score}

	m, err := repository.QueryOne(ctx, r.db, q, args, scanFaceMatch)
	if err != nil {
		return nil, mapError(err)
	}

	r.logger.Info("face match created", "id", m.ID, "customer_id", m.CustomerID)
	return &m, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*FaceMatch, error) {
	q := `
		UPDATE face_matches
		SET customer_id = $1, selfie_url = $2, id_photo_url = $3, match = $4, score = $5
		WHERE id = $6
		` + returning

	args := []any{cmd.CustomerID, cmd.SelfieURL, cmd.IDPhotoURL, cmd.Match, cmd.Score, id}

	m, err := repository.QueryOne(ctx, r.db, q, args, scanFaceMatch)
	if err != nil {
		return nil, mapError(err)
	}

	r.logger.Info("face match updated", "id", m.ID)
	return &m, nil
}

func (r *repo) Patch(ctx context.Context, id uuid.UUID, cmd PatchCommand) (*FaceMatch, error) {
	q := `
		UPDATE face_matches
		SET customer_id = COALESCE($1, customer_id),
			selfie_url = COALESCE($2, selfie_url),
			id_photo_url = COALESCE($3, id_photo_url),
			match = COALESCE($4, match),
			score = COALESCE($5, score)
		WHERE id = $6
		` + returning

	args := []any{cmd.CustomerID, cmd.SelfieURL, cmd.IDPhotoURL, cmd.Match, cmd.Score, id}

	m, err := repository.QueryOne(ctx, r.db, q, args, scanFaceMatch)
	if err != nil {
		return nil, mapError(err)
	}

	r.logger.Info("face match patched", "id", m.ID)
	return &m, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	m, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	if err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM face_matches WHERE id = $1", id); err != nil {
		return mapError(err)
	}

	r.removeBlobs(ctx, m.SelfieKey, m.IDPhotoKey)

	r.logger.Info("face match deleted", "id", id)
	return nil
}

func (r *repo) Verify(ctx context.Context, cmd VerifyCommand) (*VerifyResult, error) {
	exists, err := repository.Exists(ctx, r.db,
		"SELECT 1 FROM customers WHERE id = $1", cmd.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("check customer: %w", err)
	}
	if !exists {
		return nil, ErrInvalidOwner
	}

	cmp, err := r.comparator.Compare(ctx, cmd.Selfie, cmd.IDPhoto)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	selfieKey := imageKey(cmd.CustomerID, id, "selfie", cmd.Selfie)
	idPhotoKey := imageKey(cmd.CustomerID, id, "id-photo", cmd.IDPhoto)

	if err := r.store(ctx, selfieKey, cmd.Selfie); err != nil {
		return nil, err
	}
	if err := r.store(ctx, idPhotoKey, cmd.IDPhoto); err != nil {
		r.removeBlobs(ctx, &selfieKey)
		return nil, err
	}

	q := `
		INSERT INTO face_matches(id, customer_id, selfie_url, id_photo_url, selfie_key, id_photo_key, match, score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		` + returning

	args := []any{
		id,
		cmd.CustomerID,
		r.filesPath + "/" + selfieKey,
		r.filesPath + "/" + idPhotoKey,
		selfieKey,
		idPhotoKey,
		cmp.Match,
		cmp.Score,
	}

	m, err := repository.QueryOne(ctx, r.db, q, args, scanFaceMatch)
	if err != nil {
		r.removeBlobs(ctx, &selfieKey, &idPhotoKey)
		return nil, mapError(err)
	}

	r.logger.Info("face match verified",
		"id", m.ID,
		"customer_id", m.CustomerID,
		"match", cmp.Match,
		"score", cmp.Score,
	)
	return &VerifyResult{FaceMatch: &m, Comparison: cmp}, nil
}

func (r *repo) store(ctx context.Context, key string, img faceverify.Image) error {
	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}
	if err := r.storage.Upload(ctx, key, bytes.NewReader(img.Data), contentType); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func (r *repo) removeBlobs(ctx context.Context, keys ...*string) {
	for _, key := range keys {
		if key == nil {
			continue
		}
		if err := r.storage.Delete(ctx, *key); err != nil {
			r.logger.Warn("face match blob delete failed", "key", *key, "error", err)
		}
	}
}

func imageKey(customerID, id uuid.UUID, role string, img faceverify.Image) string {
	return fmt.Sprintf("face-matches/%s/%s/%s-%s",
		customerID, id, role, storage.SafeName(img.Filename, role))
}

func mapError(err error) error {
	if repository.IsForeignKeyViolation(err) {
		return ErrInvalidOwner
	}
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}
