package partners

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/pkg/pagination"
	"github.com/reactit/kycdesk/pkg/query"
	"github.com/reactit/kycdesk/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "partners"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Partner], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Name", "RealmName", "ClientID")
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.QueryInt(ctx, r.db, countSQL, countArgs...)
	if err != nil {
		return nil, fmt.Errorf("count partners: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanPartner)
	if err != nil {
		return nil, fmt.Errorf("query partners: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Partner, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPartner)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Partner, error) {
	q := `
		INSERT INTO partners(name, realm_name, client_id)
		VALUES ($1, $2, $3)
		` + returning

	p, err := repository.QueryOne(ctx, r.db, q, []any{cmd.Name, cmd.RealmName, cmd.ClientID}, scanPartner)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("partner created", "id", p.ID, "realm", p.RealmName)
	return &p, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Partner, error) {
	q := `
		UPDATE partners
		SET name = $1, realm_name = $2, client_id = $3
		WHERE id = $4
		` + returning

	p, err := repository.QueryOne(ctx, r.db, q, []any{cmd.Name, cmd.RealmName, cmd.ClientID, id}, scanPartner)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("partner updated", "id", p.ID)
	return &p, nil
}

func (r *repo) Patch(ctx context.Context, id uuid.UUID, cmd PatchCommand) (*Partner, error) {
	q := `
		UPDATE partners
		SET name = COALESCE($1, name),
			realm_name = COALESCE($2, realm_name),
			client_id = COALESCE($3, client_id)
		WHERE id = $4
		` + returning

	p, err := repository.QueryOne(ctx, r.db, q, []any{cmd.Name, cmd.RealmName, cmd.ClientID, id}, scanPartner)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("partner patched", "id", p.ID)
	return &p, nil
}

// Delete removes the partner. Customers referencing it keep their record
// with no partner.
func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM partners WHERE id = $1", id); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("partner deleted", "id", id)
	return nil
}
