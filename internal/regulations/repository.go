package regulations

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
	notifier   *Notifier
	logger     *slog.Logger
	pagination pagination.Config
}

func New(db *sql.DB, notifier *Notifier, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		notifier:   notifier,
		logger:     logger.With("system", "regulations"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Regulation], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Title", "Content")
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.QueryInt(ctx, r.db, countSQL, countArgs...)
	if err != nil {
		return nil, fmt.Errorf("count regulations: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanRegulation)
	if err != nil {
		return nil, fmt.Errorf("query regulations: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Regulation, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	reg, err := repository.QueryOne(ctx, r.db, q, args, scanRegulation)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &reg, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Regulation, error) {
	q := `
		INSERT INTO regulations(title, content, source_url, status)
		VALUES ($1, $2, $3, $4)
		` + returning

	args := []any{cmd.Title, cmd.Content, cmd.SourceURL, cmd.Status}

	reg, err := repository.QueryOne(ctx, r.db, q, args, scanRegulation)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("regulation created", "id", reg.ID, "status", reg.Status)
	return &reg, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Regulation, error) {
	q := `
		UPDATE regulations
		SET title = $1, content = $2, source_url = $3, status = $4
		WHERE id = $5
		` + returning

	args := []any{cmd.Title, cmd.Content, cmd.SourceURL, cmd.Status, id}

	reg, err := repository.QueryOne(ctx, r.db, q, args, scanRegulation)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("regulation updated", "id", reg.ID)
	return &reg, nil
}

func (r *repo) Patch(ctx context.Context, id uuid.UUID, cmd PatchCommand) (*Regulation, error) {
	q := `
		UPDATE regulations
		SET title = COALESCE($1, title),
			content = COALESCE($2, content),
			source_url = COALESCE($3, source_url),
			status = COALESCE($4, status)
		WHERE id = $5
		` + returning

	args := []any{cmd.Title, cmd.Content, cmd.SourceURL, cmd.Status, id}

	reg, err := repository.QueryOne(ctx, r.db, q, args, scanRegulation)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("regulation patched", "id", reg.ID)
	return &reg, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM regulations WHERE id = $1", id); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("regulation deleted", "id", id)
	return nil
}

func (r *repo) Notify(ctx context.Context, id uuid.UUID) (*NotifyResult, error) {
	reg, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	recipients, err := repository.QueryMany(ctx, r.db, `
		SELECT full_name, email
		FROM customers
		WHERE email IS NOT NULL AND email <> ''
		ORDER BY created_at`,
		nil,
		func(s repository.Scanner) (Recipient, error) {
			var rc Recipient
			err := s.Scan(&rc.Name, &rc.Email)
			return rc, err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("query recipients: %w", err)
	}

	sent, failed := r.notifier.Send(ctx, *reg, recipients)

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO notification_logs(regulation_id, emails_sent, emails_failed)
		VALUES ($1, $2, $3)`,
		reg.ID, sent, failed,
	); err != nil {
		return nil, fmt.Errorf("record notification: %w", err)
	}

	r.logger.Info("regulation notified",
		"id", reg.ID,
		"recipients", len(recipients),
		"sent", sent,
		"failed", failed,
	)

	return &NotifyResult{RegulationID: reg.ID, EmailsSent: sent, Failed: failed}, nil
}

func (r *repo) EmailsSent(ctx context.Context) (int, error) {
	return repository.QueryInt(ctx, r.db, "SELECT COALESCE(SUM(emails_sent), 0) FROM notification_logs")
}
