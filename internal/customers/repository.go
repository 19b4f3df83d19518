package customers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/internal/kyc"
	"github.com/reactit/kycdesk/internal/verification"
	"github.com/reactit/kycdesk/pkg/pagination"
	"github.com/reactit/kycdesk/pkg/query"
	"github.com/reactit/kycdesk/pkg/repository"
	"github.com/reactit/kycdesk/pkg/storage"
	"github.com/reactit/kycdesk/pkg/validation"
)

type repo struct {
	db         *sql.DB
	verifier   Verifier
	images     DocumentImages
	logger     *slog.Logger
	pagination pagination.Config
	maxVerify  int64
}

// New creates a customer repository implementing the System interface.
// maxVerify caps the verify request body.
func New(
	db *sql.DB,
	verifier Verifier,
	images DocumentImages,
	logger *slog.Logger,
	pagination pagination.Config,
	maxVerify int64,
) System {
	return &repo{
		db:         db,
		verifier:   verifier,
		images:     images,
		logger:     logger.With("system", "customers"),
		pagination: pagination,
		maxVerify:  maxVerify,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination, r.maxVerify)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Customer], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "FullName", "Email", "IDNumber")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.QueryInt(ctx, r.db, countSQL, countArgs...)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	customers, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanCustomer)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}

	result := pagination.NewPageResult(customers, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Customer, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanCustomer)
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Customer, error) {
	if cmd.KYCStatus != nil && *cmd.KYCStatus != kyc.StatusPending {
		return nil, ErrStatusImmutable
	}

	q := `
		INSERT INTO customers(full_name, email, date_of_birth, address, phone, id_number, kyc_status, partner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		` + returning

	args := []any{
		cmd.FullName,
		cmd.Email,
		cmd.DateOfBirth,
		cmd.Address,
		cmd.Phone,
		cmd.IDNumber,
		kyc.StatusPending,
		cmd.PartnerID,
	}

	c, err := repository.QueryOne(ctx, r.db, q, args, scanCustomer)
	if err != nil {
		return nil, mapError(err)
	}

	r.logger.Info("customer created", "id", c.ID)
	return &c, nil
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Customer, error) {
	q := `
		UPDATE customers
		SET full_name = $1, email = $2, date_of_birth = $3, address = $4, phone = $5,
			id_number = $6, partner_id = $7, version = version + 1, updated_at = now()
		WHERE id = $8
		` + returning

	args := []any{
		cmd.FullName,
		cmd.Email,
		cmd.DateOfBirth,
		cmd.Address,
		cmd.Phone,
		cmd.IDNumber,
		cmd.PartnerID,
		id,
	}

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Customer, error) {
		current, err := lockCustomer(ctx, tx, id)
		if err != nil {
			return Customer{}, err
		}
		if err := checkWrite(current, cmd.KYCStatus, cmd.Version); err != nil {
			return Customer{}, err
		}
		return repository.QueryOne(ctx, tx, q, args, scanCustomer)
	})

	if err != nil {
		return nil, mapError(err)
	}

	r.logger.Info("customer updated", "id", c.ID, "version", c.Version)
	return &c, nil
}

func (r *repo) Patch(ctx context.Context, id uuid.UUID, cmd PatchCommand) (*Customer, error) {
	q := `
		UPDATE customers
		SET full_name = COALESCE($1, full_name),
			email = COALESCE($2, email),
			date_of_birth = COALESCE($3, date_of_birth),
			address = COALESCE($4, address),
			phone = COALESCE($5, phone),
			id_number = COALESCE($6, id_number),
			partner_id = COALESCE($7, partner_id),
			version = version + 1,
			updated_at = now()
		WHERE id = $8
		` + returning

	args := []any{
		cmd.FullName,
		cmd.Email,
		cmd.DateOfBirth,
		cmd.Address,
		cmd.Phone,
		cmd.IDNumber,
		cmd.PartnerID,
		id,
	}

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Customer, error) {
		current, err := lockCustomer(ctx, tx, id)
		if err != nil {
			return Customer{}, err
		}
		if err := checkWrite(current, cmd.KYCStatus, cmd.Version); err != nil {
			return Customer{}, err
		}
		return repository.QueryOne(ctx, tx, q, args, scanCustomer)
	})

	if err != nil {
		return nil, mapError(err)
	}

	r.logger.Info("customer patched", "id", c.ID, "version", c.Version)
	return &c, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	// documents and face matches cascade with the row
	if err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM customers WHERE id = $1", id); err != nil {
		return mapError(err)
	}

	r.logger.Info("customer deleted", "id", id)
	return nil
}

func (r *repo) Verify(ctx context.Context, id uuid.UUID, cmd VerifyCommand) (*VerifyResult, error) {
	if (cmd.DocumentID == nil) == (cmd.ImageBase64 == "") {
		return nil, ErrInvalidVerify
	}

	c, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if cmd.Version != nil && *cmd.Version != c.Version {
		return nil, ErrVersionConflict
	}

	res, err := r.runVerification(ctx, c, cmd)
	if err != nil {
		return nil, err
	}

	updated, err := r.writeStatus(ctx, id, c.Version, res.Status)
	if err != nil {
		return nil, err
	}

	r.logger.Info(
		"customer verified",
		"id", id,
		"status", updated.KYCStatus,
		"reason", res.Reason,
		"version", updated.Version,
	)
	return &VerifyResult{Customer: updated, Verification: res}, nil
}

func (r *repo) runVerification(ctx context.Context, c *Customer, cmd VerifyCommand) (*verification.Result, error) {
	if cmd.DocumentID == nil {
		return r.verifier.VerifyBase64(ctx, c.Claim(), cmd.ImageBase64)
	}

	data, err := r.images.Image(ctx, c.ID, *cmd.DocumentID)
	if err != nil {
		return nil, imageError(*cmd.DocumentID, err)
	}
	return r.verifier.Verify(ctx, c.Claim(), data)
}

// imageError keeps document and blob lookups as client errors and reports
// anything else as a storage failure.
func imageError(documentID uuid.UUID, err error) error {
	err = fmt.Errorf("load document %s: %w", documentID, err)

	var verr *validation.Error
	switch {
	case errors.As(err, &verr),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrTooLarge):
		return err
	}
	return &verification.InfraError{Stage: "storage", Err: err}
}

// writeStatus stores status only if the customer still has version.
func (r *repo) writeStatus(ctx context.Context, id uuid.UUID, version int, status kyc.Status) (*Customer, error) {
	q := `
		UPDATE customers
		SET kyc_status = $1, version = version + 1, updated_at = now()
		WHERE id = $2 AND version = $3
		` + returning

	c, err := repository.QueryOne(ctx, r.db, q, []any{status, id, version}, scanCustomer)
	if errors.Is(err, sql.ErrNoRows) {
		if _, findErr := r.Find(ctx, id); findErr != nil {
			return nil, findErr
		}
		return nil, ErrVersionConflict
	}
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func lockCustomer(ctx context.Context, tx *sql.Tx, id uuid.UUID) (Customer, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)
	return repository.QueryOne(ctx, tx, q+" FOR UPDATE", args, scanCustomer)
}

func checkWrite(current Customer, status *kyc.Status, version *int) error {
	if status != nil && *status != current.KYCStatus {
		return ErrStatusImmutable
	}
	if version != nil && *version != current.Version {
		return ErrVersionConflict
	}
	return nil
}

func mapError(err error) error {
	if repository.IsForeignKeyViolation(err) {
		return ErrInvalidPartner
	}
	return repository.MapError(err, ErrNotFound, ErrDuplicate)
}
