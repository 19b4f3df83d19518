// Package dashboard aggregates back-office statistics for administrators.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/reactit/kycdesk/internal/kyc"
)

type CustomerDocumentCount struct {
	CustomerID    uuid.UUID  `json:"customerId"`
	FullName      string     `json:"fullName"`
	KYCStatus     kyc.Status `json:"kycStatus"`
	DocumentCount int        `json:"documentCount"`
}

type CustomerInfo struct {
	TotalCustomers          int `json:"totalCustomers"`
	PendingCustomers        int `json:"pendingCustomers"`
	VerifiedCustomers       int `json:"verifiedCustomers"`
	RejectedCustomers       int `json:"rejectedCustomers"`
	CustomersAddedThisMonth int `json:"customersAddedThisMonth"`
}

type MailStats struct {
	TotalEmailsSent int `json:"totalEmailsSent"`
}

// Dashboard is the administrator overview. TotalUsers is nil when the
// identity provider could not be reached.
type Dashboard struct {
	CustomerDocumentCounts []CustomerDocumentCount `json:"customerDocumentCounts"`
	CustomerInfo           CustomerInfo            `json:"customerInfo"`
	MailStats              MailStats               `json:"mailStats"`
	CountFaceMatch         int                     `json:"countFaceMatch"`
	TotalUsers             *int                    `json:"totalUsers"`
}

// Store reads customer statistics.
type Store interface {
	CustomerDocumentCounts(ctx context.Context) ([]CustomerDocumentCount, error)
	CustomerInfo(ctx context.Context) (CustomerInfo, error)
}

// Counter returns a single total.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// EmailCounter sums the emails sent by regulation notifications.
type EmailCounter interface {
	EmailsSent(ctx context.Context) (int, error)
}

type System interface {
	Handler() *Handler
	Build(ctx context.Context) (*Dashboard, error)
}

type dashboard struct {
	store       Store
	faceMatches Counter
	emails      EmailCounter
	users       Counter
	logger      *slog.Logger
}

func New(store Store, faceMatches Counter, emails EmailCounter, users Counter, logger *slog.Logger) System {
	return &dashboard{
		store:       store,
		faceMatches: faceMatches,
		emails:      emails,
		users:       users,
		logger:      logger.With("system", "dashboard"),
	}
}

func (d *dashboard) Handler() *Handler {
	return NewHandler(d, d.logger)
}

// Build runs every query concurrently. A failing identity provider leaves
// TotalUsers nil; any other failure fails the build.
func (d *dashboard) Build(ctx context.Context) (*Dashboard, error) {
	var out Dashboard

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		counts, err := d.store.CustomerDocumentCounts(gctx)
		if err != nil {
			return fmt.Errorf("customer document counts: %w", err)
		}
		out.CustomerDocumentCounts = counts
		return nil
	})

	g.Go(func() error {
		info, err := d.store.CustomerInfo(gctx)
		if err != nil {
			return fmt.Errorf("customer info: %w", err)
		}
		out.CustomerInfo = info
		return nil
	})

	g.Go(func() error {
		n, err := d.emails.EmailsSent(gctx)
		if err != nil {
			return fmt.Errorf("emails sent: %w", err)
		}
		out.MailStats.TotalEmailsSent = n
		return nil
	})

	g.Go(func() error {
		n, err := d.faceMatches.Count(gctx)
		if err != nil {
			return fmt.Errorf("face match count: %w", err)
		}
		out.CountFaceMatch = n
		return nil
	})

	g.Go(func() error {
		n, err := d.users.Count(gctx)
		if err != nil {
			d.logger.Warn("identity provider user count unavailable", "error", err)
			return nil
		}
		out.TotalUsers = &n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
