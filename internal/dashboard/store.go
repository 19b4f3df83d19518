package dashboard

import (
	"context"
	"database/sql"

	"github.com/reactit/kycdesk/pkg/repository"
)

type pgStore struct {
	db *sql.DB
}

// NewStore creates a Store reading the customers and documents tables.
func NewStore(db *sql.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) CustomerDocumentCounts(ctx context.Context) ([]CustomerDocumentCount, error) {
	q := `
		SELECT c.id, c.full_name, c.kyc_status, COUNT(d.id)
		FROM public.customers c
		LEFT JOIN public.documents d ON d.customer_id = c.id
		GROUP BY c.id, c.full_name, c.kyc_status
		ORDER BY c.full_name`

	return repository.QueryMany(ctx, s.db, q, nil, func(sc repository.Scanner) (CustomerDocumentCount, error) {
		var c CustomerDocumentCount
		err := sc.Scan(&c.CustomerID, &c.FullName, &c.KYCStatus, &c.DocumentCount)
		return c, err
	})
}

func (s *pgStore) CustomerInfo(ctx context.Context) (CustomerInfo, error) {
	q := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE kyc_status = 'PENDING'),
			COUNT(*) FILTER (WHERE kyc_status = 'VERIFIED'),
			COUNT(*) FILTER (WHERE kyc_status = 'REJECTED'),
			COUNT(*) FILTER (WHERE created_at >= date_trunc('month', now()))
		FROM public.customers`

	return repository.QueryOne(ctx, s.db, q, nil, func(sc repository.Scanner) (CustomerInfo, error) {
		var i CustomerInfo
		err := sc.Scan(
			&i.TotalCustomers,
			&i.PendingCustomers,
			&i.VerifiedCustomers,
			&i.RejectedCustomers,
			&i.CustomersAddedThisMonth,
		)
		return i, err
	})
}
