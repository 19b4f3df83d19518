package customers_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/internal/customers"
	"github.com/reactit/kycdesk/internal/kyc"
	"github.com/reactit/kycdesk/internal/verification"
	"github.com/reactit/kycdesk/pkg/pagination"
	"github.com/reactit/kycdesk/pkg/storage"
)

// customerTable is an in-memory customers table served through
// database/sql. It understands the single-row select and the
// version-guarded status update issued by Verify.
type customerTable struct {
	mu   sync.Mutex
	rows map[string]*customerRow
}

type customerRow struct {
	id      uuid.UUID
	name    string
	status  string
	version int64
	created time.Time
}

func (r *customerRow) values() []driver.Value {
	return []driver.Value{
		r.id.String(),
		r.name,
		nil,
		time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
		nil,
		nil,
		nil,
		r.status,
		r.version,
		nil,
		r.created,
		r.created,
	}
}

func (t *customerTable) get(id uuid.UUID) (customerRow, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[id.String()]
	if !ok {
		return customerRow{}, false
	}
	return *row, true
}

func (t *customerTable) touch(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[id.String()].version++
}

func (t *customerTable) remove(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rows, id.String())
}

func (t *customerTable) query(q string, args []driver.NamedValue) (driver.Rows, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	q = strings.TrimSpace(q)
	switch {
	case strings.HasPrefix(q, "UPDATE customers") && strings.Contains(q, "version = $3"):
		row, ok := t.rows[fmt.Sprint(args[1].Value)]
		if !ok || fmt.Sprint(row.version) != fmt.Sprint(args[2].Value) {
			return &tableRows{}, nil
		}
		row.status = fmt.Sprint(args[0].Value)
		row.version++
		return &tableRows{rows: [][]driver.Value{row.values()}}, nil

	case strings.HasPrefix(q, "SELECT"):
		row, ok := t.rows[fmt.Sprint(args[0].Value)]
		if !ok {
			return &tableRows{}, nil
		}
		return &tableRows{rows: [][]driver.Value{row.values()}}, nil
	}
	return nil, fmt.Errorf("unexpected query: %s", q)
}

var tables sync.Map

type tableDriver struct{}

func (tableDriver) Open(name string) (driver.Conn, error) {
	t, ok := tables.Load(name)
	if !ok {
		return nil, fmt.Errorf("no table registered as %s", name)
	}
	return &tableConn{table: t.(*customerTable)}, nil
}

type tableConn struct {
	table *customerTable
}

func (c *tableConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements not supported")
}

func (c *tableConn) Close() error { return nil }

func (c *tableConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *tableConn) QueryContext(_ context.Context, q string, args []driver.NamedValue) (driver.Rows, error) {
	return c.table.query(q, args)
}

type tableRows struct {
	rows [][]driver.Value
	pos  int
}

func (r *tableRows) Columns() []string {
	return []string{
		"id", "full_name", "email", "date_of_birth", "address", "phone", "id_number",
		"kyc_status", "version", "partner_id", "created_at", "updated_at",
	}
}

func (r *tableRows) Close() error { return nil }

func (r *tableRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}

func init() {
	sql.Register("customers-table", tableDriver{})
}

type fakeVerifier struct {
	verifyFn func(ctx context.Context, claim kyc.Claim, data []byte) (*verification.Result, error)
}

func (v *fakeVerifier) Verify(ctx context.Context, claim kyc.Claim, data []byte) (*verification.Result, error) {
	return v.verifyFn(ctx, claim, data)
}

func (v *fakeVerifier) VerifyBase64(ctx context.Context, claim kyc.Claim, _ string) (*verification.Result, error) {
	return v.verifyFn(ctx, claim, []byte("decoded"))
}

type fakeImages struct {
	imageFn func(ctx context.Context, customerID, documentID uuid.UUID) ([]byte, error)
}

func (i *fakeImages) Image(ctx context.Context, customerID, documentID uuid.UUID) ([]byte, error) {
	return i.imageFn(ctx, customerID, documentID)
}

// newRepo seeds one PENDING customer at version 1.
func newRepo(t *testing.T, v customers.Verifier, images customers.DocumentImages) (customers.System, *customerTable, uuid.UUID) {
	t.Helper()

	id := uuid.New()
	table := &customerTable{rows: map[string]*customerRow{
		id.String(): {
			id:      id,
			name:    "John Doe",
			status:  string(kyc.StatusPending),
			version: 1,
			created: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC),
		},
	}}
	tables.Store(t.Name(), table)
	t.Cleanup(func() { tables.Delete(t.Name()) })

	db, err := sql.Open("customers-table", t.Name())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return customers.New(db, v, images, discard(), pagination.Config{}, 1<<20), table, id
}

func verified(context.Context, kyc.Claim, []byte) (*verification.Result, error) {
	return &verification.Result{Status: kyc.StatusVerified}, nil
}

func TestRepoVerifyWritesStatus(t *testing.T) {
	sys, table, id := newRepo(t, &fakeVerifier{verifyFn: verified}, nil)

	res, err := sys.Verify(context.Background(), id, customers.VerifyCommand{ImageBase64: "aGk="})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Customer.KYCStatus != kyc.StatusVerified {
		t.Errorf("status: got %s, want %s", res.Customer.KYCStatus, kyc.StatusVerified)
	}
	if res.Customer.Version != 2 {
		t.Errorf("version: got %d, want 2", res.Customer.Version)
	}

	row, _ := table.get(id)
	if row.status != string(kyc.StatusVerified) || row.version != 2 {
		t.Errorf("row: got %s v%d, want %s v2", row.status, row.version, kyc.StatusVerified)
	}
}

func TestRepoVerifyCompareAndSwap(t *testing.T) {
	t.Run("stale version", func(t *testing.T) {
		var table *customerTable
		var id uuid.UUID
		v := &fakeVerifier{
			verifyFn: func(ctx context.Context, claim kyc.Claim, data []byte) (*verification.Result, error) {
				// another writer lands while the document is being checked
				table.touch(id)
				return verified(ctx, claim, data)
			},
		}

		var sys customers.System
		sys, table, id = newRepo(t, v, nil)

		_, err := sys.Verify(context.Background(), id, customers.VerifyCommand{ImageBase64: "aGk="})
		if !errors.Is(err, customers.ErrVersionConflict) {
			t.Fatalf("err: got %v, want %v", err, customers.ErrVersionConflict)
		}

		row, _ := table.get(id)
		if row.status != string(kyc.StatusPending) {
			t.Errorf("status: got %s, want %s", row.status, kyc.StatusPending)
		}
		if row.version != 2 {
			t.Errorf("version: got %d, want 2", row.version)
		}
	})

	t.Run("vanished row", func(t *testing.T) {
		var table *customerTable
		var id uuid.UUID
		v := &fakeVerifier{
			verifyFn: func(ctx context.Context, claim kyc.Claim, data []byte) (*verification.Result, error) {
				table.remove(id)
				return verified(ctx, claim, data)
			},
		}

		var sys customers.System
		sys, table, id = newRepo(t, v, nil)

		_, err := sys.Verify(context.Background(), id, customers.VerifyCommand{ImageBase64: "aGk="})
		if !errors.Is(err, customers.ErrNotFound) {
			t.Fatalf("err: got %v, want %v", err, customers.ErrNotFound)
		}
		if _, ok := table.get(id); ok {
			t.Error("row should stay deleted")
		}
	})

	t.Run("requested version mismatch", func(t *testing.T) {
		called := false
		v := &fakeVerifier{
			verifyFn: func(ctx context.Context, claim kyc.Claim, data []byte) (*verification.Result, error) {
				called = true
				return verified(ctx, claim, data)
			},
		}
		sys, table, id := newRepo(t, v, nil)

		stale := 0
		_, err := sys.Verify(context.Background(), id, customers.VerifyCommand{ImageBase64: "aGk=", Version: &stale})
		if !errors.Is(err, customers.ErrVersionConflict) {
			t.Fatalf("err: got %v, want %v", err, customers.ErrVersionConflict)
		}
		if called {
			t.Error("verifier should not run for a stale version")
		}
		if row, _ := table.get(id); row.version != 1 {
			t.Errorf("version: got %d, want 1", row.version)
		}
	})
}

func TestRepoVerifyDocumentImageErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantInfra  bool
	}{
		{"blob missing", storage.ErrNotFound, http.StatusNotFound, false},
		{"blob too large", storage.ErrTooLarge, http.StatusRequestEntityTooLarge, false},
		{"storage unreachable", errors.New("dial tcp 10.0.0.5:10000: connection refused"), http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := &fakeImages{
				imageFn: func(context.Context, uuid.UUID, uuid.UUID) ([]byte, error) {
					return nil, tt.err
				},
			}
			v := &fakeVerifier{
				verifyFn: func(context.Context, kyc.Claim, []byte) (*verification.Result, error) {
					t.Error("verifier should not run without an image")
					return nil, nil
				},
			}
			sys, table, id := newRepo(t, v, images)

			docID := uuid.New()
			_, err := sys.Verify(context.Background(), id, customers.VerifyCommand{DocumentID: &docID})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := customers.MapHTTPStatus(err); got != tt.wantStatus {
				t.Errorf("status: got %d, want %d", got, tt.wantStatus)
			}
			if got := verification.IsInfraError(err); got != tt.wantInfra {
				t.Errorf("infra error: got %v, want %v", got, tt.wantInfra)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("err: got %v, want it to wrap %v", err, tt.err)
			}

			row, _ := table.get(id)
			if row.status != string(kyc.StatusPending) || row.version != 1 {
				t.Errorf("row: got %s v%d, want unchanged", row.status, row.version)
			}
		})
	}
}
