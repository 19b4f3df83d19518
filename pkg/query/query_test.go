package query_test

import (
	"testing"

	"github.com/reactit/kycdesk/pkg/query"
)

const selectCustomers = "SELECT c.id, c.full_name, c.kyc_status, c.created_at FROM public.customers c"

func customers() *query.ProjectionMap {
	return query.NewProjectionMap("public", "customers", "c").
		Project("id", "id").
		Project("full_name", "fullName").
		Project("kyc_status", "kycStatus").
		Project("created_at", "createdAt")
}

func ptr(s string) *string { return &s }

func TestProjectionMap(t *testing.T) {
	p := customers()

	if got := p.Table(); got != "public.customers c" {
		t.Errorf("Table() = %q, want public.customers c", got)
	}
	if got := p.From(); got != "public.customers c" {
		t.Errorf("From() = %q, want public.customers c", got)
	}
	if got := p.Alias(); got != "c" {
		t.Errorf("Alias() = %q, want c", got)
	}
	if got := p.Columns(); got != "c.id, c.full_name, c.kyc_status, c.created_at" {
		t.Errorf("Columns() = %q", got)
	}

	list := p.ColumnList()
	list[0] = "mutated"
	if p.ColumnList()[0] != "c.id" {
		t.Error("ColumnList() should return a copy")
	}
}

func TestProjectionMapLookup(t *testing.T) {
	p := customers()

	tests := []struct {
		view   string
		want   string
		wantOK bool
	}{
		{"fullName", "c.full_name", true},
		{"kycStatus", "c.kyc_status", true},
		{"password", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			got, ok := p.Lookup(tt.view)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Lookup(%q) = (%q, %v), want (%q, %v)", tt.view, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	if got := p.Column("password"); got != "password" {
		t.Errorf("Column(unmapped) = %q, want passthrough", got)
	}
}

func TestProjectionMapJoin(t *testing.T) {
	p := query.NewProjectionMap("public", "face_matches", "f").
		LeftJoin("customers", "c", "c.id = f.customer_id").
		Project("id", "id").
		ProjectFrom("c", "full_name", "customerName")

	want := "public.face_matches f LEFT JOIN public.customers c ON c.id = f.customer_id"
	if got := p.From(); got != want {
		t.Errorf("From() = %q, want %q", got, want)
	}
	if got := p.Column("customerName"); got != "c.full_name" {
		t.Errorf("Column(customerName) = %q, want c.full_name", got)
	}

	sql, _ := query.NewBuilder(p).Build()
	wantSQL := "SELECT f.id, c.full_name FROM " + want
	if sql != wantSQL {
		t.Errorf("sql = %q, want %q", sql, wantSQL)
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{"empty", "", nil},
		{"blank", "  ", nil},
		{"ascending", "fullName", []query.SortField{{Field: "fullName"}}},
		{"descending", "-createdAt", []query.SortField{{Field: "createdAt", Descending: true}}},
		{
			"mixed with spaces and gaps",
			" fullName ,, -createdAt ",
			[]query.SortField{{Field: "fullName"}, {Field: "createdAt", Descending: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseSortFields(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestBuilderStatements(t *testing.T) {
	tests := []struct {
		name     string
		build    func() (string, []any)
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "plain select",
			build:   query.NewBuilder(customers()).Build,
			wantSQL: selectCustomers,
		},
		{
			name:    "count",
			build:   query.NewBuilder(customers()).BuildCount,
			wantSQL: "SELECT COUNT(*) FROM public.customers c",
		},
		{
			name: "single by id",
			build: func() (string, []any) {
				return query.NewBuilder(customers()).BuildSingle("id", "abc")
			},
			wantSQL:  selectCustomers + " WHERE c.id = $1",
			wantArgs: []any{"abc"},
		},
		{
			name: "single or null",
			build: query.NewBuilder(customers()).
				WhereEquals("kycStatus", "PENDING").
				BuildSingleOrNull,
			wantSQL:  selectCustomers + " WHERE c.kyc_status = $1 LIMIT 1",
			wantArgs: []any{"PENDING"},
		},
		{
			name: "equals and contains share numbering",
			build: query.NewBuilder(customers()).
				WhereEquals("kycStatus", "VERIFIED").
				WhereContains("fullName", ptr("doe")).
				Build,
			wantSQL:  selectCustomers + " WHERE c.kyc_status = $1 AND c.full_name ILIKE $2",
			wantArgs: []any{"VERIFIED", "%doe%"},
		},
		{
			name: "in list",
			build: query.NewBuilder(customers()).
				WhereIn("kycStatus", []any{"PENDING", "REJECTED"}).
				WhereEquals("id", "x").
				Build,
			wantSQL:  selectCustomers + " WHERE c.kyc_status IN ($1, $2) AND c.id = $3",
			wantArgs: []any{"PENDING", "REJECTED", "x"},
		},
		{
			name: "nullable nil",
			build: query.NewBuilder(customers()).
				WhereNullable("fullName", nil).
				Build,
			wantSQL: selectCustomers + " WHERE c.full_name IS NULL",
		},
		{
			name: "nullable value",
			build: query.NewBuilder(customers()).
				WhereNullable("fullName", "Jane").
				Build,
			wantSQL:  selectCustomers + " WHERE c.full_name = $1",
			wantArgs: []any{"Jane"},
		},
		{
			name: "search across fields",
			build: query.NewBuilder(customers()).
				WhereSearch(ptr("ja"), "fullName", "kycStatus").
				Build,
			wantSQL:  selectCustomers + " WHERE (c.full_name ILIKE $1 OR c.kyc_status ILIKE $2)",
			wantArgs: []any{"%ja%", "%ja%"},
		},
		{
			name: "ignored filters",
			build: query.NewBuilder(customers()).
				WhereEquals("id", nil).
				WhereEquals("id", (*string)(nil)).
				WhereContains("fullName", ptr("")).
				WhereContains("fullName", nil).
				WhereIn("id", nil).
				WhereSearch(nil, "fullName").
				Build,
			wantSQL: selectCustomers,
		},
		{
			name: "default sort",
			build: query.NewBuilder(customers(), query.SortField{Field: "createdAt", Descending: true}).
				Build,
			wantSQL: selectCustomers + " ORDER BY c.created_at DESC",
		},
		{
			name: "explicit sort overrides default and drops unknown fields",
			build: query.NewBuilder(customers(), query.SortField{Field: "id"}).
				OrderByFields(query.ParseSortFields("fullName,-password;drop,-createdAt")).
				Build,
			wantSQL: selectCustomers + " ORDER BY c.full_name ASC, c.created_at DESC",
		},
		{
			name: "page with filter",
			build: func() (string, []any) {
				return query.NewBuilder(customers(), query.SortField{Field: "id"}).
					WhereContains("fullName", ptr("smith")).
					BuildPage(3, 25)
			},
			wantSQL:  selectCustomers + " WHERE c.full_name ILIKE $1 ORDER BY c.id ASC LIMIT 25 OFFSET 50",
			wantArgs: []any{"%smith%"},
		},
		{
			name: "page zero clamps offset",
			build: func() (string, []any) {
				return query.NewBuilder(customers()).BuildPage(0, 10)
			},
			wantSQL: selectCustomers + " LIMIT 10 OFFSET 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.build()
			if sql != tt.wantSQL {
				t.Errorf("sql = %q, want %q", sql, tt.wantSQL)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tt.wantArgs)
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("args[%d] = %v, want %v", i, args[i], tt.wantArgs[i])
				}
			}
		})
	}
}
