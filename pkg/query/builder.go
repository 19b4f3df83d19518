package query

import (
	"fmt"
	"reflect"
	"strings"
)

// SortField is one ORDER BY term, named by its view name.
type SortField struct {
	Field      string
	Descending bool
}

// ParseSortFields reads "name,-createdAt" into sort terms. A leading "-"
// selects descending order. Empty input yields nil.
func ParseSortFields(s string) []SortField {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

// params numbers positional arguments as they are bound.
type params struct {
	args []any
}

func (p *params) bind(v any) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}

type condition func(p *params) string

// Builder assembles SELECT statements over a ProjectionMap. Conditions are
// combined with AND and bound in the order they were added.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	sort        []SortField
	defaultSort []SortField
}

// NewBuilder returns a Builder that orders by defaultSort when no explicit
// order is requested.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// Build returns the filtered, ordered SELECT statement.
func (b *Builder) Build() (string, []any) {
	p := &params{}
	sql := "SELECT " + b.projection.Columns() + " FROM " + b.projection.From() +
		b.where(p) + b.orderBy()
	return sql, p.args
}

// BuildCount returns SELECT COUNT(*) under the same conditions.
func (b *Builder) BuildCount() (string, []any) {
	p := &params{}
	sql := "SELECT COUNT(*) FROM " + b.projection.From() + b.where(p)
	return sql, p.args
}

// BuildPage returns the SELECT statement for a one-based page.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	sql, args := b.Build()
	offset := max(page-1, 0) * pageSize
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", sql, pageSize, offset), args
}

// BuildSingle selects the row whose idField equals id, ignoring other conditions.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(),
		b.projection.From(),
		b.projection.Column(idField),
	)
	return sql, []any{id}
}

// BuildSingleOrNull selects at most one row under the current conditions.
func (b *Builder) BuildSingleOrNull() (string, []any) {
	p := &params{}
	sql := "SELECT " + b.projection.Columns() + " FROM " + b.projection.From() +
		b.where(p) + " LIMIT 1"
	return sql, p.args
}

// OrderByFields replaces the default order.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// WhereEquals filters field = value. Nil values are ignored.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	col := b.projection.Column(field)
	b.conditions = append(b.conditions, func(p *params) string {
		return col + " = " + p.bind(value)
	})
	return b
}

// WhereContains filters field ILIKE %value%. Nil or empty values are ignored.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	col := b.projection.Column(field)
	pattern := "%" + *value + "%"
	b.conditions = append(b.conditions, func(p *params) string {
		return col + " ILIKE " + p.bind(pattern)
	})
	return b
}

// WhereIn filters field IN (values...). An empty list is ignored.
func (b *Builder) WhereIn(field string, values []any) *Builder {
	if len(values) == 0 {
		return b
	}
	col := b.projection.Column(field)
	b.conditions = append(b.conditions, func(p *params) string {
		ph := make([]string, len(values))
		for i, v := range values {
			ph[i] = p.bind(v)
		}
		return col + " IN (" + strings.Join(ph, ", ") + ")"
	})
	return b
}

// WhereNullable filters field = value, or field IS NULL when value is nil.
func (b *Builder) WhereNullable(field string, value any) *Builder {
	col := b.projection.Column(field)
	if isNil(value) {
		b.conditions = append(b.conditions, func(*params) string {
			return col + " IS NULL"
		})
		return b
	}
	return b.WhereEquals(field, value)
}

// WhereSearch matches search against any of fields with ILIKE.
// Text columns only; cast others in the projection. Nil or empty search is ignored.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}
	pattern := "%" + *search + "%"
	b.conditions = append(b.conditions, func(p *params) string {
		clauses := make([]string, len(fields))
		for i, f := range fields {
			clauses[i] = b.projection.Column(f) + " ILIKE " + p.bind(pattern)
		}
		return "(" + strings.Join(clauses, " OR ") + ")"
	})
	return b
}

func (b *Builder) where(p *params) string {
	if len(b.conditions) == 0 {
		return ""
	}
	clauses := make([]string, len(b.conditions))
	for i, c := range b.conditions {
		clauses[i] = c(p)
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

// orderBy renders the sort terms. Names the projection does not know are
// dropped so client-supplied sort strings never reach the SQL text.
func (b *Builder) orderBy() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.defaultSort
	}

	var parts []string
	for _, f := range fields {
		col, ok := b.projection.Lookup(f.Field)
		if !ok {
			continue
		}
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}

	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}
