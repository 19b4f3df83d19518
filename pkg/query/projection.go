// Package query builds parameterized PostgreSQL statements from projection maps.
package query

import (
	"fmt"
	"strings"
)

type join struct {
	table string
	alias string
	on    string
}

// ProjectionMap binds JSON view names to qualified columns of a base table
// and any tables joined to it.
type ProjectionMap struct {
	schema  string
	table   string
	alias   string
	joins   []join
	columns map[string]string
	order   []string
}

// NewProjectionMap starts a projection over schema.table using alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:  schema,
		table:   table,
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Project maps a column of the base table to viewName.
func (p *ProjectionMap) Project(column, viewName string) *ProjectionMap {
	return p.ProjectFrom(p.alias, column, viewName)
}

// ProjectFrom maps a column of a joined table, addressed by its alias, to viewName.
func (p *ProjectionMap) ProjectFrom(alias, column, viewName string) *ProjectionMap {
	qualified := alias + "." + column
	p.columns[viewName] = qualified
	p.order = append(p.order, qualified)
	return p
}

// LeftJoin adds "LEFT JOIN schema.table alias ON on" to the FROM clause.
func (p *ProjectionMap) LeftJoin(table, alias, on string) *ProjectionMap {
	p.joins = append(p.joins, join{
		table: fmt.Sprintf("%s.%s", p.schema, table),
		alias: alias,
		on:    on,
	})
	return p
}

// Alias returns the base table alias.
func (p *ProjectionMap) Alias() string {
	return p.alias
}

// Table returns the aliased base table, e.g. "public.customers c".
func (p *ProjectionMap) Table() string {
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}

// From returns the base table followed by its joins.
func (p *ProjectionMap) From() string {
	if len(p.joins) == 0 {
		return p.Table()
	}

	var sb strings.Builder
	sb.WriteString(p.Table())
	for _, j := range p.joins {
		fmt.Fprintf(&sb, " LEFT JOIN %s %s ON %s", j.table, j.alias, j.on)
	}
	return sb.String()
}

// Lookup returns the qualified column for viewName.
func (p *ProjectionMap) Lookup(viewName string) (string, bool) {
	col, ok := p.columns[viewName]
	return col, ok
}

// Column returns the qualified column for viewName, or viewName itself when unmapped.
func (p *ProjectionMap) Column(viewName string) string {
	if col, ok := p.columns[viewName]; ok {
		return col
	}
	return viewName
}

// Columns returns the SELECT list in projection order.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.order, ", ")
}

// ColumnList returns a copy of the projected columns.
func (p *ProjectionMap) ColumnList() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}
