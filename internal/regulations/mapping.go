package regulations

import (
	"net/url"
	"strings"

	"github.com/reactit/kycdesk/pkg/query"
	"github.com/reactit/kycdesk/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "regulations", "r").
	Project("id", "ID").
	Project("title", "Title").
	Project("content", "Content").
	Project("source_url", "SourceURL").
	Project("status", "Status").
	Project("created_at", "CreatedAt")

const returning = `RETURNING id, title, content, source_url, status, created_at`

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

type Filters struct {
	Title  *string `json:"title,omitempty"`
	Status *Status `json:"status,omitempty"`
}

func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("Title", f.Title).
		WhereEquals("Status", f.Status)
}

func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if v := values.Get("title"); v != "" {
		f.Title = &v
	}
	if v := values.Get("status"); v != "" {
		s := Status(strings.ToUpper(v))
		f.Status = &s
	}
	return f
}

func scanRegulation(s repository.Scanner) (Regulation, error) {
	var r Regulation
	err := s.Scan(&r.ID, &r.Title, &r.Content, &r.SourceURL, &r.Status, &r.CreatedAt)
	return r, err
}
