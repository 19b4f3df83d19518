package documents

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/pkg/query"
	"github.com/reactit/kycdesk/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("customer_id", "CustomerID").
	Project("file_url", "FileURL").
	Project("storage_key", "StorageKey").
	Project("filename", "Filename").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("quality_score", "QualityScore").
	Project("issues", "Issues").
	Project("created_at", "CreatedAt")

const returning = `RETURNING id, customer_id, file_url, storage_key, filename, content_type,
		size_bytes, page_count, quality_score, issues, created_at`

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for document queries.
// CustomerID and ContentType match exactly; Filename matches a
// case-insensitive substring.
type Filters struct {
	CustomerID  *uuid.UUID `json:"customerId,omitempty"`
	ContentType *string    `json:"contentType,omitempty"`
	Filename    *string    `json:"filename,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("CustomerID", f.CustomerID).
		WhereEquals("ContentType", f.ContentType).
		WhereContains("Filename", f.Filename)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("customerId"); c != "" {
		if id, err := uuid.Parse(c); err == nil {
			f.CustomerID = &id
		}
	}

	if ct := values.Get("contentType"); ct != "" {
		f.ContentType = &ct
	}

	if fn := values.Get("filename"); fn != "" {
		f.Filename = &fn
	}

	return f
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.CustomerID,
		&d.FileURL,
		&d.StorageKey,
		&d.Filename,
		&d.ContentType,
		&d.SizeBytes,
		&d.PageCount,
		&d.QualityScore,
		&d.Issues,
		&d.CreatedAt,
	)
	return d, err
}
