package facematches

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/pkg/query"
	"github.com/reactit/kycdesk/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "face_matches", "f").
	Project("id", "ID").
	Project("customer_id", "CustomerID").
	Project("selfie_url", "SelfieURL").
	Project("id_photo_url", "IDPhotoURL").
	Project("selfie_key", "SelfieKey").
	Project("id_photo_key", "IDPhotoKey").
	Project("match", "Match").
	Project("score", "Score").
	Project("created_at", "CreatedAt")

const returning = `RETURNING id, customer_id, selfie_url, id_photo_url, selfie_key, id_photo_key,
		match, score, created_at`

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters narrows face match listings.
type Filters struct {
	CustomerID *uuid.UUID `json:"customerId,omitempty"`
	Match      *bool      `json:"match,omitempty"`
}

func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("CustomerID", f.CustomerID).
		WhereEquals("Match", f.Match)
}

func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("customerId"); c != "" {
		if id, err := uuid.Parse(c); err == nil {
			f.CustomerID = &id
		}
	}

	if m := values.Get("match"); m != "" {
		if v, err := strconv.ParseBool(m); err == nil {
			f.Match = &v
		}
	}

	return f
}

func scanFaceMatch(s repository.Scanner) (FaceMatch, error) {
	var m FaceMatch
	err := s.Scan(
		&m.ID,
		&m.CustomerID,
		&m.SelfieURL,
		&m.IDPhotoURL,
		&m.SelfieKey,
		&m.IDPhotoKey,
		&m.Match,
		&m.Score,
		&m.CreatedAt,
	)
	return m, err
}
