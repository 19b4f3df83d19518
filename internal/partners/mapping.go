package partners

import (
	"net/url"

	"github.com/reactit/kycdesk/pkg/query"
	"github.com/reactit/kycdesk/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "partners", "p").
	Project("id", "ID").
	Project("name", "Name").
	Project("realm_name", "RealmName").
	Project("client_id", "ClientID").
	Project("created_at", "CreatedAt")

const returning = `RETURNING id, name, realm_name, client_id, created_at`

var defaultSort = query.SortField{Field: "Name"}

// Filters narrows partner listings. Name matches a substring; realm and
// client match exactly.
type Filters struct {
	Name      *string `json:"name,omitempty"`
	RealmName *string `json:"realmName,omitempty"`
	ClientID  *string `json:"clientId,omitempty"`
}

func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereContains("Name", f.Name).
		WhereEquals("RealmName", f.RealmName).
		WhereEquals("ClientID", f.ClientID)
}

func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if v := values.Get("name"); v != "" {
		f.Name = &v
	}
	if v := values.Get("realmName"); v != "" {
		f.RealmName = &v
	}
	if v := values.Get("clientId"); v != "" {
		f.ClientID = &v
	}
	return f
}

func scanPartner(s repository.Scanner) (Partner, error) {
	var p Partner
	err := s.Scan(&p.ID, &p.Name, &p.RealmName, &p.ClientID, &p.CreatedAt)
	return p, err
}
