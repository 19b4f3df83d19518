package customers

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/internal/kyc"
	"github.com/reactit/kycdesk/pkg/query"
	"github.com/reactit/kycdesk/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "customers", "c").
	Project("id", "ID").
	Project("full_name", "FullName").
	Project("email", "Email").
	Project("date_of_birth", "DateOfBirth").
	Project("address", "Address").
	Project("phone", "Phone").
	Project("id_number", "IDNumber").
	Project("kyc_status", "KYCStatus").
	Project("version", "Version").
	Project("partner_id", "PartnerID").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

const returning = `RETURNING id, full_name, email, date_of_birth, address, phone, id_number,
		kyc_status, version, partner_id, created_at, updated_at`

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters narrows customer queries. Nil fields are ignored. KYCStatus and
// PartnerID match exactly; FullName, Email and IDNumber match
// case-insensitive substrings.
type Filters struct {
	KYCStatus *kyc.Status `json:"kycStatus,omitempty"`
	PartnerID *uuid.UUID  `json:"partnerId,omitempty"`
	FullName  *string     `json:"fullName,omitempty"`
	Email     *string     `json:"email,omitempty"`
	IDNumber  *string     `json:"idNumber,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	var status *string
	if f.KYCStatus != nil {
		s := string(*f.KYCStatus)
		status = &s
	}

	return b.
		WhereEquals("KYCStatus", status).
		WhereEquals("PartnerID", f.PartnerID).
		WhereContains("FullName", f.FullName).
		WhereContains("Email", f.Email).
		WhereContains("IDNumber", f.IDNumber)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Unparseable status and partner values are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("kycStatus"); s != "" {
		if status, err := kyc.ParseStatus(s); err == nil {
			f.KYCStatus = &status
		}
	}

	if p := values.Get("partnerId"); p != "" {
		if id, err := uuid.Parse(p); err == nil {
			f.PartnerID = &id
		}
	}

	if n := values.Get("fullName"); n != "" {
		f.FullName = &n
	}

	if e := values.Get("email"); e != "" {
		f.Email = &e
	}

	if n := values.Get("idNumber"); n != "" {
		f.IDNumber = &n
	}

	return f
}

func scanCustomer(s repository.Scanner) (Customer, error) {
	var c Customer
	err := s.Scan(
		&c.ID,
		&c.FullName,
		&c.Email,
		&c.DateOfBirth,
		&c.Address,
		&c.Phone,
		&c.IDNumber,
		&c.KYCStatus,
		&c.Version,
		&c.PartnerID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}
