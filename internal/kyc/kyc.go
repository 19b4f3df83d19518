// Package kyc defines the identity claim and verification status shared by
// customers, the verification pipeline and generated test users.
package kyc

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/reactit/kycdesk/pkg/validation"
)

// Status is the KYC verification outcome of a customer.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusVerified Status = "VERIFIED"
	StatusRejected Status = "REJECTED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether s is the result of a verification attempt.
func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusRejected
}

// ParseStatus accepts a status name in any case.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown kyc status %q", s)
	}
	return st, nil
}

// Claim is the identity a customer declares. Fields are compared against
// text read from an identity document.
type Claim struct {
	FullName    string
	DateOfBirth string
	IDNumber    string
}

// Fields returns the claim fields in decision order, keyed by JSON name.
func (c Claim) Fields() []Field {
	return []Field{
		{Name: "fullName", Value: c.FullName},
		{Name: "dateOfBirth", Value: c.DateOfBirth},
		{Name: "idNumber", Value: c.IDNumber},
	}
}

// Field is a single named claim value.
type Field struct {
	Name  string
	Value string
}

// Validate rejects claims with a field that carries no comparable characters.
// normalize is the normalizer applied by the decision engine.
func (c Claim) Validate(entity string, normalize func(string) string) error {
	var fields []validation.FieldError
	for _, f := range c.Fields() {
		if normalize(f.Value) == "" {
			fields = append(fields, validation.FieldError{
				Field:   f.Name,
				Tag:     "required",
				Message: "is required",
			})
		}
	}
	if len(fields) == 0 {
		return nil
	}

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Field
	}
	return &validation.Error{
		Entity:  entity,
		Key:     validation.KeyInvalid,
		Message: fmt.Sprintf("invalid %s: %s", entity, strings.Join(names, ", ")),
		Fields:  fields,
	}
}

const (
	dateLayout  = "2006-01-02"
	claimLayout = "2006/01/02"
)

// Date is a calendar date without a time zone, encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate returns the given calendar date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate reads a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// ClaimString formats the date the way it is printed on identity documents.
func (d Date) ClaimString() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(claimLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = NewDate(v.Year(), v.Month(), v.Day())
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into kyc.Date", src)
	}
	return nil
}

func (d *Date) scanString(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer. The zero date is stored as NULL.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// TestUser is an in-memory identity used to exercise verification without
// persisting a customer.
type TestUser struct {
	ID                  string `json:"id"`
	FullName            string `json:"fullName"`
	DateOfBirth         string `json:"dateOfBirth"`
	Address             string `json:"address"`
	PhoneNumber         string `json:"phoneNumber"`
	IDNumber            string `json:"idNumber"`
	KYCStatus           Status `json:"kycStatus"`
	DocumentImageBase64 string `json:"documentImageBase64"`
}

// Claim returns the identity the user declares.
func (u TestUser) Claim() Claim {
	return Claim{
		FullName:    u.FullName,
		DateOfBirth: u.DateOfBirth,
		IDNumber:    u.IDNumber,
	}
}
