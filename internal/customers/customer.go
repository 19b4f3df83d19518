// Package customers implements the customer domain: the persisted identity
// records whose KYC status is written by the verification pipeline.
package customers

import (
	"time"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/internal/kyc"
	"github.com/reactit/kycdesk/internal/verification"
)

const entity = "customer"

// Customer is a persisted identity record. KYCStatus changes only through
// Verify, and every status write increments Version.
type Customer struct {
	ID          uuid.UUID  `json:"id"`
	FullName    string     `json:"fullName"`
	Email       *string    `json:"email"`
	DateOfBirth kyc.Date   `json:"dateOfBirth"`
	Address     *string    `json:"address"`
	Phone       *string    `json:"phone"`
	IDNumber    *string    `json:"idNumber"`
	KYCStatus   kyc.Status `json:"kycStatus"`
	Version     int        `json:"version"`
	PartnerID   *uuid.UUID `json:"partnerId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Claim returns the identity the customer declared, with the date of birth
// in the yyyy/MM/dd form printed on identity documents.
func (c Customer) Claim() kyc.Claim {
	claim := kyc.Claim{
		FullName:    c.FullName,
		DateOfBirth: c.DateOfBirth.ClaimString(),
	}
	if c.IDNumber != nil {
		claim.IDNumber = *c.IDNumber
	}
	return claim
}

// CreateCommand registers a customer. KYCStatus may be omitted or PENDING.
type CreateCommand struct {
	ID          *uuid.UUID  `json:"id"`
	FullName    string      `json:"fullName" validate:"required,max=255"`
	Email       *string     `json:"email" validate:"omitempty,email,max=255"`
	DateOfBirth kyc.Date    `json:"dateOfBirth"`
	Address     *string     `json:"address" validate:"omitempty,max=512"`
	Phone       *string     `json:"phone" validate:"omitempty,max=50"`
	IDNumber    *string     `json:"idNumber" validate:"omitempty,max=100"`
	KYCStatus   *kyc.Status `json:"kycStatus"`
	PartnerID   *uuid.UUID  `json:"partnerId"`
}

// UpdateCommand replaces every editable field. KYCStatus, when present,
// must equal the stored status. A non-nil Version must equal the stored
// version.
type UpdateCommand struct {
	ID          *uuid.UUID  `json:"id"`
	FullName    string      `json:"fullName" validate:"required,max=255"`
	Email       *string     `json:"email" validate:"omitempty,email,max=255"`
	DateOfBirth kyc.Date    `json:"dateOfBirth"`
	Address     *string     `json:"address" validate:"omitempty,max=512"`
	Phone       *string     `json:"phone" validate:"omitempty,max=50"`
	IDNumber    *string     `json:"idNumber" validate:"omitempty,max=100"`
	KYCStatus   *kyc.Status `json:"kycStatus"`
	PartnerID   *uuid.UUID  `json:"partnerId"`
	Version     *int        `json:"version"`
}

// PatchCommand changes only the fields that are present.
type PatchCommand struct {
	ID          *uuid.UUID  `json:"id"`
	FullName    *string     `json:"fullName" validate:"omitnil,min=1,max=255"`
	Email       *string     `json:"email" validate:"omitempty,email,max=255"`
	DateOfBirth *kyc.Date   `json:"dateOfBirth"`
	Address     *string     `json:"address" validate:"omitempty,max=512"`
	Phone       *string     `json:"phone" validate:"omitempty,max=50"`
	IDNumber    *string     `json:"idNumber" validate:"omitempty,max=100"`
	KYCStatus   *kyc.Status `json:"kycStatus"`
	PartnerID   *uuid.UUID  `json:"partnerId"`
	Version     *int        `json:"version"`
}

// VerifyCommand selects the document image to verify against: a stored
// document of the customer, or an inline base64 image. Exactly one must be
// set. A non-nil Version must equal the stored version.
type VerifyCommand struct {
	DocumentID  *uuid.UUID `json:"documentId"`
	ImageBase64 string     `json:"imageBase64"`
	Version     *int       `json:"version"`
}

// VerifyResult is the customer after the status write together with the
// decision that produced it.
type VerifyResult struct {
	Customer     *Customer            `json:"customer"`
	Verification *verification.Result `json:"verification"`
}
