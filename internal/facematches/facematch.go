// Package facematches records selfie versus identity photo comparisons for
// customers.
package facematches

import (
	"time"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/internal/faceverify"
)

const entity = "faceMatch"

// FaceMatch is one comparison result owned by a customer. The storage keys
// are set only for matches produced by the verify endpoint.
type FaceMatch struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customerId"`
	SelfieURL  string    `json:"selfieUrl"`
	IDPhotoURL string    `json:"idPhotoUrl"`
	SelfieKey  *string   `json:"selfieKey"`
	IDPhotoKey *string   `json:"idPhotoKey"`
	Match      bool      `json:"match"`
	Score      *float64  `json:"score"`
	CreatedAt  time.Time `json:"createdAt"`
}

type CreateCommand struct {
	ID         *uuid.UUID `json:"id"`
	CustomerID *uuid.UUID `json:"customerId" validate:"required"`
	SelfieURL  string     `json:"selfieUrl" validate:"required,max=2048"`
	IDPhotoURL string     `json:"idPhotoUrl" validate:"required,max=2048"`
	Match      bool       `json:"match"`
	Score      *float64   `json:"score" validate:"omitnil,gte=0,lte=1"`
}

type UpdateCommand struct {
	ID         *uuid.UUID `json:"id"`
	CustomerID *uuid.UUID `json:"customerId" validate:"required"`
	SelfieURL  string     `json:"selfieUrl" validate:"required,max=2048"`
	IDPhotoURL string     `json:"idPhotoUrl" validate:"required,max=2048"`
	Match      bool       `json:"match"`
	Score      *float64   `json:"score" validate:"omitnil,gte=0,lte=1"`
}

type PatchCommand struct {
	ID         *uuid.UUID `json:"id"`
	CustomerID *uuid.UUID `json:"customerId"`
	SelfieURL  *string    `json:"selfieUrl" validate:"omitnil,min=1,max=2048"`
	IDPhotoURL *string    `json:"idPhotoUrl" validate:"omitnil,min=1,max=2048"`
	Match      *bool      `json:"match"`
	Score      *float64   `json:"score" validate:"omitnil,gte=0,lte=1"`
}

// VerifyCommand carries the two uploaded images to compare for a customer.
type VerifyCommand struct {
	CustomerID uuid.UUID
	Selfie     faceverify.Image
	IDPhoto    faceverify.Image
}

// VerifyResult is the stored match and the comparator verdict behind it.
type VerifyResult struct {
	FaceMatch  *FaceMatch             `json:"faceMatch"`
	Comparison *faceverify.Comparison `json:"comparison"`
}
