// Package regulations tracks regulatory updates and notifies customers
// about them by email.
package regulations

import (
	"time"

	"github.com/google/uuid"
)

const entity = "regulation"

// Status is the review state of a regulation.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusReviewed Status = "REVIEWED"
)

type Regulation struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   *string   `json:"content"`
	SourceURL *string   `json:"sourceUrl"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateCommand struct {
	ID        *uuid.UUID `json:"id"`
	Title     string     `json:"title" validate:"required,max=255"`
	Content   *string    `json:"content"`
	SourceURL *string    `json:"sourceUrl" validate:"omitnil,max=2048"`
	Status    Status     `json:"status" validate:"required,oneof=PENDING REVIEWED"`
}

type UpdateCommand struct {
	ID        *uuid.UUID `json:"id"`
	Title     string     `json:"title" validate:"required,max=255"`
	Content   *string    `json:"content"`
	SourceURL *string    `json:"sourceUrl" validate:"omitnil,max=2048"`
	Status    Status     `json:"status" validate:"required,oneof=PENDING REVIEWED"`
}

type PatchCommand struct {
	ID        *uuid.UUID `json:"id"`
	Title     *string    `json:"title" validate:"omitnil,min=1,max=255"`
	Content   *string    `json:"content"`
	SourceURL *string    `json:"sourceUrl" validate:"omitnil,max=2048"`
	Status    *Status    `json:"status" validate:"omitnil,oneof=PENDING REVIEWED"`
}

// Recipient is a customer with an email address.
type Recipient struct {
	Name  string
	Email string
}

// NotifyResult reports one notification run.
type NotifyResult struct {
	RegulationID uuid.UUID `json:"regulationId"`
	EmailsSent   int       `json:"emailsSent"`
	Failed       int       `json:"failed"`
}
