// Package partners manages the partner organizations whose Keycloak realm
// and client onboard customers.
package partners

import (
	"time"

	"github.com/google/uuid"
)

const entity = "partner"

type Partner struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	RealmName string    `json:"realmName"`
	ClientID  string    `json:"clientId"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateCommand struct {
	ID        *uuid.UUID `json:"id"`
	Name      string     `json:"name" validate:"required,max=255"`
	RealmName string     `json:"realmName" validate:"required,max=255"`
	ClientID  string     `json:"clientId" validate:"required,max=255"`
}

type UpdateCommand struct {
	ID        *uuid.UUID `json:"id"`
	Name      string     `json:"name" validate:"required,max=255"`
	RealmName string     `json:"realmName" validate:"required,max=255"`
	ClientID  string     `json:"clientId" validate:"required,max=255"`
}

type PatchCommand struct {
	ID        *uuid.UUID `json:"id"`
	Name      *string    `json:"name" validate:"omitnil,min=1,max=255"`
	RealmName *string    `json:"realmName" validate:"omitnil,min=1,max=255"`
	ClientID  *string    `json:"clientId" validate:"omitnil,min=1,max=255"`
}
