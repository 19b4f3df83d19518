// Package users manages back-office accounts in the Keycloak realm through
// the admin REST API.
package users

import (
	"time"

	"github.com/Nerzal/gocloak/v13"
)

const entity = "user"

// User is the subset of a Keycloak user representation exposed by the API.
type User struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Enabled       bool       `json:"enabled"`
	EmailVerified bool       `json:"emailVerified"`
	CreatedAt     *time.Time `json:"createdAt"`
}

// CreateCommand registers an enabled user with a non-temporary password.
type CreateCommand struct {
	Username  string `json:"username" validate:"required,max=255"`
	Email     string `json:"email" validate:"required,email,max=255"`
	FirstName string `json:"firstName" validate:"required,max=255"`
	LastName  string `json:"lastName" validate:"required,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

func (c CreateCommand) representation() gocloak.User {
	credentials := []gocloak.CredentialRepresentation{{
		Type:      gocloak.StringP("password"),
		Value:     gocloak.StringP(c.Password),
		Temporary: gocloak.BoolP(false),
	}}

	return gocloak.User{
		Username:      gocloak.StringP(c.Username),
		Email:         gocloak.StringP(c.Email),
		FirstName:     gocloak.StringP(c.FirstName),
		LastName:      gocloak.StringP(c.LastName),
		Enabled:       gocloak.BoolP(true),
		EmailVerified: gocloak.BoolP(true),
		Credentials:   &credentials,
	}
}

func fromRepresentation(u *gocloak.User) User {
	user := User{
		ID:            gocloak.PString(u.ID),
		Username:      gocloak.PString(u.Username),
		Email:         gocloak.PString(u.Email),
		FirstName:     gocloak.PString(u.FirstName),
		LastName:      gocloak.PString(u.LastName),
		Enabled:       gocloak.PBool(u.Enabled),
		EmailVerified: gocloak.PBool(u.EmailVerified),
	}
	if u.CreatedTimestamp != nil {
		t := time.UnixMilli(*u.CreatedTimestamp).UTC()
		user.CreatedAt = &t
	}
	return user
}
