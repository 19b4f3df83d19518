// Package validation checks request commands with struct tags and reports
// failures as entity-scoped client errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Error keys shared by every entity endpoint.
const (
	KeyInvalid   = "validation"
	KeyIDExists  = "idexists"
	KeyIDNull    = "idnull"
	KeyIDInvalid = "idinvalid"
	KeyNotFound  = "idnotfound"
)

// FieldError describes a single failed constraint.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Error is a client error bound to an entity and an error key.
type Error struct {
	Entity  string
	Key     string
	Message string
	Fields  []FieldError
}

// New creates an Error without field details.
func New(entity, key, message string) *Error {
	return &Error{Entity: entity, Key: key, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// Details exposes the entity, key and field failures for error responses.
func (e *Error) Details() map[string]any {
	d := map[string]any{
		"entityName": e.Entity,
		"errorKey":   e.Key,
	}
	if len(e.Fields) > 0 {
		d["fields"] = e.Fields
	}
	return d
}

// Is reports whether a target *Error shares the same key.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Key == e.Key && (t.Entity == "" || t.Entity == e.Entity)
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct validates s against its `validate` tags. Failures are returned as
// an *Error for entity with key KeyInvalid.
func Struct(entity string, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %s: %w", entity, err)
	}

	fields := make([]FieldError, 0, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
		names = append(names, fe.Field())
	}

	return &Error{
		Entity:  entity,
		Key:     KeyInvalid,
		Message: fmt.Sprintf("invalid %s: %s", entity, strings.Join(names, ", ")),
		Fields:  fields,
	}
}

// RequireNoID rejects create requests that already carry an identifier.
func RequireNoID(entity string, id *uuid.UUID) error {
	if id != nil && *id != uuid.Nil {
		return New(entity, KeyIDExists, fmt.Sprintf("a new %s cannot already have an id", entity))
	}
	return nil
}

// MatchID checks that an update body identifies the same record as the path.
func MatchID(entity string, pathID uuid.UUID, bodyID *uuid.UUID) error {
	if bodyID == nil || *bodyID == uuid.Nil {
		return New(entity, KeyIDNull, "invalid id")
	}
	if *bodyID != pathID {
		return New(entity, KeyIDInvalid, "invalid id")
	}
	return nil
}

// Create checks a create body: no id of its own, then the field tags.
func Create(entity string, bodyID *uuid.UUID, cmd any) error {
	if err := RequireNoID(entity, bodyID); err != nil {
		return err
	}
	return Struct(entity, cmd)
}

// Update checks an update or patch body: the id must match the path, then
// the field tags.
func Update(entity string, pathID uuid.UUID, bodyID *uuid.UUID, cmd any) error {
	if err := MatchID(entity, pathID, bodyID); err != nil {
		return err
	}
	return Struct(entity, cmd)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
