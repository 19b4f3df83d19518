package validation_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/reactit/kycdesk/pkg/validation"
)

type partnerCommand struct {
	Name     string `json:"name" validate:"required"`
	ClientID string `json:"clientId" validate:"required,max=8"`
}

func TestStruct(t *testing.T) {
	t.Run("valid command", func(t *testing.T) {
		err := validation.Struct("partner", partnerCommand{Name: "acme", ClientID: "web"})
		if err != nil {
			t.Errorf("Struct() error = %v, want nil", err)
		}
	})

	t.Run("reports json field names", func(t *testing.T) {
		err := validation.Struct("partner", partnerCommand{ClientID: "much-too-long"})

		var verr *validation.Error
		if !errors.As(err, &verr) {
			t.Fatalf("error type = %T, want *validation.Error", err)
		}
		if verr.Entity != "partner" {
			t.Errorf("entity = %s, want partner", verr.Entity)
		}
		if verr.Key != validation.KeyInvalid {
			t.Errorf("key = %s, want %s", verr.Key, validation.KeyInvalid)
		}
		if len(verr.Fields) != 2 {
			t.Fatalf("fields = %d, want 2", len(verr.Fields))
		}
		if verr.Fields[0].Field != "name" || verr.Fields[0].Tag != "required" {
			t.Errorf("fields[0] = %+v, want name/required", verr.Fields[0])
		}
		if verr.Fields[1].Field != "clientId" || verr.Fields[1].Tag != "max" {
			t.Errorf("fields[1] = %+v, want clientId/max", verr.Fields[1])
		}
	})
}

func TestRequireNoID(t *testing.T) {
	if err := validation.RequireNoID("partner", nil); err != nil {
		t.Errorf("nil id: error = %v, want nil", err)
	}

	id := uuid.New()
	err := validation.RequireNoID("partner", &id)
	if !errors.Is(err, &validation.Error{Key: validation.KeyIDExists}) {
		t.Errorf("error = %v, want idexists", err)
	}
}

func TestMatchID(t *testing.T) {
	pathID := uuid.New()
	other := uuid.New()

	tests := []struct {
		name    string
		body    *uuid.UUID
		wantKey string
	}{
		{"missing body id", nil, validation.KeyIDNull},
		{"mismatched body id", &other, validation.KeyIDInvalid},
		{"matching body id", &pathID, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.MatchID("customer", pathID, tt.body)
			if tt.wantKey == "" {
				if err != nil {
					t.Errorf("error = %v, want nil", err)
				}
				return
			}

			var verr *validation.Error
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T, want *validation.Error", err)
			}
			if verr.Key != tt.wantKey {
				t.Errorf("key = %s, want %s", verr.Key, tt.wantKey)
			}
		})
	}
}

func TestErrorDetails(t *testing.T) {
	err := validation.New("regulation", validation.KeyIDNull, "invalid id")
	d := err.Details()

	if d["entityName"] != "regulation" {
		t.Errorf("entityName = %v, want regulation", d["entityName"])
	}
	if d["errorKey"] != validation.KeyIDNull {
		t.Errorf("errorKey = %v, want %s", d["errorKey"], validation.KeyIDNull)
	}
	if _, ok := d["fields"]; ok {
		t.Error("fields should be omitted when empty")
	}
}

func TestCreateAndUpdate(t *testing.T) {
	id := uuid.New()
	other := uuid.New()
	valid := partnerCommand{Name: "acme", ClientID: "web"}

	tests := []struct {
		name    string
		err     error
		wantKey string
	}{
		{"create valid", validation.Create("partner", nil, valid), ""},
		{"create with id", validation.Create("partner", &id, valid), validation.KeyIDExists},
		{"create invalid fields", validation.Create("partner", nil, partnerCommand{}), validation.KeyInvalid},
		{"update valid", validation.Update("partner", id, &id, valid), ""},
		{"update missing id", validation.Update("partner", id, nil, valid), validation.KeyIDNull},
		{"update other id", validation.Update("partner", id, &other, valid), validation.KeyIDInvalid},
		{"update invalid fields", validation.Update("partner", id, &id, partnerCommand{}), validation.KeyInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantKey == "" {
				if tt.err != nil {
					t.Errorf("got %v, want nil", tt.err)
				}
				return
			}
			var verr *validation.Error
			if !errors.As(tt.err, &verr) {
				t.Fatalf("got %T, want *validation.Error", tt.err)
			}
			if verr.Key != tt.wantKey {
				t.Errorf("key: got %s, want %s", verr.Key, tt.wantKey)
			}
		})
	}
}
