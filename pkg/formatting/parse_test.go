package formatting_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/reactit/kycdesk/pkg/formatting"
)

type report struct {
	Blur  float64 `json:"blur"`
	Valid bool    `json:"valid"`
}

func TestParseOutput(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		got, err := formatting.ParseOutput[report]([]byte(`{"blur":12.5,"valid":true}`))
		if err != nil {
			t.Fatalf("ParseOutput error: %v", err)
		}
		if got.Blur != 12.5 || !got.Valid {
			t.Errorf("ParseOutput = %+v, want {Blur:12.5 Valid:true}", got)
		}
	})

	t.Run("surrounding whitespace", func(t *testing.T) {
		got, err := formatting.ParseOutput[report]([]byte("\n  {\"blur\":1}  \n"))
		if err != nil {
			t.Fatalf("ParseOutput error: %v", err)
		}
		if got.Blur != 1 {
			t.Errorf("Blur = %v, want 1", got.Blur)
		}
	})

	t.Run("warnings before result", func(t *testing.T) {
		out := "W0000 cpu_feature_guard.cc: AVX2 not used\nloading model...\n{\"blur\":80,\"valid\":true}\n"
		got, err := formatting.ParseOutput[report]([]byte(out))
		if err != nil {
			t.Fatalf("ParseOutput error: %v", err)
		}
		if got.Blur != 80 || !got.Valid {
			t.Errorf("ParseOutput = %+v, want {Blur:80 Valid:true}", got)
		}
	})

	t.Run("last JSON line wins", func(t *testing.T) {
		out := "{\"blur\":1}\n{\"blur\":2}"
		got, err := formatting.ParseOutput[report]([]byte(out))
		if err != nil {
			t.Fatalf("ParseOutput error: %v", err)
		}
		if got.Blur != 2 {
			t.Errorf("Blur = %v, want 2", got.Blur)
		}
	})

	t.Run("no JSON returns ErrParseFailed", func(t *testing.T) {
		_, err := formatting.ParseOutput[report]([]byte("Traceback (most recent call last):"))
		if !errors.Is(err, formatting.ErrParseFailed) {
			t.Errorf("error = %v, want ErrParseFailed", err)
		}
	})

	t.Run("empty output returns ErrParseFailed", func(t *testing.T) {
		_, err := formatting.ParseOutput[report](nil)
		if !errors.Is(err, formatting.ErrParseFailed) {
			t.Errorf("error = %v, want ErrParseFailed", err)
		}
	})

	t.Run("broken JSON line returns ErrParseFailed", func(t *testing.T) {
		_, err := formatting.ParseOutput[report]([]byte("{\"blur\":"))
		if !errors.Is(err, formatting.ErrParseFailed) {
			t.Errorf("error = %v, want ErrParseFailed", err)
		}
	})

	t.Run("long output is truncated in error", func(t *testing.T) {
		_, err := formatting.ParseOutput[report]([]byte(strings.Repeat("x", 500)))
		if err == nil {
			t.Fatal("expected error")
		}
		if len(err.Error()) > 260 {
			t.Errorf("error length = %d, want truncated", len(err.Error()))
		}
	})

	t.Run("decodes into map", func(t *testing.T) {
		got, err := formatting.ParseOutput[map[string]any]([]byte(`{"error":"cannot open image"}`))
		if err != nil {
			t.Fatalf("ParseOutput error: %v", err)
		}
		if got["error"] != "cannot open image" {
			t.Errorf("got[error] = %v, want cannot open image", got["error"])
		}
	})
}
