package verification

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/reactit/kycdesk/internal/kyc"
)

// FieldMatch reports how one declared field compared against the document text.
type FieldMatch struct {
	Field      string `json:"field"`
	Normalized string `json:"normalized"`
	Matched    bool   `json:"matched"`
	// Distance is the edit distance to the closest window of the text with the
	// same length as Normalized. It is informational and never affects Status.
	Distance int `json:"distance"`
}

// Decision is the outcome of comparing a claim against extracted text.
type Decision struct {
	Status kyc.Status   `json:"status"`
	Fields []FieldMatch `json:"fields"`
}

// Decide returns VERIFIED when every normalized claim field occurs as a
// contiguous substring of the normalized text, and REJECTED otherwise.
// An empty field is contained in any text.
func Decide(text string, claim kyc.Claim) kyc.Status {
	normalized := Normalize(text)
	for _, f := range claim.Fields() {
		if !strings.Contains(normalized, Normalize(f.Value)) {
			return kyc.StatusRejected
		}
	}
	return kyc.StatusVerified
}

// Evaluate makes the same decision as Decide and reports each field.
func Evaluate(text string, claim kyc.Claim) Decision {
	normalized := Normalize(text)

	d := Decision{Status: kyc.StatusVerified}
	for _, f := range claim.Fields() {
		value := Normalize(f.Value)
		m := FieldMatch{
			Field:      f.Name,
			Normalized: value,
			Matched:    strings.Contains(normalized, value),
		}
		if !m.Matched {
			d.Status = kyc.StatusRejected
			m.Distance = closestDistance(normalized, value)
		}
		d.Fields = append(d.Fields, m)
	}
	return d
}

func closestDistance(text, field string) int {
	if len(text) <= len(field) {
		return levenshtein.ComputeDistance(text, field)
	}

	best := len(field)
	for i := 0; i+len(field) <= len(text); i++ {
		d := levenshtein.ComputeDistance(text[i:i+len(field)], field)
		if d < best {
			best = d
			if best == 0 {
				break
			}
		}
	}
	return best
}
