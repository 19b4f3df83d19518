// Package formatting converts sizes and process output between their
// human-readable and machine forms.
package formatting

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

var sizePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([KMGT]?)(I?B)?$`)

// FormatBytes renders n with a base-1024 unit, e.g. "1.5 MB".
func FormatBytes(n int64, precision int) string {
	if n <= 0 {
		return "0 B"
	}
	precision = max(precision, 0)

	exp := int(math.Log(float64(n)) / math.Log(1024))
	exp = min(exp, len(sizeUnits)-1)

	value := float64(n) / math.Pow(1024, float64(exp))
	return strconv.FormatFloat(value, 'f', precision, 64) + " " + sizeUnits[exp]
}

// ParseBytes reads sizes such as "10MB", "10 mb", "10MiB" or "10M".
// A bare number is a byte count.
func ParseBytes(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number: %w", err)
	}

	exp := strings.Index("KMGT", m[2]) + 1
	if m[2] == "" {
		exp = 0
	}

	return int64(value * math.Pow(1024, float64(exp))), nil
}
