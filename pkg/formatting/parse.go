package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrParseFailed is returned when process output holds no decodable JSON document.
var ErrParseFailed = errors.New("failed to parse output")

// ParseOutput decodes the JSON document written by an external process into T.
//
// Tools such as ML-backed analyzers often print warnings or progress lines
// to stdout before their result. When the whole output is not valid JSON,
// lines are tried from last to first and the first one that decodes wins.
func ParseOutput[T any](output []byte) (T, error) {
	var result T
	content := strings.TrimSpace(string(output))

	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	lines := strings.Split(content, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") && !strings.HasPrefix(line, "[") {
			continue
		}

		var candidate T
		if err := json.Unmarshal([]byte(line), &candidate); err == nil {
			return candidate, nil
		}
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, truncate(content, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
