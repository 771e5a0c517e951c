package trend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when a model answer carries no bracketed JSON array.
// Stages treat it exactly like a failed call.
var ErrNoJSON = errors.New("model response missing json array")

// extractArray returns the span between the first '[' and the last ']'.
func extractArray(content string) string {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return content[start : end+1]
}

// decodeArray best-effort decodes a JSON array embedded in free text.
func decodeArray(content string, v any) error {
	payload := extractArray(content)
	if payload == "" {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("decode model json: %w", err)
	}
	return nil
}
