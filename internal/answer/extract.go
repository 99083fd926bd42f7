package answer

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls a JSON object out of free-form model output by
// taking the substring between the first '{' and the last '}'. This is
// deliberately a narrow heuristic for models that wrap JSON in prose; on
// any ambiguity (no braces, unbalanced order, invalid JSON, non-object
// value) it reports failure rather than guessing.
func ExtractJSON(raw string) (map[string]any, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, false
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &data); err != nil {
		return nil, false
	}
	return data, true
}
