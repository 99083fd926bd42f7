package answer

import (
	"strconv"
)

// coerceString brings a decoded JSON value to its string form. Numbers
// and booleans are stringified the way a human would write them; nil and
// structured values are reported as absent.
func coerceString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(s), true
	default:
		return "", false
	}
}

// Normalize coerces a loosely-shaped decoded object into the Answer
// contract. Missing or uncoercible Decision and Amount fall back to
// "Unknown" and "N/A"; justification entries that are not objects, or
// that lack either ClauseID or Text, are dropped. The result always
// satisfies the output schema.
func Normalize(data map[string]any) *Answer {
	out := Fallback()
	if data == nil {
		return out
	}

	if s, ok := coerceString(data["Decision"]); ok {
		out.Decision = s
	}
	if s, ok := coerceString(data["Amount"]); ok {
		out.Amount = s
	}

	items, ok := data["Justification"].([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		clauseID, okID := coerceString(obj["ClauseID"])
		text, okText := coerceString(obj["Text"])
		if !okID || !okText {
			continue
		}
		out.Justification = append(out.Justification, Justification{ClauseID: clauseID, Text: text})
	}
	return out
}
