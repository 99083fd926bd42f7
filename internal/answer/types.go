// Package answer turns a query plus retrieved policy clauses into the
// structured decision the service returns: prompt composition, free-text
// JSON extraction, normalization against the fixed schema, and the
// fallback that guarantees every query yields a well-formed Answer.
package answer

// Justification is one cited clause backing the decision.
type Justification struct {
	ClauseID string `json:"ClauseID"`
	Text     string `json:"Text"`
}

// Answer is the single normalized output contract. Every field is
// required; Justification may be empty.
type Answer struct {
	Decision      string          `json:"Decision"`
	Amount        string          `json:"Amount"`
	Justification []Justification `json:"Justification"`
}

// Fallback is the Answer substituted whenever the model's output cannot
// be normalized. Malformed model output is never surfaced to the caller.
func Fallback() *Answer {
	return &Answer{
		Decision:      "Unknown",
		Amount:        "N/A",
		Justification: []Justification{},
	}
}
