package answer

import (
	"fmt"
	"strings"

	"policypilot/backend/internal/corpus"
)

// BuildPrompt renders the query and retrieved clauses into the fixed
// instruction template. The wording is a contract with the language
// model: it restricts the model to the supplied clauses, pins the output
// shape, and demands JSON only. Do not vary it casually.
func BuildPrompt(query string, chunks []corpus.Chunk) string {
	rendered := make([]string, len(chunks))
	for i, c := range chunks {
		rendered[i] = fmt.Sprintf("ClauseID: %s\nText: %s", c.ID, c.Text)
	}
	context := strings.Join(rendered, "\n\n")

	return "You are an insurance claim assistant. " +
		"Answer only using the provided clauses. " +
		"Return a JSON object with keys: Decision, Amount, Justification. " +
		"Justification must be a list of {ClauseID, Text}. " +
		"Return only JSON, no extra text.\n\n" +
		fmt.Sprintf("Query: %s\n\nRelevant Clauses:\n%s\n", query, context)
}
