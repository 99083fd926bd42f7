// Package text implements the cleaning and chunking steps that turn raw
// policy document text into retrievable fragments.
package text

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	boilerplateRe = regexp.MustCompile(`(?i)(Reg\. No\.|Page \d+|www\.|E-mail:)`)
)

// Clean strips per-line boilerplate (registration numbers, page footers,
// URLs, e-mail lines) from raw extracted text. Empty lines are dropped.
func Clean(raw string) string {
	var cleaned []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if boilerplateRe.MatchString(line) {
			continue
		}
		cleaned = append(cleaned, line)
	}
	return strings.Join(cleaned, "\n")
}

// Chunk splits text into overlapping windows of chunkSize characters.
// Whitespace runs are collapsed to single spaces before splitting, so
// consecutive chunks share exactly overlap characters wherever the
// remaining tail is long enough. The final window always ends exactly at
// the end of the text. The window advance is clamped to at least one
// character so a non-positive chunkSize-overlap difference cannot loop
// forever. Windows are measured in runes, never bytes, so multibyte
// text is never split mid-character.
func Chunk(text string, chunkSize, overlap int) []string {
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	if text == "" || chunkSize <= 0 {
		return nil
	}

	runes := []rune(text)
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}
