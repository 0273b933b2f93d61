package utils

import (
	"strings"
	"unicode"
)

// SplitText splits text into chunks of at most chunkSize runes, with about
// overlap runes repeated at each boundary. A chunk ends at the last
// whitespace inside the window when there is one, so words stay whole.
func SplitText(text string, chunkSize int, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if chunkSize <= 0 || len(runes) <= chunkSize {
		return []string{text}
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}

		cut := end
		for i := end; i > start+chunkSize/2; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		chunks = append(chunks, strings.TrimSpace(string(runes[start:cut])))

		next := cut - overlap
		if next <= start {
			next = cut
		}
		// skip leading whitespace of the next chunk
		for next < len(runes) && unicode.IsSpace(runes[next]) {
			next++
		}
		start = next
	}
	return chunks
}
