package vector

import "strings"

var luceneReplacer = strings.NewReplacer(
	"&", " ", "|", " ",
	"+", " ", "-", " ", "!", " ", "(", " ", ")", " ", "{", " ", "}", " ",
	"[", " ", "]", " ", "^", " ", "\"", " ", "~", " ", "*", " ", "?", " ",
	":", " ", "\\", " ", "/", " ",
)

// luceneOperators are only operators in upper case; entity names like
// "Command and Control" keep their lower-case words.
var luceneOperators = map[string]bool{"AND": true, "OR": true, "NOT": true}

// FullTextQuery builds a fuzzy lucene query that tolerates two edits per
// word and requires every word: "brute~2 AND force~2".
func FullTextQuery(input string) string {
	var terms []string
	for _, w := range strings.Fields(luceneReplacer.Replace(input)) {
		if luceneOperators[w] {
			continue
		}
		terms = append(terms, w+"~2")
	}
	return strings.Join(terms, " AND ")
}
