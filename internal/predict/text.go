// Package predict fills empty keyword and category fields by learning from
// the records that already have them, using TF-IDF text features over title,
// abstract and existing keywords.
package predict

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopwords are dropped from the feature text. The list is intentionally
// small; TF-IDF downweights common words anyway.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "in": true,
	"is": true, "it": true, "its": true, "of": true, "on": true, "or": true,
	"that": true, "the": true, "this": true, "to": true, "was": true,
	"we": true, "were": true, "which": true, "with": true,
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// tokenize turns free text into lowercase feature tokens: diacritics folded,
// punctuation dropped, stopwords and single characters removed.
func tokenize(text string) []string {
	if text == "" {
		return nil
	}
	folded, _, err := transform.String(stripMarks, strings.ToLower(text))
	if err != nil {
		folded = strings.ToLower(text)
	}

	var builder strings.Builder
	builder.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteByte(' ')
		}
	}

	fields := strings.Fields(builder.String())
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if len(tok) < 2 || stopwords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
