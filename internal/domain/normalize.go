package domain

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes combining marks, folding accented characters to their
// base form ("é" -> "e").
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// doiPrefixes are URL and scheme prefixes stripped during DOI normalization.
var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// NormalizeDOI canonicalizes a DOI for identity comparison: trims whitespace,
// strips URL/scheme prefixes, lowercases, removes internal whitespace and
// trailing stray punctuation. Normalization is idempotent.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return ""
	}
	lowered := strings.ToLower(doi)
	for _, prefix := range doiPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			lowered = lowered[len(prefix):]
			break
		}
	}
	var sb strings.Builder
	sb.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsSpace(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return strings.TrimRight(sb.String(), ".,;:")
}

// NormalizeTitle canonicalizes a title for similarity comparison: casefolds,
// strips diacritics, drops non-alphanumeric characters and collapses
// whitespace. Normalization is idempotent.
func NormalizeTitle(title string) string {
	title = strings.ToLower(strings.TrimSpace(title))
	if title == "" {
		return ""
	}
	if folded, _, err := transform.String(stripMarks, title); err == nil {
		title = folded
	}
	var sb strings.Builder
	sb.Grow(len(title))
	prevSpace := false
	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			prevSpace = false
		case !prevSpace && sb.Len() > 0:
			sb.WriteRune(' ')
			prevSpace = true
		}
	}
	return strings.TrimRight(sb.String(), " ")
}

// NormalizeAuthor canonicalizes an author name for overlap comparison:
// lowercases, strips diacritics, reorders "Last, First" to "first last" and
// drops punctuation. Normalization is idempotent.
func NormalizeAuthor(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	if folded, _, err := transform.String(stripMarks, name); err == nil {
		name = folded
	}

	// "Last, First" export format: swap around the first comma.
	if idx := strings.Index(name, ","); idx >= 0 {
		last := strings.TrimSpace(name[:idx])
		first := strings.TrimSpace(name[idx+1:])
		if first != "" {
			name = first + " " + last
		} else {
			name = last
		}
	}

	var sb strings.Builder
	sb.Grow(len(name))
	prevSpace := false
	for _, r := range name {
		switch {
		case unicode.IsLetter(r):
			sb.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) && !prevSpace && sb.Len() > 0:
			sb.WriteRune(' ')
			prevSpace = true
		}
	}
	return strings.TrimRight(sb.String(), " ")
}

// Surname returns the surname token of a normalized author name. With the
// "first last" ordering produced by NormalizeAuthor this is the last token.
func Surname(normalizedName string) string {
	fields := strings.Fields(normalizedName)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// NormalizeKeyword canonicalizes a keyword or category value for set union:
// trims, collapses inner whitespace and lowercases.
func NormalizeKeyword(kw string) string {
	fields := strings.Fields(strings.ToLower(kw))
	return strings.Join(fields, " ")
}

// SplitList splits a semicolon-separated export value into trimmed parts,
// dropping empties and duplicates while preserving order.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}

// JoinList renders a value list in the semicolon-separated export convention.
func JoinList(values []string) string {
	return strings.Join(values, "; ")
}

// ParseYear parses a publication year, accepting date-prefixed export values
// such as "2019-03-01".
func ParseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) > 4 {
		s = s[:4]
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, &NormalizationError{Field: FieldYear, Value: s, Cause: err}
	}
	if year < 1000 || year > 3000 {
		return 0, &NormalizationError{Field: FieldYear, Value: s}
	}
	return year, nil
}

// ParseCount parses a non-negative integer count field.
func ParseCount(s string) (int, error) {
	count, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &NormalizationError{Field: FieldCitationCount, Value: s, Cause: err}
	}
	if count < 0 {
		return 0, &NormalizationError{Field: FieldCitationCount, Value: s}
	}
	return count, nil
}
