package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var innerWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	out := strings.Builder{}
	for _, c := range s {
		// zero width non-joiner is significant in persian words
		if unicode.IsPrint(c) || c == '\u200c' {
			out.WriteRune(c)
			continue
		}
		if unicode.IsSpace(c) {
			out.WriteRune(' ')
		}
	}
	return out.String()
}

// CleanText strips non-printable characters and collapses whitespace
// runs into a single space, this is how names scraped out of html are
// stored.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = innerWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// SearchKey produces a case and whitespace insensitive form of a name
// for comparisons.
func SearchKey(name string) string {
	name = strings.ToLower(CleanText(name))
	name = strings.ReplaceAll(name, "\u200c", "")
	return innerWhitespace.ReplaceAllString(name, "")
}

// MatchName reports if the search key of `name` contains any of the
// given search keys.
func MatchName(name string, matchers []string) bool {
	key := SearchKey(name)
	for _, m := range matchers {
		if strings.Contains(key, m) {
			return true
		}
	}
	return false
}
