package view

import "strings"

// LanguageAll is the sentinel language tag that disables language filtering.
const LanguageAll = "all"

// MatchSnippet reports whether one snippet passes the language/search filter:
// the language must be the "all" sentinel or equal the snippet's tag, AND the
// case-folded search term must be a substring of the title or the author.
// An empty term matches everything.
func matchSnippet(title, author, language, wantLanguage, term string) bool {
	if wantLanguage != LanguageAll && wantLanguage != language {
		return false
	}
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(title), term) ||
		strings.Contains(strings.ToLower(author), term)
}
