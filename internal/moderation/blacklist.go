package moderation

import (
	"regexp"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// A word is bounded by the text edges or by any rune that is not a letter,
// digit or underscore in any script. regexp's \b only knows ASCII.
const (
	wordStart = `(?:^|[^\p{L}\p{N}_])`
	wordEnd   = `(?:$|[^\p{L}\p{N}_])`
)

// Matcher performs whole-word blacklist matching. Both the message and the
// configured words are case-folded and stripped of combining marks first,
// so "Café" matches "cafe". Compiled patterns are cached per word.
type Matcher struct {
	mu    sync.Mutex
	cache map[string]*regexp.Regexp
}

func NewMatcher() *Matcher {
	return &Matcher{cache: make(map[string]*regexp.Regexp)}
}

// Fold lower-cases text with Unicode case folding and removes accents.
func Fold(text string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	folded, _, err := transform.String(chain, text)
	if err != nil {
		return text
	}
	return folded
}

// Match returns the first word of words found in content as a whole word.
func (m *Matcher) Match(content string, words []string) (string, bool) {
	if content == "" || len(words) == 0 {
		return "", false
	}
	folded := Fold(content)
	for _, word := range words {
		pattern := m.pattern(word)
		if pattern == nil {
			continue
		}
		if pattern.MatchString(folded) {
			return word, true
		}
	}
	return "", false
}

func (m *Matcher) pattern(word string) *regexp.Regexp {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pattern, ok := m.cache[word]; ok {
		return pattern
	}
	folded := Fold(word)
	if folded == "" {
		m.cache[word] = nil
		return nil
	}
	pattern, err := regexp.Compile(wordStart + regexp.QuoteMeta(folded) + wordEnd)
	if err != nil {
		pattern = nil
	}
	m.cache[word] = pattern
	return pattern
}
