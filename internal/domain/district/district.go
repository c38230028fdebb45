// Package district implements the text heuristics that map free text to a
// canonical district key. All matching happens on normalized text so the
// functions stay pure and independent of any table state.
package district

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiFold decomposes accented characters and drops their combining marks,
// leaving the closest unaccented equivalent.
var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

var titleCaser = cases.Title(language.Und)

// Normalize lowercases, strips accents, maps a fixed punctuation set to
// spaces, drops any remaining non-ASCII-alphanumerics and collapses
// whitespace.
func Normalize(s string) string {
	folded, _, err := transform.String(asciiFold, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case strings.ContainsRune(`-_\/.,`, r):
			b.WriteByte(' ')
		case r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' '):
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Title renders a canonical district key in its human-presentable form.
func Title(key string) string {
	return titleCaser.String(key)
}

// Index matches normalized text against a fixed set of canonical district
// names, longest name first so a multi-word district is not shadowed by a
// shorter substring.
type Index struct {
	byNormalized map[string]string
	ordered      []string // normalized names, longest first
	cityKey      string
	cityNorm     string
}

// NewIndex builds a detection index from canonical district names. cityKey
// is the generic fallback returned when only the city name itself matches.
func NewIndex(names []string, cityKey string) *Index {
	idx := &Index{
		byNormalized: make(map[string]string, len(names)),
		cityKey:      cityKey,
		cityNorm:     Normalize(cityKey),
	}
	for _, name := range names {
		n := Normalize(name)
		if n == "" {
			continue
		}
		idx.byNormalized[n] = name
		idx.ordered = append(idx.ordered, n)
	}
	sort.Slice(idx.ordered, func(i, j int) bool {
		if len(idx.ordered[i]) != len(idx.ordered[j]) {
			return len(idx.ordered[i]) > len(idx.ordered[j])
		}
		return idx.ordered[i] < idx.ordered[j]
	})
	return idx
}

// Detect returns the canonical key of the first (longest) district whose
// normalized name appears as a substring of the normalized input. When no
// district matches but the city name does, the city fallback key is
// returned. Substring matching over-matches by design; longest-first keeps
// short names from firing inside longer ones.
func (idx *Index) Detect(text string) (string, bool) {
	n := Normalize(text)
	if n == "" {
		return "", false
	}
	for _, cand := range idx.ordered {
		if strings.Contains(n, cand) {
			return idx.byNormalized[cand], true
		}
	}
	if idx.cityNorm != "" && strings.Contains(n, idx.cityNorm) {
		return idx.cityKey, true
	}
	return "", false
}
