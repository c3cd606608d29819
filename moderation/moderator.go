// Package moderation masks blocklisted words in user text before it reaches a chatroom.
package moderation

import (
	"log/slog"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator matches a blocklist against normalized text with an Aho-Corasick automaton.
// Matching ignores case, punctuation, spacing and common leet substitutions,
// while masking happens on the original characters.
type Moderator struct {
	matcher  *goahocorasick.Machine
	maskRune rune
	log      *slog.Logger
}

type textMapping struct {
	normalized []rune
	origIdx    []int
}

func NewModerator(blocklist []string, maskRune rune, log *slog.Logger) (*Moderator, error) {
	patterns := make([][]rune, 0, len(blocklist))
	for _, word := range blocklist {
		if pattern := normalizeRunes([]rune(strings.TrimSpace(word))); len(pattern) > 0 {
			patterns = append(patterns, pattern)
		}
	}

	m := &Moderator{maskRune: maskRune, log: log}
	if len(patterns) == 0 {
		return m, nil
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	m.matcher = machine
	log.Debug("Moderation blocklist loaded", "words", len(patterns))
	return m, nil
}

// Censor returns the masked text and the blocklisted words found, in order of appearance.
func (m *Moderator) Censor(original string) (string, []string) {
	if m.matcher == nil {
		return original, nil
	}
	mapping := normalize(original)
	if len(mapping.normalized) == 0 {
		return original, nil
	}
	spans := m.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return original, nil
	}

	runes := []rune(original)
	var found []string
	for _, span := range spans {
		start, end := span.Pos, span.Pos+len(span.Word)
		if start < 0 || end > len(mapping.origIdx) {
			continue
		}
		for i := mapping.origIdx[start]; i <= mapping.origIdx[end-1]; i++ {
			runes[i] = m.maskRune
		}
		found = append(found, string(span.Word))
	}
	return string(runes), found
}

func normalize(input string) textMapping {
	runes := []rune(input)
	mapping := textMapping{
		normalized: make([]rune, 0, len(runes)),
		origIdx:    make([]int, 0, len(runes)),
	}
	for i, r := range runes {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		mapping.normalized = append(mapping.normalized, unicode.ToLower(clean))
		mapping.origIdx = append(mapping.origIdx, i)
	}
	return mapping
}

func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune undoes the usual leet substitutions.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
