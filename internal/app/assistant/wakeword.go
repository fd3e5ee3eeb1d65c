package assistant

import (
	"strings"
	"unicode"
)

// DefaultWakePhrases are used when no phrases are configured.
var DefaultWakePhrases = []string{"hey connectify", "connectify"}

// Normalize lower-cases s, strips punctuation and symbols, and collapses runs
// of whitespace. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Detector matches normalized utterances against a set of wake phrases.
// Matching is substring containment, not word boundaries.
type Detector struct {
	phrases []string
}

func NewDetector(phrases []string) *Detector {
	if len(phrases) == 0 {
		phrases = DefaultWakePhrases
	}
	d := &Detector{}
	for _, p := range phrases {
		if n := Normalize(p); n != "" {
			d.phrases = append(d.phrases, n)
		}
	}
	return d
}

func (d *Detector) Detect(text string) bool {
	n := Normalize(text)
	if n == "" {
		return false
	}
	for _, p := range d.phrases {
		if strings.Contains(n, p) {
			return true
		}
	}
	return false
}
