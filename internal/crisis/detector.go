// Package crisis flags messages that contain crisis language and carries
// the resources and alerts sent when that happens.
package crisis

import (
	"fmt"
	"sort"
	"strings"

	goahocorasick "github.com/anknown/ahocorasick"
)

// DefaultKeywords are matched case-insensitively anywhere in a message.
var DefaultKeywords = []string{
	"suicide",
	"kill myself",
	"end it all",
	"want to die",
	"hurt myself",
	"self harm",
	"cutting",
	"overdose",
	"jump",
	"hanging",
}

// Detector matches text against a fixed keyword list. The automaton is
// built once and only read afterwards, so Scan is safe for concurrent use.
type Detector struct {
	matcher  *goahocorasick.Machine
	keywords []string
}

// NewDetector builds a detector for DefaultKeywords plus any extra phrases.
func NewDetector(extra ...string) (*Detector, error) {
	seen := make(map[string]struct{})
	var keywords []string
	for _, k := range append(append([]string{}, DefaultKeywords...), extra...) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)

	patterns := make([][]rune, len(keywords))
	for i, k := range keywords {
		patterns[i] = []rune(k)
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("build crisis matcher: %w", err)
	}
	return &Detector{matcher: m, keywords: keywords}, nil
}

// Scan reports whether text contains any keyword.
func (d *Detector) Scan(text string) bool {
	if text == "" {
		return false
	}
	hits := d.matcher.MultiPatternSearch([]rune(strings.ToLower(text)), true)
	return len(hits) > 0
}

// Keywords returns the normalised keyword list.
func (d *Detector) Keywords() []string {
	out := make([]string, len(d.keywords))
	copy(out, d.keywords)
	return out
}
