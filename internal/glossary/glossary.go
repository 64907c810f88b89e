// Package glossary filters a terminology glossary down to the entries that
// are textually relevant to a batch of source texts, so prompts stay small
// without dropping a term the model actually needs.
package glossary

import (
	"strings"

	"github.com/valpere/transflow/internal"
)

// FilterRelevant returns the terms whose source-language form occurs,
// case-insensitively, as a substring of any of the given texts.
//
// Matching is pure substring containment over one lowercased concatenation of
// the texts — no stemming, no tokenization. A term that overlaps the text
// without being a real word match still gets included; that false positive
// only costs prompt space, while a false negative would silently drop a
// mandated translation.
//
// Input order is preserved, so repeated calls on the same inputs return the
// same slice in the same order. Returns nil when nothing matches.
func FilterRelevant(terms []internal.GlossaryTerm, texts []string) []internal.GlossaryTerm {
	if len(terms) == 0 || len(texts) == 0 {
		return nil
	}

	var b strings.Builder
	for _, t := range texts {
		b.WriteString(strings.ToLower(t))
		b.WriteByte('\n')
	}
	haystack := b.String()

	var relevant []internal.GlossaryTerm
	for _, term := range terms {
		needle := strings.ToLower(strings.TrimSpace(term.SourceTerm))
		if needle == "" {
			continue
		}
		if strings.Contains(haystack, needle) {
			relevant = append(relevant, term)
		}
	}
	return relevant
}
