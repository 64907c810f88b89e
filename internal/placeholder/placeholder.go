// Package placeholder shields structured markup inside row text (HTML tags,
// fenced code blocks, inline code spans) from the translation backend. Before
// a batch goes out each row's markup is swapped for numbered [PHn] markers;
// after results come back the markers are substituted with the originals per
// target language.
package placeholder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/valpere/transflow/internal"
)

var (
	reFencedCode  = regexp.MustCompile("(?s)```.*?```")
	reInlineCode  = regexp.MustCompile("`[^`]+`")
	reHTMLTag     = regexp.MustCompile(`<[^>]+>`)
	rePlaceholder = regexp.MustCompile(`\[PH(\d+)\]`)
)

// Protect replaces markup in text with [PH0], [PH1], ... markers, numbered in
// order of appearance. The returned slice holds the captured originals.
func Protect(text string) (string, []string) {
	var markers []string

	replace := func(match string) string {
		id := fmt.Sprintf("[PH%d]", len(markers))
		markers = append(markers, match)
		return id
	}

	// Fenced blocks first so inline-code and tag patterns never bite into
	// an already-captured region.
	text = reFencedCode.ReplaceAllStringFunc(text, replace)
	text = reInlineCode.ReplaceAllStringFunc(text, replace)
	text = reHTMLTag.ReplaceAllStringFunc(text, replace)

	return text, markers
}

// ProtectItems applies Protect to every batch item and returns the shielded
// items plus the per-row markers, keyed by item id. Rows without markup get
// no map entry.
func ProtectItems(items []internal.BatchItem) ([]internal.BatchItem, map[string][]string) {
	protected := make([]internal.BatchItem, len(items))
	markers := make(map[string][]string)
	for i, item := range items {
		text, captured := Protect(item.Text)
		item.Text = text
		protected[i] = item
		if len(captured) > 0 {
			markers[item.ID] = captured
		}
	}
	return protected, markers
}

// Restore substitutes [PHn] markers back with the originals captured by
// Protect. Unknown indices are left as-is.
func Restore(text string, markers []string) string {
	return rePlaceholder.ReplaceAllStringFunc(text, func(match string) string {
		sub := rePlaceholder.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		idx := 0
		fmt.Sscanf(sub[1], "%d", &idx)
		if idx < 0 || idx >= len(markers) {
			return match
		}
		return markers[idx]
	})
}

// RestoreResults walks a batch's results and restores each translation from
// the per-row markers produced by ProtectItems. Results without markers pass
// through untouched.
func RestoreResults(results []internal.BatchResult, markers map[string][]string) {
	for _, r := range results {
		captured, ok := markers[r.ID]
		if !ok {
			continue
		}
		for lang, entry := range r.Translations {
			entry.Text = Restore(entry.Text, captured)
			r.Translations[lang] = entry
		}
	}
}

// InstructionHint is appended to prompts so the model leaves markers intact.
func InstructionHint() string {
	return "Preserve all [PHn] markers exactly as they appear; do not translate, move, or remove them."
}

// Missing returns the indices of markers a translated text no longer
// contains. A non-empty result means the model dropped markup.
func Missing(text string, markers []string) []int {
	var missing []int
	for i := range markers {
		if !strings.Contains(text, fmt.Sprintf("[PH%d]", i)) {
			missing = append(missing, i)
		}
	}
	return missing
}
