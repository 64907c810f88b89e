// Package parser turns untrusted free-text model output into one well-formed
// translation result per requested row.
//
// Reconciliation iterates the original request items, not the parsed array:
// whatever the model returned — extra entries, missing entries, ids as
// numbers — the output always has the input's exact cardinality and id set,
// so downstream row updates never special-case a missing result.
package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valpere/transflow/internal"
	"github.com/valpere/transflow/internal/postprocess"
)

// ParseError is the hard failure for a whole batch: the payload could not be
// decoded as the required JSON array. No partial salvage is attempted — the
// scheduler marks every row in the batch as errored instead of guessing.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model response: %v; content: %s", e.Err, abbreviate(e.Raw, 500))
}

func (e *ParseError) Unwrap() error { return e.Err }

// wireEntry is one element of the model's response array. ID is kept raw so
// a model that answers {"id": 7} instead of {"id": "7"} still reconciles.
type wireEntry struct {
	ID           json.RawMessage            `json:"id"`
	Translations map[string]json.RawMessage `json:"translations"`
}

// Parse validates raw model output against the original batch items and
// returns exactly one BatchResult per item, in item order.
//
// Found entries yield status review for every requested language (empty text
// when the language is absent). Items the model skipped entirely yield empty
// text with status partial, so reviewers can tell a dropped row apart from a
// deliberately empty translation.
func Parse(raw string, items []internal.BatchItem, targetLangs []string) ([]internal.BatchResult, error) {
	cleaned := stripFences(postprocess.Clean(raw))

	var entries []wireEntry
	if err := json.Unmarshal([]byte(cleaned), &entries); err != nil {
		// The array may be buried in surrounding prose; try the outermost
		// bracket pair before giving up.
		start := strings.Index(cleaned, "[")
		end := strings.LastIndex(cleaned, "]")
		if start < 0 || end <= start {
			return nil, &ParseError{Raw: raw, Err: err}
		}
		if err2 := json.Unmarshal([]byte(cleaned[start:end+1]), &entries); err2 != nil {
			return nil, &ParseError{Raw: raw, Err: err}
		}
	}

	byID := make(map[string]wireEntry, len(entries))
	for _, e := range entries {
		byID[wireID(e.ID)] = e
	}

	results := make([]internal.BatchResult, 0, len(items))
	for _, item := range items {
		entry, found := byID[item.ID]

		translations := make(map[string]internal.TranslationEntry, len(targetLangs))
		for _, lang := range targetLangs {
			if !found {
				translations[lang] = internal.TranslationEntry{Status: internal.RowPartial}
				continue
			}
			translations[lang] = internal.TranslationEntry{
				Text:   entryText(entry.Translations[lang]),
				Status: internal.RowReview,
			}
		}
		results = append(results, internal.BatchResult{ID: item.ID, Translations: translations})
	}
	return results, nil
}

// stripFences removes a markdown code-fence wrapper (with optional language
// token) around the payload.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	idx := strings.Index(s, "```")
	if idx < 0 {
		return s
	}
	rest := s[idx+3:]
	rest = strings.TrimPrefix(rest, "json")
	if j := strings.Index(rest, "```"); j >= 0 {
		return strings.TrimSpace(rest[:j])
	}
	return strings.TrimSpace(rest)
}

// wireID normalizes a raw JSON id value to a comparable string.
func wireID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// entryText accepts either a {"text": "..."} object or a bare string for a
// language slot, defaulting to empty when the slot is absent or malformed.
func entryText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Text != "" {
		return obj.Text
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
