package parser_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/valpere/transflow/internal"
	"github.com/valpere/transflow/internal/parser"
)

func batchItems(n int) []internal.BatchItem {
	items := make([]internal.BatchItem, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, internal.BatchItem{ID: fmt.Sprintf("%d", i), Text: fmt.Sprintf("text %d", i)})
	}
	return items
}

func TestParse_WellFormed(t *testing.T) {
	raw := `[
		{"id": "1", "translations": {"ms": {"text": "Dapatkan 5G"}}},
		{"id": "2", "translations": {"ms": {"text": "Selamat kembali"}}}
	]`

	results, err := parser.Parse(raw, batchItems(2), []string{"ms"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Translations["ms"].Text != "Dapatkan 5G" {
		t.Errorf("unexpected text: %q", results[0].Translations["ms"].Text)
	}
	if results[0].Translations["ms"].Status != internal.RowReview {
		t.Errorf("expected review status, got %s", results[0].Translations["ms"].Status)
	}
}

func TestParse_StripsCodeFences(t *testing.T) {
	raw := "```json\n[{\"id\": \"1\", \"translations\": {\"ms\": {\"text\": \"ok\"}}}]\n```"

	results, err := parser.Parse(raw, batchItems(1), []string{"ms"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Translations["ms"].Text != "ok" {
		t.Errorf("expected fenced payload parsed, got %q", results[0].Translations["ms"].Text)
	}
}

func TestParse_MalformedIsHardError(t *testing.T) {
	_, err := parser.Parse("not json at all", batchItems(3), []string{"ms"})
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
	var pe *parser.ParseError
	if !errors.As(err, &pe) {
		t.Errorf("expected *ParseError, got %T", err)
	}
}

// Scenario B: a response missing the entry for id "7" among 10 requested ids
// still yields 10 results; the one for "7" has empty text per language.
func TestParse_MissingEntryYieldsPartial(t *testing.T) {
	items := batchItems(10)
	raw := "["
	for i := 1; i <= 10; i++ {
		if i == 7 {
			continue
		}
		if i > 1 && raw != "[" {
			raw += ","
		}
		raw += fmt.Sprintf(`{"id": "%d", "translations": {"ms": {"text": "t%d"}, "th": {"text": "s%d"}}}`, i, i, i)
	}
	raw += "]"

	results, err := parser.Parse(raw, items, []string{"ms", "th"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	for i, r := range results {
		if r.ID != items[i].ID {
			t.Errorf("result %d: expected id %s, got %s", i, items[i].ID, r.ID)
		}
	}
	seven := results[6]
	for _, lang := range []string{"ms", "th"} {
		entry := seven.Translations[lang]
		if entry.Text != "" {
			t.Errorf("expected empty text for missing id, got %q", entry.Text)
		}
		if entry.Status != internal.RowPartial {
			t.Errorf("expected partial status for missing id, got %s", entry.Status)
		}
	}
}

// Cardinality invariant: the output id set always equals the input id set,
// whatever the model returned.
func TestParse_CardinalityInvariant(t *testing.T) {
	items := batchItems(4)
	cases := map[string]string{
		"empty array":    `[]`,
		"extra entries":  `[{"id":"1","translations":{}},{"id":"99","translations":{}},{"id":"2","translations":{}}]`,
		"all present":    `[{"id":"1","translations":{}},{"id":"2","translations":{}},{"id":"3","translations":{}},{"id":"4","translations":{}}]`,
		"reversed order": `[{"id":"4","translations":{}},{"id":"3","translations":{}},{"id":"2","translations":{}},{"id":"1","translations":{}}]`,
	}

	for name, raw := range cases {
		results, err := parser.Parse(raw, items, []string{"ms"})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if len(results) != len(items) {
			t.Errorf("%s: expected %d results, got %d", name, len(items), len(results))
			continue
		}
		for i := range items {
			if results[i].ID != items[i].ID {
				t.Errorf("%s: result %d has id %s, want %s", name, i, results[i].ID, items[i].ID)
			}
		}
	}
}

func TestParse_NumericIDsReconcile(t *testing.T) {
	raw := `[{"id": 1, "translations": {"ms": {"text": "ok"}}}]`

	results, err := parser.Parse(raw, batchItems(1), []string{"ms"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Translations["ms"].Text != "ok" {
		t.Error("expected numeric id to match string id")
	}
}

func TestParse_BareStringTranslation(t *testing.T) {
	raw := `[{"id": "1", "translations": {"ms": "Dapatkan"}}]`

	results, err := parser.Parse(raw, batchItems(1), []string{"ms"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Translations["ms"].Text != "Dapatkan" {
		t.Errorf("expected bare string accepted, got %q", results[0].Translations["ms"].Text)
	}
}

func TestParse_MissingLanguageDefaultsEmpty(t *testing.T) {
	raw := `[{"id": "1", "translations": {"ms": {"text": "ok"}}}]`

	results, err := parser.Parse(raw, batchItems(1), []string{"ms", "th"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	th := results[0].Translations["th"]
	if th.Text != "" {
		t.Errorf("expected empty text for absent language, got %q", th.Text)
	}
	if th.Status != internal.RowReview {
		t.Errorf("found entries keep review status even for blank slots, got %s", th.Status)
	}
}

func TestParse_ArrayBuriedInProse(t *testing.T) {
	raw := `I translated everything as requested. [{"id": "1", "translations": {"ms": {"text": "ok"}}}] Let me know!`

	results, err := parser.Parse(raw, batchItems(1), []string{"ms"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Translations["ms"].Text != "ok" {
		t.Error("expected array extracted from surrounding prose")
	}
}
