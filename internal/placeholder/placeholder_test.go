package placeholder

import (
	"reflect"
	"testing"

	"github.com/valpere/transflow/internal"
)

func TestProtect_HTMLTags(t *testing.T) {
	text, markers := Protect(`Click <b>here</b> to continue`)

	if text != "Click [PH0]here[PH1] to continue" {
		t.Errorf("unexpected protected text: %q", text)
	}
	if !reflect.DeepEqual(markers, []string{"<b>", "</b>"}) {
		t.Errorf("unexpected markers: %v", markers)
	}
}

func TestProtect_FencedCodeBeforeInline(t *testing.T) {
	text, markers := Protect("Run ```go run .``` or `make`")

	if text != "Run [PH0] or [PH1]" {
		t.Errorf("unexpected protected text: %q", text)
	}
	if markers[0] != "```go run .```" || markers[1] != "`make`" {
		t.Errorf("unexpected markers: %v", markers)
	}
}

func TestProtect_NoMarkup(t *testing.T) {
	text, markers := Protect("plain sentence")

	if text != "plain sentence" {
		t.Errorf("text should be untouched, got %q", text)
	}
	if len(markers) != 0 {
		t.Errorf("expected no markers, got %v", markers)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	original := `Get <a href="/offers">5G offers</a> today`
	protected, markers := Protect(original)

	translated := "Dapatkan [PH0]tawaran 5G[PH1] hari ini"
	restored := Restore(translated, markers)

	want := `Dapatkan <a href="/offers">tawaran 5G</a> hari ini`
	if restored != want {
		t.Errorf("Restore = %q, want %q", restored, want)
	}
	_ = protected
}

func TestRestore_UnknownIndexKept(t *testing.T) {
	got := Restore("text [PH9] end", []string{"<b>"})
	if got != "text [PH9] end" {
		t.Errorf("unknown marker should survive, got %q", got)
	}
}

func TestProtectItems_RestoreResults(t *testing.T) {
	items := []internal.BatchItem{
		{ID: "1", Text: "Tap <b>Subscribe</b>"},
		{ID: "2", Text: "No markup here"},
	}

	protected, markers := ProtectItems(items)

	if protected[0].Text != "Tap [PH0]Subscribe[PH1]" {
		t.Errorf("unexpected protected item: %q", protected[0].Text)
	}
	if protected[1].Text != "No markup here" {
		t.Errorf("plain item mutated: %q", protected[1].Text)
	}
	if _, ok := markers["2"]; ok {
		t.Error("plain item should have no marker entry")
	}
	// Original slice must stay untouched.
	if items[0].Text != "Tap <b>Subscribe</b>" {
		t.Errorf("input slice mutated: %q", items[0].Text)
	}

	results := []internal.BatchResult{
		{ID: "1", Translations: map[string]internal.TranslationEntry{
			"ms": {Text: "Tekan [PH0]Langgan[PH1]", Status: internal.RowReview},
		}},
		{ID: "2", Translations: map[string]internal.TranslationEntry{
			"ms": {Text: "Tiada markup di sini", Status: internal.RowReview},
		}},
	}
	RestoreResults(results, markers)

	if results[0].Translations["ms"].Text != "Tekan <b>Langgan</b>" {
		t.Errorf("unexpected restored text: %q", results[0].Translations["ms"].Text)
	}
	if results[1].Translations["ms"].Text != "Tiada markup di sini" {
		t.Errorf("plain result mutated: %q", results[1].Translations["ms"].Text)
	}
}

func TestMissing(t *testing.T) {
	markers := []string{"<b>", "</b>", "<i>"}

	missing := Missing("text [PH0] and [PH2]", markers)
	if !reflect.DeepEqual(missing, []int{1}) {
		t.Errorf("expected [1], got %v", missing)
	}
	if Missing("[PH0][PH1][PH2]", markers) != nil {
		t.Error("expected nil for complete text")
	}
}
