package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/valpere/transflow/internal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestProject(t *testing.T, s *Store) string {
	t.Helper()
	id, err := s.CreateProject(context.Background(), "campaign-q3", "en")
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return id
}

func TestEnsureProject_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.EnsureProject(ctx, "p", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id2, err := s.EnsureProject(ctx, "p", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected same project id, got %s and %s", id1, id2)
	}
}

func TestImportRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	projectID := newTestProject(t, s)

	imported, err := s.ImportRows(ctx, projectID, []internal.Row{
		{SourceText: "  Get 5G now  "},
		{ID: "custom-id", SourceText: "Welcome back"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if imported[0].ID == "" {
		t.Error("expected generated id for row without one")
	}
	if imported[1].ID != "custom-id" {
		t.Errorf("expected caller id preserved, got %s", imported[1].ID)
	}

	rows, err := s.ListRows(ctx, projectID, internal.RowPending)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 pending rows, got %d", len(rows))
	}
	var trimmed string
	for _, r := range rows {
		if r.ID == imported[0].ID {
			trimmed = r.SourceText
		}
	}
	if trimmed != "Get 5G now" {
		t.Errorf("expected trimmed source text, got %q", trimmed)
	}
}

func TestUpdateRows_WritesTranslations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	projectID := newTestProject(t, s)

	imported, err := s.ImportRows(ctx, projectID, []internal.Row{{SourceText: "Get 5G now"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rowID := imported[0].ID
	markTranslating(t, s, projectID, rowID)

	err = s.UpdateRows(ctx, projectID, []internal.RowUpdate{{
		ID:     rowID,
		Status: internal.RowReview,
		Translations: map[string]internal.TranslationEntry{
			"ms": {Text: "Dapatkan 5G sekarang", Status: internal.RowReview},
			"th": {Text: "", Status: internal.RowPartial},
		},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row, err := s.GetRow(ctx, rowID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.Status != internal.RowReview {
		t.Errorf("expected review, got %s", row.Status)
	}
	if row.Translations["ms"].Text != "Dapatkan 5G sekarang" {
		t.Errorf("unexpected translation: %q", row.Translations["ms"].Text)
	}
	if row.Translations["th"].Status != internal.RowPartial {
		t.Errorf("expected partial entry, got %s", row.Translations["th"].Status)
	}
}

// markTranslating walks a pending row through the queued and translating
// states, the way the scheduler does before it can deliver a result.
func markTranslating(t *testing.T, s *Store, projectID, rowID string) {
	t.Helper()
	for _, status := range []internal.RowStatus{internal.RowQueued, internal.RowTranslating} {
		if err := s.UpdateRows(context.Background(), projectID, []internal.RowUpdate{{ID: rowID, Status: status}}); err != nil {
			t.Fatalf("failed to move row to %s: %v", status, err)
		}
	}
}

// Scheduler writes go through the row state machine: a jump the scheduler is
// not allowed to make is refused and the row is left untouched.
func TestUpdateRows_RefusesIllegalTransition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	projectID := newTestProject(t, s)

	imported, err := s.ImportRows(ctx, projectID, []internal.Row{{SourceText: "Hello"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rowID := imported[0].ID

	if err := s.UpdateRows(ctx, projectID, []internal.RowUpdate{{ID: rowID, Status: internal.RowReview}}); err == nil {
		t.Error("expected pending -> review to be refused")
	}
	row, _ := s.GetRow(ctx, rowID)
	if row.Status != internal.RowPending {
		t.Errorf("refused update must not touch the row, got %s", row.Status)
	}

	// Approved rows are off limits to the scheduler entirely.
	markTranslating(t, s, projectID, rowID)
	if err := s.UpdateRows(ctx, projectID, []internal.RowUpdate{{ID: rowID, Status: internal.RowReview}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Review(ctx, rowID, internal.RowApproved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.UpdateRows(ctx, projectID, []internal.RowUpdate{{ID: rowID, Status: internal.RowQueued}}); err == nil {
		t.Error("expected approved row to be protected from the scheduler")
	}

	if err := s.UpdateRows(ctx, projectID, []internal.RowUpdate{{ID: "ghost", Status: internal.RowQueued}}); err == nil {
		t.Error("expected error for unknown row")
	}
}

func TestReview_Transitions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	projectID := newTestProject(t, s)

	imported, err := s.ImportRows(ctx, projectID, []internal.Row{{SourceText: "Hello"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rowID := imported[0].ID

	// A pending row cannot be approved.
	if err := s.Review(ctx, rowID, internal.RowApproved); err == nil {
		t.Error("expected error approving a pending row")
	}

	markTranslating(t, s, projectID, rowID)
	if err := s.UpdateRows(ctx, projectID, []internal.RowUpdate{{ID: rowID, Status: internal.RowReview}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Review(ctx, rowID, internal.RowApproved); err != nil {
		t.Errorf("expected approval to succeed: %v", err)
	}

	row, _ := s.GetRow(ctx, rowID)
	if row.Status != internal.RowApproved {
		t.Errorf("expected approved, got %s", row.Status)
	}

	// Approved can be rejected, and a rejected row returns to pending.
	if err := s.Review(ctx, rowID, internal.RowRejected); err != nil {
		t.Errorf("expected rejection to succeed: %v", err)
	}
	if err := s.Review(ctx, rowID, internal.RowPending); err != nil {
		t.Errorf("expected rejected row to return to pending: %v", err)
	}
}

func TestReview_MissingRow(t *testing.T) {
	s := newTestStore(t)

	if err := s.Review(context.Background(), "nope", internal.RowApproved); err == nil {
		t.Error("expected error for unknown row")
	}
}

func TestGlossary_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	projectID := newTestProject(t, s)

	id, err := s.AddGlossaryTerm(ctx, projectID, internal.GlossaryTerm{
		SourceTerm:   "roaming pass",
		Category:     "product",
		Translations: map[string]string{"ms": "pas perayauan", "th": "แพ็กโรมมิ่ง"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.AddGlossaryTerm(ctx, projectID, internal.GlossaryTerm{
		SourceTerm:   "5G",
		Translations: map[string]string{"ms": "5G"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	terms, err := s.FetchApprovedGlossary(ctx, projectID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(terms) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(terms))
	}
	// Ordered by source term: "5G" before "roaming pass".
	if terms[1].Translations["ms"] != "pas perayauan" {
		t.Errorf("unexpected translation: %q", terms[1].Translations["ms"])
	}

	if err := s.DeleteGlossaryTerm(ctx, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	terms, _ = s.FetchApprovedGlossary(ctx, projectID)
	if len(terms) != 1 {
		t.Errorf("expected 1 term after delete, got %d", len(terms))
	}
}

func TestTemplates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetTemplate(ctx, "missing"); err == nil {
		t.Error("expected error for missing template")
	}

	tmpl := internal.Template{Name: "marketing", PromptBody: "Translate into {{targetLanguage}} with a friendly voice."}
	if err := s.SaveTemplate(ctx, tmpl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.GetTemplate(ctx, "marketing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.PromptBody != tmpl.PromptBody {
		t.Errorf("unexpected body: %q", got.PromptBody)
	}

	names, err := s.ListTemplates(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 1 || names[0] != "marketing" {
		t.Errorf("unexpected template list: %v", names)
	}
}

func TestStatusCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	projectID := newTestProject(t, s)

	imported, err := s.ImportRows(ctx, projectID, []internal.Row{
		{SourceText: "one"}, {SourceText: "two"}, {SourceText: "three"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	markTranslating(t, s, projectID, imported[0].ID)
	if err := s.UpdateRows(ctx, projectID, []internal.RowUpdate{{ID: imported[0].ID, Status: internal.RowReview}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counts, err := s.StatusCounts(ctx, projectID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts[internal.RowPending] != 2 || counts[internal.RowReview] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
