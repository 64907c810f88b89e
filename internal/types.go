package internal

import "time"

// RowStatus is the lifecycle status of a content row. The scheduler drives
// Pending → Queued → Translating → {Review | Partial | Error}; human review
// actions drive Review/Partial → {Approved | Rejected} and Rejected → Pending.
type RowStatus string

const (
	RowPending     RowStatus = "pending"
	RowQueued      RowStatus = "queued"
	RowTranslating RowStatus = "translating"
	RowReview      RowStatus = "review"
	// RowPartial marks a row the model answered for incompletely (an id
	// missing from the response), so reviewers can tell it apart from a
	// genuine empty translation.
	RowPartial  RowStatus = "partial"
	RowError    RowStatus = "error"
	RowApproved RowStatus = "approved"
	RowRejected RowStatus = "rejected"
)

// TranslationEntry is one per-language translation slot on a row.
type TranslationEntry struct {
	Text   string    `json:"text"`
	Status RowStatus `json:"status"`
}

// Row is the unit of translatable content. Translations keys are created
// lazily per requested target language; absence means "not yet translated".
type Row struct {
	ID           string                      `json:"id"`
	SourceText   string                      `json:"source_text"`
	Context      string                      `json:"context,omitempty"`
	Status       RowStatus                   `json:"status"`
	Translations map[string]TranslationEntry `json:"translations,omitempty"`
}

// GlossaryTerm maps a source-language term to its mandated translation per
// target language. Immutable during a translation run; glossary edits become
// visible to the next enqueued run.
type GlossaryTerm struct {
	SourceTerm   string            `json:"source_term"`
	Translations map[string]string `json:"translations"`
	Category     string            `json:"category,omitempty"`
}

// Template is the style template a prompt is built from. PromptBody must
// contain the {{targetLanguage}} placeholder.
type Template struct {
	Name       string   `json:"name"`
	PromptBody string   `json:"prompt_body"`
	Variables  []string `json:"variables,omitempty"`
}

// BatchItem is the per-row payload sent to a provider: id for response
// reconciliation, text to translate, and an untranslated context hint.
type BatchItem struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
}

// BatchResult is one provider result per requested row. GenerateBatch and the
// response parser guarantee exactly one BatchResult per input BatchItem,
// carrying an entry for every requested target language.
type BatchResult struct {
	ID           string                      `json:"id"`
	Translations map[string]TranslationEntry `json:"translations"`
}

// RowUpdate is the narrow write the pipeline hands to the persistence sink:
// a row-level status change and/or per-language translation writes.
type RowUpdate struct {
	ID           string
	Status       RowStatus
	Translations map[string]TranslationEntry
}

// Run identifies one queue invocation, from enqueue to drain or cancel.
type Run struct {
	ID        string
	ProjectID string
	StartedAt time.Time
}
