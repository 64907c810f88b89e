// Package store persists the translation workflow in SQLite: projects, rows
// with per-language translations, glossary terms, and prompt templates. It
// is the single source of truth for row state; the scheduler and the review
// commands both write through it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/transflow/internal"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		source_lang TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS rows (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		source_text TEXT NOT NULL,
		context TEXT DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (project_id) REFERENCES projects(id)
	);

	CREATE TABLE IF NOT EXISTS row_translations (
		row_id TEXT NOT NULL,
		lang TEXT NOT NULL,
		text TEXT NOT NULL,
		status TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (row_id, lang),
		FOREIGN KEY (row_id) REFERENCES rows(id)
	);

	CREATE TABLE IF NOT EXISTS glossary_terms (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		source_term TEXT NOT NULL,
		category TEXT DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(project_id, source_term),
		FOREIGN KEY (project_id) REFERENCES projects(id)
	);

	CREATE TABLE IF NOT EXISTS glossary_translations (
		term_id TEXT NOT NULL,
		lang TEXT NOT NULL,
		text TEXT NOT NULL,
		PRIMARY KEY (term_id, lang),
		FOREIGN KEY (term_id) REFERENCES glossary_terms(id)
	);

	CREATE TABLE IF NOT EXISTS templates (
		name TEXT PRIMARY KEY,
		prompt_body TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_rows_project_status ON rows(project_id, status);
	CREATE INDEX IF NOT EXISTS idx_row_translations_row ON row_translations(row_id);
	CREATE INDEX IF NOT EXISTS idx_glossary_project ON glossary_terms(project_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateProject registers a project and returns its id.
func (s *Store) CreateProject(ctx context.Context, name, sourceLang string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, source_lang) VALUES (?, ?, ?)`,
		id, name, sourceLang)
	return id, err
}

// GetProjectByName resolves a project name to (id, sourceLang).
func (s *Store) GetProjectByName(ctx context.Context, name string) (string, string, error) {
	var id, sourceLang string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_lang FROM projects WHERE name = ?`, name).Scan(&id, &sourceLang)
	if err == sql.ErrNoRows {
		return "", "", fmt.Errorf("project not found: %s", name)
	}
	return id, sourceLang, err
}

// EnsureProject returns the project id for name, creating the project when
// it does not exist yet.
func (s *Store) EnsureProject(ctx context.Context, name, sourceLang string) (string, error) {
	id, _, err := s.GetProjectByName(ctx, name)
	if err == nil {
		return id, nil
	}
	return s.CreateProject(ctx, name, sourceLang)
}

// ImportRows inserts rows as pending. Rows without an id get one assigned;
// source text is NFC-normalized so identical strings compare equal later.
func (s *Store) ImportRows(ctx context.Context, projectID string, rows []internal.Row) ([]internal.Row, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		rows[i].Status = internal.RowPending
		_, err := tx.ExecContext(ctx,
			`INSERT INTO rows (id, project_id, source_text, context, status) VALUES (?, ?, ?, ?, ?)`,
			rows[i].ID, projectID, normalizeText(rows[i].SourceText), rows[i].Context, internal.RowPending)
		if err != nil {
			return nil, fmt.Errorf("import row %s: %w", rows[i].ID, err)
		}
	}
	return rows, tx.Commit()
}

// ListRows returns a project's rows with their translations, oldest first.
// Pass an empty status to return every row.
func (s *Store) ListRows(ctx context.Context, projectID string, status internal.RowStatus) ([]internal.Row, error) {
	query := `SELECT id, source_text, context, status FROM rows WHERE project_id = ?`
	args := []interface{}{projectID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at, id`

	dbRows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer dbRows.Close()

	var rows []internal.Row
	for dbRows.Next() {
		var r internal.Row
		if err := dbRows.Scan(&r.ID, &r.SourceText, &r.Context, &r.Status); err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	if err := dbRows.Err(); err != nil {
		return nil, err
	}

	for i := range rows {
		translations, err := s.rowTranslations(ctx, rows[i].ID)
		if err != nil {
			return nil, err
		}
		rows[i].Translations = translations
	}
	return rows, nil
}

// GetRow fetches one row with its translations.
func (s *Store) GetRow(ctx context.Context, rowID string) (internal.Row, error) {
	var r internal.Row
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_text, context, status FROM rows WHERE id = ?`, rowID).
		Scan(&r.ID, &r.SourceText, &r.Context, &r.Status)
	if err == sql.ErrNoRows {
		return r, fmt.Errorf("row not found: %s", rowID)
	}
	if err != nil {
		return r, err
	}
	r.Translations, err = s.rowTranslations(ctx, rowID)
	return r, err
}

func (s *Store) rowTranslations(ctx context.Context, rowID string) (map[string]internal.TranslationEntry, error) {
	dbRows, err := s.db.QueryContext(ctx,
		`SELECT lang, text, status FROM row_translations WHERE row_id = ?`, rowID)
	if err != nil {
		return nil, err
	}
	defer dbRows.Close()

	var translations map[string]internal.TranslationEntry
	for dbRows.Next() {
		var lang string
		var entry internal.TranslationEntry
		if err := dbRows.Scan(&lang, &entry.Text, &entry.Status); err != nil {
			return nil, err
		}
		if translations == nil {
			translations = make(map[string]internal.TranslationEntry)
		}
		translations[lang] = entry
	}
	return translations, dbRows.Err()
}

// UpdateRows applies scheduler updates in one transaction: row status plus
// any per-language translation writes. Every status change is checked against
// the scheduler transition rules; an illegal move fails the whole batch and
// nothing is written. It is the queue's RowSink.
func (s *Store) UpdateRows(ctx context.Context, projectID string, updates []internal.RowUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	for _, u := range updates {
		var current internal.RowStatus
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM rows WHERE id = ? AND project_id = ?`, u.ID, projectID).Scan(&current)
		if err == sql.ErrNoRows {
			return fmt.Errorf("row not found: %s", u.ID)
		}
		if err != nil {
			return err
		}
		if current != u.Status && !internal.CanTransition(current, u.Status) {
			return fmt.Errorf("cannot move row %s from %s to %s", u.ID, current, u.Status)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE rows SET status = ?, updated_at = ? WHERE id = ? AND project_id = ?`,
			u.Status, now, u.ID, projectID); err != nil {
			return fmt.Errorf("update row %s: %w", u.ID, err)
		}
		for lang, entry := range u.Translations {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO row_translations (row_id, lang, text, status, updated_at) VALUES (?, ?, ?, ?, ?)`,
				u.ID, lang, entry.Text, entry.Status, now); err != nil {
				return fmt.Errorf("update translation %s/%s: %w", u.ID, lang, err)
			}
		}
	}
	return tx.Commit()
}

// Review applies a human review transition. Illegal moves (approving an
// untranslated row, rejecting an approved one into pending, and so on) are
// refused before anything is written.
func (s *Store) Review(ctx context.Context, rowID string, to internal.RowStatus) error {
	row, err := s.GetRow(ctx, rowID)
	if err != nil {
		return err
	}
	if !internal.CanReview(row.Status, to) {
		return fmt.Errorf("cannot move row %s from %s to %s", rowID, row.Status, to)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE rows SET status = ?, updated_at = ? WHERE id = ?`, to, time.Now(), rowID)
	return err
}

// AddGlossaryTerm inserts a term with its per-language translations and
// returns the term id.
func (s *Store) AddGlossaryTerm(ctx context.Context, projectID string, term internal.GlossaryTerm) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO glossary_terms (id, project_id, source_term, category) VALUES (?, ?, ?, ?)`,
		id, projectID, normalizeText(term.SourceTerm), term.Category); err != nil {
		return "", err
	}
	for lang, text := range term.Translations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO glossary_translations (term_id, lang, text) VALUES (?, ?, ?)`,
			id, lang, text); err != nil {
			return "", err
		}
	}
	return id, tx.Commit()
}

// TermEntry is a glossary term with its storage id, for listing and deletion.
type TermEntry struct {
	ID   string
	Term internal.GlossaryTerm
}

// ListGlossaryTerms returns a project's terms ordered by source term.
func (s *Store) ListGlossaryTerms(ctx context.Context, projectID string) ([]TermEntry, error) {
	dbRows, err := s.db.QueryContext(ctx,
		`SELECT id, source_term, category FROM glossary_terms WHERE project_id = ? ORDER BY source_term`,
		projectID)
	if err != nil {
		return nil, err
	}
	defer dbRows.Close()

	var entries []TermEntry
	for dbRows.Next() {
		var e TermEntry
		if err := dbRows.Scan(&e.ID, &e.Term.SourceTerm, &e.Term.Category); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := dbRows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		translations, err := s.termTranslations(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Term.Translations = translations
	}
	return entries, nil
}

func (s *Store) termTranslations(ctx context.Context, termID string) (map[string]string, error) {
	dbRows, err := s.db.QueryContext(ctx,
		`SELECT lang, text FROM glossary_translations WHERE term_id = ?`, termID)
	if err != nil {
		return nil, err
	}
	defer dbRows.Close()

	translations := make(map[string]string)
	for dbRows.Next() {
		var lang, text string
		if err := dbRows.Scan(&lang, &text); err != nil {
			return nil, err
		}
		translations[lang] = text
	}
	return translations, dbRows.Err()
}

// FetchApprovedGlossary returns a project's full term list, ready for
// relevance filtering at enqueue time. It is the queue's GlossarySource.
func (s *Store) FetchApprovedGlossary(ctx context.Context, projectID string) ([]internal.GlossaryTerm, error) {
	entries, err := s.ListGlossaryTerms(ctx, projectID)
	if err != nil {
		return nil, err
	}
	terms := make([]internal.GlossaryTerm, 0, len(entries))
	for _, e := range entries {
		terms = append(terms, e.Term)
	}
	return terms, nil
}

// DeleteGlossaryTerm removes a term and its translations.
func (s *Store) DeleteGlossaryTerm(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM glossary_translations WHERE term_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM glossary_terms WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveTemplate inserts or replaces a prompt template by name.
func (s *Store) SaveTemplate(ctx context.Context, tmpl internal.Template) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO templates (name, prompt_body, updated_at) VALUES (?, ?, ?)`,
		tmpl.Name, tmpl.PromptBody, time.Now())
	return err
}

// GetTemplate fetches a template by name. Absence is an error: translation
// must not silently proceed without its style template.
func (s *Store) GetTemplate(ctx context.Context, name string) (internal.Template, error) {
	var tmpl internal.Template
	err := s.db.QueryRowContext(ctx,
		`SELECT name, prompt_body FROM templates WHERE name = ?`, name).
		Scan(&tmpl.Name, &tmpl.PromptBody)
	if err == sql.ErrNoRows {
		return tmpl, fmt.Errorf("template not found: %s", name)
	}
	return tmpl, err
}

// ListTemplates returns all template names.
func (s *Store) ListTemplates(ctx context.Context) ([]string, error) {
	dbRows, err := s.db.QueryContext(ctx, `SELECT name FROM templates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer dbRows.Close()

	var names []string
	for dbRows.Next() {
		var name string
		if err := dbRows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, dbRows.Err()
}

// StatusCounts tallies a project's rows by status.
func (s *Store) StatusCounts(ctx context.Context, projectID string) (map[internal.RowStatus]int, error) {
	dbRows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM rows WHERE project_id = ? GROUP BY status`, projectID)
	if err != nil {
		return nil, err
	}
	defer dbRows.Close()

	counts := make(map[internal.RowStatus]int)
	for dbRows.Next() {
		var status internal.RowStatus
		var n int
		if err := dbRows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, dbRows.Err()
}

// normalizeText trims whitespace and applies Unicode NFC normalization so
// visually identical strings share one spelling in the database.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
