// Package queue schedules translation batches. Exactly one batch is in
// flight at a time; everything else waits in FIFO order. Rate-limited calls
// back off and retry, a cancelled run reverts its unfinished rows to pending,
// and every row-state change flows through the RowSink so the workflow store
// stays the single source of truth.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/valpere/transflow/internal"
	"github.com/valpere/transflow/internal/glossary"
	"github.com/valpere/transflow/internal/parser"
	"github.com/valpere/transflow/internal/placeholder"
	"github.com/valpere/transflow/internal/provider"
)

// RowSink receives row-state updates as the scheduler works through the
// queue. Sink errors are logged, never propagated: a failing status write
// must not wedge the run.
type RowSink interface {
	UpdateRows(ctx context.Context, projectID string, updates []internal.RowUpdate) error
}

// GlossarySource supplies the approved glossary terms for a project. It is
// consulted once per enqueue, not per batch.
type GlossarySource interface {
	FetchApprovedGlossary(ctx context.Context, projectID string) ([]internal.GlossaryTerm, error)
}

// LanguageChecker spot-checks whether a translated text plausibly matches
// its target language. Advisory only; a mismatch is logged, never acted on.
type LanguageChecker interface {
	Mismatch(text, lang string) bool
}

// Config carries the scheduler knobs.
type Config struct {
	BatchSize    int
	MaxRetries   int
	BaseBackoff  time.Duration
	BatchTimeout time.Duration
}

// DefaultConfig returns the stock scheduler settings: batches of 10 rows,
// three retries starting at a 5s backoff, two minutes per provider call.
func DefaultConfig() Config {
	return Config{
		BatchSize:    10,
		MaxRetries:   3,
		BaseBackoff:  5 * time.Second,
		BatchTimeout: 120 * time.Second,
	}
}

// Deps bundles the scheduler's collaborators. Sleep is swappable so tests
// can observe backoff without waiting it out.
type Deps struct {
	Provider provider.Provider
	Sink     RowSink
	Glossary GlossarySource
	Checker  LanguageChecker
	Logger   zerolog.Logger
	Sleep    func(time.Duration)
}

// Request is one enqueue call: the rows to translate and the generation
// parameters they share.
type Request struct {
	ProjectID       string
	Rows            []internal.Row
	SourceLanguage  string
	TargetLanguages []string
	Template        internal.Template
}

type batch struct {
	projectID string
	rows      []internal.Row
	opts      provider.Options
}

// Runner is the batch scheduler. One worker goroutine drains the queue;
// Enqueue is safe from any goroutine.
type Runner struct {
	cfg  Config
	deps Deps

	mu      sync.Mutex
	cond    *sync.Cond
	pending []*batch
	current *batch
	running bool
	gen     int
	cancel  context.CancelFunc

	done  int
	total int
}

func NewRunner(cfg Config, deps Deps) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = DefaultConfig().BaseBackoff
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = DefaultConfig().BatchTimeout
	}
	if deps.Sleep == nil {
		deps.Sleep = time.Sleep
	}
	r := &Runner{cfg: cfg, deps: deps}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Enqueue partitions the request's rows into batches and appends them to the
// queue. Every row is marked queued before Enqueue returns, so callers
// observe the transition synchronously. Safe to call while a run is already
// processing; the new batches extend the current run.
func (r *Runner) Enqueue(ctx context.Context, req Request) error {
	if len(req.Rows) == 0 {
		return nil
	}
	if err := r.deps.Provider.Initialize(ctx); err != nil {
		return err
	}

	var terms []internal.GlossaryTerm
	if r.deps.Glossary != nil {
		var err error
		terms, err = r.deps.Glossary.FetchApprovedGlossary(ctx, req.ProjectID)
		if err != nil {
			return fmt.Errorf("fetch glossary: %w", err)
		}
	}

	updates := make([]internal.RowUpdate, 0, len(req.Rows))
	for _, row := range req.Rows {
		updates = append(updates, internal.RowUpdate{ID: row.ID, Status: internal.RowQueued})
	}
	r.applyUpdates(ctx, req.ProjectID, updates)

	batches := partition(req.Rows, r.cfg.BatchSize)

	r.mu.Lock()
	for _, rows := range batches {
		texts := make([]string, 0, len(rows))
		for _, row := range rows {
			texts = append(texts, row.SourceText)
		}
		r.pending = append(r.pending, &batch{
			projectID: req.ProjectID,
			rows:      rows,
			opts: provider.Options{
				SourceLanguage:  req.SourceLanguage,
				TargetLanguages: req.TargetLanguages,
				Template:        req.Template,
				GlossaryTerms:   glossary.FilterRelevant(terms, texts),
			},
		})
	}
	r.total += len(batches)
	if !r.running {
		r.running = true
		go r.work(r.gen)
	}
	r.mu.Unlock()
	return nil
}

// Cancel stops the run. Queued batches are dropped, the in-flight provider
// call is interrupted, and every unfinished row reverts to pending. Progress
// counters reset. Results of the interrupted call are discarded even if the
// provider returns successfully afterwards.
func (r *Runner) Cancel(ctx context.Context) {
	r.mu.Lock()
	r.gen++
	dropped := r.pending
	current := r.current
	r.pending = nil
	r.current = nil
	r.done = 0
	r.total = 0
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	for _, b := range dropped {
		r.revert(ctx, b)
	}
	if current != nil {
		r.revert(ctx, current)
	}
	r.deps.Logger.Info().Int("dropped", len(dropped)).Msg("translation run cancelled")
}

// Wait blocks until the queue is drained and no batch is in flight.
func (r *Runner) Wait() {
	r.mu.Lock()
	for r.running {
		r.cond.Wait()
	}
	r.mu.Unlock()
}

// Progress reports completed and total batch counts for the current run.
func (r *Runner) Progress() (done, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done, r.total
}

func (r *Runner) work(gen int) {
	for {
		r.mu.Lock()
		if gen != r.gen {
			// A cancel fired while this worker was mid-call. Batches enqueued
			// after the cancel belong to the new generation; adopt it rather
			// than exiting and stranding them with no worker.
			gen = r.gen
		}
		if len(r.pending) == 0 {
			r.running = false
			r.current = nil
			r.cond.Broadcast()
			r.mu.Unlock()
			return
		}
		b := r.pending[0]
		r.pending = r.pending[1:]
		r.current = b

		ctx, cancel := context.WithCancel(context.Background())
		r.cancel = cancel
		r.mu.Unlock()

		r.process(ctx, gen, b)
		cancel()

		r.mu.Lock()
		if gen == r.gen {
			r.done++
			r.current = nil
		}
		r.mu.Unlock()
	}
}

// process runs one batch through the provider, retrying rate limits with
// exponential backoff. All resulting row updates go through the sink unless
// the run was cancelled while the call was in flight.
func (r *Runner) process(ctx context.Context, gen int, b *batch) {
	log := r.deps.Logger.With().Str("project", b.projectID).Int("rows", len(b.rows)).Logger()

	updates := make([]internal.RowUpdate, 0, len(b.rows))
	for _, row := range b.rows {
		updates = append(updates, internal.RowUpdate{ID: row.ID, Status: internal.RowTranslating})
	}
	r.applyUpdates(ctx, b.projectID, updates)

	items := make([]internal.BatchItem, 0, len(b.rows))
	for _, row := range b.rows {
		items = append(items, internal.BatchItem{ID: row.ID, Text: row.SourceText, Context: row.Context})
	}
	items, markers := placeholder.ProtectItems(items)

	var results []internal.BatchResult
	var err error
	for attempt := 0; ; attempt++ {
		callCtx, cancelCall := context.WithTimeout(ctx, r.cfg.BatchTimeout)
		results, err = r.deps.Provider.GenerateBatch(callCtx, items, b.opts)
		cancelCall()

		if err == nil || !provider.IsRateLimit(err) {
			break
		}
		if attempt >= r.cfg.MaxRetries {
			log.Warn().Int("attempts", attempt+1).Msg("rate limit retries exhausted")
			break
		}
		backoff := r.cfg.BaseBackoff << attempt
		log.Info().Dur("backoff", backoff).Int("attempt", attempt+1).Msg("rate limited, backing off")
		r.deps.Sleep(backoff)
		if r.cancelled(gen) {
			return
		}
	}

	if r.cancelled(gen) {
		// Cancel already reverted these rows; the late result is dropped.
		return
	}

	if err != nil {
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			log.Error().Err(err).Msg("unparseable model response")
		} else {
			log.Error().Err(err).Msg("batch translation failed")
		}
		failed := make([]internal.RowUpdate, 0, len(b.rows))
		for _, row := range b.rows {
			failed = append(failed, internal.RowUpdate{ID: row.ID, Status: internal.RowError})
		}
		r.applyUpdates(context.Background(), b.projectID, failed)
		return
	}

	placeholder.RestoreResults(results, markers)
	r.inspect(log, results, b.opts.TargetLanguages, markers)

	applied := make([]internal.RowUpdate, 0, len(results))
	for _, res := range results {
		applied = append(applied, internal.RowUpdate{
			ID:           res.ID,
			Status:       rowStatus(res, b.opts.TargetLanguages),
			Translations: res.Translations,
		})
	}
	r.applyUpdates(context.Background(), b.projectID, applied)
}

// inspect logs advisory findings: dropped markup markers and translations
// that do not look like their target language.
func (r *Runner) inspect(log zerolog.Logger, results []internal.BatchResult, langs []string, markers map[string][]string) {
	for _, res := range results {
		for _, lang := range langs {
			entry := res.Translations[lang]
			if entry.Text == "" {
				continue
			}
			if captured, ok := markers[res.ID]; ok {
				if missing := placeholder.Missing(entry.Text, captured); len(missing) > 0 {
					log.Warn().Str("row", res.ID).Str("lang", lang).Ints("markers", missing).Msg("translation dropped markup markers")
				}
			}
			if r.deps.Checker != nil && r.deps.Checker.Mismatch(entry.Text, lang) {
				log.Warn().Str("row", res.ID).Str("lang", lang).Msg("translation language looks wrong")
			}
		}
	}
}

// rowStatus derives the row-level status from its per-language entries: any
// partial entry makes the whole row partial, otherwise it lands in review.
func rowStatus(res internal.BatchResult, langs []string) internal.RowStatus {
	for _, lang := range langs {
		if res.Translations[lang].Status == internal.RowPartial {
			return internal.RowPartial
		}
	}
	return internal.RowReview
}

func (r *Runner) cancelled(gen int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return gen != r.gen
}

// revert puts a batch's rows back to pending, with translations untouched.
func (r *Runner) revert(ctx context.Context, b *batch) {
	updates := make([]internal.RowUpdate, 0, len(b.rows))
	for _, row := range b.rows {
		updates = append(updates, internal.RowUpdate{ID: row.ID, Status: internal.RowPending})
	}
	r.applyUpdates(ctx, b.projectID, updates)
}

func (r *Runner) applyUpdates(ctx context.Context, projectID string, updates []internal.RowUpdate) {
	if r.deps.Sink == nil || len(updates) == 0 {
		return
	}
	if err := r.deps.Sink.UpdateRows(ctx, projectID, updates); err != nil {
		r.deps.Logger.Error().Err(err).Str("project", projectID).Int("updates", len(updates)).Msg("row state write failed")
	}
}

// partition splits rows into consecutive chunks of at most size rows.
func partition(rows []internal.Row, size int) [][]internal.Row {
	var out [][]internal.Row
	for len(rows) > size {
		out = append(out, rows[:size])
		rows = rows[size:]
	}
	if len(rows) > 0 {
		out = append(out, rows)
	}
	return out
}
