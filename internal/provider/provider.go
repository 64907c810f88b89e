// Package provider abstracts the translation-generating backends behind one
// capability interface. Variants differ only in wire protocol; each owns its
// request/response shape translation and hands the rest of the system plain,
// reconciled batch results.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/valpere/transflow/internal"
)

// ErrNotConfigured means the provider has no credential. It is surfaced to
// the caller before any row is touched; the queue is never started.
var ErrNotConfigured = errors.New("provider: API key not configured")

// RateLimitError wraps an HTTP 429 or quota exhaustion. It is the only error
// class the scheduler retries with backoff.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("provider rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// IsRateLimit reports whether err is a rate-limit signal: either a typed
// RateLimitError from a variant, or a pass-through transport error whose
// message carries 429/quota wording.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota")
}

// Config is the shared provider configuration. Endpoint overrides the
// variant's default base URL; Credentials is a service-account file path for
// the Cloud Translation variant.
type Config struct {
	APIKey      string
	Model       string
	Endpoint    string
	Credentials string
}

// Options carries the per-batch generation parameters.
type Options struct {
	SourceLanguage  string
	TargetLanguages []string
	Template        internal.Template
	GlossaryTerms   []internal.GlossaryTerm
}

// Provider is the uniform capability contract every backend variant exposes.
type Provider interface {
	// Name returns the variant name ("gemini", "openai", "google").
	Name() string

	// Initialize validates credentials and lazily builds the underlying
	// client. Idempotent; safe to call repeatedly.
	Initialize(ctx context.Context) error

	// GenerateBatch translates items into every requested target language.
	// It returns exactly one BatchResult per input item — never fewer,
	// never more — even when the backend answered partially.
	GenerateBatch(ctx context.Context, items []internal.BatchItem, opts Options) ([]internal.BatchResult, error)

	// TestConnection performs a cheap round-trip against the backend.
	TestConnection(ctx context.Context) error
}

// TextExtractor is the optional image-to-text capability. Gate with a type
// assertion; only the multimodal variant implements it.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte, mimeType string) (string, error)
}

// ExtractTranslator combines extraction and translation in one round-trip.
type ExtractTranslator interface {
	ExtractAndTranslate(ctx context.Context, image []byte, mimeType string, opts Options) ([]internal.BatchResult, error)
}
