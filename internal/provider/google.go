package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/valpere/transflow/internal"
)

// Google uses the Cloud Translation API. It is not an LLM: templates and
// glossary terms are ignored, each target language is a separate call, and
// results are built directly instead of going through response parsing.
type Google struct {
	cfg    Config
	client *translate.Client
}

func NewGoogle(cfg Config) *Google {
	return &Google{cfg: cfg}
}

func (g *Google) Name() string { return "google" }

func (g *Google) Initialize(ctx context.Context) error {
	if g.cfg.APIKey == "" && g.cfg.Credentials == "" {
		return ErrNotConfigured
	}
	if g.client == nil {
		opts := []option.ClientOption{}
		if g.cfg.Credentials != "" {
			opts = append(opts, option.WithCredentialsFile(g.cfg.Credentials))
		} else {
			opts = append(opts, option.WithAPIKey(g.cfg.APIKey))
		}
		client, err := translate.NewClient(ctx, opts...)
		if err != nil {
			return fmt.Errorf("create translate client: %w", err)
		}
		g.client = client
	}
	return nil
}

func (g *Google) GenerateBatch(ctx context.Context, items []internal.BatchItem, opts Options) ([]internal.BatchResult, error) {
	if err := g.Initialize(ctx); err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(items))
	for _, item := range items {
		texts = append(texts, item.Text)
	}

	var transOpts *translate.Options
	if opts.SourceLanguage != "" && opts.SourceLanguage != "auto" {
		src, err := language.Parse(opts.SourceLanguage)
		if err != nil {
			return nil, fmt.Errorf("invalid source language %q: %w", opts.SourceLanguage, err)
		}
		transOpts = &translate.Options{Source: src}
	}

	results := make([]internal.BatchResult, len(items))
	for i, item := range items {
		results[i] = internal.BatchResult{
			ID:           item.ID,
			Translations: make(map[string]internal.TranslationEntry, len(opts.TargetLanguages)),
		}
	}

	for _, lang := range opts.TargetLanguages {
		target, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("invalid target language %q: %w", lang, err)
		}
		translations, err := g.client.Translate(ctx, texts, target, transOpts)
		if err != nil {
			return nil, classifyGoogleError(err)
		}
		if len(translations) != len(items) {
			return nil, fmt.Errorf("google: got %d translations for %d texts", len(translations), len(items))
		}
		for i := range items {
			results[i].Translations[lang] = internal.TranslationEntry{
				Text:   translations[i].Text,
				Status: internal.RowReview,
			}
		}
	}
	return results, nil
}

func (g *Google) TestConnection(ctx context.Context) error {
	if err := g.Initialize(ctx); err != nil {
		return err
	}
	if _, err := g.client.SupportedLanguages(ctx, language.English); err != nil {
		return fmt.Errorf("google connection: %w", classifyGoogleError(err))
	}
	return nil
}

func (g *Google) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func classifyGoogleError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return &RateLimitError{Err: err}
	}
	if IsRateLimit(err) {
		return &RateLimitError{Err: err}
	}
	return err
}
