package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/valpere/transflow/internal"
	"github.com/valpere/transflow/internal/parser"
	"github.com/valpere/transflow/internal/prompt"
)

const defaultGeminiBase = "https://generativelanguage.googleapis.com/v1beta/models"

// Gemini talks to the generateContent endpoint. Beyond the shared Provider
// contract it supports image-to-text extraction and combined
// extract-and-translate, since the backend is multimodal.
type Gemini struct {
	cfg  Config
	http *resty.Client
}

func NewGemini(cfg Config) *Gemini {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultGeminiBase
	}
	return &Gemini{cfg: cfg}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Initialize(ctx context.Context) error {
	if g.cfg.APIKey == "" {
		return ErrNotConfigured
	}
	if g.http == nil {
		g.http = resty.New().SetTimeout(120 * time.Second)
	}
	return nil
}

// geminiResponse is the subset of the generateContent response the pipeline
// reads. Everything funnels into candidates[0].content.parts[0].text.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (g *Gemini) GenerateBatch(ctx context.Context, items []internal.BatchItem, opts Options) ([]internal.BatchResult, error) {
	if err := g.Initialize(ctx); err != nil {
		return nil, err
	}

	instruction, err := prompt.Build(items, opts.Template, opts.TargetLanguages, opts.GlossaryTerms, opts.SourceLanguage)
	if err != nil {
		return nil, err
	}

	text, err := g.generate(ctx, []map[string]any{{"text": instruction}})
	if err != nil {
		return nil, err
	}
	return parser.Parse(text, items, opts.TargetLanguages)
}

// generate posts one contents turn and normalizes the response to a plain
// string.
func (g *Gemini) generate(ctx context.Context, parts []map[string]any) (string, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": parts},
		},
		"generationConfig": map[string]any{
			"temperature":      0.3,
			"responseMimeType": "application/json",
		},
	}

	var out geminiResponse
	resp, err := g.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", g.cfg.APIKey).
		SetBody(body).
		SetResult(&out).
		Post(fmt.Sprintf("%s/%s:generateContent", strings.TrimRight(g.cfg.Endpoint, "/"), g.cfg.Model))
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return "", &RateLimitError{Err: fmt.Errorf("gemini: %s", resp.Status())}
	}
	if resp.IsError() {
		err := fmt.Errorf("gemini: %s; body: %s", resp.Status(), resp.String())
		if IsRateLimit(err) {
			return "", &RateLimitError{Err: err}
		}
		return "", err
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		if out.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini blocked: %s", out.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("gemini: empty response")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

func (g *Gemini) TestConnection(ctx context.Context) error {
	if err := g.Initialize(ctx); err != nil {
		return err
	}
	resp, err := g.http.R().SetContext(ctx).
		SetHeader("x-goog-api-key", g.cfg.APIKey).
		Get(strings.TrimRight(g.cfg.Endpoint, "/"))
	if err != nil {
		return fmt.Errorf("gemini connection: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("gemini connection: %s", resp.Status())
	}
	return nil
}

// ExtractText implements the optional TextExtractor capability: OCR-style
// extraction of visible text from an image.
func (g *Gemini) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	if err := g.Initialize(ctx); err != nil {
		return "", err
	}
	parts := []map[string]any{
		{"inline_data": map[string]any{
			"mime_type": mimeType,
			"data":      base64.StdEncoding.EncodeToString(image),
		}},
		{"text": "Extract every piece of visible text from this image, preserving reading order. Return the text only, no commentary."},
	}
	return g.generate(ctx, parts)
}

// ExtractAndTranslate extracts text from an image and translates it in one
// round-trip. The extracted lines are returned as synthetic single-item
// results keyed "extracted".
func (g *Gemini) ExtractAndTranslate(ctx context.Context, image []byte, mimeType string, opts Options) ([]internal.BatchResult, error) {
	if err := g.Initialize(ctx); err != nil {
		return nil, err
	}
	item := internal.BatchItem{ID: "extracted", Text: "(text embedded in the attached image)"}
	instruction, err := prompt.Build([]internal.BatchItem{item}, opts.Template, opts.TargetLanguages, opts.GlossaryTerms, opts.SourceLanguage)
	if err != nil {
		return nil, err
	}
	parts := []map[string]any{
		{"inline_data": map[string]any{
			"mime_type": mimeType,
			"data":      base64.StdEncoding.EncodeToString(image),
		}},
		{"text": "First extract the visible text from the attached image, then follow the instructions below, treating the extracted text as the source text of item \"extracted\".\n\n" + instruction},
	}
	text, err := g.generate(ctx, parts)
	if err != nil {
		return nil, err
	}
	return parser.Parse(text, []internal.BatchItem{item}, opts.TargetLanguages)
}
