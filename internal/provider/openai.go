package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/valpere/transflow/internal"
	"github.com/valpere/transflow/internal/parser"
	"github.com/valpere/transflow/internal/prompt"
)

const openAISystemRole = "You are a professional translator. Follow the instructions exactly and reply with the requested JSON only."

// OpenAI drives any chat-completions-compatible endpoint. Endpoint overrides
// the base URL, so self-hosted gateways and compatible vendors work unchanged.
type OpenAI struct {
	cfg    Config
	client *openai.Client
}

func NewOpenAI(cfg Config) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &OpenAI{cfg: cfg}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Initialize(ctx context.Context) error {
	if o.cfg.APIKey == "" {
		return ErrNotConfigured
	}
	if o.client == nil {
		opts := []option.RequestOption{
			option.WithAPIKey(o.cfg.APIKey),
			option.WithRequestTimeout(120 * time.Second),
		}
		if o.cfg.Endpoint != "" {
			opts = append(opts, option.WithBaseURL(o.cfg.Endpoint))
		}
		client := openai.NewClient(opts...)
		o.client = &client
	}
	return nil
}

func (o *OpenAI) GenerateBatch(ctx context.Context, items []internal.BatchItem, opts Options) ([]internal.BatchResult, error) {
	if err := o.Initialize(ctx); err != nil {
		return nil, err
	}

	instruction, err := prompt.Build(items, opts.Template, opts.TargetLanguages, opts.GlossaryTerms, opts.SourceLanguage)
	if err != nil {
		return nil, err
	}

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(openAISystemRole),
			openai.UserMessage(instruction),
		},
		Model: o.cfg.Model,
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai: no choices in response")
	}
	return parser.Parse(completion.Choices[0].Message.Content, items, opts.TargetLanguages)
}

func (o *OpenAI) TestConnection(ctx context.Context) error {
	if err := o.Initialize(ctx); err != nil {
		return err
	}
	if _, err := o.client.Models.List(ctx); err != nil {
		return fmt.Errorf("openai connection: %w", classifyOpenAIError(err))
	}
	return nil
}

// classifyOpenAIError lifts SDK errors carrying HTTP 429 into the typed
// rate-limit class the scheduler retries on.
func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{Err: err}
	}
	if IsRateLimit(err) {
		return &RateLimitError{Err: err}
	}
	return err
}
