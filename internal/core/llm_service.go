package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"bitsafe.io/advisor-api/internal/config"
)

const (
	defaultMaxNewTokens = 200
	defaultTemperature  = 0.7

	maxErrorBodyLen = 512
)

type GenerateOptions struct {
	MaxNewTokens int32
	Temperature  float32
}

func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{MaxNewTokens: defaultMaxNewTokens, Temperature: defaultTemperature}
}

// Generator produces text for a prompt from a hosted model.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Close() error
}

// NewGenerator builds the generator selected by cfg. It returns a nil
// Generator and no error when the provider's credential is missing, so only
// the chat endpoint is affected.
func NewGenerator(ctx context.Context, cfg config.Config) (Generator, error) {
	if cfg.InferenceAPIKey() == "" {
		slog.Warn("inference API key not configured, chat endpoint disabled", "provider", cfg.InferenceProvider)
		return nil, nil
	}
	switch cfg.InferenceProvider {
	case config.ProviderGemini:
		return NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case config.ProviderHuggingFace, "":
		return NewHuggingFaceGenerator(cfg.HFBaseURL, cfg.HFAPIKey, cfg.HFModel), nil
	default:
		return nil, fmt.Errorf("unknown inference provider %q", cfg.InferenceProvider)
	}
}

// Hugging Face inference API

type hfParameters struct {
	MaxNewTokens   int32   `json:"max_new_tokens"`
	Temperature    float32 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

type HuggingFaceGenerator struct {
	client *resty.Client
	model  string
}

func NewHuggingFaceGenerator(baseURL, apiKey, model string) *HuggingFaceGenerator {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = config.DefaultHFBaseURL
	}
	if model == "" {
		model = config.DefaultHFModel
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(60 * time.Second)
	client.SetAuthToken(strings.TrimSpace(apiKey))
	client.SetHeader("Content-Type", "application/json")

	return &HuggingFaceGenerator{client: client, model: model}
}

func (g *HuggingFaceGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(hfRequest{
			Inputs: prompt,
			Parameters: hfParameters{
				MaxNewTokens:   opts.MaxNewTokens,
				Temperature:    opts.Temperature,
				ReturnFullText: false,
			},
		}).
		Post("/models/" + g.model)
	if err != nil {
		return "", &UpstreamError{Err: err}
	}

	if resp.StatusCode() != http.StatusOK {
		return "", &UpstreamError{StatusCode: resp.StatusCode(), Body: truncate(resp.String(), maxErrorBodyLen)}
	}

	var generations []hfGeneration
	if err := json.Unmarshal(resp.Body(), &generations); err != nil {
		return "", &UpstreamError{StatusCode: resp.StatusCode(), Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(generations) == 0 || strings.TrimSpace(generations[0].GeneratedText) == "" {
		return "", &UpstreamError{StatusCode: resp.StatusCode(), Err: ErrEmptyGeneration}
	}
	return generations[0].GeneratedText, nil
}

func (g *HuggingFaceGenerator) Close() error { return nil }

// Gemini

type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if model == "" {
		model = config.DefaultGeminiModel
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	model := g.client.GenerativeModel(g.model)

	maxTokens := opts.MaxNewTokens
	temp := opts.Temperature
	model.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: &maxTokens,
		Temperature:     &temp,
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &UpstreamError{Err: fmt.Errorf("gemini generate: %w", err)}
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &UpstreamError{Err: ErrEmptyGeneration}
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			slog.Debug("gemini response part was not text", "type", fmt.Sprintf("%T", part))
		}
	}

	if strings.TrimSpace(responseText.String()) == "" {
		return "", &UpstreamError{Err: ErrEmptyGeneration}
	}
	return responseText.String(), nil
}

func (g *GeminiGenerator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
