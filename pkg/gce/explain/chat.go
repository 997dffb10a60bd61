// Package explain generates narrative summaries for verdicts using an
// OpenAI-compatible chat-completions API, degrading to the deterministic
// offline summary when the API is unreachable or unconfigured.
package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/guardrail-ml/gce/pkg/gce"
)

const (
	// EnvAPIKey holds the chat-completions API key.
	EnvAPIKey = "OPENAI_API_KEY"
	// EnvModel overrides the default model name.
	EnvModel = "GCE_AI_MODEL"
	// EnvBaseURL points at an alternative OpenAI-compatible endpoint.
	EnvBaseURL = "GCE_AI_BASE_URL"

	defaultModel   = "gpt-4.1-mini"
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 30 * time.Second
)

const systemPrompt = "You are a guardrail-evaluation analyst. Given a guardrail " +
	"composition bundle and its verdict, explain in plain language what the " +
	"composability coefficient says about the blend and what the operator " +
	"should do next. Be concise; two short paragraphs at most."

// Config options for the chat explainer
type Config struct {
	APIKey     string
	Model      string        // defaults to gpt-4.1-mini
	BaseURL    string        // defaults to the OpenAI API
	Timeout    time.Duration // defaults to 30s
	HTTPClient *http.Client
}

// ChatExplainer implements gce.Explainer against a chat-completions API.
type ChatExplainer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// New creates a chat explainer from explicit configuration.
func New(cfg Config) (*ChatExplainer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &ChatExplainer{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
	}, nil
}

// NewFromEnv builds an explainer from OPENAI_API_KEY, GCE_AI_MODEL and
// GCE_AI_BASE_URL. Returns (nil, nil) when no API key is set, which the
// service treats as offline mode.
func NewFromEnv() (*ChatExplainer, error) {
	apiKey := os.Getenv(EnvAPIKey)
	if apiKey == "" {
		return nil, nil
	}
	return New(Config{
		APIKey:  apiKey,
		Model:   os.Getenv(EnvModel),
		BaseURL: os.Getenv(EnvBaseURL),
	})
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Explain asks the model for a narrative and falls back to the offline
// summary on any failure.
func (e *ChatExplainer) Explain(ctx context.Context, bundle *gce.RunBundle, verdict *gce.Verdict) (string, error) {
	text, err := e.complete(ctx, bundle, verdict)
	if err != nil {
		return gce.OfflineExplanation(bundle, verdict), nil
	}
	return text, nil
}

func (e *ChatExplainer) complete(ctx context.Context, bundle *gce.RunBundle, verdict *gce.Verdict) (string, error) {
	payload, err := json.Marshal(gce.BuildPayload(*bundle, *verdict, nil))
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(payload)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call chat API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil && out.Error.Message != "" {
			return "", fmt.Errorf("chat API: %s", out.Error.Message)
		}
		return "", fmt.Errorf("chat API returned status %d", resp.StatusCode)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("chat API returned no choices")
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
