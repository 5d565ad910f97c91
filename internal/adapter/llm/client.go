// Package llm is a chat-completion backend for any OpenAI-compatible gateway.
package llm

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/insightatlas/insight-atlas/internal/config"
	"github.com/insightatlas/insight-atlas/internal/narrative"
)

// Settings configures a Client.
type Settings struct {
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Client implements narrative.Backend with a single user-role message per
// call. A go-openai client is built per call because the bearer token can
// change per request.
type Client struct {
	settings   Settings
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client. Zero-valued settings fall back to
// config.DefaultLLMSettings.
func NewClient(s Settings, logger *slog.Logger) *Client {
	def := config.DefaultLLMSettings()
	if s.BaseURL == "" {
		s.BaseURL = def.BaseURL
	}
	if s.Model == "" {
		s.Model = def.Model
	}
	if s.Timeout <= 0 {
		s.Timeout = def.Timeout
	}
	return &Client{
		settings:   s,
		httpClient: &http.Client{Timeout: s.Timeout},
		logger:     logger,
	}
}

// Complete sends prompt and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, prompt, token string) narrative.Completion {
	if strings.TrimSpace(token) == "" {
		return narrative.Failed(narrative.ReasonMissingCredential, 0, "")
	}

	cfg := openai.DefaultConfig(token)
	cfg.BaseURL = strings.TrimRight(c.settings.BaseURL, "/")
	cfg.HTTPClient = c.httpClient
	client := openai.NewClientWithConfig(cfg)

	ctx, cancel := context.WithTimeout(ctx, c.settings.Timeout)
	defer cancel()

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.settings.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(c.settings.Temperature),
	})
	if err != nil {
		return classify(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return narrative.Failed(narrative.ReasonEmptyResponse, 0, "")
	}

	c.logger.Debug("chat completion received",
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return narrative.Succeeded(resp.Choices[0].Message.Content)
}

func classify(err error) narrative.Completion {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return narrative.Failed(narrative.ReasonHTTPStatus, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		detail := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			detail = reqErr.Err.Error()
		}
		return narrative.Failed(narrative.ReasonHTTPStatus, reqErr.HTTPStatusCode, detail)
	}
	return narrative.Failed(narrative.ReasonTransport, 0, err.Error())
}
