package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kusy2009/Codelist-Genius/internal/apperrors"
	"github.com/kusy2009/Codelist-Genius/internal/config"
	"github.com/kusy2009/Codelist-Genius/internal/logger"
	"github.com/kusy2009/Codelist-Genius/internal/metrics"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenRouterClient calls an OpenAI-compatible chat completions endpoint
// (OpenRouter by default). It is safe for concurrent use.
type OpenRouterClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	referer    string
	title      string
	logger     *zap.Logger
}

// NewOpenRouterClient creates a client from the LLM configuration.
func NewOpenRouterClient(cfg config.LLMConfig, log *zap.Logger) *OpenRouterClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenRouterClient{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		referer:    cfg.Referer,
		title:      cfg.Title,
		logger:     logger.OrNop(log),
	}
}

// Complete sends the system and user prompts and returns the first choice's content.
func (c *OpenRouterClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		httpReq.Header.Set("X-Title", c.title)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.CompletionRequests.WithLabelValues("openrouter", "error").Inc()
		return "", apperrors.Wrap(apperrors.ErrCodeModelRequestFailed, err, "completion request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.CompletionRequests.WithLabelValues("openrouter", "error").Inc()
		return "", apperrors.Wrap(apperrors.ErrCodeModelRequestFailed, err, "failed to read response body")
	}
	if resp.StatusCode != http.StatusOK {
		metrics.CompletionRequests.WithLabelValues("openrouter", "error").Inc()
		return "", apperrors.New(apperrors.ErrCodeModelRequestFailed,
			"API request failed with status code %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		metrics.CompletionRequests.WithLabelValues("openrouter", "malformed").Inc()
		return "", apperrors.Wrap(apperrors.ErrCodeModelResponseMalformed, err, "failed to decode completion response")
	}
	if chat.Error != nil {
		metrics.CompletionRequests.WithLabelValues("openrouter", "error").Inc()
		return "", apperrors.New(apperrors.ErrCodeModelRequestFailed, "completion error: %s", chat.Error.Message)
	}
	if len(chat.Choices) == 0 {
		metrics.CompletionRequests.WithLabelValues("openrouter", "empty").Inc()
		return "", apperrors.New(apperrors.ErrCodeModelResponseMalformed, "completion response has no choices")
	}

	metrics.CompletionRequests.WithLabelValues("openrouter", "ok").Inc()
	text := chat.Choices[0].Message.Content
	c.logger.Debug("openrouter raw response", zap.String("model", c.model), zap.String("response", text))
	return text, nil
}
