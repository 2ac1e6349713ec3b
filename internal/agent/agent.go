package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/kusy2009/Codelist-Genius/internal/apperrors"
	"github.com/kusy2009/Codelist-Genius/internal/logger"
	"github.com/kusy2009/Codelist-Genius/internal/metrics"
)

// CompletionRequest is a single system+user prompt exchange.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
}

// Completer returns the raw text a language model produced for a request.
// The text is not guaranteed to be valid structured data.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Agent wraps the Gemini client used for parameter extraction.
type Agent struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger
}

// NewAgent initializes the Gemini client. If the API key is empty, the
// caller receives a nil Agent and no error so that commands can decide how
// to handle missing configuration.
func NewAgent(ctx context.Context, apiKey, modelName string, log *zap.Logger) (*Agent, error) {
	if apiKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Agent{
		client:    client,
		modelName: modelName,
		logger:    logger.OrNop(log),
	}, nil
}

// Close releases underlying resources.
func (a *Agent) Close() error {
	if a == nil || a.client == nil {
		return nil
	}
	return a.client.Close()
}

// Complete sends one prompt pair to Gemini. A fresh model handle is used
// per call so concurrent requests do not share the system instruction.
func (a *Agent) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if a == nil || a.client == nil {
		return "", fmt.Errorf("ai agent is not initialized")
	}

	model := a.client.GenerativeModel(a.modelName)
	model.SetTemperature(req.Temperature)
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
	}
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemPrompt)}}

	resp, err := model.GenerateContent(ctx, genai.Text(req.UserPrompt))
	if err != nil {
		metrics.CompletionRequests.WithLabelValues("gemini", "error").Inc()
		return "", apperrors.Wrap(apperrors.ErrCodeModelRequestFailed, err, "failed to generate content")
	}

	text, err := responseText(resp)
	if err != nil {
		metrics.CompletionRequests.WithLabelValues("gemini", "empty").Inc()
		return "", err
	}

	metrics.CompletionRequests.WithLabelValues("gemini", "ok").Inc()
	a.logger.Debug("gemini raw response", zap.String("response", text))
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil ||
		resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.New(apperrors.ErrCodeModelResponseMalformed, "no response from agent")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", apperrors.New(apperrors.ErrCodeModelResponseMalformed,
			"unexpected response type from agent: %T", resp.Candidates[0].Content.Parts[0])
	}
	return b.String(), nil
}
