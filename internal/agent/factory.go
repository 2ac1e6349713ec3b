package agent

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/kusy2009/Codelist-Genius/internal/apperrors"
	"github.com/kusy2009/Codelist-Genius/internal/config"
	"github.com/kusy2009/Codelist-Genius/internal/logger"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the Completer for the configured provider. It returns a nil
// Completer (and no error) when the provider is "none" or its API key is
// missing; callers then skip the model step. The returned Closer is never nil.
func New(ctx context.Context, cfg config.LLMConfig, log *zap.Logger) (Completer, io.Closer, error) {
	log = logger.OrNop(log)

	switch cfg.Provider {
	case config.ProviderNone:
		return nil, nopCloser{}, nil
	case config.ProviderMock:
		return NewOfflineAgent(), nopCloser{}, nil
	case config.ProviderGemini:
		a, err := NewAgent(ctx, cfg.APIKey, cfg.Model, log)
		if err != nil {
			return nil, nopCloser{}, err
		}
		if a == nil {
			log.Warn("neither GEMINI_API_KEY nor GOOGLE_API_KEY is set; model extraction disabled")
			return nil, nopCloser{}, nil
		}
		return a, a, nil
	case config.ProviderOpenRouter:
		if cfg.APIKey == "" {
			log.Warn("OPENROUTER_API_KEY is not set; model extraction disabled")
			return nil, nopCloser{}, nil
		}
		return NewOpenRouterClient(cfg, log), nopCloser{}, nil
	default:
		return nil, nopCloser{}, apperrors.New(apperrors.ErrCodeConfigInvalid, "unknown llm provider %q", cfg.Provider)
	}
}
