package textservice

import (
	"context"
	"log/slog"
	"strings"

	"azadi/internal/content/models"
)

// Translator is the strict client contract.
type Translator interface {
	Translate(ctx context.Context, text string, target models.Locale) (string, error)
}

// Service never fails: without a translator, on error, or on an empty
// reply it hands back the input unchanged.
type Service struct {
	translator Translator
	logger     *slog.Logger
}

// New builds the service. A config without an API key yields a service
// that returns its input.
func New(cfg Config, logger *slog.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.APIKey == "" || cfg.BaseURL == "" {
		logger.Info("text service not configured, translations disabled")
		return &Service{logger: logger}
	}
	return &Service{translator: NewClient(cfg, logger, metrics), logger: logger}
}

// NewWithTranslator wraps an existing translator.
func NewWithTranslator(t Translator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{translator: t, logger: logger}
}

// Enabled reports whether a real translator is configured.
func (s *Service) Enabled() bool { return s.translator != nil }

func (s *Service) Translate(ctx context.Context, text string, target models.Locale) string {
	if s.translator == nil || strings.TrimSpace(text) == "" {
		return text
	}
	out, err := s.translator.Translate(ctx, text, target)
	if err != nil || strings.TrimSpace(out) == "" {
		return text
	}
	return out
}
