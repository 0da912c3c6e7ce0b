package providers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	apperr "github.com/tobyv/snapsolve/errors"
	"github.com/tobyv/snapsolve/internal/models"
	"github.com/tobyv/snapsolve/internal/providers/anthropic"
	"github.com/tobyv/snapsolve/internal/providers/gemini"
	"github.com/tobyv/snapsolve/internal/providers/openai"
)

// New builds the adapter for p. A missing API key fails with
// ErrNotConfigured so callers can attempt a lazy re-initialization
// before surfacing a provider-specific message.
func New(p models.Provider, s Settings, hc *http.Client, logger *slog.Logger) (Client, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, fmt.Errorf("%w: %s API key missing", apperr.ErrNotConfigured, p)
	}
	switch p {
	case models.OpenAI:
		return openai.New(s.APIKey, s.BaseURL, s.CustomModel, hc, logger), nil
	case models.Gemini:
		return gemini.New(s.APIKey, hc, logger), nil
	case models.Anthropic:
		return anthropic.New(s.APIKey, hc, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", apperr.ErrUnknownProvider, p)
	}
}
