package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/npepeverse/pepebot/internal/config"
)

// New builds the configured provider, rate-limited per cfg. With no explicit
// provider the first backend with a key wins, in order groq, gemini, openai.
// Returns ErrNotConfigured when no usable key is present.
func New(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	name := strings.ToLower(cfg.Provider)
	if name == "" {
		switch {
		case cfg.GroqAPIKey != "":
			name = "groq"
		case cfg.GeminiAPIKey != "":
			name = "gemini"
		case cfg.OpenAIAPIKey != "":
			name = "openai"
		default:
			return nil, ErrNotConfigured
		}
	}

	var p Provider
	switch name {
	case "groq":
		if cfg.GroqAPIKey == "" {
			return nil, fmt.Errorf("groq: %w (GROQ_API_KEY)", ErrNotConfigured)
		}
		p = NewOpenAIProvider("groq", cfg.GroqAPIKey, firstNonEmpty(cfg.APIBase, GroqAPIBase), GroqDefaultModel)
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai: %w (OPENAI_API_KEY)", ErrNotConfigured)
		}
		p = NewOpenAIProvider("openai", cfg.OpenAIAPIKey, firstNonEmpty(cfg.APIBase, OpenAIAPIBase), OpenAIDefaultModel)
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini: %w (GEMINI_API_KEY)", ErrNotConfigured)
		}
		gp, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, GeminiDefaultModel, cfg.APIBase)
		if err != nil {
			return nil, err
		}
		p = gp
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	return NewLimited(p, cfg.RatePerMinute), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
