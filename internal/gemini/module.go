// Package gemini provides the Google Gemini REST client and its Fx module.
package gemini

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Raikerian/go-lumina-kitchen/internal/config"
)

// Module provides the Gemini client.
var Module = fx.Module("gemini",
	fx.Provide(
		NewClient,
	),
)

// NewClient creates and configures a new Gemini client.
func NewClient(cfg *config.Config, logger *zap.Logger) (*genai.Client, error) {
	if cfg.Gemini.APIKey == "" {
		logger.Error("Gemini API key is not configured in config.yaml or " + config.EnvGeminiAPIKey)

		return nil, fmt.Errorf("gemini: %w", config.ErrMissingAPIKey)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      cfg.Gemini.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.Gemini.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	logger.Info("Gemini client created successfully.", zap.String("text_model", cfg.Gemini.TextModel))

	return client, nil
}
