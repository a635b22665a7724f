package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned when a feature needs a key that is not configured.
var ErrMissingAPIKey = errors.New("API key is not configured")

// Voice providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Environment overrides.
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvAPIKey       = "API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// DefaultSystemInstruction is the persona given to the voice chef.
const DefaultSystemInstruction = "You are a friendly, Michelin-star level professional chef assistant. " +
	"Help the user cook, give tips, explain techniques, and suggest ingredient swaps. " +
	"Be concise and encouraging."

// GeminiConfig stores Google Gemini specific configurations.
type GeminiConfig struct {
	APIKey     string `yaml:"api_key"`
	TextModel  string `yaml:"text_model"`
	ImageModel string `yaml:"image_model"`
	LiveModel  string `yaml:"live_model"`
	// BaseURL overrides the REST endpoint, LiveURL the Live websocket endpoint.
	BaseURL string `yaml:"base_url"`
	LiveURL string `yaml:"live_url"`
}

// OpenAIConfig stores OpenAI Realtime specific configurations.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
	Voice  string `yaml:"voice"`
}

// VoiceConfig stores the voice chef session settings.
type VoiceConfig struct {
	Provider          string        `yaml:"provider"`
	Voice             string        `yaml:"voice"`
	SystemInstruction string        `yaml:"system_instruction"`
	InputSampleRate   int           `yaml:"input_sample_rate"`
	OutputSampleRate  int           `yaml:"output_sample_rate"`
	FrameSize         int           `yaml:"frame_size"`
	TranscriptWindow  int           `yaml:"transcript_window"`
	MaxSessionLength  time.Duration `yaml:"max_session_length"`
	InactivityTimeout time.Duration `yaml:"inactivity_timeout"`
	DebugAudioDir     string        `yaml:"debug_audio_dir"`
}

// RecipesConfig stores recipe book and search settings.
type RecipesConfig struct {
	BookSize         int    `yaml:"book_size"`
	SearchCacheSize  int    `yaml:"search_cache_size"`
	FallbackImageURL string `yaml:"fallback_image_url"`
}

// MetricsConfig stores the optional Prometheus listener settings.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Config stores the application configuration.
type Config struct {
	Gemini   GeminiConfig  `yaml:"gemini"`
	OpenAI   OpenAIConfig  `yaml:"openai"`
	Voice    VoiceConfig   `yaml:"voice"`
	Recipes  RecipesConfig `yaml:"recipes"`
	Metrics  MetricsConfig `yaml:"metrics"`
	LogLevel string        `yaml:"log_level"`
	LogFile  string        `yaml:"log_file"`
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		Gemini: GeminiConfig{
			TextModel:  "gemini-3-flash-preview",
			ImageModel: "gemini-2.5-flash-image",
			LiveModel:  "gemini-2.5-flash-native-audio-preview-12-2025",
		},
		OpenAI: OpenAIConfig{
			Voice: "shimmer",
		},
		Voice: VoiceConfig{
			Provider:          ProviderGemini,
			Voice:             "Kore",
			SystemInstruction: DefaultSystemInstruction,
			InputSampleRate:   16_000,
			OutputSampleRate:  24_000,
			FrameSize:         4096,
			TranscriptWindow:  5,
			MaxSessionLength:  15 * time.Minute,
			InactivityTimeout: 5 * time.Minute,
		},
		Recipes: RecipesConfig{
			BookSize:         50,
			SearchCacheSize:  32,
			FallbackImageURL: "https://picsum.photos/800/400",
		},
		LogLevel: "info",
	}
}

// LoadConfig loads the configuration from the given file path. A missing
// file is not an error: defaults and environment overrides still apply.
func LoadConfig(filePath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", filePath, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", filePath, err)
		}
	}

	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	if key := firstEnv(EnvGeminiAPIKey, EnvAPIKey); key != "" {
		c.Gemini.APIKey = key
	}
	if key := os.Getenv(EnvOpenAIAPIKey); key != "" {
		c.OpenAI.APIKey = key
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// VoiceAPIKey returns the key for the configured voice provider.
func (c *Config) VoiceAPIKey() (string, error) {
	switch c.Voice.Provider {
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return "", fmt.Errorf("openai: %w", ErrMissingAPIKey)
		}
		return c.OpenAI.APIKey, nil
	case ProviderGemini, "":
		if c.Gemini.APIKey == "" {
			return "", fmt.Errorf("gemini: %w", ErrMissingAPIKey)
		}
		return c.Gemini.APIKey, nil
	default:
		return "", fmt.Errorf("unknown voice provider %q", c.Voice.Provider)
	}
}
