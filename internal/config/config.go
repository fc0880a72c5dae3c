package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"horse.fit/csvtrans/internal/langdetect"
	"horse.fit/csvtrans/internal/translation"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Backend        string        `envconfig:"CSVTRANS_BACKEND" default:"local_chat"`
	Model          string        `envconfig:"CSVTRANS_MODEL" default:""`
	Prompt         string        `envconfig:"CSVTRANS_PROMPT" default:""`
	RequestTimeout time.Duration `envconfig:"CSVTRANS_REQUEST_TIMEOUT" default:"2m"`
	MaxUploadBytes int64         `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`

	OllamaAddress string `envconfig:"OLLAMA_ADDRESS" default:"localhost:11434"`

	LibreTranslateAddress      string `envconfig:"LIBRETRANSLATE_ADDRESS" default:"localhost:5000"`
	LibreTranslateAPIKey       string `envconfig:"LIBRETRANSLATE_API_KEY" default:""`
	LibreTranslateSource       string `envconfig:"LIBRETRANSLATE_SOURCE" default:"auto"`
	LibreTranslateTarget       string `envconfig:"LIBRETRANSLATE_TARGET" default:"en"`
	LibreTranslateFallback     string `envconfig:"LIBRETRANSLATE_FALLBACK" default:"transport"`
	LibreTranslateDetectSource bool   `envconfig:"LIBRETRANSLATE_DETECT_SOURCE" default:"false"`
	// Empty means lingua considers every language it knows.
	DetectLanguages []string `envconfig:"LIBRETRANSLATE_DETECT_LANGUAGES"`

	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"4"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("CSVTRANS_REQUEST_TIMEOUT must be > 0")
	}
	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be >= 1")
	}
	if strings.TrimSpace(c.Backend) != "" {
		if _, err := translation.ParseKind(c.Backend); err != nil {
			return fmt.Errorf("CSVTRANS_BACKEND: %w", err)
		}
	}
	if _, err := translation.ParseFallbackPolicy(c.LibreTranslateFallback); err != nil {
		return fmt.Errorf("LIBRETRANSLATE_FALLBACK must be one of never, transport, always")
	}
	if _, err := langdetect.FromISOCodes(c.DetectLanguages); err != nil {
		return fmt.Errorf("LIBRETRANSLATE_DETECT_LANGUAGES: %w", err)
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) cannot exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}

// SourceDetector returns the detector used when a dedicated run asks for
// source detection.
func (c *Config) SourceDetector() (*langdetect.Detector, error) {
	if c == nil {
		return langdetect.FromISOCodes(nil)
	}
	return langdetect.FromISOCodes(c.DetectLanguages)
}

// LedgerEnabled reports whether runs should be recorded in the database.
func (c *Config) LedgerEnabled() bool {
	return c != nil && strings.TrimSpace(c.DatabaseURL) != ""
}

// BackendParams returns the environment defaults for kind. Surfaces merge
// their own flags or form fields on top with Params.Merge.
func (c *Config) BackendParams(kind translation.Kind) translation.Params {
	if c == nil {
		return translation.Params{}
	}
	switch kind {
	case translation.KindCloudChat:
		return translation.Params{
			Model:   c.Model,
			APIKey:  c.OpenAIAPIKey,
			BaseURL: c.OpenAIBaseURL,
		}
	case translation.KindLocalChat:
		return translation.Params{
			Model:   c.Model,
			Address: c.OllamaAddress,
		}
	case translation.KindDedicated:
		return translation.Params{
			Address:      c.LibreTranslateAddress,
			APIKey:       c.LibreTranslateAPIKey,
			Source:       c.LibreTranslateSource,
			Target:       c.LibreTranslateTarget,
			Fallback:     c.LibreTranslateFallback,
			DetectSource: c.LibreTranslateDetectSource,
		}
	default:
		return translation.Params{}
	}
}
