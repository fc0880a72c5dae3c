package config

import (
	"strings"
	"testing"
	"time"

	"horse.fit/csvtrans/internal/translation"
)

func validConfig() Config {
	return Config{
		Environment:            "local",
		LogLevel:               "info",
		RequestTimeout:         time.Minute,
		MaxUploadBytes:         1024,
		LibreTranslateFallback: "transport",
		DBMinConns:             1,
		DBMaxConns:             4,
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg.LibreTranslateFallback = "sometimes"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "LIBRETRANSLATE_FALLBACK") {
		t.Fatalf("expected fallback validation error, got %v", err)
	}

	cfg = validConfig()
	cfg.DBMinConns = 5
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected min > max conns to be rejected")
	}

	cfg = validConfig()
	cfg.RequestTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected zero request timeout to be rejected")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("CSVTRANS_BACKEND", "")
	t.Setenv("OLLAMA_ADDRESS", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RequestTimeout != 2*time.Minute {
		t.Fatalf("unexpected request timeout: got %s want 2m", cfg.RequestTimeout)
	}
	if cfg.LibreTranslateSource != "auto" {
		t.Fatalf("unexpected default source: %q", cfg.LibreTranslateSource)
	}
	if cfg.LedgerEnabled() {
		t.Fatalf("did not expect ledger without DATABASE_URL")
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Backend = "deepl"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "CSVTRANS_BACKEND") {
		t.Fatalf("expected backend validation error, got %v", err)
	}
	cfg.Backend = "ollama"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected alias to be accepted, got %v", err)
	}
}

func TestValidateDetectLanguages(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.DetectLanguages = []string{"en"}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "LIBRETRANSLATE_DETECT_LANGUAGES") {
		t.Fatalf("expected single-language subset to be rejected, got %v", err)
	}

	cfg.DetectLanguages = []string{"en", "zz"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown detection language to be rejected")
	}

	cfg.DetectLanguages = []string{"en", "de", "fr"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid detection languages, got %v", err)
	}
	detector, err := cfg.SourceDetector()
	if err != nil {
		t.Fatalf("SourceDetector returned error: %v", err)
	}
	if got := detector.DetectISO6391("Bonjour, je voudrais un café s'il vous plaît."); got != "fr" {
		t.Fatalf("unexpected detected language: got %q want %q", got, "fr")
	}
}

func TestBackendParams(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Model = "llama3"
	cfg.OpenAIAPIKey = "sk-test"
	cfg.OpenAIBaseURL = "https://api.example.com/v1"
	cfg.OllamaAddress = "gpu-box:11434"
	cfg.LibreTranslateAddress = "lt:5000"
	cfg.LibreTranslateTarget = "de"
	cfg.LibreTranslateDetectSource = true

	cloud := cfg.BackendParams(translation.KindCloudChat)
	if cloud.APIKey != "sk-test" || cloud.BaseURL != "https://api.example.com/v1" || cloud.Model != "llama3" {
		t.Fatalf("unexpected cloud params: %+v", cloud)
	}
	local := cfg.BackendParams(translation.KindLocalChat)
	if local.Address != "gpu-box:11434" || local.APIKey != "" {
		t.Fatalf("unexpected local params: %+v", local)
	}
	dedicated := cfg.BackendParams(translation.KindDedicated)
	if dedicated.Address != "lt:5000" || dedicated.Target != "de" || !dedicated.DetectSource || dedicated.Model != "" {
		t.Fatalf("unexpected dedicated params: %+v", dedicated)
	}
}
