package translation

import (
	"errors"
	"fmt"
	"strings"

	"horse.fit/csvtrans/internal/language"
)

var (
	// ErrMissingCredential is returned before a run when a backend that needs
	// an API key has none.
	ErrMissingCredential = errors.New("missing credential")
	// ErrMissingField is returned before a run when a required setting is blank.
	ErrMissingField = errors.New("missing required field")
)

const (
	DefaultCloudBaseURL     = "https://api.openai.com/v1"
	DefaultLocalAddress     = "localhost:11434"
	DefaultDedicatedAddress = "localhost:5000"
	AutoSourceLanguage      = "auto"
)

// BackendConfig is the closed set of per-backend settings. Exactly one
// variant is active for a run and it is not modified once the run starts.
type BackendConfig interface {
	Kind() Kind
	Validate() error
	backendConfig()
}

// CloudChatConfig targets a hosted chat-completion API.
type CloudChatConfig struct {
	Model   string
	APIKey  string
	BaseURL string
}

func (CloudChatConfig) Kind() Kind     { return KindCloudChat }
func (CloudChatConfig) backendConfig() {}

func (c CloudChatConfig) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: %s backend requires an API key", ErrMissingCredential, KindCloudChat)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: %s backend requires a model", ErrMissingField, KindCloudChat)
	}
	return nil
}

// LocalChatConfig targets a self-hosted chat server.
type LocalChatConfig struct {
	Model   string
	Address string
}

func (LocalChatConfig) Kind() Kind     { return KindLocalChat }
func (LocalChatConfig) backendConfig() {}

func (c LocalChatConfig) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: %s backend requires a model", ErrMissingField, KindLocalChat)
	}
	return nil
}

// DedicatedConfig targets a text-translation service that takes explicit
// language codes instead of a prompt.
type DedicatedConfig struct {
	Address string
	APIKey  string
	Source  string
	Target  string
	// Fallback decides when an HTTPS failure is retried over plain HTTP.
	Fallback FallbackPolicy
	// DetectSource replaces an "auto" source with a locally detected code.
	DetectSource bool
}

func (DedicatedConfig) Kind() Kind     { return KindDedicated }
func (DedicatedConfig) backendConfig() {}

func (c DedicatedConfig) Validate() error {
	if strings.TrimSpace(c.Target) == "" {
		return fmt.Errorf("%w: %s backend requires a target language", ErrMissingField, KindDedicated)
	}
	if c.Fallback != "" {
		if _, err := ParseFallbackPolicy(string(c.Fallback)); err != nil {
			return err
		}
	}
	return nil
}

// FallbackPolicy controls the secure-then-insecure retry of the dedicated
// backend and language discovery.
type FallbackPolicy string

const (
	FallbackNever       FallbackPolicy = "never"
	FallbackOnTransport FallbackPolicy = "transport"
	FallbackAlways      FallbackPolicy = "always"
)

// ParseFallbackPolicy accepts never, transport or always. Blank input maps to
// FallbackOnTransport.
func ParseFallbackPolicy(raw string) (FallbackPolicy, error) {
	switch FallbackPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FallbackOnTransport:
		return FallbackOnTransport, nil
	case FallbackNever:
		return FallbackNever, nil
	case FallbackAlways:
		return FallbackAlways, nil
	default:
		return "", fmt.Errorf("unknown fallback policy %q (supported: never, transport, always)", raw)
	}
}

// Allows reports whether a failed secure attempt should be retried over
// plain HTTP. transportFailure is true when no HTTP response was received.
func (p FallbackPolicy) Allows(transportFailure bool) bool {
	switch p {
	case FallbackAlways:
		return true
	case FallbackNever:
		return false
	default:
		return transportFailure
	}
}

// Params is the flat, user-facing form of a backend selection. CLI flags and
// HTTP form fields are collected into Params and turned into a BackendConfig.
type Params struct {
	Model        string
	APIKey       string
	BaseURL      string
	Address      string
	Source       string
	Target       string
	Fallback     string
	DetectSource bool
}

// Merge returns p with every non-blank field of override applied on top.
func (p Params) Merge(override Params) Params {
	pick := func(base, over string) string {
		if strings.TrimSpace(over) != "" {
			return over
		}
		return base
	}
	return Params{
		Model:        pick(p.Model, override.Model),
		APIKey:       pick(p.APIKey, override.APIKey),
		BaseURL:      pick(p.BaseURL, override.BaseURL),
		Address:      pick(p.Address, override.Address),
		Source:       pick(p.Source, override.Source),
		Target:       pick(p.Target, override.Target),
		Fallback:     pick(p.Fallback, override.Fallback),
		DetectSource: p.DetectSource || override.DetectSource,
	}
}

// BuildConfig turns Params into the variant for kind, filling defaults.
// Language codes are passed through as the service lists them. It does not validate; see BackendConfig.Validate.
func BuildConfig(kind Kind, p Params) (BackendConfig, error) {
	switch kind {
	case KindCloudChat:
		baseURL := strings.TrimSpace(p.BaseURL)
		if baseURL == "" {
			baseURL = DefaultCloudBaseURL
		}
		return CloudChatConfig{
			Model:   strings.TrimSpace(p.Model),
			APIKey:  strings.TrimSpace(p.APIKey),
			BaseURL: baseURL,
		}, nil
	case KindLocalChat:
		address := strings.TrimSpace(p.Address)
		if address == "" {
			address = DefaultLocalAddress
		}
		return LocalChatConfig{
			Model:   strings.TrimSpace(p.Model),
			Address: address,
		}, nil
	case KindDedicated:
		policy, err := ParseFallbackPolicy(p.Fallback)
		if err != nil {
			return nil, err
		}
		address := strings.TrimSpace(p.Address)
		if address == "" {
			address = DefaultDedicatedAddress
		}
		source := language.WireCode(p.Source)
		if source == "" {
			source = AutoSourceLanguage
		}
		return DedicatedConfig{
			Address:      address,
			APIKey:       strings.TrimSpace(p.APIKey),
			Source:       source,
			Target:       language.WireCode(p.Target),
			Fallback:     policy,
			DetectSource: p.DetectSource,
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", kind)
	}
}
