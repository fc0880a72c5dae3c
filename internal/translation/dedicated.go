package translation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"horse.fit/csvtrans/internal/language"
)

// Dedicated translates through a LibreTranslate-compatible service. The
// prompt is ignored; languages come from the config.
type Dedicated struct {
	cfg         DedicatedConfig
	secureURL   string
	insecureURL string
	client      *resty.Client
	detect      func(string) string
	logger      zerolog.Logger
}

func NewDedicated(cfg DedicatedConfig, opts Options) *Dedicated {
	if cfg.Fallback == "" {
		cfg.Fallback = FallbackOnTransport
	}
	if cfg.Source == "" {
		cfg.Source = AutoSourceLanguage
	}
	return &Dedicated{
		cfg:         cfg,
		secureURL:   ServiceURL("https", cfg.Address, "/translate"),
		insecureURL: ServiceURL("http", cfg.Address, "/translate"),
		client:      opts.httpClient(),
		detect:      opts.DetectLanguage,
		logger:      opts.Logger.With().Str("backend", string(KindDedicated)).Logger(),
	}
}

func (d *Dedicated) Kind() Kind { return KindDedicated }

func (d *Dedicated) Name() string {
	return string(KindDedicated) + ":" + d.cfg.Source + "->" + d.cfg.Target
}

func (d *Dedicated) Translate(ctx context.Context, text, _ string) (out string, err error) {
	started := time.Now()
	defer func() { observeRequest(KindDedicated, err, started) }()

	payload := dedicatedRequest{
		Q:            text,
		Source:       d.sourceFor(text),
		Target:       d.cfg.Target,
		Format:       "text",
		Alternatives: 1,
		APIKey:       d.cfg.APIKey,
	}

	out, secureErr := d.attempt(ctx, d.secureURL, payload)
	if secureErr == nil {
		return out, nil
	}
	if ctx.Err() != nil || !d.cfg.Fallback.Allows(secureErr.Reason == ReasonTransport) {
		return "", secureErr
	}

	d.logger.Warn().
		Err(secureErr).
		Str("url", d.insecureURL).
		Str("policy", string(d.cfg.Fallback)).
		Msg("secure translate attempt failed, retrying over plain http")
	RecordInsecureFallback("translate")

	out, insecureErr := d.attempt(ctx, d.insecureURL, payload)
	if insecureErr != nil {
		return "", insecureErr
	}
	return out, nil
}

func (d *Dedicated) sourceFor(text string) string {
	if !d.cfg.DetectSource || d.cfg.Source != AutoSourceLanguage || d.detect == nil {
		return d.cfg.Source
	}
	if code := language.NormalizeCode(d.detect(text)); code != "" && code != AutoSourceLanguage {
		return code
	}
	return d.cfg.Source
}

func (d *Dedicated) attempt(ctx context.Context, url string, payload dedicatedRequest) (string, *TranslateError) {
	status, body, err := postJSON(ctx, d.client.R(), url, payload)
	if err != nil {
		return "", transportError(KindDedicated, err)
	}
	if status != http.StatusOK {
		return "", statusError(KindDedicated, status, string(body))
	}

	var parsed dedicatedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", decodeError(KindDedicated, err)
	}
	var translated string
	switch {
	case len(parsed.Alternatives) > 0:
		translated = parsed.Alternatives[0]
	case parsed.TranslatedText != nil:
		translated = *parsed.TranslatedText
	default:
		return "", decodeError(KindDedicated, errors.New("response has no alternatives"))
	}
	if strings.TrimSpace(translated) == "" {
		return "", emptyError(KindDedicated)
	}
	return strings.TrimSpace(translated), nil
}

type dedicatedRequest struct {
	Q            string `json:"q"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	Format       string `json:"format"`
	Alternatives int    `json:"alternatives"`
	APIKey       string `json:"api_key"`
}

type dedicatedResponse struct {
	Alternatives   []string `json:"alternatives"`
	TranslatedText *string  `json:"translatedText"`
}
