// Package discovery asks the self-hosted services which models and language
// codes they offer. Nothing is cached; callers pass the address every time.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"horse.fit/csvtrans/internal/translation"
)

// DefaultTimeout bounds a single catalog request.
const DefaultTimeout = 10 * time.Second

// NoLanguagesLabel is the placeholder shown when the translation service
// answers without a usable language list.
const NoLanguagesLabel = "No languages available"

// ErrNoLanguages accompanies the NoLanguages sentinel.
var ErrNoLanguages = errors.New("no languages available")

// NoLanguages returns the sentinel language list.
func NoLanguages() []string {
	return []string{NoLanguagesLabel}
}

// DiscoveryError reports that a catalog endpoint could not be used.
type DiscoveryError struct {
	Op      string
	Address string
	Err     error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery %s at %s: %v", e.Op, e.Address, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

var cloudModels = []string{"gpt-4o-mini", "gpt-4o"}

// CloudModels returns the preset models offered for the cloud backend.
func CloudModels() []string {
	return append([]string(nil), cloudModels...)
}

// Client performs discovery requests.
type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

func NewClient(timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewClientWithHTTP(translation.NewHTTPClient(timeout, logger), logger)
}

// NewClientWithHTTP uses an existing resty client.
func NewClientWithHTTP(httpClient *resty.Client, logger zerolog.Logger) *Client {
	return &Client{
		http:   httpClient,
		logger: logger.With().Str("component", "discovery").Logger(),
	}
}

var defaultClient = NewClient(DefaultTimeout, zerolog.Nop())

// ListModels uses a default client. See Client.ListModels.
func ListModels(ctx context.Context, address string) ([]string, error) {
	return defaultClient.ListModels(ctx, address)
}

// ListLanguages uses a default client. See Client.ListLanguages.
func ListLanguages(ctx context.Context, address string, policy translation.FallbackPolicy) ([]string, error) {
	return defaultClient.ListLanguages(ctx, address, policy)
}

// ListModels returns the model names served at address, in catalog order.
// On any failure it returns an empty, non-nil slice and a *DiscoveryError.
func (c *Client) ListModels(ctx context.Context, address string) ([]string, error) {
	fail := func(err error) ([]string, error) {
		c.logger.Warn().Err(err).Str("address", address).Msg("list models failed")
		return []string{}, &DiscoveryError{Op: "list models", Address: address, Err: err}
	}

	resp, err := c.http.R().SetContext(ctx).Get(translation.ServiceURL("http", address, "/api/tags"))
	if err != nil {
		return fail(err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fail(fmt.Errorf("unexpected status %d", resp.StatusCode()))
	}

	var catalog modelCatalog
	if err := decodeValidated(resp.Body(), modelsSchema, &catalog); err != nil {
		return fail(err)
	}

	models := make([]string, 0, len(catalog.Models))
	for _, model := range catalog.Models {
		models = append(models, model.Name)
	}
	return models, nil
}

// ListLanguages returns the language codes offered at address. HTTPS is
// tried first and plain HTTP afterwards as policy permits. A non-200 answer
// yields NoLanguages with ErrNoLanguages; an unreachable service yields an
// empty slice and a *DiscoveryError.
func (c *Client) ListLanguages(ctx context.Context, address string, policy translation.FallbackPolicy) ([]string, error) {
	if policy == "" {
		policy = translation.FallbackOnTransport
	}

	resp, err := c.getLanguages(ctx, "https", address)
	transportFailure := err != nil
	if (transportFailure || resp.StatusCode() != http.StatusOK) && ctx.Err() == nil && policy.Allows(transportFailure) {
		c.logger.Warn().
			Err(err).
			Str("address", address).
			Str("policy", string(policy)).
			Msg("secure language lookup failed, retrying over plain http")
		translation.RecordInsecureFallback("languages")
		resp, err = c.getLanguages(ctx, "http", address)
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("address", address).Msg("list languages failed")
		return []string{}, &DiscoveryError{Op: "list languages", Address: address, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		c.logger.Info().Int("status", resp.StatusCode()).Str("address", address).Msg("language list unavailable")
		return NoLanguages(), &DiscoveryError{
			Op:      "list languages",
			Address: address,
			Err:     fmt.Errorf("%w: status %d", ErrNoLanguages, resp.StatusCode()),
		}
	}

	var entries []languageEntry
	if err := decodeValidated(resp.Body(), languagesSchema, &entries); err != nil {
		return []string{}, &DiscoveryError{Op: "list languages", Address: address, Err: err}
	}
	codes := make([]string, 0, len(entries))
	for _, entry := range entries {
		codes = append(codes, strings.TrimSpace(entry.Code))
	}
	return codes, nil
}

func (c *Client) getLanguages(ctx context.Context, scheme, address string) (*resty.Response, error) {
	return c.http.R().SetContext(ctx).Get(translation.ServiceURL(scheme, address, "/languages"))
}
