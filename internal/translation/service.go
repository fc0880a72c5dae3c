package translation

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Kind identifies one of the supported backend families.
type Kind string

const (
	KindCloudChat Kind = "cloud_chat"
	KindLocalChat Kind = "local_chat"
	KindDedicated Kind = "dedicated"
)

func (k Kind) String() string { return string(k) }

// Backend translates one piece of text. Implementations return a
// *TranslateError on failure and never panic; deciding what to do with a
// failed cell is left to the caller.
type Backend interface {
	Translate(ctx context.Context, text, prompt string) (string, error)
	Kind() Kind
	Name() string
}

// DefaultRequestTimeout bounds a single backend round-trip.
const DefaultRequestTimeout = 2 * time.Minute

// Options carries construction-time dependencies shared by all adapters.
type Options struct {
	Logger  zerolog.Logger
	Timeout time.Duration
	// Client overrides the HTTP client, mainly for tests.
	Client *resty.Client
	// DetectLanguage returns an ISO 639-1 code for text, or "" when unsure.
	DetectLanguage func(text string) string
}

func (o Options) httpClient() *resty.Client {
	if o.Client != nil {
		return o.Client
	}
	return NewHTTPClient(o.Timeout, o.Logger)
}
