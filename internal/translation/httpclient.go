package translation

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// NewHTTPClient returns the resty client used by every adapter. Retries stay
// disabled: each cell gets exactly one attempt per transport.
func NewHTTPClient(timeout time.Duration, logger zerolog.Logger) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{logger: logger})
}

type restyLogger struct {
	logger zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error().Str("component", "http").Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn().Str("component", "http").Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug().Str("component", "http").Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// HostAddress reduces "host:port", "http://host:port/" or "https://host" to
// the bare host[:port] so callers can choose the scheme themselves.
func HostAddress(raw string) string {
	address := strings.TrimSpace(raw)
	if address == "" {
		return ""
	}
	if strings.Contains(address, "://") {
		if parsed, err := url.Parse(address); err == nil && parsed.Host != "" {
			return parsed.Host
		}
	}
	return strings.TrimRight(address, "/")
}

// ServiceURL joins scheme, address and path, e.g. ("https", "host:5000", "/translate").
func ServiceURL(scheme, address, path string) string {
	return scheme + "://" + HostAddress(address) + path
}

// chatCompletionsURL accepts either an API root (".../v1") or a full
// ".../chat/completions" URL.
func chatCompletionsURL(base string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		trimmed = DefaultCloudBaseURL
	}
	if strings.HasSuffix(trimmed, "/chat/completions") {
		return trimmed
	}
	return trimmed + "/chat/completions"
}
