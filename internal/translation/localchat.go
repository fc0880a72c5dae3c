package translation

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// LocalChat translates through a self-hosted chat server (Ollama API).
type LocalChat struct {
	cfg      LocalChatConfig
	endpoint string
	client   *resty.Client
	logger   zerolog.Logger
}

func NewLocalChat(cfg LocalChatConfig, opts Options) *LocalChat {
	return &LocalChat{
		cfg:      cfg,
		endpoint: ServiceURL("http", cfg.Address, "/api/chat"),
		client:   opts.httpClient(),
		logger:   opts.Logger.With().Str("backend", string(KindLocalChat)).Logger(),
	}
}

func (c *LocalChat) Kind() Kind   { return KindLocalChat }
func (c *LocalChat) Name() string { return string(KindLocalChat) + ":" + c.cfg.Model }

func (c *LocalChat) Translate(ctx context.Context, text, prompt string) (out string, err error) {
	started := time.Now()
	defer func() { observeRequest(KindLocalChat, err, started) }()

	status, body, err := postJSON(ctx, c.client.R(), c.endpoint, localChatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: text},
		},
		Stream: false,
	})
	if err != nil {
		return "", transportError(KindLocalChat, err)
	}
	if status != http.StatusOK {
		return "", statusError(KindLocalChat, status, string(body))
	}

	var parsed localChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", decodeError(KindLocalChat, err)
	}
	translated := strings.TrimSpace(parsed.Message.Content)
	if translated == "" {
		return "", emptyError(KindLocalChat)
	}
	return translated, nil
}

type localChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type localChatResponse struct {
	Message chatMessage `json:"message"`
}
