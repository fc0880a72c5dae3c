package translation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// CloudChat translates through a hosted chat-completion API.
type CloudChat struct {
	cfg      CloudChatConfig
	endpoint string
	client   *resty.Client
	logger   zerolog.Logger
}

func NewCloudChat(cfg CloudChatConfig, opts Options) *CloudChat {
	return &CloudChat{
		cfg:      cfg,
		endpoint: chatCompletionsURL(cfg.BaseURL),
		client:   opts.httpClient(),
		logger:   opts.Logger.With().Str("backend", string(KindCloudChat)).Logger(),
	}
}

func (c *CloudChat) Kind() Kind   { return KindCloudChat }
func (c *CloudChat) Name() string { return string(KindCloudChat) + ":" + c.cfg.Model }

// Translate sends a single user message "{prompt}: {text}" and returns the
// first choice's content.
func (c *CloudChat) Translate(ctx context.Context, text, prompt string) (out string, err error) {
	started := time.Now()
	defer func() { observeRequest(KindCloudChat, err, started) }()

	status, body, err := postJSON(ctx, c.client.R().SetAuthToken(c.cfg.APIKey), c.endpoint, cloudChatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt + ": " + text},
		},
	})
	if err != nil {
		return "", transportError(KindCloudChat, err)
	}
	if status < 200 || status >= 300 {
		var errPayload cloudChatErrorResponse
		if json.Unmarshal(body, &errPayload) == nil {
			if msg := strings.TrimSpace(errPayload.Error.Message); msg != "" {
				return "", statusError(KindCloudChat, status, msg)
			}
		}
		return "", statusError(KindCloudChat, status, string(body))
	}

	var parsed cloudChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", decodeError(KindCloudChat, err)
	}
	if len(parsed.Choices) == 0 {
		return "", decodeError(KindCloudChat, errors.New("response missing choices"))
	}
	translated := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if translated == "" {
		return "", emptyError(KindCloudChat)
	}
	return translated, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type cloudChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type cloudChatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type cloudChatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// postJSON sends payload and hands back the raw status and body. A non-nil
// error means no HTTP response was received.
func postJSON(ctx context.Context, req *resty.Request, url string, payload any) (int, []byte, error) {
	resp, err := req.
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(url)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode(), resp.Body(), nil
}
