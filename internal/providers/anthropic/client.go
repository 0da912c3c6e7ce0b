// Package anthropic implements the Anthropic-compatible request
// adapter. Its context and image limits are tighter than the other
// providers', so 429 and capacity failures are mapped to actionable
// guidance before generic classification runs.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	apperr "github.com/tobyv/snapsolve/errors"
	"github.com/tobyv/snapsolve/internal/core"
	"github.com/tobyv/snapsolve/internal/models"
)

var messagesURL = "https://api.anthropic.com/v1/messages"

const apiVersion = "2023-06-01"

const (
	rateLimitMsg = "Claude API rate limit exceeded. Please wait a few minutes before trying again."
	capacityMsg  = "Your screenshots contain too much information for Claude. Switch to OpenAI or Gemini in settings, which can handle larger inputs."
)

type Client struct {
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter
}

func New(apiKey string, hc *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{apiKey: apiKey, httpClient: hc, logger: logger, limiter: rate.NewLimiter(10, 5)}
}

func (c *Client) Name() string { return string(models.Anthropic) }

type messagesRequest struct {
	Model       string           `json:"model"`
	MaxTokens   int              `json:"max_tokens"`
	System      string           `json:"system,omitempty"`
	Temperature *float32         `json:"temperature,omitempty"`
	Messages    []map[string]any `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (c *Client) Complete(ctx context.Context, req core.Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	payload := messagesRequest{
		Model:     req.Model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  []map[string]any{{"role": "user", "content": mapContent(req)}},
	}
	if req.Temperature > 0 {
		t := req.Temperature
		payload.Temperature = &t
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("anthropic marshal payload: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, messagesURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return "", classify(resp.StatusCode, string(b))
	}

	var mr messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return "", fmt.Errorf("anthropic decode response: %w", err)
	}
	for _, block := range mr.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic: %w", apperr.ErrEmptyResponse)
}

// classify applies the provider-specific failure shortcuts before the
// generic transport error shape.
func classify(status int, body string) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &apperr.UserMessageError{Msg: rateLimitMsg}
	case status == http.StatusRequestEntityTooLarge,
		strings.Contains(strings.ToLower(body), "token"):
		return &apperr.UserMessageError{Msg: capacityMsg}
	default:
		return &apperr.HTTPError{Status: status, Body: body}
	}
}

// mapContent interleaves text and base64 image blocks in one user
// message.
func mapContent(req core.Request) []any {
	content := make([]any, 0, 1+len(req.Images))
	content = append(content, map[string]any{"type": "text", "text": req.User})
	for _, img := range req.Images {
		content = append(content, map[string]any{
			"type": "image",
			"source": map[string]any{
				"type":       "base64",
				"media_type": "image/png",
				"data":       img,
			},
		})
	}
	return content
}
