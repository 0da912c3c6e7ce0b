// Package openai implements the OpenAI-compatible request adapter. Two
// request-shape variants exist: the official endpoint takes chat
// content parts (text / image_url), while custom base URLs get the
// alternate input_text / input_image part scheme some compatible
// endpoints require.
package openai

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

type Client struct {
	apiKey      string
	baseURL     string
	customModel string
	httpClient  *http.Client
	logger      *slog.Logger
	limiter     *rate.Limiter
}

func New(apiKey, baseURL, customModel string, hc *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		customModel: customModel,
		httpClient:  hc,
		logger:      logger,
		limiter:     rate.NewLimiter(10, 5),
	}
}

func (c *Client) Name() string { return string(models.OpenAI) }

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []map[string]any `json:"messages"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature *float32         `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) Complete(ctx context.Context, req core.Request) (string, error) {
	model := models.ResolveOpenAIModel(req.Model, c.customModel, c.baseURL)
	payload := chatRequest{
		Model:     model,
		Messages:  c.mapMessages(req),
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature > 0 && models.ShouldSendTemperature(c.baseURL) {
		t := req.Temperature
		payload.Temperature = &t
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("openai marshal payload: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint()+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return "", &apperr.HTTPError{Status: resp.StatusCode, Body: string(b)}
	}

	var rr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return "", fmt.Errorf("openai decode response: %w", err)
	}
	text := contentText(rr)
	if text == "" {
		return "", fmt.Errorf("openai: %w", apperr.ErrEmptyResponse)
	}
	return text, nil
}

func (c *Client) endpoint() string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return models.OfficialOpenAIBaseURL
}

func (c *Client) mapMessages(req core.Request) []map[string]any {
	msgs := make([]map[string]any, 0, 2)
	if req.System != "" {
		msgs = append(msgs, map[string]any{"role": "system", "content": req.System})
	}
	custom := c.baseURL != "" && c.baseURL != models.OfficialOpenAIBaseURL
	parts := make([]any, 0, 1+len(req.Images))
	if custom {
		parts = append(parts, map[string]any{"type": "input_text", "text": req.User})
		for _, img := range req.Images {
			parts = append(parts, map[string]any{"type": "input_image", "image_url": core.PNGDataURL(img)})
		}
	} else {
		parts = append(parts, map[string]any{"type": "text", "text": req.User})
		for _, img := range req.Images {
			parts = append(parts, map[string]any{
				"type":      "image_url",
				"image_url": map[string]any{"url": core.PNGDataURL(img)},
			})
		}
	}
	msgs = append(msgs, map[string]any{"role": "user", "content": parts})
	return msgs
}

func contentText(rr chatResponse) string {
	if len(rr.Choices) == 0 {
		return ""
	}
	switch v := rr.Choices[0].Message.Content.(type) {
	case string:
		return v
	case []any:
		// concatenate text parts
		var acc string
		for _, p := range v {
			m, ok := p.(map[string]any)
			if !ok || m["type"] != "text" {
				continue
			}
			if s, ok := m["text"].(string); ok {
				if acc == "" {
					acc = s
				} else {
					acc += "\n" + s
				}
			}
		}
		return acc
	default:
		return ""
	}
}
