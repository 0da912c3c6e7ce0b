// Package gemini implements the Gemini request adapter: a direct HTTP
// POST to the model-templated generateContent URL with the API key as a
// query parameter.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	apperr "github.com/tobyv/snapsolve/errors"
	"github.com/tobyv/snapsolve/internal/core"
	"github.com/tobyv/snapsolve/internal/models"
)

var endpointTemplate = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s"

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

func (c *Client) Name() string { return string(models.Gemini) }

type generateRequest struct {
	Contents         []map[string]any `json:"contents"`
	GenerationConfig map[string]any   `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) Complete(ctx context.Context, req core.Request) (string, error) {
	payload := generateRequest{
		Contents:         []map[string]any{{"role": "user", "parts": mapParts(req)}},
		GenerationConfig: map[string]any{},
	}
	if req.MaxTokens > 0 {
		payload.GenerationConfig["maxOutputTokens"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		payload.GenerationConfig["temperature"] = req.Temperature
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini marshal payload: %w", err)
	}
	url := fmt.Sprintf(endpointTemplate, req.Model, c.apiKey)

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
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

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("gemini decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: %w", apperr.ErrEmptyResponse)
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

// mapParts interleaves the prompt text and inlineData entries in one
// user message. Gemini has no separate system role here, so the system
// text is prepended to the user text.
func mapParts(req core.Request) []any {
	text := req.User
	if req.System != "" {
		text = req.System + "\n\n" + req.User
	}
	parts := make([]any, 0, 1+len(req.Images))
	parts = append(parts, map[string]any{"text": text})
	for _, img := range req.Images {
		parts = append(parts, map[string]any{
			"inlineData": map[string]any{
				"mimeType": "image/png",
				"data":     img,
			},
		})
	}
	return parts
}
