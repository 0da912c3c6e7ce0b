// Package models is the single source of truth for valid provider/model
// combinations and per-category defaults.
package models

import (
	"log/slog"
	"strings"
)

type Provider string

const (
	OpenAI    Provider = "openai"
	Gemini    Provider = "gemini"
	Anthropic Provider = "anthropic"
)

// Category selects which default model and prompt template applies.
type Category string

const (
	Extraction Category = "extraction"
	Solution   Category = "solution"
	Debugging  Category = "debugging"
	Answer     Category = "answer"
)

// OfficialOpenAIBaseURL is the endpoint for which the temperature
// parameter is known to be accepted.
const OfficialOpenAIBaseURL = "https://api.openai.com/v1"

// Legacy default ids that self-hosted/proxy endpoints commonly no
// longer serve; substituted when a custom base URL is configured.
const (
	legacyOpenAIModel     = "gpt-4o"
	legacyOpenAIModelMini = "gpt-4o-mini"
	customEndpointModel   = "gpt-4.1-mini"
)

var allowed = map[Provider][]string{
	OpenAI:    {"gpt-4o", "gpt-4o-mini", "gpt-4.1", "gpt-4.1-mini"},
	Gemini:    {"gemini-2.0-flash", "gemini-1.5-pro", "gemini-1.5-flash"},
	Anthropic: {"claude-3-7-sonnet-20250219", "claude-3-5-sonnet-20241022", "claude-3-opus-20240229"},
}

var defaults = map[Provider]map[Category]string{
	OpenAI: {
		Extraction: "gpt-4o",
		Solution:   "gpt-4o",
		Debugging:  "gpt-4o",
		Answer:     "gpt-4o-mini",
	},
	Gemini: {
		Extraction: "gemini-2.0-flash",
		Solution:   "gemini-2.0-flash",
		Debugging:  "gemini-2.0-flash",
		Answer:     "gemini-2.0-flash",
	},
	Anthropic: {
		Extraction: "claude-3-7-sonnet-20250219",
		Solution:   "claude-3-7-sonnet-20250219",
		Debugging:  "claude-3-7-sonnet-20250219",
		Answer:     "claude-3-5-sonnet-20241022",
	},
}

// Valid reports whether p is one of the three supported providers.
func Valid(p Provider) bool {
	_, ok := allowed[p]
	return ok
}

// Allowed reports whether model is on p's allow-list.
func Allowed(p Provider, model string) bool {
	for _, m := range allowed[p] {
		if m == model {
			return true
		}
	}
	return false
}

// Default returns p's default model id for the category. Unknown
// providers fall back to the OpenAI table so the result is always a
// usable id.
func Default(p Provider, c Category) string {
	table, ok := defaults[p]
	if !ok {
		table = defaults[OpenAI]
	}
	if m, ok := table[c]; ok {
		return m
	}
	return table[Solution]
}

// Sanitize returns model unchanged when it is on p's allow-list,
// otherwise warns and returns p's default for the category. Total and
// idempotent.
func Sanitize(model string, p Provider, c Category, logger *slog.Logger) string {
	if Allowed(p, model) {
		return model
	}
	def := Default(p, c)
	if model != "" && logger != nil {
		logger.Warn("invalid model selection replaced",
			slog.String("provider", string(p)),
			slog.String("category", string(c)),
			slog.String("selected", model),
			slog.String("default", def),
		)
	}
	return def
}

// ResolveOpenAIModel applies the OpenAI-compatible resolution policy:
// a configured custom model always wins; with a custom base URL the two
// legacy default ids are substituted by a model the proxy still serves.
func ResolveOpenAIModel(selected, customModel, baseURL string) string {
	if m := strings.TrimSpace(customModel); m != "" {
		return m
	}
	if hasCustomBaseURL(baseURL) && (selected == legacyOpenAIModel || selected == legacyOpenAIModelMini) {
		return customEndpointModel
	}
	return selected
}

// ShouldSendTemperature reports whether the temperature parameter may
// be included; some compatible endpoints reject it.
func ShouldSendTemperature(baseURL string) bool {
	return !hasCustomBaseURL(baseURL)
}

func hasCustomBaseURL(baseURL string) bool {
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	return u != "" && u != OfficialOpenAIBaseURL
}
