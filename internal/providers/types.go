package providers

import "github.com/tobyv/snapsolve/internal/core"

// Request is the provider-agnostic completion request.
type Request = core.Request

// Client is implemented by provider adapters.
type Client = core.Client

// Settings carries the per-provider credentials and endpoint overrides
// an adapter needs.
type Settings struct {
	APIKey      string
	BaseURL     string
	CustomModel string
}
