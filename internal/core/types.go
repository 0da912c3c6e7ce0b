// Package core holds the provider-agnostic request types shared by the
// adapter subpackages and the dispatch layer above them.
package core

import "context"

// Request is one normalized completion request. Images are
// base64-encoded PNG bytes, borrowed read-only from the caller for the
// duration of the request.
type Request struct {
	System      string
	User        string
	Images      []string
	Model       string
	Temperature float32
	MaxTokens   int
}

// Client is implemented by provider adapters. Complete returns the raw
// response text; failures surface as provider-native error values for
// the error normalizer to classify.
type Client interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// PNGDataURL prefixes a base64 payload with the PNG data-URL scheme.
func PNGDataURL(b64 string) string {
	return "data:image/png;base64," + b64
}
