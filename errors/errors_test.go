package errors

import (
	"context"
	stderr "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAsProviderError_NonObjectInput(t *testing.T) {
	for _, v := range []any{"boom", 42, nil, []any{"x"}, true} {
		pe := AsProviderError(v)
		if pe.Status != nil || pe.Message != "" || pe.Response.Status != nil {
			t.Fatalf("expected zero ProviderError for %v, got %+v", v, pe)
		}
	}
}

func TestAsProviderError_Map(t *testing.T) {
	pe := AsProviderError(map[string]any{"status": 1})
	if pe.Status == nil || *pe.Status != 1 {
		t.Fatalf("expected status 1, got %+v", pe)
	}

	pe = AsProviderError(map[string]any{
		"response": map[string]any{
			"status": float64(429),
			"data": map[string]any{
				"error": map[string]any{"message": "quota"},
			},
		},
	})
	if pe.Response.Status == nil || *pe.Response.Status != 429 {
		t.Fatalf("expected nested status 429, got %+v", pe)
	}
	if pe.Response.Data.Error.Message != "quota" {
		t.Fatalf("expected nested message quota, got %+v", pe)
	}
}

func TestAsProviderError_HTTPError(t *testing.T) {
	pe := AsProviderError(fmt.Errorf("request: %w", &HTTPError{Status: 500, Body: "oops"}))
	if pe.Status == nil || *pe.Status != 500 {
		t.Fatalf("expected status 500, got %+v", pe)
	}
	if pe.Message == "" {
		t.Fatal("expected message to carry the error text")
	}
}

func TestFormatProviderError_NestedStatusAndMessage(t *testing.T) {
	got := FormatProviderError("openai", map[string]any{
		"response": map[string]any{
			"status": 429,
			"data": map[string]any{
				"error": map[string]any{"message": "quota"},
			},
		},
	}, "Processing screenshots")
	want := "[openai] Processing screenshots failed (status 429): quota"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatProviderError_ZeroStatusStillRenders(t *testing.T) {
	got := FormatProviderError("gemini", map[string]any{"status": 0, "message": "dead socket"}, "Extracting problem")
	want := "[gemini] Extracting problem failed (status 0): dead socket"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatProviderError_NoStatusOmitsParenthetical(t *testing.T) {
	got := FormatProviderError("anthropic", map[string]any{"message": "nope"}, "Generating solution")
	want := "[anthropic] Generating solution failed: nope"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatProviderError_UnknownMessageFallback(t *testing.T) {
	got := FormatProviderError("openai", map[string]any{"status": 500}, "Processing screenshots")
	want := "[openai] Processing screenshots failed (status 500): Unknown error"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDescribe_Buckets(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{401, "Authentication failed"},
		{429, "Rate limit exceeded"},
		{503, "having issues"},
	}
	for _, tt := range tests {
		msg := Describe("openai", &HTTPError{Status: tt.status, Body: "x"}, "Processing screenshots")
		if !containsAll(msg, "[openai]", tt.want) {
			t.Fatalf("status %d: message %q missing %q", tt.status, msg, tt.want)
		}
	}
}

func TestDescribe_UserMessagePassthrough(t *testing.T) {
	err := fmt.Errorf("anthropic: %w", &UserMessageError{Msg: "Please switch provider."})
	if got := Describe("anthropic", err, "Processing screenshots"); got != "Please switch provider." {
		t.Fatalf("got %q", got)
	}
}

func TestMessage(t *testing.T) {
	if got := Message(stderr.New("boom"), "fallback"); got != "boom" {
		t.Fatalf("got %q", got)
	}
	if got := Message(nil, "fallback"); got != "fallback" {
		t.Fatalf("got %q", got)
	}
}

func TestIsCanceled(t *testing.T) {
	if !IsCanceled(context.Canceled) {
		t.Fatal("context.Canceled should count as canceled")
	}
	if !IsCanceled(fmt.Errorf("wrap: %w", ErrCanceled)) {
		t.Fatal("wrapped ErrCanceled should count as canceled")
	}
	if IsCanceled(stderr.New("other")) {
		t.Fatal("unrelated error must not count as canceled")
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
