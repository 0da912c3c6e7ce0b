// Package errors holds the sentinel values and the provider error
// normalization used at every catch site of the orchestration core.
package errors

import (
	"context"
	stderr "errors"
	"fmt"
)

var (
	ErrNoScreenshots   = stderr.New("no screenshots to process")
	ErrNotConfigured   = stderr.New("provider not configured")
	ErrEmptyResponse   = stderr.New("empty response from provider")
	ErrCanceled        = stderr.New("request canceled by user")
	ErrUnknownProvider = stderr.New("unknown provider")
)

// HTTPError wraps a non-2xx provider response so callers can classify
// by status code.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// UserMessageError carries guidance already worded for the end user.
// The orchestrator surfaces Msg verbatim instead of running generic
// classification.
type UserMessageError struct {
	Msg string
}

func (e *UserMessageError) Error() string { return e.Msg }

// ProviderError is the normalized view over an unknown thrown value.
// Status pointers distinguish "absent" from a present zero status.
type ProviderError struct {
	Status   *int
	Message  string
	Response struct {
		Status *int
		Data   struct {
			Error struct {
				Message string
			}
		}
	}
}

// AsProviderError narrows an arbitrary value into ProviderError.
// It is total: any input it cannot interpret yields the zero value.
func AsProviderError(v any) ProviderError {
	var pe ProviderError
	switch val := v.(type) {
	case nil:
		return pe
	case ProviderError:
		return val
	case *ProviderError:
		if val != nil {
			return *val
		}
		return pe
	case map[string]any:
		fromMap(&pe, val)
		return pe
	case error:
		fromError(&pe, val)
		return pe
	default:
		return pe
	}
}

func fromError(pe *ProviderError, err error) {
	var he *HTTPError
	if stderr.As(err, &he) {
		s := he.Status
		pe.Status = &s
	}
	pe.Message = err.Error()
}

func fromMap(pe *ProviderError, m map[string]any) {
	if s, ok := numberField(m, "status"); ok {
		pe.Status = &s
	}
	if msg, ok := m["message"].(string); ok {
		pe.Message = msg
	}
	resp, ok := m["response"].(map[string]any)
	if !ok {
		return
	}
	if s, ok := numberField(resp, "status"); ok {
		pe.Response.Status = &s
	}
	data, ok := resp["data"].(map[string]any)
	if !ok {
		return
	}
	errObj, ok := data["error"].(map[string]any)
	if !ok {
		return
	}
	if msg, ok := errObj["message"].(string); ok {
		pe.Response.Data.Error.Message = msg
	}
}

func numberField(m map[string]any, key string) (int, bool) {
	switch n := m[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// StatusOf resolves the effective status: top-level first, then nested.
// A present zero still counts.
func (pe ProviderError) StatusOf() (int, bool) {
	if pe.Status != nil {
		return *pe.Status, true
	}
	if pe.Response.Status != nil {
		return *pe.Response.Status, true
	}
	return 0, false
}

// MessageOf resolves the effective message, falling back to "Unknown error".
func (pe ProviderError) MessageOf() string {
	if pe.Message != "" {
		return pe.Message
	}
	if pe.Response.Data.Error.Message != "" {
		return pe.Response.Data.Error.Message
	}
	return "Unknown error"
}

// FormatProviderError renders a provider-tagged failure line. The status
// parenthetical is omitted only when no numeric status was found at all.
func FormatProviderError(provider string, v any, opContext string) string {
	pe := AsProviderError(v)
	msg := pe.MessageOf()
	if status, ok := pe.StatusOf(); ok {
		return fmt.Sprintf("[%s] %s failed (status %d): %s", provider, opContext, status, msg)
	}
	return fmt.Sprintf("[%s] %s failed: %s", provider, opContext, msg)
}

// Describe turns a provider failure into the user-facing message,
// adding bucket guidance for auth, rate-limit, and server-side errors.
func Describe(provider string, err error, opContext string) string {
	var ume *UserMessageError
	if stderr.As(err, &ume) {
		return ume.Msg
	}
	base := FormatProviderError(provider, err, opContext)
	pe := AsProviderError(err)
	status, ok := pe.StatusOf()
	if !ok {
		return base
	}
	switch {
	case status == 401 || status == 403:
		return base + " Authentication failed - please check your API key in settings."
	case status == 429:
		return base + " Rate limit exceeded - please wait a moment before retrying."
	case status >= 500:
		return base + " The provider appears to be having issues - please try again later."
	}
	return base
}

// Message returns err.Error() when available, else the fallback.
// Used on generic, non-provider-tagged failure paths.
func Message(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}

// IsCanceled reports whether err stems from a user abort, including
// context cancellation observed by an in-flight HTTP call.
func IsCanceled(err error) bool {
	return stderr.Is(err, ErrCanceled) || stderr.Is(err, context.Canceled)
}
