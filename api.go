// Package snapsolve orchestrates multi-provider AI requests for a
// screenshot-driven coding assistant: problem extraction, solution
// generation, debugging feedback, and conversation answers. Screen
// capture, audio, and UI stay behind the narrow collaborator
// interfaces defined here.
package snapsolve

import (
	"log/slog"

	"github.com/tobyv/snapsolve/internal/config"
	"github.com/tobyv/snapsolve/internal/parse"
	"github.com/tobyv/snapsolve/internal/prompt"
)

// Config is the live configuration service handed to New. Use NewConfig
// to build one from a YAML file.
type Config = config.Service

// Settings is one immutable configuration snapshot.
type Settings = config.Settings

// NewConfig loads configuration from path, or from SNAPSOLVE_CONFIG_PATH
// / ./config.yaml when path is empty.
func NewConfig(path string, logger *slog.Logger) (*Config, error) {
	return config.NewService(path, logger)
}

// ProblemInfo is the structured result of the extraction step.
type ProblemInfo = parse.ProblemInfo

// SolutionResponse is the parsed solution payload.
type SolutionResponse = parse.SolutionResponse

// DebugResponse is the parsed debugging payload.
type DebugResponse = parse.DebugResponse

// PromptBundle is one system/user prompt pair.
type PromptBundle = prompt.Bundle

// View is the UI surface the user currently looks at; it selects which
// pipeline a process request runs.
type View string

const (
	ViewQueue     View = "queue"
	ViewSolutions View = "solutions"
)

// Event names are an external contract with the rendering layer and
// must remain stable.
const (
	EventInitialStart       = "initial-start"
	EventProblemExtracted   = "problem-extracted"
	EventSolutionSuccess    = "solution-success"
	EventSolutionError      = "initial-solution-error"
	EventDebugStart         = "debug-start"
	EventDebugSuccess       = "debug-success"
	EventDebugError         = "debug-error"
	EventProcessingStatus   = "processing-status"
	EventNoScreenshots      = "no-screenshots"
	EventAPIKeyInvalid      = "api-key-invalid"
	EventProcessingCanceled = "processing-canceled"
)

// StatusPayload accompanies EventProcessingStatus.
type StatusPayload struct {
	Message  string `json:"message"`
	Progress int    `json:"progress"`
}

// EventSink receives the orchestrator's progress and result events.
type EventSink interface {
	Emit(name string, payload any)
}

// ScreenshotProvider is the external screenshot subsystem. Paths may
// have gone stale; the orchestrator filters missing files.
type ScreenshotProvider interface {
	Queue() []string
	ExtraQueue() []string
	Preview(path string) (string, error)
	ClearExtraQueue()
}

// ConversationProvider hands back the conversation transcript as opaque
// text, or "" when there is none.
type ConversationProvider interface {
	History() string
}

// Result is the discriminated outcome used at every orchestration
// boundary so callers can render partial failure without crashing.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ok wraps data in a successful Result.
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail wraps an error message in a failed Result.
func Fail[T any](msg string) Result[T] {
	return Result[T]{Success: false, Error: msg}
}
