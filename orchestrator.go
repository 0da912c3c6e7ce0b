package snapsolve

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperr "github.com/tobyv/snapsolve/errors"
	"github.com/tobyv/snapsolve/internal/config"
	"github.com/tobyv/snapsolve/internal/models"
	"github.com/tobyv/snapsolve/internal/parse"
	"github.com/tobyv/snapsolve/internal/prompt"
	"github.com/tobyv/snapsolve/internal/providers"
)

const (
	defaultTemperature = 0.2
	maxConcurrentReads = 4

	canceledMsg   = "Processing was canceled by the user."
	parseFailMsg  = "Failed to parse problem information. Please try again or use clearer screenshots."
	noHistoryMsg  = "No conversation context available yet."
	opExtract     = "Processing screenshots"
	opSolve       = "Generating solution"
	opDebug       = "Processing debug screenshots"
	opAnswer      = "Generating answer"
)

var providerDisplayName = map[models.Provider]string{
	models.OpenAI:    "OpenAI",
	models.Gemini:    "Gemini",
	models.Anthropic: "Claude",
}

// opToken is one cancellation handle; starting a same-kind operation
// supersedes the previous token rather than queueing behind it.
type opToken struct {
	cancel context.CancelFunc
}

// Orchestrator coordinates the extract/solve and debug pipelines across
// the configured provider. It owns the provider client handles and the
// two abort tokens; no other component mutates them.
type Orchestrator struct {
	cfg     *config.Service
	screens ScreenshotProvider
	conv    ConversationProvider
	sink    EventSink

	logger     *slog.Logger
	httpClient *http.Client

	mu          sync.Mutex
	clients     map[models.Provider]providers.Client
	mainOp      *opToken
	debugOp     *opToken
	view        View
	problemInfo *ProblemInfo
	hasDebugged bool

	unsubscribe func()
}

// Option allows functional configuration.
type Option func(*Orchestrator)

// WithLogger sets a custom slog logger.
func WithLogger(l *slog.Logger) Option { return func(o *Orchestrator) { o.logger = l } }

// WithHTTPClient sets a custom http.Client shared by all providers.
func WithHTTPClient(c *http.Client) Option { return func(o *Orchestrator) { o.httpClient = c } }

// New builds an Orchestrator around the given collaborators. It
// subscribes to config updates; cached provider clients are dropped so
// the next operation re-initializes them lazily.
func New(cfg *config.Service, screens ScreenshotProvider, conv ConversationProvider, sink EventSink, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		screens:    screens,
		conv:       conv,
		sink:       sink,
		logger:     slog.Default(),
		httpClient: &http.Client{Timeout: 120 * time.Second},
		clients:    make(map[models.Provider]providers.Client),
		view:       ViewQueue,
	}
	for _, fn := range opts {
		fn(o)
	}
	o.unsubscribe = cfg.Subscribe(func(config.Settings) {
		o.mu.Lock()
		o.clients = make(map[models.Provider]providers.Client)
		o.mu.Unlock()
		o.logger.Info("config updated, provider clients reset")
	})
	return o
}

// Close detaches the orchestrator from config notifications and aborts
// any in-flight work.
func (o *Orchestrator) Close() {
	if o.unsubscribe != nil {
		o.unsubscribe()
	}
	o.CancelProcessing()
}

// SetView records which UI surface is active; it selects the pipeline
// the next process request runs.
func (o *Orchestrator) SetView(v View) {
	o.mu.Lock()
	o.view = v
	o.mu.Unlock()
}

// View returns the active UI surface.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view
}

// ProblemInfo returns the last extracted problem info, or nil.
func (o *Orchestrator) ProblemInfo() *ProblemInfo {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.problemInfo
}

// HasDebugged reports whether a debug run has succeeded this session.
func (o *Orchestrator) HasDebugged() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hasDebugged
}

// CancelProcessing aborts both the main and the debug operation if one
// is in flight. The abort is cooperative: adapters observe it as a
// request cancellation.
func (o *Orchestrator) CancelProcessing() {
	o.mu.Lock()
	main, debug := o.mainOp, o.debugOp
	o.mu.Unlock()
	if main != nil {
		main.cancel()
	}
	if debug != nil {
		debug.cancel()
	}
}

// ProcessScreenshots runs the pipeline selected by the current view:
// extract then solve from the queue view, or a debug run from the
// solutions view when extra screenshots are present. The configuration
// is snapshotted once per run. Data carries a *SolutionResponse or
// *DebugResponse on success.
func (o *Orchestrator) ProcessScreenshots(ctx context.Context) Result[any] {
	st := o.cfg.Snapshot()
	view := o.View()

	if view == ViewSolutions {
		extra := existingFiles(o.screens.ExtraQueue())
		if len(extra) > 0 {
			return o.processDebug(ctx, st, extra)
		}
		// Nothing queued for debugging; fall through to the no-work signal.
		o.emit(EventNoScreenshots, nil)
		return Fail[any](apperr.ErrNoScreenshots.Error())
	}

	queue := existingFiles(o.screens.Queue())
	if len(queue) == 0 {
		o.emit(EventNoScreenshots, nil)
		return Fail[any](apperr.ErrNoScreenshots.Error())
	}
	return o.processMain(ctx, st, queue)
}

func (o *Orchestrator) processMain(parent context.Context, st config.Settings, queue []string) Result[any] {
	opID := uuid.NewString()
	ctx, tok := o.begin(&o.mainOp, parent)
	defer o.end(&o.mainOp, tok)

	o.emit(EventInitialStart, map[string]any{"operationId": opID})
	o.status("Processing screenshots...", 20)
	o.logger.Info("processing started",
		slog.String("operation_id", opID),
		slog.String("provider", st.APIProvider),
		slog.Int("screenshots", len(queue)),
	)

	images, err := o.loadImages(ctx, queue)
	if err != nil {
		return o.mainFailure(st, opExtract, err)
	}

	client, err := o.clientFor(st)
	if err != nil {
		return o.configFailure(st, err)
	}

	p := st.Provider()
	bundle := prompt.Extraction(st.Language, o.conv.History())
	raw, err := client.Complete(ctx, providers.Request{
		System:      bundle.System,
		User:        bundle.User,
		Images:      images,
		Model:       models.Sanitize(st.ModelFor(models.Extraction), p, models.Extraction, o.logger),
		Temperature: defaultTemperature,
		MaxTokens:   st.MaxOutputTokens,
	})
	if err != nil {
		return o.mainFailure(st, opExtract, err)
	}

	info := parse.ParseProblemInfo(raw)
	if info == nil {
		o.logger.Warn("extraction response not parseable", slog.String("operation_id", opID))
		return o.mainFailure(st, opExtract, &apperr.UserMessageError{Msg: parseFailMsg})
	}

	o.mu.Lock()
	o.problemInfo = info
	o.mu.Unlock()
	o.emit(EventProblemExtracted, info)
	o.status("Problem analyzed successfully. Preparing to generate solution...", 40)

	solBundle := prompt.Solution(info, st.Language)
	o.status("Creating optimal solution with detailed explanations...", 60)
	raw, err = client.Complete(ctx, providers.Request{
		System:      solBundle.System,
		User:        solBundle.User,
		Model:       models.Sanitize(st.ModelFor(models.Solution), p, models.Solution, o.logger),
		Temperature: defaultTemperature,
		MaxTokens:   st.MaxOutputTokens,
	})
	if err != nil {
		return o.mainFailure(st, opSolve, err)
	}

	solution := parse.ParseSolution(raw)

	// Stale debug-queue cleanup before signaling success.
	o.screens.ClearExtraQueue()
	o.status("Solution generated successfully", 100)
	o.emit(EventSolutionSuccess, &solution)
	o.logger.Info("processing finished", slog.String("operation_id", opID))
	return Ok[any](&solution)
}

func (o *Orchestrator) processDebug(parent context.Context, st config.Settings, extra []string) Result[any] {
	opID := uuid.NewString()
	ctx, tok := o.begin(&o.debugOp, parent)
	defer o.end(&o.debugOp, tok)

	o.emit(EventDebugStart, map[string]any{"operationId": opID})
	o.status("Processing debug screenshots...", 30)

	// Original queue gives the problem context, extra queue the code and
	// errors to debug.
	paths := append(existingFiles(o.screens.Queue()), extra...)
	images, err := o.loadImages(ctx, paths)
	if err != nil {
		return o.debugFailure(st, err)
	}

	client, err := o.clientFor(st)
	if err != nil {
		return o.configFailure(st, err)
	}

	p := st.Provider()
	bundle := prompt.Debug(o.ProblemInfo(), st.Language)
	o.status("Analyzing code and generating debug feedback...", 60)
	raw, err := client.Complete(ctx, providers.Request{
		System:      bundle.System,
		User:        bundle.User,
		Images:      images,
		Model:       models.Sanitize(st.ModelFor(models.Debugging), p, models.Debugging, o.logger),
		Temperature: defaultTemperature,
		MaxTokens:   st.MaxOutputTokens,
	})
	if err != nil {
		return o.debugFailure(st, err)
	}

	code := parse.ExtractCodeBlock(raw)
	resp := parse.BuildDebugResponse(code, raw)

	o.mu.Lock()
	o.hasDebugged = true
	o.mu.Unlock()
	o.status("Debug analysis complete", 100)
	o.emit(EventDebugSuccess, &resp)
	o.logger.Info("debug processing finished", slog.String("operation_id", opID))
	return Ok[any](&resp)
}

// GenerateAnswer drafts an interview answer from the conversation
// transcript using the answer-category model.
func (o *Orchestrator) GenerateAnswer(ctx context.Context) Result[string] {
	st := o.cfg.Snapshot()
	history := o.conv.History()
	if history == "" {
		return Fail[string](noHistoryMsg)
	}

	client, err := o.clientFor(st)
	if err != nil {
		o.emit(EventAPIKeyInvalid, nil)
		return Fail[string](notConfiguredMessage(st.Provider()))
	}

	bundle := prompt.Answer(history)
	text, err := client.Complete(ctx, providers.Request{
		System:      bundle.System,
		User:        bundle.User,
		Model:       models.Sanitize(st.ModelFor(models.Answer), st.Provider(), models.Answer, o.logger),
		Temperature: defaultTemperature,
		MaxTokens:   st.MaxOutputTokens,
	})
	if err != nil {
		if apperr.IsCanceled(err) {
			return Fail[string](canceledMsg)
		}
		return Fail[string](apperr.Describe(st.APIProvider, err, opAnswer))
	}
	return Ok(text)
}

// begin supersedes any in-flight operation of the same kind and
// installs a fresh abort token.
func (o *Orchestrator) begin(slot **opToken, parent context.Context) (context.Context, *opToken) {
	ctx, cancel := context.WithCancel(parent)
	tok := &opToken{cancel: cancel}
	o.mu.Lock()
	prev := *slot
	*slot = tok
	o.mu.Unlock()
	if prev != nil {
		prev.cancel()
	}
	return ctx, tok
}

// end releases the token unless a newer operation already superseded it.
func (o *Orchestrator) end(slot **opToken, tok *opToken) {
	tok.cancel()
	o.mu.Lock()
	if *slot == tok {
		*slot = nil
	}
	o.mu.Unlock()
}

// clientFor returns the cached client for the configured provider,
// initializing it lazily. A failed initialization is retried once
// against a fresh config snapshot before giving up.
func (o *Orchestrator) clientFor(st config.Settings) (providers.Client, error) {
	p := st.Provider()
	o.mu.Lock()
	c := o.clients[p]
	o.mu.Unlock()
	if c != nil {
		return c, nil
	}

	c, err := providers.New(p, o.providerSettings(st), o.httpClient, o.logger)
	if err != nil {
		st = o.cfg.Snapshot()
		p = st.Provider()
		c, err = providers.New(p, o.providerSettings(st), o.httpClient, o.logger)
		if err != nil {
			return nil, err
		}
	}

	o.mu.Lock()
	o.clients[p] = c
	o.mu.Unlock()
	return c, nil
}

func (o *Orchestrator) providerSettings(st config.Settings) providers.Settings {
	return providers.Settings{
		APIKey:      st.APIKey,
		BaseURL:     st.OpenAIBaseURL,
		CustomModel: st.OpenAICustomModel,
	}
}

// loadImages reads screenshot previews concurrently. A failed
// individual read is tolerated (that screenshot is dropped); the
// operation fails only when nothing remains.
func (o *Orchestrator) loadImages(ctx context.Context, paths []string) ([]string, error) {
	results := make([]string, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			data, err := o.screens.Preview(path)
			if err != nil {
				o.logger.Warn("screenshot read failed, dropping",
					slog.String("path", path),
					slog.String("error", err.Error()),
				)
				return nil
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	images := make([]string, 0, len(results))
	for _, r := range results {
		if r != "" {
			images = append(images, r)
		}
	}
	if len(images) == 0 {
		return nil, apperr.ErrNoScreenshots
	}
	return images, nil
}

func (o *Orchestrator) mainFailure(st config.Settings, opContext string, err error) Result[any] {
	msg := o.failureMessage(st, opContext, err)
	o.SetView(ViewQueue)
	if apperr.IsCanceled(err) {
		o.emit(EventProcessingCanceled, msg)
	} else {
		o.emit(EventSolutionError, msg)
	}
	return Fail[any](msg)
}

func (o *Orchestrator) debugFailure(st config.Settings, err error) Result[any] {
	msg := o.failureMessage(st, opDebug, err)
	if apperr.IsCanceled(err) {
		o.emit(EventProcessingCanceled, msg)
	} else {
		o.emit(EventDebugError, msg)
	}
	return Fail[any](msg)
}

// configFailure surfaces missing/invalid provider configuration with
// its dedicated UI signal, distinct from generic errors.
func (o *Orchestrator) configFailure(st config.Settings, err error) Result[any] {
	msg := notConfiguredMessage(st.Provider())
	o.logger.Warn("provider not configured",
		slog.String("provider", st.APIProvider),
		slog.String("error", err.Error()),
	)
	o.SetView(ViewQueue)
	o.emit(EventAPIKeyInvalid, msg)
	return Fail[any](msg)
}

func (o *Orchestrator) failureMessage(st config.Settings, opContext string, err error) string {
	if apperr.IsCanceled(err) {
		return canceledMsg
	}
	return apperr.Describe(st.APIProvider, err, opContext)
}

func notConfiguredMessage(p models.Provider) string {
	name := providerDisplayName[p]
	if name == "" {
		name = string(p)
	}
	return fmt.Sprintf("%s API key not configured. Please check your settings.", name)
}

func (o *Orchestrator) emit(name string, payload any) {
	if o.sink != nil {
		o.sink.Emit(name, payload)
	}
}

func (o *Orchestrator) status(message string, progress int) {
	o.emit(EventProcessingStatus, StatusPayload{Message: message, Progress: progress})
}

// existingFiles drops paths whose files have gone stale on disk.
func existingFiles(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}
