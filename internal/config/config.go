// Package config loads and watches the on-disk settings the
// orchestrator reads. The service is an explicit instance with
// subscribe/unsubscribe; there is no package-level singleton.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	kenv "github.com/knadh/koanf/providers/env"
	kfile "github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tobyv/snapsolve/internal/models"
)

// Settings is one immutable configuration snapshot. Model selections
// are sanitized against the active provider's allow-list on every load.
type Settings struct {
	APIProvider       string `koanf:"api_provider"`
	APIKey            string `koanf:"api_key"`
	OpenAIBaseURL     string `koanf:"openai_base_url"`
	OpenAICustomModel string `koanf:"openai_custom_model"`
	ExtractionModel   string `koanf:"extraction_model"`
	SolutionModel     string `koanf:"solution_model"`
	DebuggingModel    string `koanf:"debugging_model"`
	AnswerModel       string `koanf:"answer_model"`
	Language          string `koanf:"language"`
	MaxOutputTokens   int    `koanf:"max_output_tokens"`
}

// Provider returns the configured provider identity.
func (s Settings) Provider() models.Provider {
	return models.Provider(s.APIProvider)
}

// ModelFor returns the sanitized model id for the category.
func (s Settings) ModelFor(c models.Category) string {
	switch c {
	case models.Extraction:
		return s.ExtractionModel
	case models.Solution:
		return s.SolutionModel
	case models.Debugging:
		return s.DebuggingModel
	case models.Answer:
		return s.AnswerModel
	default:
		return s.SolutionModel
	}
}

// Service owns the current settings snapshot and notifies subscribers
// on reload.
type Service struct {
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	cur    Settings
	subs   map[int]func(Settings)
	nextID int

	watchOnce sync.Once
}

// NewService loads settings from path (SNAPSOLVE_CONFIG_PATH or
// ./config.yaml when empty). A .env file next to the process is applied
// to the environment first.
func NewService(path string, logger *slog.Logger) (*Service, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("SNAPSOLVE_CONFIG_PATH")
	}
	if path == "" {
		path = "config.yaml"
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		path:   path,
		logger: logger,
		subs:   make(map[int]func(Settings)),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the current settings by value; an operation works
// against one snapshot for its whole lifetime.
func (s *Service) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Subscribe registers fn for config-updated notifications and returns
// the matching unsubscribe.
func (s *Service) Subscribe(fn func(Settings)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Reload re-reads the file and environment, sanitizes the result, and
// notifies subscribers.
func (s *Service) Reload() error {
	st, err := s.load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cur = st
	subs := make([]func(Settings), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
	return nil
}

// Watch starts file watching; changes on disk trigger a Reload and the
// subscriber notifications. Safe to call once per service.
func (s *Service) Watch() error {
	var err error
	s.watchOnce.Do(func() {
		f := kfile.Provider(s.path)
		err = f.Watch(func(event interface{}, werr error) {
			if werr != nil {
				s.logger.Warn("config watch error", slog.String("error", werr.Error()))
				return
			}
			if rerr := s.Reload(); rerr != nil {
				s.logger.Warn("config reload failed", slog.String("error", rerr.Error()))
			}
		})
	})
	return err
}

func (s *Service) load() (Settings, error) {
	k := koanf.New(".")

	if err := k.Load(kfile.Provider(s.path), yaml.Parser()); err != nil {
		return Settings{}, fmt.Errorf("load config %s: %w", s.path, err)
	}

	// Environment overrides: SNAPSOLVE__API_KEY=... etc. Double
	// underscore splits levels.
	if err := k.Load(kenv.Provider("SNAPSOLVE__", "__", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SNAPSOLVE__"))
	}), nil); err != nil {
		return Settings{}, err
	}

	var st Settings
	if err := k.Unmarshal("", &st); err != nil {
		return Settings{}, err
	}

	st.APIKey = resolveEnvString(st.APIKey)
	st.OpenAIBaseURL = resolveEnvString(st.OpenAIBaseURL)

	s.sanitize(&st)
	return st, nil
}

// sanitize fills defaults and replaces invalid model selections. It
// never fails; a broken file still yields a usable snapshot.
func (s *Service) sanitize(st *Settings) {
	if st.APIProvider == "" {
		st.APIProvider = string(models.OpenAI)
	}
	p := models.Provider(st.APIProvider)
	if !models.Valid(p) {
		s.logger.Warn("unknown api provider, falling back to openai",
			slog.String("provider", st.APIProvider))
		st.APIProvider = string(models.OpenAI)
		p = models.OpenAI
	}
	if st.Language == "" {
		st.Language = "python"
	}
	if st.MaxOutputTokens <= 0 {
		st.MaxOutputTokens = 4096
	}
	st.ExtractionModel = models.Sanitize(st.ExtractionModel, p, models.Extraction, s.logger)
	st.SolutionModel = models.Sanitize(st.SolutionModel, p, models.Solution, s.logger)
	st.DebuggingModel = models.Sanitize(st.DebuggingModel, p, models.Debugging, s.logger)
	st.AnswerModel = models.Sanitize(st.AnswerModel, p, models.Answer, s.logger)
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// resolveEnvString replaces ${VAR} with environment variable values.
func resolveEnvString(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match
	})
}
