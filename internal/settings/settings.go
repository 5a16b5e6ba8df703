// Package settings holds the process-wide language configuration. Sessions
// take a copy at start and never observe later saves.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/foxseedlab/tsuyaku/internal/repository"
)

const (
	MaxLanguages               = 4
	DefaultMaxWordsBeforeReset = 30
)

var DefaultLanguages = []string{"en", "ms", "ar", "ta"}

type LanguageSettings struct {
	Languages           []string `json:"languages"`
	MaxWordsBeforeReset int      `json:"max_words_before_reset"`
}

func Default() LanguageSettings {
	return LanguageSettings{
		Languages:           slices.Clone(DefaultLanguages),
		MaxWordsBeforeReset: DefaultMaxWordsBeforeReset,
	}
}

// TargetLanguages returns the configured codes in order, skipping blanks.
func (s LanguageSettings) TargetLanguages() []string {
	out := make([]string, 0, len(s.Languages))
	for _, l := range s.Languages {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Primary is the first configured target language.
func (s LanguageSettings) Primary() string {
	if targets := s.TargetLanguages(); len(targets) > 0 {
		return targets[0]
	}
	return ""
}

func (s LanguageSettings) Validate() error {
	if len(s.Languages) > MaxLanguages {
		return fmt.Errorf("at most %d languages can be configured, got %d", MaxLanguages, len(s.Languages))
	}
	targets := s.TargetLanguages()
	if len(targets) == 0 {
		return errors.New("at least one target language is required")
	}
	seen := make(map[string]struct{}, len(targets))
	for _, l := range targets {
		if _, dup := seen[l]; dup {
			return fmt.Errorf("language %q is configured more than once", l)
		}
		seen[l] = struct{}{}
	}
	if s.MaxWordsBeforeReset < 1 {
		return fmt.Errorf("max words before reset must be at least 1, got %d", s.MaxWordsBeforeReset)
	}
	return nil
}

func (s LanguageSettings) Clone() LanguageSettings {
	s.Languages = slices.Clone(s.Languages)
	return s
}

func (s LanguageSettings) SameTargets(other LanguageSettings) bool {
	return slices.Equal(s.TargetLanguages(), other.TargetLanguages())
}

// Policy decides what a settings change does to sessions.
type Policy struct {
	// PreserveOutputAcrossRestart keeps the aggregated output when a session
	// restarts with unchanged target languages.
	PreserveOutputAcrossRestart bool
	// RestartOnSettingsSave restarts a live session after every save.
	RestartOnSettingsSave bool
}

type Listener func(ctx context.Context, prev, next LanguageSettings)

type Store struct {
	repo     repository.SettingsRepository
	defaults LanguageSettings

	mu        sync.RWMutex
	current   LanguageSettings
	listeners []Listener
}

func NewStore(repo repository.SettingsRepository, defaults LanguageSettings) *Store {
	return &Store{
		repo:     repo,
		defaults: defaults.Clone(),
		current:  defaults.Clone(),
	}
}

// Load replaces the current snapshot with the persisted one, if any.
func (s *Store) Load(ctx context.Context) error {
	rec, err := s.repo.GetSettings(ctx)
	if errors.Is(err, repository.ErrSettingsNotFound) {
		slog.Info("no persisted language settings; using defaults", "languages", s.defaults.Languages, "max_words_before_reset", s.defaults.MaxWordsBeforeReset)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load language settings: %w", err)
	}
	loaded := LanguageSettings{Languages: rec.Languages, MaxWordsBeforeReset: rec.MaxWordsBeforeReset}
	if err := loaded.Validate(); err != nil {
		slog.Warn("persisted language settings are invalid; using defaults", "error", err)
		return nil
	}
	s.mu.Lock()
	s.current = loaded.Clone()
	s.mu.Unlock()
	slog.Info("language settings loaded", "languages", loaded.Languages, "max_words_before_reset", loaded.MaxWordsBeforeReset)
	return nil
}

func (s *Store) Current() LanguageSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Save validates and persists next, then notifies listeners.
func (s *Store) Save(ctx context.Context, next LanguageSettings) error {
	if err := next.Validate(); err != nil {
		return err
	}
	next = next.Clone()
	if err := s.repo.SaveSettings(ctx, repository.LanguageSettings{
		Languages:           next.Languages,
		MaxWordsBeforeReset: next.MaxWordsBeforeReset,
	}); err != nil {
		return fmt.Errorf("save language settings: %w", err)
	}

	s.mu.Lock()
	prev := s.current
	s.current = next
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	slog.Info("language settings saved", "languages", next.Languages, "max_words_before_reset", next.MaxWordsBeforeReset)
	for _, l := range listeners {
		l(ctx, prev.Clone(), next.Clone())
	}
	return nil
}

func (s *Store) OnChange(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}
