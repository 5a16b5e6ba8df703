package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/foxseedlab/tsuyaku/internal/repository"
	"github.com/google/uuid"
)

// MemoryRepository keeps sessions and settings in process memory. It is
// used when no database is configured.
type MemoryRepository struct {
	mu       sync.Mutex
	sessions map[string]*repository.Session
	settings *repository.LanguageSettings
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[string]*repository.Session),
		now:      time.Now,
	}
}

func (r *MemoryRepository) CreateSession(_ context.Context, input repository.CreateSessionInput) (*repository.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &repository.Session{
		ID:              uuid.NewString(),
		RemoteID:        input.RemoteID,
		URL:             input.URL,
		TargetLanguages: slices.Clone(input.TargetLanguages),
		StartedAt:       input.StartedAt,
		Status:          repository.SessionStatusRunning,
	}
	r.sessions[s.ID] = s
	out := *s
	return &out, nil
}

func (r *MemoryRepository) CompleteSession(_ context.Context, input repository.CompleteSessionInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[input.SessionID]
	if !ok {
		return nil
	}
	endedAt := input.EndedAt
	s.EndedAt = &endedAt
	s.Status = repository.SessionStatusCompleted
	s.StopReason = input.StopReason
	s.SectionCount = input.SectionCount
	return nil
}

func (r *MemoryRepository) GetSettings(_ context.Context) (*repository.LanguageSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settings == nil {
		return nil, repository.ErrSettingsNotFound
	}
	out := *r.settings
	out.Languages = slices.Clone(out.Languages)
	return &out, nil
}

func (r *MemoryRepository) SaveSettings(_ context.Context, settings repository.LanguageSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	settings.Languages = slices.Clone(settings.Languages)
	settings.UpdatedAt = r.now()
	r.settings = &settings
	return nil
}

func (r *MemoryRepository) session(id string) (repository.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return repository.Session{}, false
	}
	return *s, true
}
