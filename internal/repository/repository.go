package repository

import (
	"context"
	"errors"
	"time"
)

var ErrSettingsNotFound = errors.New("language settings not found")

type CreateSessionInput struct {
	RemoteID        string
	URL             string
	TargetLanguages []string
	StartedAt       time.Time
}

type CompleteSessionInput struct {
	SessionID    string
	EndedAt      time.Time
	StopReason   string
	SectionCount int
}

type SessionRepository interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	CompleteSession(ctx context.Context, input CompleteSessionInput) error
}

type SettingsRepository interface {
	// GetSettings returns ErrSettingsNotFound until settings were saved once.
	GetSettings(ctx context.Context) (*LanguageSettings, error)
	SaveSettings(ctx context.Context, settings LanguageSettings) error
}

type Repository interface {
	SessionRepository
	SettingsRepository
}
