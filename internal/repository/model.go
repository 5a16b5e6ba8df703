package repository

import "time"

type SessionStatus string

const (
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
)

// Session is the audit record of one negotiated live session. Transcript
// text is never stored.
type Session struct {
	ID              string
	RemoteID        string
	URL             string
	TargetLanguages []string
	StartedAt       time.Time
	EndedAt         *time.Time
	Status          SessionStatus
	StopReason      string
	SectionCount    int
}

type LanguageSettings struct {
	Languages           []string
	MaxWordsBeforeReset int
	UpdatedAt           time.Time
}
