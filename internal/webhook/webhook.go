package webhook

import (
	"context"

	"github.com/foxseedlab/tsuyaku/internal/section"
)

const SessionReportSchemaVersion = "2026-10-01"

type SessionReport struct {
	SchemaVersion   string            `json:"schema_version"`
	DeliveryID      string            `json:"delivery_id"`
	SessionID       string            `json:"session_id"`
	StartedAt       string            `json:"started_at"`
	EndedAt         string            `json:"ended_at"`
	DurationSeconds int64             `json:"duration_seconds"`
	StopReason      string            `json:"stop_reason"`
	TargetLanguages []string          `json:"target_languages"`
	LastTranscript  string            `json:"last_transcript,omitempty"`
	Sections        []section.Section `json:"sections"`
}

type Sender interface {
	SendSessionReport(ctx context.Context, report SessionReport) error
}
