package session

import (
	"time"

	"github.com/foxseedlab/tsuyaku/internal/section"
	"github.com/foxseedlab/tsuyaku/internal/webhook"
)

func buildSessionReport(active *activeSession, output section.Output, transcript *Transcript, endedAt time.Time, reason string) webhook.SessionReport {
	sections := []section.Section(output)
	if sections == nil {
		sections = []section.Section{}
	}
	report := webhook.SessionReport{
		SchemaVersion:   webhook.SessionReportSchemaVersion,
		SessionID:       active.handle.ID,
		StartedAt:       active.startedAt.UTC().Format(time.RFC3339),
		EndedAt:         endedAt.UTC().Format(time.RFC3339),
		DurationSeconds: int64(endedAt.Sub(active.startedAt).Seconds()),
		StopReason:      reason,
		TargetLanguages: active.settings.TargetLanguages(),
		Sections:        sections,
	}
	if transcript != nil {
		report.LastTranscript = transcript.Text
	}
	return report
}
