package session

import (
	"fmt"
	"math"
)

const invalidDurationText = "--:--.---"

type DurationParts struct {
	Hours        int64
	Minutes      int64
	Seconds      int64
	Milliseconds int64
}

// SplitDuration breaks a millisecond offset into floor-based clock fields.
func SplitDuration(ms float64) (DurationParts, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || ms < 0 {
		return DurationParts{}, fmt.Errorf("%v isn't a valid duration", ms)
	}
	totalSeconds := int64(math.Floor(ms / 1000))
	totalMinutes := totalSeconds / 60
	return DurationParts{
		Hours:        totalMinutes / 60,
		Minutes:      totalMinutes % 60,
		Seconds:      totalSeconds % 60,
		Milliseconds: int64(math.Floor(math.Mod(ms, 1000))),
	}, nil
}

// FormatSeconds renders an utterance offset as [HH:]MM:SS.mmm.
// Missing or unrepresentable offsets render as --:--.---.
func FormatSeconds(seconds *float64) string {
	if seconds == nil {
		return invalidDurationText
	}
	parts, err := SplitDuration(*seconds * 1000)
	if err != nil {
		return invalidDurationText
	}
	if parts.Hours != 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%03d", parts.Hours, parts.Minutes, parts.Seconds, parts.Milliseconds)
	}
	return fmt.Sprintf("%02d:%02d.%03d", parts.Minutes, parts.Seconds, parts.Milliseconds)
}
