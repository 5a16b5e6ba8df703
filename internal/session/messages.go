package session

import (
	"fmt"
	"strings"

	"github.com/foxseedlab/tsuyaku/internal/section"
)

const (
	stopReasonManual        = "manual_stop"
	stopReasonRestart       = "restart"
	stopReasonReset         = "reset"
	stopReasonShutdown      = "shutdown"
	stopReasonRemoteClosed  = "remote_closed"
	stopReasonAbnormalClose = "abnormal_close"

	closeReasonUserStop = "Session ended by user"
	closeReasonShutdown = "Component unmounted"

	messageNoActiveSession = "no active session"
)

func stopReasonDetail(reason string) string {
	switch reason {
	case stopReasonManual:
		return "The session was stopped by the user."
	case stopReasonRestart:
		return "The session was restarted."
	case stopReasonReset:
		return "The session was reset."
	case stopReasonShutdown:
		return "The server shut down."
	case stopReasonRemoteClosed:
		return "The speech service ended the session."
	case stopReasonAbnormalClose:
		return "The connection to the speech service was lost."
	default:
		return "The session ended for an unknown reason."
	}
}

// sectionMessage renders a sealed section as one chat message, one line
// per language.
func sectionMessage(sec section.Section) string {
	lines := make([]string, 0, len(sec.Translations)+1)
	lines = append(lines, fmt.Sprintf("-# Section %d", sec.Number))
	for _, e := range sec.Translations {
		lines = append(lines, fmt.Sprintf("**%s**: %s", e.Language, strings.TrimSpace(e.Translation)))
	}
	return strings.Join(lines, "\n")
}
