// Package speech is the port to the remote live speech service: a one-shot
// negotiation call followed by a bidirectional message socket.
package speech

import (
	"context"
	"fmt"

	"github.com/foxseedlab/tsuyaku/internal/protocol"
)

const (
	CloseNormal   = 1000
	CloseAbnormal = 1006
)

// Handle identifies one negotiated session.
type Handle struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// EventHandler receives socket events in delivery order from a single
// goroutine per connection.
type EventHandler interface {
	OnMessage(data []byte)
	OnError(err error)
	OnClose(code int, reason string)
}

type Conn interface {
	SendJSON(v any) error
	Close(code int, reason string) error
}

type Client interface {
	Initiate(ctx context.Context, req protocol.InitiateRequest) (Handle, error)
	// Dial returns once the socket is open or ctx is done.
	Dial(ctx context.Context, url string, handler EventHandler) (Conn, error)
}

// StatusError is returned by Initiate for a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("live session negotiation returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("live session negotiation returned status %d: %s", e.StatusCode, e.Body)
}
