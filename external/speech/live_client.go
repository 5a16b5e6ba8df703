package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foxseedlab/tsuyaku/internal/protocol"
	"github.com/foxseedlab/tsuyaku/internal/speech"
	"github.com/gorilla/websocket"
)

const (
	initiatePath       = "/v2/live"
	apiKeyHeader       = "X-GLADIA-KEY"
	maxErrorBodyBytes  = 4 << 10
	closeWriteDeadline = time.Second
)

type LiveClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

func NewLiveClient(baseURL, apiKey string) *LiveClient {
	return &LiveClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		dialer:     websocket.DefaultDialer,
	}
}

func (c *LiveClient) Initiate(ctx context.Context, body protocol.InitiateRequest) (speech.Handle, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return speech.Handle{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+initiatePath, bytes.NewReader(b))
	if err != nil {
		return speech.Handle{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return speech.Handle{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return speech.Handle{}, &speech.StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var out protocol.InitiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return speech.Handle{}, fmt.Errorf("decode live session response: %w", err)
	}
	if out.ID == "" || out.URL == "" {
		return speech.Handle{}, errors.New("live session response is missing id or url")
	}
	return speech.Handle{ID: out.ID, URL: out.URL}, nil
}

func (c *LiveClient) Dial(ctx context.Context, url string, handler speech.EventHandler) (speech.Conn, error) {
	ws, _, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	conn := &socketConn{ws: ws}
	go conn.readLoop(handler)
	return conn, nil
}

type socketConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	closed  atomic.Bool
}

func (c *socketConn) SendJSON(v any) error {
	if c.closed.Load() {
		return websocket.ErrCloseSent
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

// Close sends a close frame and drops the connection without waiting for
// the peer's reply. No events are delivered afterwards.
func (c *socketConn) Close(code int, reason string) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.writeMu.Lock()
	err := c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(closeWriteDeadline))
	c.writeMu.Unlock()
	if cerr := c.ws.Close(); err == nil {
		err = cerr
	}
	return err
}

func (c *socketConn) readLoop(handler speech.EventHandler) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if c.closed.Swap(true) {
				return
			}
			_ = c.ws.Close()
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				handler.OnClose(closeErr.Code, closeErr.Text)
				return
			}
			slog.Debug("session socket read failed", "error", err)
			handler.OnError(err)
			handler.OnClose(speech.CloseAbnormal, err.Error())
			return
		}
		handler.OnMessage(data)
	}
}
