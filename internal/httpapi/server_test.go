package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/foxseedlab/tsuyaku/internal/session"
	"github.com/foxseedlab/tsuyaku/internal/settings"
	"github.com/foxseedlab/tsuyaku/internal/speech"
	"github.com/foxseedlab/tsuyaku/internal/translator"
)

type mockSessions struct {
	startErr   error
	stopErr    error
	startCalls int
	resetCalls int
	snapshot   session.Snapshot
}

func (m *mockSessions) Start(context.Context) (session.Snapshot, error) {
	m.startCalls++
	return m.snapshot, m.startErr
}

func (m *mockSessions) Stop(context.Context) error { return m.stopErr }

func (m *mockSessions) Reset(context.Context) error {
	m.resetCalls++
	return nil
}

func (m *mockSessions) Snapshot() session.Snapshot { return m.snapshot }

type mockStore struct {
	current settings.LanguageSettings
	saved   []settings.LanguageSettings
}

func (m *mockStore) Current() settings.LanguageSettings { return m.current }

func (m *mockStore) Save(_ context.Context, next settings.LanguageSettings) error {
	m.saved = append(m.saved, next)
	m.current = next
	return nil
}

type mockTranslator struct {
	out map[string]string
	err error
}

func (m *mockTranslator) Translate(_ context.Context, text, target string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.out[target], nil
}

func newTestServer(sessions *mockSessions, store *mockStore, tr *mockTranslator) *httptest.Server {
	return httptest.NewServer(NewHandler(sessions, store, translator.NewService(tr)))
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestStartSession_ReturnsSnapshot(t *testing.T) {
	sessions := &mockSessions{snapshot: session.Snapshot{
		State:     session.StateRecording,
		Recording: true,
		Connected: true,
		Handle:    &speech.Handle{ID: "live-1", URL: "wss://live.example/1"},
	}}
	srv := newTestServer(sessions, &mockStore{}, &mockTranslator{})
	defer srv.Close()

	resp, body := doRequest(t, http.MethodPost, srv.URL+"/session/start", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if body["state"] != "recording" || body["recording"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
	if handle, _ := body["handle"].(map[string]any); handle["id"] != "live-1" {
		t.Fatalf("unexpected handle: %v", body["handle"])
	}
}

func TestStartSession_Failure(t *testing.T) {
	sessions := &mockSessions{startErr: session.ErrNegotiationFailed}
	srv := newTestServer(sessions, &mockStore{}, &mockTranslator{})
	defer srv.Close()

	resp, body := doRequest(t, http.MethodPost, srv.URL+"/session/start", "")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if body["error"] != session.ErrNegotiationFailed.Error() {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestStartSession_WrongMethod(t *testing.T) {
	sessions := &mockSessions{}
	srv := newTestServer(sessions, &mockStore{}, &mockTranslator{})
	defer srv.Close()

	resp, _ := doRequest(t, http.MethodGet, srv.URL+"/session/start", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if sessions.startCalls != 0 {
		t.Fatal("start must not be called")
	}
}

func TestStopSession_NoActiveSession(t *testing.T) {
	srv := newTestServer(&mockSessions{stopErr: session.ErrNoActiveSession}, &mockStore{}, &mockTranslator{})
	defer srv.Close()

	resp, body := doRequest(t, http.MethodPost, srv.URL+"/session/stop", "")
	if resp.StatusCode != http.StatusOK || body["message"] != "no active session" {
		t.Fatalf("unexpected response: %d %v", resp.StatusCode, body)
	}
}

func TestResetSession(t *testing.T) {
	sessions := &mockSessions{snapshot: session.Snapshot{State: session.StateIdle}}
	srv := newTestServer(sessions, &mockStore{}, &mockTranslator{})
	defer srv.Close()

	resp, body := doRequest(t, http.MethodPost, srv.URL+"/session/reset", "")
	if resp.StatusCode != http.StatusOK || body["state"] != "idle" || sessions.resetCalls != 1 {
		t.Fatalf("unexpected response: %d %v", resp.StatusCode, body)
	}
}

func TestPutSettings(t *testing.T) {
	store := &mockStore{current: settings.Default()}
	srv := newTestServer(&mockSessions{}, store, &mockTranslator{})
	defer srv.Close()

	resp, body := doRequest(t, http.MethodPut, srv.URL+"/settings", `{"languages":["en","ur"],"max_words_before_reset":12}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d %v", resp.StatusCode, body)
	}
	if len(store.saved) != 1 || store.saved[0].MaxWordsBeforeReset != 12 {
		t.Fatalf("unexpected saves: %+v", store.saved)
	}
}

func TestPutSettings_Invalid(t *testing.T) {
	store := &mockStore{current: settings.Default()}
	srv := newTestServer(&mockSessions{}, store, &mockTranslator{})
	defer srv.Close()

	for _, body := range []string{
		`{"languages":[],"max_words_before_reset":12}`,
		`{"languages":["en","ms","ar","ta","bn"],"max_words_before_reset":12}`,
		`{"languages":["en"],"max_words_before_reset":0}`,
		`{"languages":["en"],"unknown":true}`,
		`not json`,
	} {
		resp, _ := doRequest(t, http.MethodPut, srv.URL+"/settings", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, resp.StatusCode)
		}
	}
	if len(store.saved) != 0 {
		t.Fatalf("invalid settings must not be saved: %+v", store.saved)
	}
}

func TestTranslate(t *testing.T) {
	tr := &mockTranslator{out: map[string]string{"ms": "selamat pagi", "ta": "காலை வணக்கம்"}}
	srv := newTestServer(&mockSessions{}, &mockStore{}, tr)
	defer srv.Close()

	resp, body := doRequest(t, http.MethodPost, srv.URL+"/translate", `{"text":"good morning","language":"ms","secondaryLanguage":"ta"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if body["translatedText"] != "selamat pagi" || body["secondaryTranslatedText"] != "காலை வணக்கம்" {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, ok := body["tertiaryTranslatedText"]; ok {
		t.Fatalf("tertiary translation should be omitted: %v", body)
	}
}

func TestTranslate_FailuresAreBadRequest(t *testing.T) {
	cases := []struct {
		name string
		tr   *mockTranslator
		body string
	}{
		{name: "upstream error", tr: &mockTranslator{err: errors.New("quota exceeded")}, body: `{"text":"hi","language":"ms"}`},
		{name: "empty text", tr: &mockTranslator{}, body: `{"text":"","language":"ms"}`},
		{name: "malformed", tr: &mockTranslator{}, body: `{"text":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(&mockSessions{}, &mockStore{}, tc.tr)
			defer srv.Close()

			resp, body := doRequest(t, http.MethodPost, srv.URL+"/translate", tc.body)
			if resp.StatusCode != http.StatusBadRequest || body["error"] != "bad request" {
				t.Fatalf("unexpected response: %d %v", resp.StatusCode, body)
			}
		})
	}
}
