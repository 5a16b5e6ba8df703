// Package httpapi exposes the session controls, the settings store and the
// translate proxy over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/foxseedlab/tsuyaku/internal/session"
	"github.com/foxseedlab/tsuyaku/internal/settings"
	"github.com/foxseedlab/tsuyaku/internal/translator"
)

const maxBodyBytes = 64 << 10

type SessionController interface {
	Start(ctx context.Context) (session.Snapshot, error)
	Stop(ctx context.Context) error
	Reset(ctx context.Context) error
	Snapshot() session.Snapshot
}

type SettingsStore interface {
	Current() settings.LanguageSettings
	Save(ctx context.Context, next settings.LanguageSettings) error
}

type TranslateService interface {
	Translate(ctx context.Context, req translator.Request) (translator.Response, error)
}

type messageResponse struct {
	Message string `json:"message"`
}

func NewHandler(sessions SessionController, store SettingsStore, translate TranslateService) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("GET /session", getSessionHandler(sessions))
	mux.HandleFunc("POST /session/start", startSessionHandler(sessions))
	mux.HandleFunc("POST /session/stop", stopSessionHandler(sessions))
	mux.HandleFunc("POST /session/reset", resetSessionHandler(sessions))
	mux.HandleFunc("GET /settings", getSettingsHandler(store))
	mux.HandleFunc("PUT /settings", putSettingsHandler(store))
	mux.HandleFunc("POST /translate", translateHandler(translate))
	return loggingMiddleware(mux)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func getSessionHandler(sessions SessionController) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, sessions.Snapshot())
	}
}

func startSessionHandler(sessions SessionController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := sessions.Start(r.Context())
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func stopSessionHandler(sessions SessionController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := sessions.Stop(r.Context())
		if errors.Is(err, session.ErrNoActiveSession) {
			writeJSON(w, http.StatusOK, messageResponse{Message: err.Error()})
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, sessions.Snapshot())
	}
}

func resetSessionHandler(sessions SessionController) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Reset(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, sessions.Snapshot())
	}
}

func getSettingsHandler(store SettingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, store.Current())
	}
}

func putSettingsHandler(store SettingsStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var next settings.LanguageSettings
		if err := decodeBody(w, r, &next); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid payload: %w", err))
			return
		}
		if err := next.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := store.Save(r.Context(), next); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, store.Current())
	}
}

// translateHandler reports every failure as a plain bad request; the cause
// is only logged.
func translateHandler(translate TranslateService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req translator.Request
		if err := decodeBody(w, r, &req); err != nil {
			slog.Warn("invalid translate payload", "error", err)
			writeError(w, http.StatusBadRequest, errors.New("bad request"))
			return
		}
		resp, err := translate.Translate(r.Context(), req)
		if err != nil {
			slog.Error("translate request failed", "error", err, "language", req.Language)
			writeError(w, http.StatusBadRequest, errors.New("bad request"))
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	defer func() {
		if err := r.Body.Close(); err != nil {
			slog.Error("failed to close request body", "error", err)
		}
	}()
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)
		slog.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", lrw.statusCode, "duration", time.Since(start))
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(statusCode int) {
	lrw.statusCode = statusCode
	lrw.ResponseWriter.WriteHeader(statusCode)
}
