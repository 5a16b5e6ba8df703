package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foxseedlab/tsuyaku/internal/capture"
	"github.com/foxseedlab/tsuyaku/internal/protocol"
	"github.com/foxseedlab/tsuyaku/internal/repository"
	"github.com/foxseedlab/tsuyaku/internal/section"
	"github.com/foxseedlab/tsuyaku/internal/settings"
	"github.com/foxseedlab/tsuyaku/internal/speech"
	"github.com/foxseedlab/tsuyaku/internal/webhook"
)

const (
	defaultConnectTimeout = 10 * time.Second
	sealedQueueSize       = 64
	finalizeTimeout       = 15 * time.Second
	wireAudioEncoding     = "wav/pcm"
)

var (
	ErrNoActiveSession   = errors.New(messageNoActiveSession)
	ErrNegotiationFailed = errors.New("failed to initialize live session")
	ErrConnectTimeout    = errors.New("timed out waiting for the session socket to open")
	ErrSocket            = errors.New("websocket connection error")
	ErrAbnormalClose     = errors.New("websocket connection closed unexpectedly; start the session again to reconnect")
	ErrAudioSend         = errors.New("failed to send audio chunk")
	ErrCaptureStart      = errors.New("failed to start audio capture")
	ErrStartCanceled     = errors.New("session start was canceled")
)

type Options struct {
	ConnectTimeout time.Duration
	AudioFormat    capture.Format
	Policy         settings.Policy
}

type Transcript struct {
	Text     string `json:"transcript"`
	Language string `json:"language"`
}

type Snapshot struct {
	State      State                      `json:"state"`
	Recording  bool                       `json:"recording"`
	Connected  bool                       `json:"connected"`
	Error      string                     `json:"error,omitempty"`
	Handle     *speech.Handle             `json:"handle,omitempty"`
	Transcript *Transcript                `json:"transcript,omitempty"`
	Sections   section.Output             `json:"sections"`
	Settings   *settings.LanguageSettings `json:"settings,omitempty"`
}

// Manager owns the single live session. Commands (Start, Stop, Reset,
// Close) run one at a time; socket and capture events are applied under
// mu and dropped when they belong to an older generation.
type Manager struct {
	speech   speech.Client
	recorder capture.Recorder
	settings *settings.Store
	repo     repository.SessionRepository
	webhook  webhook.Sender
	opts     Options
	now      func() time.Time

	opMu sync.Mutex

	mu          sync.Mutex
	state       State
	gen         uint64
	cancelStart context.CancelFunc
	handle      *speech.Handle
	conn        speech.Conn
	connOpen    bool
	active      *activeSession
	lastErr     error
	transcript  *Transcript
	output      section.Output
	lastTargets []string
	sealedFns   []func(section.Section)

	sealedCh   chan section.Section
	done       chan struct{}
	closeOnce  sync.Once
	finalizing sync.WaitGroup
}

type activeSession struct {
	gen       uint64
	settings  settings.LanguageSettings
	handle    speech.Handle
	auditID   string
	opened    bool
	startedAt time.Time
	summary   json.RawMessage

	sentFrames    atomic.Int64
	droppedFrames atomic.Int64
	sendErrors    atomic.Int64
	messages      atomic.Int64
}

func NewManager(client speech.Client, recorder capture.Recorder, store *settings.Store, repo repository.SessionRepository, wh webhook.Sender, opts Options) *Manager {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	m := &Manager{
		speech:   client,
		recorder: recorder,
		settings: store,
		repo:     repo,
		webhook:  wh,
		opts:     opts,
		now:      time.Now,
		state:    StateIdle,
		sealedCh: make(chan section.Section, sealedQueueSize),
		done:     make(chan struct{}),
	}
	go m.publishSealedSections()
	return m
}

// OnSectionSealed registers fn to receive every section that a later
// translation closed. Calls happen in order on one goroutine.
func (m *Manager) OnSectionSealed(fn func(section.Section)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sealedFns = append(m.sealedFns, fn)
}

// Start negotiates a new session, opens its socket and starts capture. A
// session that is already live is stopped first.
func (m *Manager) Start(ctx context.Context) (Snapshot, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.hasSession() {
		slog.Info("live session already active; restarting")
		if err := m.stopLocked(stopReasonRestart); err != nil && !errors.Is(err, ErrNoActiveSession) {
			slog.Warn("failed to stop previous session cleanly", "error", err)
		}
	}

	snap := m.settings.Current()
	targets := snap.TargetLanguages()
	startCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.cancelStart = cancel
	m.state = StateInitiating
	if !m.opts.Policy.PreserveOutputAcrossRestart || !sameLanguages(m.lastTargets, targets) {
		m.output = nil
		m.transcript = nil
	}
	m.lastTargets = targets
	m.active = &activeSession{gen: gen, settings: snap, startedAt: m.now()}
	m.mu.Unlock()
	defer m.clearCancelStart()

	slog.Info("initiating live session", "target_languages", targets, "max_words_before_reset", snap.MaxWordsBeforeReset)
	handle, err := m.speech.Initiate(startCtx, protocol.NewInitiateRequest(m.protocolFormat(), targets))
	if err != nil {
		return m.failStart(gen, fmt.Errorf("%w: %w", ErrNegotiationFailed, err))
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return m.Snapshot(), ErrStartCanceled
	}
	m.handle = &handle
	m.active.handle = handle
	m.mu.Unlock()
	slog.Info("live session negotiated", "session_id", handle.ID)

	dialCtx, dialCancel := context.WithTimeout(startCtx, m.opts.ConnectTimeout)
	conn, err := m.speech.Dial(dialCtx, handle.URL, &connHandler{manager: m, gen: gen})
	timedOut := errors.Is(dialCtx.Err(), context.DeadlineExceeded) && startCtx.Err() == nil
	dialCancel()
	if err != nil {
		if timedOut {
			return m.failStart(gen, ErrConnectTimeout)
		}
		return m.failStart(gen, fmt.Errorf("%w: %w", ErrSocket, err))
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		_ = conn.Close(speech.CloseNormal, closeReasonUserStop)
		return m.Snapshot(), ErrStartCanceled
	}
	m.conn = conn
	m.connOpen = true
	m.state = StateConnected
	m.lastErr = nil
	active := m.active
	active.opened = true
	m.mu.Unlock()
	slog.Info("live session socket opened", "session_id", handle.ID)

	m.recordSessionStart(ctx, active, targets)

	err = m.recorder.Start(context.WithoutCancel(ctx), m.opts.AudioFormat, func(chunk []byte) {
		m.handleAudio(gen, chunk)
	})
	if err != nil {
		m.mu.Lock()
		if m.gen == gen {
			m.lastErr = fmt.Errorf("%w: %w", ErrCaptureStart, err)
			m.state = StateError
		}
		m.mu.Unlock()
		slog.Error("failed to start audio capture", "error", err, "session_id", handle.ID)
		return m.Snapshot(), fmt.Errorf("%w: %w", ErrCaptureStart, err)
	}

	m.mu.Lock()
	stale := m.gen != gen
	lastErr := m.lastErr
	m.mu.Unlock()
	if stale {
		// The socket closed or a stop landed while capture was starting.
		if err := m.recorder.Stop(); err != nil {
			slog.Warn("failed to stop audio capture of a superseded session", "error", err)
		}
		if lastErr == nil {
			lastErr = ErrStartCanceled
		}
		slog.Error("live session ended while capture was starting", "error", lastErr, "session_id", handle.ID)
		return m.Snapshot(), lastErr
	}
	slog.Info("live session recording", "session_id", handle.ID, "interval", m.opts.AudioFormat.Interval)
	return m.Snapshot(), nil
}

// Stop ends the live session gracefully. It returns ErrNoActiveSession
// without side effects when nothing is running.
func (m *Manager) Stop(ctx context.Context) error {
	canceled := m.cancelPendingStart()
	m.opMu.Lock()
	defer m.opMu.Unlock()
	err := m.stopLocked(stopReasonManual)
	if canceled && errors.Is(err, ErrNoActiveSession) {
		return nil
	}
	return err
}

// Reset stops any session and clears transcript, output and error.
func (m *Manager) Reset(ctx context.Context) error {
	m.cancelPendingStart()
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if err := m.stopLocked(stopReasonReset); err != nil {
		if !errors.Is(err, ErrNoActiveSession) {
			slog.Warn("stop during reset failed; forcing capture stop", "error", err)
		}
		if m.recorder.IsRecording() {
			if err := m.recorder.Stop(); err != nil {
				slog.Error("failed to force-stop audio capture", "error", err)
			}
		}
	}

	m.mu.Lock()
	m.transcript = nil
	m.output = nil
	m.lastErr = nil
	m.state = StateIdle
	m.mu.Unlock()
	slog.Info("live session reset")
	return nil
}

// Close tears the manager down: the socket is closed with 1000 and capture
// stops, without waiting for the remote side. It returns once pending audit
// updates and reports are delivered or finalizeTimeout has passed.
func (m *Manager) Close() {
	m.cancelPendingStart()
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	conn, active, output := m.conn, m.active, slices.Clone(m.output)
	m.gen++
	m.conn = nil
	m.connOpen = false
	m.active = nil
	m.handle = nil
	m.state = StateIdle
	m.mu.Unlock()

	if conn != nil {
		if err := conn.Close(speech.CloseNormal, closeReasonShutdown); err != nil {
			slog.Warn("failed to close session socket", "error", err)
		}
	}
	if err := m.recorder.Stop(); err != nil {
		slog.Warn("failed to stop audio capture", "error", err)
	}
	m.finalize(active, output, stopReasonShutdown)
	m.waitFinalizing(finalizeTimeout)
	m.closeOnce.Do(func() { close(m.done) })
}

func (m *Manager) waitFinalizing(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		m.finalizing.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		slog.Warn("gave up waiting for session finalization", "timeout", timeout)
	}
}

// HandleSettingsSaved restarts a live session with the new settings when
// the policy asks for it. Otherwise the running session keeps its snapshot.
func (m *Manager) HandleSettingsSaved(ctx context.Context, prev, next settings.LanguageSettings) {
	if !m.opts.Policy.RestartOnSettingsSave {
		return
	}
	if !m.hasSession() {
		return
	}
	slog.Info("restarting live session after settings change", "previous_languages", prev.TargetLanguages(), "languages", next.TargetLanguages())
	if _, err := m.Start(ctx); err != nil {
		slog.Error("failed to restart live session after settings change", "error", err)
	}
}

func (m *Manager) Snapshot() Snapshot {
	recording := m.recorder.IsRecording()

	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		State:      m.state,
		Recording:  recording,
		Connected:  m.conn != nil && m.connOpen,
		Transcript: m.transcript,
		Sections:   slices.Clone(m.output),
	}
	if snap.State == StateConnected && recording {
		snap.State = StateRecording
	}
	if m.lastErr != nil {
		snap.Error = m.lastErr.Error()
	}
	if m.handle != nil {
		h := *m.handle
		snap.Handle = &h
	}
	var s settings.LanguageSettings
	if m.active != nil {
		s = m.active.settings.Clone()
	} else {
		s = m.settings.Current()
	}
	snap.Settings = &s
	if snap.Sections == nil {
		snap.Sections = section.Output{}
	}
	return snap
}

func (m *Manager) stopLocked(reason string) error {
	m.mu.Lock()
	conn, open, active, output := m.conn, m.connOpen, m.active, slices.Clone(m.output)
	if conn == nil && m.handle == nil {
		m.mu.Unlock()
		return ErrNoActiveSession
	}
	m.gen++
	m.conn = nil
	m.connOpen = false
	m.active = nil
	m.handle = nil
	m.state = StateIdle
	m.mu.Unlock()

	if conn != nil {
		if open {
			if err := conn.SendJSON(protocol.StopRecordingFrame); err != nil {
				slog.Warn("failed to send stop_recording", "error", err)
			}
		}
		if err := conn.Close(speech.CloseNormal, closeReasonUserStop); err != nil {
			slog.Warn("failed to close session socket", "error", err)
		}
	}

	var stopErr error
	if err := m.recorder.Stop(); err != nil {
		stopErr = fmt.Errorf("stop audio capture: %w", err)
	}
	m.finalize(active, output, reason)
	return stopErr
}

func (m *Manager) failStart(gen uint64, err error) (Snapshot, error) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return m.Snapshot(), ErrStartCanceled
	}
	m.gen++
	m.lastErr = err
	m.state = StateError
	m.handle = nil
	m.active = nil
	m.mu.Unlock()
	slog.Error("failed to start live session", "error", err)
	return m.Snapshot(), err
}

// cancelPendingStart aborts a Start that is still negotiating or dialing.
func (m *Manager) cancelPendingStart() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancelStart == nil {
		return false
	}
	m.cancelStart()
	m.cancelStart = nil
	m.gen++
	m.handle = nil
	m.active = nil
	m.state = StateIdle
	slog.Info("pending live session start canceled")
	return true
}

func (m *Manager) clearCancelStart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Starts are serialized by opMu, so a pending cancel is ours.
	m.cancelStart = nil
}

func (m *Manager) hasSession() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil || m.handle != nil
}

func (m *Manager) handleAudio(gen uint64, chunk []byte) {
	m.mu.Lock()
	conn, open, active := m.conn, m.connOpen, m.active
	current := m.gen == gen
	m.mu.Unlock()
	if !current || conn == nil || !open {
		if current && active != nil {
			active.droppedFrames.Add(1)
		}
		return
	}

	if err := conn.SendJSON(protocol.NewAudioChunkFrame(chunk)); err != nil {
		active.sendErrors.Add(1)
		m.mu.Lock()
		if m.gen == gen {
			m.lastErr = fmt.Errorf("%w: %w", ErrAudioSend, err)
		}
		m.mu.Unlock()
		slog.Warn("failed to send audio chunk", "error", err, "session_id", active.handle.ID, "chunk_bytes", len(chunk))
		return
	}
	if n := active.sentFrames.Add(1); n == 1 || n%120 == 0 {
		slog.Debug("audio chunks sent", "session_id", active.handle.ID, "sent_frames", n)
	}
}

func (m *Manager) handleMessage(gen uint64, data []byte) {
	ev, err := protocol.Interpret(data)

	m.mu.Lock()
	if m.gen != gen || m.active == nil {
		m.mu.Unlock()
		return
	}
	active := m.active
	active.messages.Add(1)
	if err != nil {
		m.lastErr = err
		m.mu.Unlock()
		slog.Warn("dropping malformed session message", "error", err, "session_id", active.handle.ID)
		return
	}

	var sealed []section.Section
	switch ev.Kind {
	case protocol.KindTranscript:
		m.transcript = &Transcript{Text: ev.Transcript.Text, Language: ev.Transcript.Language}
	case protocol.KindTranslation:
		before := m.output
		m.output = section.Fold(before, section.Event{Text: ev.Translation.Text, Language: ev.Translation.Language}, active.settings.MaxWordsBeforeReset)
		if sec, ok := section.Sealed(before, m.output); ok {
			sealed = append(sealed, sec)
		}
	case protocol.KindSessionSummary:
		active.summary = ev.Summary
	}
	m.mu.Unlock()

	logMessage(active.handle.ID, ev)
	for _, sec := range sealed {
		m.enqueueSealed(sec)
	}
}

func (m *Manager) handleSocketError(gen uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return
	}
	m.lastErr = fmt.Errorf("%w: %w", ErrSocket, err)
	m.state = StateError
	slog.Error("session socket error", "error", err)
}

func (m *Manager) handleClose(gen uint64, code int, reason string) {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.gen++
	active, output := m.active, slices.Clone(m.output)
	m.conn = nil
	m.connOpen = false
	m.active = nil
	m.handle = nil
	stopReason := stopReasonRemoteClosed
	if code != speech.CloseNormal {
		stopReason = stopReasonAbnormalClose
		m.lastErr = fmt.Errorf("%w (code %d)", ErrAbnormalClose, code)
		m.state = StateError
	} else {
		m.state = StateIdle
	}
	m.mu.Unlock()

	if code != speech.CloseNormal {
		slog.Error("session socket closed unexpectedly", "close_code", code, "close_reason", reason)
	} else {
		slog.Info("session socket closed", "close_code", code, "close_reason", reason)
	}
	if err := m.recorder.Stop(); err != nil {
		slog.Warn("failed to stop audio capture after socket close", "error", err)
	}
	m.finalize(active, output, stopReason)
}

func (m *Manager) enqueueSealed(sec section.Section) {
	select {
	case <-m.done:
	case m.sealedCh <- sec:
	default:
		slog.Warn("sealed section queue full; dropping section", "section_number", sec.Number)
	}
}

func (m *Manager) publishSealedSections() {
	for {
		select {
		case <-m.done:
			return
		case sec := <-m.sealedCh:
			m.mu.Lock()
			fns := append([]func(section.Section){}, m.sealedFns...)
			m.mu.Unlock()
			for _, fn := range fns {
				fn(sec)
			}
		}
	}
}

func (m *Manager) recordSessionStart(ctx context.Context, active *activeSession, targets []string) {
	created, err := m.repo.CreateSession(ctx, repository.CreateSessionInput{
		RemoteID:        active.handle.ID,
		URL:             active.handle.URL,
		TargetLanguages: targets,
		StartedAt:       active.startedAt,
	})
	if err != nil {
		slog.Error("failed to record session start", "error", err, "session_id", active.handle.ID)
		return
	}
	m.mu.Lock()
	active.auditID = created.ID
	m.mu.Unlock()
}

// finalize logs the session's counters and hands the audit update and
// report delivery to a background goroutine.
func (m *Manager) finalize(active *activeSession, output section.Output, reason string) {
	if active == nil || !active.opened {
		return
	}
	endedAt := m.now()
	m.mu.Lock()
	auditID := active.auditID
	transcript := m.transcript
	m.mu.Unlock()

	slog.Info("live session ended",
		"session_id", active.handle.ID,
		"reason", reason,
		"detail", stopReasonDetail(reason),
		"sent_frames", active.sentFrames.Load(),
		"dropped_frames", active.droppedFrames.Load(),
		"send_errors", active.sendErrors.Load(),
		"received_messages", active.messages.Load(),
		"sections", len(output))

	report := buildSessionReport(active, output, transcript, endedAt, reason)
	m.finalizing.Add(1)
	go func() {
		defer m.finalizing.Done()
		m.finalizeSession(auditID, report, len(output))
	}()
}

func (m *Manager) finalizeSession(auditID string, report webhook.SessionReport, sectionCount int) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()
	if auditID != "" {
		endedAt, _ := time.Parse(time.RFC3339, report.EndedAt)
		if err := m.repo.CompleteSession(ctx, repository.CompleteSessionInput{
			SessionID:    auditID,
			EndedAt:      endedAt,
			StopReason:   report.StopReason,
			SectionCount: sectionCount,
		}); err != nil {
			slog.Error("failed to complete session record", "error", err, "session_id", report.SessionID)
		}
	}
	if err := m.webhook.SendSessionReport(ctx, report); err != nil {
		slog.Error("failed to send session report webhook", "error", err, "session_id", report.SessionID)
	}
}

func (m *Manager) protocolFormat() protocol.AudioFormat {
	return protocol.AudioFormat{
		Encoding:   wireAudioEncoding,
		BitDepth:   m.opts.AudioFormat.BitDepth,
		SampleRate: m.opts.AudioFormat.SampleRate,
		Channels:   m.opts.AudioFormat.Channels,
	}
}

func logMessage(sessionID string, ev protocol.Event) {
	switch ev.Kind {
	case protocol.KindTranscript:
		slog.Info("final transcript",
			"session_id", sessionID,
			"start", FormatSeconds(ev.Transcript.Start),
			"end", FormatSeconds(ev.Transcript.End),
			"language", ev.Transcript.Language,
			"text", strings.TrimSpace(ev.Transcript.Text))
	case protocol.KindTranslation:
		slog.Info("translation", "session_id", sessionID, "language", ev.Translation.Language, "text", strings.TrimSpace(ev.Translation.Text))
	case protocol.KindSessionSummary:
		slog.Info("end of session summary", "session_id", sessionID, "summary", string(ev.Summary))
	default:
		slog.Debug("ignoring session message", "session_id", sessionID, "type", ev.Type)
	}
}

func sameLanguages(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// connHandler binds socket events to the generation that opened the socket.
type connHandler struct {
	manager *Manager
	gen     uint64
}

func (h *connHandler) OnMessage(data []byte) { h.manager.handleMessage(h.gen, data) }

func (h *connHandler) OnError(err error) { h.manager.handleSocketError(h.gen, err) }

func (h *connHandler) OnClose(code int, reason string) { h.manager.handleClose(h.gen, code, reason) }
