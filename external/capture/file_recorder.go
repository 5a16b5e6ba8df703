package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/foxseedlab/tsuyaku/internal/capture"
)

var (
	ErrDeviceUnavailable = errors.New("audio capture device is unavailable")
	ErrAlreadyRecording  = errors.New("audio capture is already running")
)

// FileRecorder replays raw little-endian PCM from a file, one buffer per
// interval, looping at end of file.
type FileRecorder struct {
	path string

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewFileRecorder(path string) *FileRecorder {
	return &FileRecorder{path: path}
}

func (r *FileRecorder) Start(ctx context.Context, format capture.Format, onData func([]byte)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return ErrAlreadyRecording
	}

	size := format.BufferBytes()
	if size <= 0 {
		return fmt.Errorf("invalid capture format: %+v", format)
	}
	pcm, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read pcm file: %w", err)
	}
	if len(pcm) == 0 {
		return fmt.Errorf("pcm file %s is empty", r.path)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	go func() {
		defer close(done)
		replay(runCtx, pcm, size, format.Interval, onData)
	}()
	slog.Info("audio capture started", "source", r.path, "buffer_bytes", size, "interval", format.Interval)
	return nil
}

func (r *FileRecorder) Stop() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel = nil
	r.done = nil
	r.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	slog.Info("audio capture stopped", "source", r.path)
	return nil
}

func (r *FileRecorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

func replay(ctx context.Context, pcm []byte, size int, interval time.Duration, onData func([]byte)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	offset := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		chunk := make([]byte, size)
		for n := 0; n < size; {
			c := copy(chunk[n:], pcm[offset:])
			n += c
			offset = (offset + c) % len(pcm)
		}
		onData(chunk)
	}
}
