//go:build portaudio

package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"github.com/foxseedlab/tsuyaku/internal/capture"
	"github.com/gordonklaus/portaudio"
)

// DeviceRecorder captures 16-bit PCM from the default input device.
type DeviceRecorder struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	cancel context.CancelFunc
	done   chan struct{}
}

func NewDeviceRecorder() *DeviceRecorder {
	return &DeviceRecorder{}
}

func (r *DeviceRecorder) Start(ctx context.Context, format capture.Format, onData func([]byte)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stream != nil {
		return ErrAlreadyRecording
	}
	if format.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth %d", format.BitDepth)
	}

	frames := format.BufferBytes() / (format.Channels * 2)
	samples := make([]int16, frames*format.Channels)
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	stream, err := portaudio.OpenDefaultStream(format.Channels, 0, float64(format.SampleRate), frames, samples)
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.stream = stream
	r.cancel = cancel
	r.done = done
	go func() {
		defer close(done)
		for runCtx.Err() == nil {
			if err := stream.Read(); err != nil {
				slog.Warn("audio capture read failed", "error", err)
				continue
			}
			onData(samplesToBytes(samples))
		}
	}()
	slog.Info("audio capture started", "source", "default_input", "sample_rate", format.SampleRate, "frames_per_buffer", frames)
	return nil
}

func (r *DeviceRecorder) Stop() error {
	r.mu.Lock()
	stream, cancel, done := r.stream, r.cancel, r.done
	r.stream = nil
	r.cancel = nil
	r.done = nil
	r.mu.Unlock()
	if stream == nil {
		return nil
	}

	cancel()
	<-done
	var firstErr error
	for _, fn := range []func() error{stream.Stop, stream.Close, portaudio.Terminate} {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	slog.Info("audio capture stopped", "source", "default_input")
	return firstErr
}

func (r *DeviceRecorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stream != nil
}

func samplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
