//go:build !portaudio

package capture

import (
	"context"

	"github.com/foxseedlab/tsuyaku/internal/capture"
)

type DeviceRecorder struct{}

func NewDeviceRecorder() *DeviceRecorder {
	return &DeviceRecorder{}
}

func (r *DeviceRecorder) Start(_ context.Context, _ capture.Format, _ func([]byte)) error {
	return ErrDeviceUnavailable
}

func (r *DeviceRecorder) Stop() error {
	return nil
}

func (r *DeviceRecorder) IsRecording() bool {
	return false
}
