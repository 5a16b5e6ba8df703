package capture

import (
	"context"
	"time"
)

const EncodingPCM16 = "pcm_16bit"

type Format struct {
	Interval   time.Duration
	SampleRate int
	Channels   int
	BitDepth   int
	Encoding   string
}

// BufferBytes is the size of one interval's worth of audio.
func (f Format) BufferBytes() int {
	samples := int(int64(f.SampleRate) * int64(f.Interval) / int64(time.Second))
	return samples * f.Channels * (f.BitDepth / 8)
}

// Recorder delivers one buffer per interval to the callback passed to
// Start, from a single goroutine, until Stop.
type Recorder interface {
	Start(ctx context.Context, format Format, onData func(chunk []byte)) error
	Stop() error
	IsRecording() bool
}
