package capture

import (
	"github.com/foxseedlab/tsuyaku/internal/capture"
	"github.com/foxseedlab/tsuyaku/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (capture.Recorder, error) {
		c := do.MustInvoke[*config.Config](i)
		if c.CapturePCMFile != "" {
			return NewFileRecorder(c.CapturePCMFile), nil
		}
		return NewDeviceRecorder(), nil
	})
}
