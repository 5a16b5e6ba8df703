package speech

import (
	"github.com/foxseedlab/tsuyaku/internal/config"
	"github.com/foxseedlab/tsuyaku/internal/speech"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (speech.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewLiveClient(c.SpeechAPIURL, c.SpeechAPIKey), nil
	})
}
