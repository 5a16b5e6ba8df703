package session

import (
	"log/slog"

	"github.com/foxseedlab/tsuyaku/internal/capture"
	"github.com/foxseedlab/tsuyaku/internal/config"
	"github.com/foxseedlab/tsuyaku/internal/discord"
	"github.com/foxseedlab/tsuyaku/internal/repository"
	"github.com/foxseedlab/tsuyaku/internal/section"
	"github.com/foxseedlab/tsuyaku/internal/settings"
	"github.com/foxseedlab/tsuyaku/internal/speech"
	"github.com/foxseedlab/tsuyaku/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		client := do.MustInvoke[speech.Client](i)
		recorder := do.MustInvoke[capture.Recorder](i)
		store := do.MustInvoke[*settings.Store](i)
		repo := do.MustInvoke[repository.Repository](i)
		wh := do.MustInvoke[webhook.Sender](i)
		dc := do.MustInvoke[discord.Client](i)

		m := NewManager(client, recorder, store, repo, wh, OptionsFromConfig(cfg))
		store.OnChange(m.HandleSettingsSaved)
		if cfg.DiscordChannelID != "" {
			channelID := cfg.DiscordChannelID
			m.OnSectionSealed(func(sec section.Section) {
				if err := dc.SendChannelMessage(channelID, sectionMessage(sec)); err != nil {
					slog.Error("failed to publish sealed section", "error", err, "channel_id", channelID, "section_number", sec.Number)
				}
			})
		}
		return m, nil
	})
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ConnectTimeout: cfg.SpeechConnectTimeout,
		AudioFormat: capture.Format{
			Interval:   cfg.CaptureInterval,
			SampleRate: cfg.CaptureSampleRate,
			Channels:   cfg.CaptureChannels,
			BitDepth:   16,
			Encoding:   capture.EncodingPCM16,
		},
		Policy: settings.Policy{
			PreserveOutputAcrossRestart: cfg.PreserveOutputAcrossRestart,
			RestartOnSettingsSave:       cfg.RestartOnSettingsSave,
		},
	}
}
