package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/tsuyaku/internal/config"
	"github.com/joho/godotenv"
)

type envConfig struct {
	Env                         string        `env:"ENV" envDefault:"production"`
	SpeechAPIURL                string        `env:"SPEECH_API_URL" envDefault:"https://api.gladia.io"`
	SpeechAPIKey                string        `env:"SPEECH_API_KEY,required"`
	SpeechConnectTimeout        time.Duration `env:"SPEECH_CONNECT_TIMEOUT" envDefault:"10s"`
	CaptureInterval             time.Duration `env:"CAPTURE_INTERVAL" envDefault:"500ms"`
	CaptureSampleRate           int           `env:"CAPTURE_SAMPLE_RATE" envDefault:"16000"`
	CaptureChannels             int           `env:"CAPTURE_CHANNELS" envDefault:"1"`
	CapturePCMFile              string        `env:"CAPTURE_PCM_FILE"`
	DefaultLanguages            []string      `env:"DEFAULT_LANGUAGES" envDefault:"en,ms,ar,ta" envSeparator:","`
	MaxWordsBeforeReset         int           `env:"MAX_WORDS_BEFORE_RESET" envDefault:"30"`
	PreserveOutputAcrossRestart bool          `env:"PRESERVE_OUTPUT_ACROSS_RESTART" envDefault:"false"`
	RestartOnSettingsSave       bool          `env:"RESTART_ON_SETTINGS_SAVE" envDefault:"false"`
	DatabaseURL                 string        `env:"DATABASE_URL"`
	HTTPAddr                    string        `env:"HTTP_ADDR" envDefault:":4000"`
	GoogleCloudCredentialsJSON  string        `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	DiscordToken                string        `env:"DISCORD_TOKEN"`
	DiscordChannelID            string        `env:"DISCORD_CHANNEL_ID"`
	SessionWebhookURL           string        `env:"SESSION_WEBHOOK_URL"`
}

// Load reads an optional .env file, then the process environment.
// Variables already set in the environment win over the file.
func Load() (*internalconfig.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                         raw.Env,
		SpeechAPIURL:                raw.SpeechAPIURL,
		SpeechAPIKey:                raw.SpeechAPIKey,
		SpeechConnectTimeout:        raw.SpeechConnectTimeout,
		CaptureInterval:             raw.CaptureInterval,
		CaptureSampleRate:           raw.CaptureSampleRate,
		CaptureChannels:             raw.CaptureChannels,
		CapturePCMFile:              raw.CapturePCMFile,
		DefaultLanguages:            raw.DefaultLanguages,
		MaxWordsBeforeReset:         raw.MaxWordsBeforeReset,
		PreserveOutputAcrossRestart: raw.PreserveOutputAcrossRestart,
		RestartOnSettingsSave:       raw.RestartOnSettingsSave,
		DatabaseURL:                 raw.DatabaseURL,
		HTTPAddr:                    raw.HTTPAddr,
		GoogleCloudCredentialsJSON:  raw.GoogleCloudCredentialsJSON,
		DiscordToken:                raw.DiscordToken,
		DiscordChannelID:            raw.DiscordChannelID,
		SessionWebhookURL:           raw.SessionWebhookURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
