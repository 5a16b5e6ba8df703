package config

import (
	"fmt"
	"time"
)

const maxTargetLanguages = 4

type Config struct {
	Env                         string
	SpeechAPIURL                string
	SpeechAPIKey                string
	SpeechConnectTimeout        time.Duration
	CaptureInterval             time.Duration
	CaptureSampleRate           int
	CaptureChannels             int
	CapturePCMFile              string
	DefaultLanguages            []string
	MaxWordsBeforeReset         int
	PreserveOutputAcrossRestart bool
	RestartOnSettingsSave       bool
	DatabaseURL                 string
	HTTPAddr                    string
	GoogleCloudCredentialsJSON  string
	DiscordToken                string
	DiscordChannelID            string
	SessionWebhookURL           string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.SpeechConnectTimeout <= 0 {
		return fmt.Errorf("SPEECH_CONNECT_TIMEOUT must be positive, got %s", c.SpeechConnectTimeout)
	}
	if c.CaptureInterval <= 0 {
		return fmt.Errorf("CAPTURE_INTERVAL must be positive, got %s", c.CaptureInterval)
	}
	if c.CaptureSampleRate <= 0 || c.CaptureChannels <= 0 {
		return fmt.Errorf("CAPTURE_SAMPLE_RATE and CAPTURE_CHANNELS must be positive, got %d/%d", c.CaptureSampleRate, c.CaptureChannels)
	}
	if len(c.DefaultLanguages) == 0 || len(c.DefaultLanguages) > maxTargetLanguages {
		return fmt.Errorf("DEFAULT_LANGUAGES must list 1 to %d language codes, got %d", maxTargetLanguages, len(c.DefaultLanguages))
	}
	if c.MaxWordsBeforeReset <= 0 {
		return fmt.Errorf("MAX_WORDS_BEFORE_RESET must be positive, got %d", c.MaxWordsBeforeReset)
	}
	if c.DiscordToken != "" && c.DiscordChannelID == "" {
		return fmt.Errorf("DISCORD_CHANNEL_ID is required when DISCORD_TOKEN is set")
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "SPEECH_API_URL", value: c.SpeechAPIURL},
		{name: "SPEECH_API_KEY", value: c.SpeechAPIKey},
		{name: "HTTP_ADDR", value: c.HTTPAddr},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
