// Package protocol describes the live session wire format: the negotiation
// body, outbound socket frames and the inbound messages the session reacts to.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	TypeTranscript          = "transcript"
	TypeTranslation         = "translation"
	TypePostFinalTranscript = "post_final_transcript"
	TypeAudioChunk          = "audio_chunk"
	TypeStopRecording       = "stop_recording"
)

var ErrMalformedMessage = errors.New("malformed session message")

type AudioFormat struct {
	Encoding   string `json:"encoding"`
	BitDepth   int    `json:"bit_depth"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

type LanguageConfig struct {
	Languages     []string `json:"languages"`
	CodeSwitching bool     `json:"code_switching"`
}

type TranslationConfig struct {
	TargetLanguages []string `json:"target_languages"`
}

type RealtimeProcessing struct {
	Translation       bool              `json:"translation"`
	TranslationConfig TranslationConfig `json:"translation_config"`
}

// InitiateRequest is the body of POST /v2/live. The audio format fields sit
// at the top level next to the processing config.
type InitiateRequest struct {
	AudioFormat
	LanguageConfig     LanguageConfig     `json:"language_config"`
	RealtimeProcessing RealtimeProcessing `json:"realtime_processing"`
}

type InitiateResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// NewInitiateRequest asks for auto-detected, code-switching source speech
// translated into every non-empty target code.
func NewInitiateRequest(format AudioFormat, targets []string) InitiateRequest {
	langs := make([]string, 0, len(targets))
	for _, t := range targets {
		if t = strings.TrimSpace(t); t != "" {
			langs = append(langs, t)
		}
	}
	return InitiateRequest{
		AudioFormat: format,
		LanguageConfig: LanguageConfig{
			Languages:     []string{},
			CodeSwitching: true,
		},
		RealtimeProcessing: RealtimeProcessing{
			Translation:       true,
			TranslationConfig: TranslationConfig{TargetLanguages: langs},
		},
	}
}

type AudioChunkData struct {
	Chunk []byte `json:"chunk"`
}

// AudioChunkFrame carries one capture buffer; Chunk is base64 on the wire.
type AudioChunkFrame struct {
	Type string         `json:"type"`
	Data AudioChunkData `json:"data"`
}

func NewAudioChunkFrame(chunk []byte) AudioChunkFrame {
	return AudioChunkFrame{Type: TypeAudioChunk, Data: AudioChunkData{Chunk: chunk}}
}

type ControlFrame struct {
	Type string `json:"type"`
}

var StopRecordingFrame = ControlFrame{Type: TypeStopRecording}

type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Utterance struct {
	Text     string   `json:"text"`
	Start    *float64 `json:"start,omitempty"`
	End      *float64 `json:"end,omitempty"`
	Language string   `json:"language"`
}

type transcriptData struct {
	IsFinal   bool      `json:"is_final"`
	Utterance Utterance `json:"utterance"`
}

type translationData struct {
	TranslatedUtterance Utterance `json:"translated_utterance"`
}

type Kind int

const (
	KindIgnored Kind = iota
	KindTranscript
	KindTranslation
	KindSessionSummary
)

func (k Kind) String() string {
	switch k {
	case KindTranscript:
		return "transcript"
	case KindTranslation:
		return "translation"
	case KindSessionSummary:
		return "session_summary"
	default:
		return "ignored"
	}
}

// TranscriptEvent is a finalized source utterance. Language is the
// human-readable label, LanguageCode the code the service reported.
type TranscriptEvent struct {
	Text         string
	Language     string
	LanguageCode string
	Start        *float64
	End          *float64
}

type TranslationEvent struct {
	Text         string
	Language     string
	LanguageCode string
}

type Event struct {
	Kind        Kind
	Type        string
	Transcript  TranscriptEvent
	Translation TranslationEvent
	Summary     json.RawMessage
}

// Interpret classifies one inbound socket message. Partial transcripts and
// unknown types come back as KindIgnored. Decode failures and final
// payloads without a language wrap ErrMalformedMessage.
func Interpret(raw []byte) (Event, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch msg.Type {
	case TypeTranscript:
		var data transcriptData
		if err := decodeData(msg, &data); err != nil {
			return Event{}, err
		}
		if !data.IsFinal {
			return Event{Kind: KindIgnored, Type: msg.Type}, nil
		}
		u := data.Utterance
		if u.Language == "" {
			return Event{}, fmt.Errorf("%w: final transcript has no language", ErrMalformedMessage)
		}
		return Event{
			Kind: KindTranscript,
			Type: msg.Type,
			Transcript: TranscriptEvent{
				Text:         u.Text,
				Language:     LanguageLabel(u.Language),
				LanguageCode: u.Language,
				Start:        u.Start,
				End:          u.End,
			},
		}, nil
	case TypeTranslation:
		var data translationData
		if err := decodeData(msg, &data); err != nil {
			return Event{}, err
		}
		u := data.TranslatedUtterance
		if u.Language == "" {
			return Event{}, fmt.Errorf("%w: translation has no translated_utterance language", ErrMalformedMessage)
		}
		return Event{
			Kind: KindTranslation,
			Type: msg.Type,
			Translation: TranslationEvent{
				Text:         u.Text,
				Language:     LanguageLabel(u.Language),
				LanguageCode: u.Language,
			},
		}, nil
	case TypePostFinalTranscript:
		return Event{Kind: KindSessionSummary, Type: msg.Type, Summary: msg.Data}, nil
	default:
		return Event{Kind: KindIgnored, Type: msg.Type}, nil
	}
}

func decodeData(msg Message, v any) error {
	if len(msg.Data) == 0 {
		return fmt.Errorf("%w: %s message has no data", ErrMalformedMessage, msg.Type)
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		return fmt.Errorf("%w: %s data: %v", ErrMalformedMessage, msg.Type, err)
	}
	return nil
}
