package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestInterpret_FinalTranscript(t *testing.T) {
	ev, err := Interpret([]byte(`{"type":"transcript","data":{"is_final":true,"utterance":{"text":" hello ","start":1.5,"end":2.25,"language":"en"}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindTranscript {
		t.Fatalf("unexpected kind: %s", ev.Kind)
	}
	if ev.Transcript.Text != " hello " || ev.Transcript.Language != "English" || ev.Transcript.LanguageCode != "en" {
		t.Fatalf("unexpected transcript: %+v", ev.Transcript)
	}
	if ev.Transcript.Start == nil || *ev.Transcript.Start != 1.5 || ev.Transcript.End == nil || *ev.Transcript.End != 2.25 {
		t.Fatalf("unexpected offsets: %+v", ev.Transcript)
	}
}

func TestInterpret_PartialTranscriptIgnored(t *testing.T) {
	ev, err := Interpret([]byte(`{"type":"transcript","data":{"is_final":false,"utterance":{"text":"hel","language":"en"}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindIgnored {
		t.Fatalf("expected partial transcript to be ignored, got %s", ev.Kind)
	}
}

func TestInterpret_Translation(t *testing.T) {
	ev, err := Interpret([]byte(`{"type":"translation","data":{"translated_utterance":{"text":"helo","language":"ms"}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindTranslation {
		t.Fatalf("unexpected kind: %s", ev.Kind)
	}
	if ev.Translation.Text != "helo" || ev.Translation.Language != "Malay" || ev.Translation.LanguageCode != "ms" {
		t.Fatalf("unexpected translation: %+v", ev.Translation)
	}
}

func TestInterpret_UnlabelledLanguageKeepsCode(t *testing.T) {
	ev, err := Interpret([]byte(`{"type":"translation","data":{"translated_utterance":{"text":"こんにちは","language":"ja"}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Translation.Language != "ja" {
		t.Fatalf("expected fallback to code, got %q", ev.Translation.Language)
	}
}

func TestInterpret_PostFinalTranscript(t *testing.T) {
	ev, err := Interpret([]byte(`{"type":"post_final_transcript","data":{"id":"abc"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindSessionSummary || string(ev.Summary) != `{"id":"abc"}` {
		t.Fatalf("unexpected summary event: %+v", ev)
	}
}

func TestInterpret_UnknownTypeIgnored(t *testing.T) {
	ev, err := Interpret([]byte(`{"type":"speech_start","data":{}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Kind != KindIgnored || ev.Type != "speech_start" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestInterpret_Malformed(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`{"type":"translation"}`,
		`{"type":"transcript","data":{"is_final":"yes"}}`,
		`{"type":"translation","data":{}}`,
		`{"type":"translation","data":null}`,
		`{"type":"translation","data":{"translated_utterance":{"text":"hi"}}}`,
		`{"type":"transcript","data":{"is_final":true,"utterance":{"text":"hi"}}}`,
	} {
		if _, err := Interpret([]byte(raw)); !errors.Is(err, ErrMalformedMessage) {
			t.Fatalf("expected ErrMalformedMessage for %q, got %v", raw, err)
		}
	}
}

func TestNewInitiateRequest_Body(t *testing.T) {
	req := NewInitiateRequest(AudioFormat{Encoding: "wav/pcm", BitDepth: 16, SampleRate: 16000, Channels: 1}, []string{"en", "", " ms "})
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(b)
	for _, want := range []string{
		`"encoding":"wav/pcm"`,
		`"bit_depth":16`,
		`"sample_rate":16000`,
		`"channels":1`,
		`"language_config":{"languages":[],"code_switching":true}`,
		`"realtime_processing":{"translation":true,"translation_config":{"target_languages":["en","ms"]}}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body %s does not contain %s", body, want)
		}
	}
}

func TestAudioChunkFrame_EncodesBase64(t *testing.T) {
	b, err := json.Marshal(NewAudioChunkFrame([]byte{0x01, 0x02, 0x03}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"type":"audio_chunk","data":{"chunk":"AQID"}}` {
		t.Fatalf("unexpected frame: %s", b)
	}
}

func TestStopRecordingFrame(t *testing.T) {
	b, err := json.Marshal(StopRecordingFrame)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"type":"stop_recording"}` {
		t.Fatalf("unexpected frame: %s", b)
	}
}
