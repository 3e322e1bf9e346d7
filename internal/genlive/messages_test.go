package genlive

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBuildSetupJSON(t *testing.T) {
	setup := buildSetup(SessionConfig{
		Model:               "models/gemini-2.0-flash-live-001",
		Voice:               "Aoede",
		SystemInstruction:   "You are a friendly English tutor.",
		InputTranscription:  true,
		OutputTranscription: true,
	})

	data, err := json.Marshal(clientMessage{Setup: setup})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	s := string(data)

	for _, want := range []string{
		`"model":"models/gemini-2.0-flash-live-001"`,
		`"responseModalities":["AUDIO"]`,
		`"voiceName":"Aoede"`,
		`"You are a friendly English tutor."`,
		`"inputAudioTranscription":{}`,
		`"outputAudioTranscription":{}`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("setup JSON missing %s:\n%s", want, s)
		}
	}
}

func TestBuildSetupOmitsDisabledTranscription(t *testing.T) {
	setup := buildSetup(SessionConfig{Model: "m"})

	data, _ := json.Marshal(clientMessage{Setup: setup})
	s := string(data)

	if strings.Contains(s, "inputAudioTranscription") || strings.Contains(s, "outputAudioTranscription") {
		t.Errorf("disabled transcription flags leaked into setup:\n%s", s)
	}
	if strings.Contains(s, "speechConfig") {
		t.Errorf("empty voice produced a speech config:\n%s", s)
	}
}

func TestParseServerMessage(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		want          ServerMessage
		setupComplete bool
		wantErr       bool
	}{
		{
			name:          "setup complete",
			raw:           `{"setupComplete":{}}`,
			setupComplete: true,
		},
		{
			name: "model audio",
			raw:  `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"AAAA"}}]}}}`,
			want: ServerMessage{AudioData: "AAAA", AudioMimeType: "audio/pcm;rate=24000"},
		},
		{
			name: "input transcription partial",
			raw:  `{"serverContent":{"inputTranscription":{"text":"Hel"}}}`,
			want: ServerMessage{InputTranscript: "Hel"},
		},
		{
			name: "output transcription with turn complete",
			raw:  `{"serverContent":{"outputTranscription":{"text":"Hi"},"turnComplete":true}}`,
			want: ServerMessage{OutputTranscript: "Hi", TurnComplete: true},
		},
		{
			name: "unknown fields ignored",
			raw:  `{"usageMetadata":{"totalTokenCount":42}}`,
			want: ServerMessage{},
		},
		{
			name:    "malformed json",
			raw:     `{"serverContent":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, setupComplete, err := parseServerMessage([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if setupComplete != tt.setupComplete {
				t.Errorf("setupComplete = %v, want %v", setupComplete, tt.setupComplete)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestServerMessageEmpty(t *testing.T) {
	if !(ServerMessage{}).Empty() {
		t.Error("zero message should be empty")
	}
	if (ServerMessage{TurnComplete: true}).Empty() {
		t.Error("turn complete message is not empty")
	}
	if (ServerMessage{AudioData: "AAAA"}).Empty() {
		t.Error("audio message is not empty")
	}
}
