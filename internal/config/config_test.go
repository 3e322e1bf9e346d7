package config

import (
	"testing"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "")
	t.Setenv("INPUT_WAV", "input.wav")

	if _, err := Load(); err == nil {
		t.Error("expected error when GENAI_API_KEY is missing")
	}
}

func TestLoadRequiresInputWAV(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "key")
	t.Setenv("INPUT_WAV", "")

	if _, err := Load(); err == nil {
		t.Error("expected error when INPUT_WAV is missing")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "key")
	t.Setenv("INPUT_WAV", "input.wav")
	t.Setenv("LIVE_MODEL", "")
	t.Setenv("VOICE", "")
	t.Setenv("INPUT_TRANSCRIPTION", "")
	t.Setenv("CAPTURE_VAD", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LiveModel != "models/gemini-2.0-flash-live-001" {
		t.Errorf("LiveModel = %q", cfg.LiveModel)
	}
	if cfg.Voice != "Aoede" {
		t.Errorf("Voice = %q", cfg.Voice)
	}
	if !cfg.InputTranscription || !cfg.OutputTranscription {
		t.Error("transcription should default to enabled")
	}
	if cfg.CaptureVAD {
		t.Error("capture VAD should default to disabled")
	}
	if cfg.SystemInstruction == "" {
		t.Error("default persona missing")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "key")
	t.Setenv("INPUT_WAV", "mic.wav")
	t.Setenv("VOICE", "Puck")
	t.Setenv("OUTPUT_TRANSCRIPTION", "false")
	t.Setenv("CAPTURE_VAD", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Voice != "Puck" {
		t.Errorf("Voice = %q, want Puck", cfg.Voice)
	}
	if cfg.OutputTranscription {
		t.Error("OUTPUT_TRANSCRIPTION=false not honored")
	}
	if !cfg.CaptureVAD {
		t.Error("CAPTURE_VAD=true not honored")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}
