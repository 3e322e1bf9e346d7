package store

import (
	"os"
	"testing"
	"time"

	"github.com/chndnsingh1403/ai-speaking-trainer/internal/session"
)

func TestSaveAndLoadTranscript(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	entries := []session.Entry{
		{Role: session.RoleUser, Text: "Hello ", Start: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)},
		{Role: session.RoleModel, Text: "Hi! How are you today?", Start: time.Date(2025, 6, 1, 10, 0, 2, 0, time.UTC)},
	}

	path, err := s.SaveTranscript("abc-123", entries)
	if err != nil {
		t.Fatalf("SaveTranscript failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("transcript file missing: %v", err)
	}

	loaded, err := s.LoadTranscript("abc-123")
	if err != nil {
		t.Fatalf("LoadTranscript failed: %v", err)
	}
	if len(loaded) != len(entries) {
		t.Fatalf("expected %d entries, got %d", len(entries), len(loaded))
	}
	for i := range entries {
		if loaded[i].Role != entries[i].Role || loaded[i].Text != entries[i].Text {
			t.Errorf("entry %d = %+v, want %+v", i, loaded[i], entries[i])
		}
	}
}

func TestLoadMissingTranscript(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())

	if _, err := s.LoadTranscript("nope"); err == nil {
		t.Error("expected error for missing transcript")
	}
}

func TestSaveFeedback(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())

	path, err := s.SaveFeedback("abc-123", "# Feedback\n\nGood fluency.")
	if err != nil {
		t.Fatalf("SaveFeedback failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("feedback file missing: %v", err)
	}
	if string(data) != "# Feedback\n\nGood fluency." {
		t.Errorf("feedback content %q", data)
	}
}
