package gemini

import (
	"strings"
	"testing"
	"time"

	"github.com/chndnsingh1403/ai-speaking-trainer/internal/session"
)

func TestBuildTranscriptLabelsSpeakers(t *testing.T) {
	entries := []session.Entry{
		{Role: session.RoleUser, Text: "I goed to the park", Start: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)},
		{Role: session.RoleModel, Text: "You mean you went to the park!", Start: time.Date(2025, 6, 1, 9, 30, 4, 0, time.UTC)},
	}

	transcript := buildTranscript(entries)

	if !strings.Contains(transcript, "[09:30:00] Learner: I goed to the park") {
		t.Errorf("learner line missing:\n%s", transcript)
	}
	if !strings.Contains(transcript, "Tutor: You mean you went to the park!") {
		t.Errorf("tutor line missing:\n%s", transcript)
	}
}

func TestBuildPromptEmbedsTranscript(t *testing.T) {
	prompt := buildPrompt("[09:30:00] Learner: hello\n")

	if !strings.Contains(prompt, "Learner: hello") {
		t.Error("prompt does not embed the transcript")
	}
	for _, section := range []string{"Overall Impression", "Grammar", "Vocabulary", "Practice Points"} {
		if !strings.Contains(prompt, section) {
			t.Errorf("prompt missing section %q", section)
		}
	}
}
