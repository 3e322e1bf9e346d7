package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chndnsingh1403/ai-speaking-trainer/internal/session"
	"github.com/rs/zerolog/log"
)

// FileStore persists per-session artefacts: transcripts as JSONL and the
// generated learner feedback as Markdown.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) (*FileStore, error) {
	transcriptDir := filepath.Join(baseDir, "transcripts")
	feedbackDir := filepath.Join(baseDir, "feedback")

	if err := os.MkdirAll(transcriptDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}
	if err := os.MkdirAll(feedbackDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create feedback directory: %w", err)
	}

	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) SaveTranscript(sessionID string, entries []session.Entry) (string, error) {
	path := filepath.Join(s.baseDir, "transcripts", fmt.Sprintf("%s.jsonl", sessionID))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create transcript file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return "", fmt.Errorf("failed to encode transcript entry: %w", err)
		}
	}

	log.Info().
		Str("session_id", sessionID).
		Str("file", path).
		Int("turns", len(entries)).
		Msg("Saved transcript")

	return path, nil
}

func (s *FileStore) LoadTranscript(sessionID string) ([]session.Entry, error) {
	path := filepath.Join(s.baseDir, "transcripts", fmt.Sprintf("%s.jsonl", sessionID))

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript file: %w", err)
	}
	defer file.Close()

	var entries []session.Entry
	decoder := json.NewDecoder(file)
	for decoder.More() {
		var entry session.Entry
		if err := decoder.Decode(&entry); err != nil {
			return nil, fmt.Errorf("failed to decode transcript entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *FileStore) SaveFeedback(sessionID string, feedback string) (string, error) {
	path := filepath.Join(s.baseDir, "feedback", fmt.Sprintf("%s.md", sessionID))

	if err := os.WriteFile(path, []byte(feedback), 0644); err != nil {
		return "", fmt.Errorf("failed to write feedback file: %w", err)
	}

	log.Info().
		Str("session_id", sessionID).
		Str("file", path).
		Int("size", len(feedback)).
		Msg("Saved feedback")

	return path, nil
}
