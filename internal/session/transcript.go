package session

import (
	"sync"
	"time"
)

// Role identifies which side of the conversation produced a transcript entry.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Entry is one uninterrupted turn of speech with its accumulated text.
type Entry struct {
	Role  Role      `json:"role"`
	Text  string    `json:"text"`
	Start time.Time `json:"start"`
}

// Transcript accumulates partial transcription text into turn entries.
// Partials merge into the tail entry while its role matches; a role switch
// starts a new entry. There is never more than one in-flight entry per role
// at the tail of the sequence.
type Transcript struct {
	mutex   sync.Mutex
	entries []Entry
	now     func() time.Time
}

func NewTranscript() *Transcript {
	return &Transcript{now: time.Now}
}

// Append adds partial text for a role. Empty partials are ignored.
func (t *Transcript) Append(role Role, text string) {
	if text == "" {
		return
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if n := len(t.entries); n > 0 && t.entries[n-1].Role == role {
		t.entries[n-1].Text += text
		return
	}

	t.entries = append(t.entries, Entry{Role: role, Text: text, Start: t.now()})
}

// Entries returns a copy of the accumulated turns.
func (t *Transcript) Entries() []Entry {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of turns so far.
func (t *Transcript) Len() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.entries)
}
