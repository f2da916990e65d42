package chatclient

import "sync"

// Sender identifies who produced a transcript entry
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Entry is one turn of the conversation shown to the patient
type Entry struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// Transcript is an append-only log of turns, safe for concurrent use
type Transcript struct {
	mu      sync.RWMutex
	entries []Entry
}

// Append adds an entry at the end
func (t *Transcript) Append(e Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
}

// Entries returns a copy of all entries in order
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
