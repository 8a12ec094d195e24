package internal

import (
	"errors"
	"sync"
	"time"
)

// memoryStore is an in-process KeyValueStore for tests. Setting failWrites
// makes Set and Delete fail the way a full disk would.
type memoryStore struct {
	mu         sync.Mutex
	data       map[string]string
	failWrites bool
	failReads  bool
}

var errStoreUnavailable = errors.New("store unavailable")

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]string)}
}

func (m *memoryStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReads {
		return "", false, errStoreUnavailable
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errStoreUnavailable
	}
	m.data[key] = value
	return nil
}

func (m *memoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errStoreUnavailable
	}
	delete(m.data, key)
	return nil
}

func (m *memoryStore) raw(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

// CreateTestTranscript creates a transcript with a question and a sourced answer
func CreateTestTranscript(threadID string) *Transcript {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return CreateTestTranscriptWithMessages(threadID, []ChatMessage{
		{ID: "m1", Role: RoleUser, Content: "Where is the Mantis Claw?", CreatedAt: at},
		{
			ID:        "m2",
			Role:      RoleAssistant,
			Content:   "Defeat the Mantis Lords in **Mantis Village**.",
			CreatedAt: at.Add(time.Second),
			Sources: []SourceRecord{
				{Title: "Mantis Claw", URL: "https://wiki.example.com/mantis-claw"},
			},
			InteractionID: "interaction-1",
		},
	})
}

// CreateTestTranscriptWithMessages creates a transcript with the given messages
func CreateTestTranscriptWithMessages(threadID string, messages []ChatMessage) *Transcript {
	return &Transcript{
		SessionID:  "0b8f6d2e-4c1a-4f5e-9a3b-7d2c1e0f9a8b",
		ThreadID:   threadID,
		Game:       Game{ID: "hollow-knight", Label: "Hollow Knight", Accent: "#a9b1d6"},
		Spoiler:    SpoilerLight,
		ExportedAt: time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC),
		Messages:   messages,
	}
}
