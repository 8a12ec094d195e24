package internal

import "encoding/json"

// ConversationStore persists the ordered chat log as one JSON document.
// Reads degrade to an empty log and writes are best effort.
type ConversationStore struct {
	kv KeyValueStore
}

// NewConversationStore creates a ConversationStore on top of kv
func NewConversationStore(kv KeyValueStore) *ConversationStore {
	return &ConversationStore{kv: kv}
}

// LoadMessages returns the persisted log, or an empty one if it is missing or corrupt
func (s *ConversationStore) LoadMessages() []ChatMessage {
	value, ok, err := s.kv.Get(KeyMessages)
	if err != nil {
		LogDebug("Failed to read messages: %v", err)
		return []ChatMessage{}
	}
	if !ok || value == "" {
		return []ChatMessage{}
	}

	var messages []ChatMessage
	if err := json.Unmarshal([]byte(value), &messages); err != nil {
		LogDebug("%v", &ParseError{Source: "kv", Key: KeyMessages, Err: err})
		return []ChatMessage{}
	}
	if messages == nil {
		return []ChatMessage{}
	}
	return messages
}

// SaveMessages persists the log. Failures are logged and swallowed.
func (s *ConversationStore) SaveMessages(messages []ChatMessage) {
	if messages == nil {
		messages = []ChatMessage{}
	}
	data, err := json.Marshal(messages)
	if err != nil {
		LogDebug("Failed to encode messages: %v", err)
		return
	}
	if err := s.kv.Set(KeyMessages, string(data)); err != nil {
		LogDebug("Failed to persist messages: %v", err)
	}
}

// AppendMessage adds msg to the end of the persisted log and returns the new log
func (s *ConversationStore) AppendMessage(msg ChatMessage) []ChatMessage {
	messages := append(s.LoadMessages(), msg)
	s.SaveMessages(messages)
	return messages
}

// Clear removes the persisted log
func (s *ConversationStore) Clear() {
	if err := s.kv.Delete(KeyMessages); err != nil {
		LogDebug("Failed to clear messages: %v", err)
	}
}
