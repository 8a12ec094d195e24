package internal

import "github.com/google/uuid"

// Persisted keys in the kv table
const (
	KeySessionID = "gamehelp.session_id"
	KeyThreadID  = "gamehelp.thread_id"
	KeyMessages  = "gamehelp.messages"
	KeyGame      = "gamehelp.game"
)

// IdentityStore owns the device session id and the optional thread id
type IdentityStore struct {
	kv    KeyValueStore
	newID func() string
}

// NewIdentityStore creates an IdentityStore on top of kv
func NewIdentityStore(kv KeyValueStore) *IdentityStore {
	return &IdentityStore{kv: kv, newID: uuid.NewString}
}

// GetOrCreateSessionID returns the persisted session id, creating and storing
// one if there is none. It never fails: when storage is unavailable the fresh
// id is still returned.
func (s *IdentityStore) GetOrCreateSessionID() string {
	value, ok, err := s.kv.Get(KeySessionID)
	if err != nil {
		LogDebug("Failed to read session id: %v", err)
	}
	if ok && IsValidID(value) {
		return value
	}

	id := s.newID()
	if err := s.kv.Set(KeySessionID, id); err != nil {
		LogDebug("Failed to persist session id: %v", err)
	}
	return id
}

// SaveSessionID adopts a session id issued by the server
func (s *IdentityStore) SaveSessionID(id string) {
	if !IsValidID(id) {
		return
	}
	if err := s.kv.Set(KeySessionID, id); err != nil {
		LogDebug("Failed to persist session id: %v", err)
	}
}

// LoadThreadID returns the current thread id. Malformed values count as absent.
func (s *IdentityStore) LoadThreadID() (string, bool) {
	value, ok, err := s.kv.Get(KeyThreadID)
	if err != nil {
		LogDebug("Failed to read thread id: %v", err)
		return "", false
	}
	if !ok || !IsValidID(value) {
		return "", false
	}
	return value, true
}

// SaveThreadID stores id, or clears the thread when id is empty
func (s *IdentityStore) SaveThreadID(id string) {
	var err error
	if id == "" {
		err = s.kv.Delete(KeyThreadID)
	} else {
		err = s.kv.Set(KeyThreadID, id)
	}
	if err != nil {
		LogDebug("Failed to persist thread id: %v", err)
	}
}
