package internal

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of the conversation log
type ChatMessage struct {
	ID            string         `json:"id" yaml:"id"`
	Role          Role           `json:"role" yaml:"role"`
	Content       string         `json:"content" yaml:"content"`
	CreatedAt     time.Time      `json:"createdAt" yaml:"created_at"`
	Sources       []SourceRecord `json:"sources,omitempty" yaml:"sources,omitempty"`
	InteractionID string         `json:"interactionId,omitempty" yaml:"interaction_id,omitempty"`
}

// NewUserMessage creates a user message stamped with a fresh id
func NewUserMessage(content string, now time.Time) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   content,
		CreatedAt: now,
	}
}

// NewAssistantMessage builds the assistant message for an answer. Sources are
// deduplicated before they are attached.
func NewAssistantMessage(resp *AnswerResponse, now time.Time) ChatMessage {
	return ChatMessage{
		ID:            uuid.NewString(),
		Role:          RoleAssistant,
		Content:       resp.Answer,
		CreatedAt:     now,
		Sources:       DedupeSources(resp.Sources),
		InteractionID: resp.InteractionID,
	}
}

// SourceRecord is an attribution entry accompanying an answer
type SourceRecord struct {
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Source      string `json:"source,omitempty" yaml:"source,omitempty"`
	ChunkID     string `json:"chunkId,omitempty" yaml:"chunk_id,omitempty"`
	Author      string `json:"author,omitempty" yaml:"author,omitempty"`
	LicenseName string `json:"licenseName,omitempty" yaml:"license_name,omitempty"`
	LicenseURL  string `json:"licenseUrl,omitempty" yaml:"license_url,omitempty"`
}

// UnmarshalJSON accepts both camelCase and snake_case field names and tolerates
// non-string scalars (chunk ids are sometimes numeric).
func (s *SourceRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	pick := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := raw[k]; ok && v != nil {
				switch tv := v.(type) {
				case string:
					return tv
				default:
					b, _ := json.Marshal(tv)
					return strings.Trim(string(b), `"`)
				}
			}
		}
		return ""
	}
	*s = SourceRecord{
		Title:       pick("title"),
		URL:         pick("url"),
		Source:      pick("source"),
		ChunkID:     pick("chunkId", "chunk_id"),
		Author:      pick("author"),
		LicenseName: pick("licenseName", "license_name"),
		LicenseURL:  pick("licenseUrl", "license_url"),
	}
	return nil
}

// AnswerResponse is a validated answer service reply. Raw holds the decoded
// object exactly as received.
type AnswerResponse struct {
	OK            bool
	SessionID     string
	ThreadID      string
	Answer        string
	Sources       []SourceRecord
	InteractionID string
	Meta          map[string]interface{}
	Raw           map[string]interface{}
}

// IsValidID reports whether id is a canonical RFC 4122 UUID (36 chars,
// version 1-5, RFC 4122 variant).
func IsValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	if v := parsed.Version(); v < 1 || v > 5 {
		return false
	}
	return parsed.Variant() == uuid.RFC4122
}
