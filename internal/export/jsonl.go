package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iksnae/gamehelp/internal"
)

// JSONLExporter exports transcripts in JSONL format (one message per line)
type JSONLExporter struct{}

// Export exports a transcript to JSONL format
func (e *JSONLExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range transcript.Messages {
		obj := map[string]interface{}{
			"session_id": transcript.SessionID,
			"game":       transcript.Game.ID,
			"role":       msg.Role,
			"content":    msg.Content,
		}
		if transcript.ThreadID != "" {
			obj["thread_id"] = transcript.ThreadID
		}
		if !msg.CreatedAt.IsZero() {
			obj["timestamp"] = msg.CreatedAt.UTC().Format(time.RFC3339)
		}
		if len(msg.Sources) > 0 {
			obj["sources"] = msg.Sources
		}
		if msg.InteractionID != "" {
			obj["interaction_id"] = msg.InteractionID
		}

		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
