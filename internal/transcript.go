package internal

import "time"

// Transcript is a snapshot of one conversation thread prepared for export
type Transcript struct {
	SessionID  string        `json:"session_id" yaml:"session_id"`
	ThreadID   string        `json:"thread_id,omitempty" yaml:"thread_id,omitempty"`
	Game       Game          `json:"game" yaml:"game"`
	Spoiler    SpoilerLevel  `json:"spoiler_level" yaml:"spoiler_level"`
	ExportedAt time.Time     `json:"exported_at" yaml:"exported_at"`
	Messages   []ChatMessage `json:"messages" yaml:"messages"`
}

// Transcript captures the controller state for export
func (c *Controller) Transcript() *Transcript {
	snap := c.Snapshot()
	return &Transcript{
		SessionID:  snap.SessionID,
		ThreadID:   snap.ThreadID,
		Game:       snap.Game,
		Spoiler:    snap.Spoiler,
		ExportedAt: c.opts.Now(),
		Messages:   snap.Messages,
	}
}

// FileStem returns a filename stem for the transcript
func (t *Transcript) FileStem() string {
	id := t.ThreadID
	if id == "" {
		id = "no-thread"
	}
	return t.Game.ID + "-" + id
}
