package internal

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Phase is the controller's position in the ask cycle. Success and failure
// are transient: both return to PhaseIdle once recorded.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSending
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSending:
		return "sending"
	default:
		return "unknown"
	}
}

// ControllerOptions carries the per-launch request settings
type ControllerOptions struct {
	Spoiler       SpoilerLevel
	MatchCount    *int
	DocFilter     DocFilter
	DeveloperMode *bool
	Now           func() time.Time
}

// Snapshot is a consistent copy of the controller state for rendering
type Snapshot struct {
	Phase     Phase
	Messages  []ChatMessage
	Err       *GatewayError
	SessionID string
	ThreadID  string
	Spoiler   SpoilerLevel
	Game      Game
	Draft     string
}

// Controller owns the conversation state: identity, the message log, the
// pending error and the spoiler level. Every mutation is flushed to the stores
// before the method returns. At most one ask is in flight.
type Controller struct {
	identity     *IdentityStore
	conversation *ConversationStore
	games        *GameStore
	gateway      AnswerGateway
	opts         ControllerOptions

	mu         sync.Mutex
	phase      Phase
	generation int
	sessionID  string
	threadID   string
	messages   []ChatMessage
	lastErr    *GatewayError
	draft      string
	spoiler    SpoilerLevel
	game       Game
}

// NewController loads identity, history and game selection from the stores
func NewController(identity *IdentityStore, conversation *ConversationStore, games *GameStore, gateway AnswerGateway, opts ControllerOptions) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Controller{
		identity:     identity,
		conversation: conversation,
		games:        games,
		gateway:      gateway,
		opts:         opts,
		spoiler:      SnapSpoiler(float64(opts.Spoiler)),
	}
	c.sessionID = identity.GetOrCreateSessionID()
	c.threadID, _ = identity.LoadThreadID()
	c.messages = conversation.LoadMessages()
	c.game = games.Load()
	return c
}

// Ask submits query. Empty queries, a missing session id and a pending ask
// are rejected with ErrEmptyQuery, ErrNoSession and ErrAskInFlight without
// touching any state. Gateway failures are returned as *GatewayError and the
// user message stays in the log. Cancelling ctx does not abort a request that
// has been sent; ctx only carries values to the gateway.
func (c *Controller) Ask(ctx context.Context, query string) (ChatMessage, error) {
	c.mu.Lock()
	req, gen, err := c.beginLocked(query)
	c.mu.Unlock()
	if err != nil {
		return ChatMessage{}, err
	}

	resp, err := c.gateway.Ask(context.WithoutCancel(ctx), req)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.phase = PhaseIdle }()

	if err != nil {
		gwErr, ok := AsGatewayError(err)
		if !ok {
			gwErr = transportError(err)
		}
		if gen == c.generation {
			c.lastErr = gwErr
		}
		LogDebug("Ask failed: %v", gwErr)
		return ChatMessage{}, gwErr
	}

	c.sessionID = resp.SessionID
	c.identity.SaveSessionID(resp.SessionID)

	if gen != c.generation {
		// The thread was reset while the answer was pending; the answer
		// belongs to a conversation that no longer exists.
		LogDebug("Discarding answer for reset thread %s", resp.ThreadID)
		return ChatMessage{}, ErrThreadReset
	}

	c.threadID = resp.ThreadID
	c.identity.SaveThreadID(resp.ThreadID)

	msg := NewAssistantMessage(resp, c.opts.Now())
	c.appendLocked(msg)
	return msg, nil
}

// Submit asks the current draft
func (c *Controller) Submit(ctx context.Context) (ChatMessage, error) {
	return c.Ask(ctx, c.Draft())
}

func (c *Controller) beginLocked(query string) (AnswerRequest, int, error) {
	q := strings.TrimSpace(query)
	switch {
	case q == "":
		return AnswerRequest{}, 0, ErrEmptyQuery
	case c.sessionID == "":
		return AnswerRequest{}, 0, ErrNoSession
	case c.phase == PhaseSending:
		return AnswerRequest{}, 0, ErrAskInFlight
	}

	c.phase = PhaseSending
	c.lastErr = nil
	c.appendLocked(NewUserMessage(q, c.opts.Now()))
	c.draft = ""

	return AnswerRequest{
		SessionID:     c.sessionID,
		ThreadID:      c.threadID,
		Query:         q,
		SpoilerLevel:  c.spoiler,
		MatchCount:    c.opts.MatchCount,
		DocFilter:     c.opts.DocFilter,
		DeveloperMode: c.opts.DeveloperMode,
	}, c.generation, nil
}

// appendLocked extends the in-memory log and flushes it. The in-memory log
// stays authoritative when the flush fails.
func (c *Controller) appendLocked(msg ChatMessage) {
	c.messages = append(c.messages, msg)
	c.conversation.SaveMessages(c.messages)
}

// ResetThread starts a new topic: clears the thread id, the log, the error and
// the draft. The session id is kept.
func (c *Controller) ResetThread() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Controller) resetLocked() {
	c.generation++
	c.threadID = ""
	c.identity.SaveThreadID("")
	c.messages = []ChatMessage{}
	c.conversation.Clear()
	c.lastErr = nil
	c.draft = ""
}

// SelectGame switches the display theme. A different game always starts a
// fresh thread.
func (c *Controller) SelectGame(id string) (Game, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id == c.game.ID {
		return c.game, nil
	}
	g, err := c.games.Save(id)
	if err != nil {
		return Game{}, err
	}
	c.game = g
	c.resetLocked()
	return g, nil
}

// SetSpoiler snaps raw and makes it the level for subsequent asks
func (c *Controller) SetSpoiler(raw float64) SpoilerLevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spoiler = SnapSpoiler(raw)
	return c.spoiler
}

// SetDraft replaces the pending input text
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
}

// Draft returns the pending input text
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Phase returns the current phase
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Err returns the error of the last failed ask, if it has not been cleared
func (c *Controller) Err() *GatewayError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Messages returns a copy of the log
func (c *Controller) Messages() []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyMessagesLocked()
}

func (c *Controller) copyMessagesLocked() []ChatMessage {
	out := make([]ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// SessionID returns the current session id
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// ThreadID returns the current thread id, empty when no thread is active
func (c *Controller) ThreadID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threadID
}

// Spoiler returns the current spoiler level
func (c *Controller) Spoiler() SpoilerLevel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spoiler
}

// Game returns the selected game
func (c *Controller) Game() Game {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.game
}

// Snapshot returns a consistent copy of everything the UI renders
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Phase:     c.phase,
		Messages:  c.copyMessagesLocked(),
		Err:       c.lastErr,
		SessionID: c.sessionID,
		ThreadID:  c.threadID,
		Spoiler:   c.spoiler,
		Game:      c.game,
		Draft:     c.draft,
	}
}
