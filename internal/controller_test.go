package internal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/iksnae/gamehelp/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway answers from a queue and records requests. When block is set,
// each Ask waits for a value on it before answering.
type fakeGateway struct {
	mu       sync.Mutex
	requests []AnswerRequest
	resp     *AnswerResponse
	err      error
	started  chan struct{}
	block    chan struct{}
	ctxErr   error
}

func (f *fakeGateway) Ask(ctx context.Context, req AnswerRequest) (*AnswerResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	resp, err, block, started := f.resp, f.err, f.block, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	f.mu.Lock()
	f.ctxErr = ctx.Err()
	f.mu.Unlock()
	return resp, err
}

func (f *fakeGateway) calls() []AnswerRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]AnswerRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

type controllerFixture struct {
	kv      *memoryStore
	gateway *fakeGateway
	ctrl    *Controller
}

func newControllerFixture(t *testing.T, opts ControllerOptions) *controllerFixture {
	t.Helper()
	kv := newMemoryStore()
	gw := &fakeGateway{resp: &AnswerResponse{
		OK:        true,
		SessionID: testutil.SessionID1,
		ThreadID:  testutil.ThreadID1,
		Answer:    "Near the shore.",
		Sources:   []SourceRecord{{Title: "Wiki", URL: "https://x"}, {Title: "Wiki", URL: "https://x"}},
	}}
	if opts.Now == nil {
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		var tick int
		opts.Now = func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Second)
		}
	}
	ctrl := NewController(NewIdentityStore(kv), NewConversationStore(kv), NewGameStore(kv, NewGameCatalog()), gw, opts)
	return &controllerFixture{kv: kv, gateway: gw, ctrl: ctrl}
}

func TestController_AskSuccess(t *testing.T) {
	f := newControllerFixture(t, ControllerOptions{Spoiler: 33})
	f.ctrl.SetDraft("Where is the forge?")

	msg, err := f.ctrl.Submit(context.Background())
	require.NoError(t, err)

	msgs := f.ctrl.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "Where is the forge?", msgs[0].Content)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Near the shore.", msgs[1].Content)
	assert.Len(t, msgs[1].Sources, 1)
	assert.Equal(t, msg.ID, msgs[1].ID)
	assert.True(t, msgs[0].CreatedAt.Before(msgs[1].CreatedAt))

	assert.Equal(t, testutil.ThreadID1, f.ctrl.ThreadID())
	assert.Equal(t, PhaseIdle, f.ctrl.Phase())
	assert.Nil(t, f.ctrl.Err())
	assert.Empty(t, f.ctrl.Draft())

	calls := f.gateway.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, SpoilerLight, calls[0].SpoilerLevel)
	assert.Empty(t, calls[0].ThreadID, "first ask starts a new thread")

	stored, _ := f.kv.raw(KeyThreadID)
	assert.Equal(t, testutil.ThreadID1, stored)
	assert.Len(t, NewConversationStore(f.kv).LoadMessages(), 2)
}

func TestController_AdoptsRotatedSessionID(t *testing.T) {
	f := newControllerFixture(t, ControllerOptions{})
	original := f.ctrl.SessionID()
	f.gateway.resp.SessionID = testutil.SessionID2

	_, err := f.ctrl.Ask(context.Background(), "hi")
	require.NoError(t, err)

	assert.NotEqual(t, original, f.ctrl.SessionID())
	assert.Equal(t, testutil.SessionID2, f.ctrl.SessionID())
	stored, _ := f.kv.raw(KeySessionID)
	assert.Equal(t, testutil.SessionID2, stored)

	_, err = f.ctrl.Ask(context.Background(), "again")
	require.NoError(t, err)
	calls := f.gateway.calls()
	assert.Equal(t, testutil.SessionID2, calls[1].SessionID)
	assert.Equal(t, testutil.ThreadID1, calls[1].ThreadID)
}

func TestController_EmptyQueryIsNoop(t *testing.T) {
	f := newControllerFixture(t, ControllerOptions{})

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := f.ctrl.Ask(context.Background(), q)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}
	assert.Empty(t, f.ctrl.Messages())
	assert.Empty(t, f.gateway.calls())
}

func TestController_NoSessionIsNoop(t *testing.T) {
	f := newControllerFixture(t, ControllerOptions{})
	f.ctrl.sessionID = ""

	_, err := f.ctrl.Ask(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Empty(t, f.ctrl.Messages())
	assert.Empty(t, f.gateway.calls())
}

func TestController_RejectsWhileSending(t *testing.T) {
	f := newControllerFixture(t, ControllerOptions{})
	f.gateway.started = make(chan struct{}, 1)
	f.gateway.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.ctrl.Ask(context.Background(), "first")
		done <- err
	}()
	<-f.gateway.started

	assert.Equal(t, PhaseSending, f.ctrl.Phase())
	_, err := f.ctrl.Ask(context.Background(), "second")
	assert.ErrorIs(t, err, ErrAskInFlight)

	msgs := f.ctrl.Messages()
	require.Len(t, msgs, 1, "no duplicate user message while pending")
	assert.Equal(t, "first", msgs[0].Content)

	close(f.gateway.block)
	require.NoError(t, <-done)

	assert.Len(t, f.gateway.calls(), 1)
	assert.Len(t, f.ctrl.Messages(), 2)
	assert.Equal(t, PhaseIdle, f.ctrl.Phase())
}

func TestController_CallerCancelDoesNotAbortAsk(t *testing.T) {
	f := newControllerFixture(t, ControllerOptions{})
	f.gateway.started = make(chan struct{}, 1)
	f.gateway.block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.ctrl.Ask(ctx, "where is the forge?")
		done <- err
	}()
	<-f.gateway.started
	cancel()
	close(f.gateway.block)

	require.NoError(t, <-done)
	f.gateway.mu.Lock()
	ctxErr := f.gateway.ctxErr
	f.gateway.mu.Unlock()
	assert.NoError(t, ctxErr, "request context must not see the caller's cancellation")
	assert.Len(t, f.ctrl.Messages(), 2)
	assert.Equal(t, testutil.ThreadID1, f.ctrl.ThreadID())
}

func TestController_FailureKeepsUserMessage(t *testing.T) {
	f := newControllerFixture(t, ControllerOptions{})
	f.gateway.resp = nil
	f.gateway.err = &GatewayError{Kind: KindMissingIdentity, Name: "ResponseError", Message: msgMissingIdentity, Status: 500}

	_, err := f.ctrl.Ask(context.Background(), "Where is the forge?")
	gwErr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, "Backend response missing session_id/thread_id", gwErr.Message)

	msgs := f.ctrl.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, gwErr, f.ctrl.Err())
	assert.Equal(t, PhaseIdle, f.ctrl.Phase())
	assert.Empty(t, f.ctrl.ThreadID())
}

func TestController_NonGatewayErrorIsNormalized(t *testing.T) {
	f := newControllerFixture(t, ControllerOptions{})
	f.gateway.resp = nil
	f.gateway.err = errors.New("boom")

	_, err := f.ctrl.Ask(context.Background(), "q")
	gwErr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, gwErr.Kind)
	assert.Equal(t, "boom", gwErr.Message)
}

func TestController_NextAskClearsError(t *testing.T) {
	f := newControllerFixture(t, ControllerOptions{})
	okResp := f.gateway.resp
	f.gateway.resp = nil
	f.gateway.err = &GatewayError{Kind: KindTransport, Name: "FetchError", Message: "down"}

	_, _ = f.ctrl.Ask(context.Background(), "first")
	require.NotNil(t, f.ctrl.Err())

	f.gateway.resp, f.gateway.err = okResp, nil
	_, err := f.ctrl.Ask(context.Background(), "second")
	require.NoError(t, err)
	assert.Nil(t, f.ctrl.Err())
	assert.Len(t, f.ctrl.Messages(), 3)
}

func TestController_ResetThread(t *testing.T) {
	f := newControllerFixture(t, ControllerOptions{})
	_, err := f.ctrl.Ask(context.Background(), "hi")
	require.NoError(t, err)
	session := f.ctrl.SessionID()
	f.ctrl.SetDraft("half typed")

	f.ctrl.ResetThread()

	assert.Empty(t, f.ctrl.ThreadID())
	assert.Empty(t, f.ctrl.Messages())
	assert.Empty(t, f.ctrl.Draft())
	assert.Nil(t, f.ctrl.Err())
	assert.Equal(t, session, f.ctrl.SessionID())
	_, persisted := f.kv.raw(KeyThreadID)
	assert.False(t, persisted)
	assert.Empty(t, NewConversationStore(f.kv).LoadMessages())
}

func TestController_ResetWhilePendingDropsAnswer(t *testing.T) {
	f := newControllerFixture(t, ControllerOptions{})
	f.gateway.started = make(chan struct{}, 1)
	f.gateway.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.ctrl.Ask(context.Background(), "old topic")
		done <- err
	}()
	<-f.gateway.started

	f.ctrl.ResetThread()
	close(f.gateway.block)

	assert.ErrorIs(t, <-done, ErrThreadReset)
	assert.Empty(t, f.ctrl.Messages())
	assert.Empty(t, f.ctrl.ThreadID())
	assert.Equal(t, PhaseIdle, f.ctrl.Phase())
}

func TestController_SelectGameClearsConversation(t *testing.T) {
	f := newControllerFixture(t, ControllerOptions{})
	ctx := context.Background()

	_, err := f.ctrl.SelectGame("hollow-knight")
	require.NoError(t, err)
	_, err = f.ctrl.Ask(ctx, "where is the mantis village?")
	require.NoError(t, err)

	_, err = f.ctrl.SelectGame("elden-ring")
	require.NoError(t, err)
	assert.Empty(t, f.ctrl.Messages())
	assert.Empty(t, f.ctrl.ThreadID())

	_, err = f.ctrl.Ask(ctx, "where is the forge?")
	require.NoError(t, err)
	require.NotEmpty(t, f.ctrl.ThreadID())

	// Going back to a game visited before still starts over.
	g, err := f.ctrl.SelectGame("hollow-knight")
	require.NoError(t, err)
	assert.Equal(t, "Hollow Knight", g.Label)
	assert.Empty(t, f.ctrl.Messages())
	assert.Empty(t, f.ctrl.ThreadID())

	stored, _ := f.kv.raw(KeyGame)
	assert.Equal(t, "hollow-knight", stored)
}

func TestController_SelectSameGameKeepsConversation(t *testing.T) {
	f := newControllerFixture(t, ControllerOptions{})
	_, err := f.ctrl.Ask(context.Background(), "hi")
	require.NoError(t, err)

	_, err = f.ctrl.SelectGame(f.ctrl.Game().ID)
	require.NoError(t, err)
	assert.Len(t, f.ctrl.Messages(), 2)
}

func TestController_SelectUnknownGame(t *testing.T) {
	f := newControllerFixture(t, ControllerOptions{})
	_, err := f.ctrl.Ask(context.Background(), "hi")
	require.NoError(t, err)

	_, err = f.ctrl.SelectGame("nope")
	assert.Error(t, err)
	assert.Len(t, f.ctrl.Messages(), 2, "failed switch must not clear the log")
}

func TestController_SpoilerSnapping(t *testing.T) {
	f := newControllerFixture(t, ControllerOptions{Spoiler: 70})
	assert.Equal(t, SpoilerSome, f.ctrl.Spoiler())

	assert.Equal(t, SpoilerNone, f.ctrl.SetSpoiler(16.5))
	assert.Equal(t, SpoilerFull, f.ctrl.SetSpoiler(240))

	_, err := f.ctrl.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, SpoilerFull, f.gateway.calls()[0].SpoilerLevel)
}

func TestController_PassesRetrievalKnobs(t *testing.T) {
	mc := 4
	dev := true
	f := newControllerFixture(t, ControllerOptions{MatchCount: &mc, DocFilter: DocFilterNull(), DeveloperMode: &dev})

	_, err := f.ctrl.Ask(context.Background(), "q")
	require.NoError(t, err)

	body := f.gateway.calls()[0].Body()
	assert.Equal(t, 4, body["match_count"])
	assert.Contains(t, body, "doc_filter")
	assert.Equal(t, true, body["developer_mode"])
}

func TestController_RestoresStateFromStores(t *testing.T) {
	kv := newMemoryStore()
	identity := NewIdentityStore(kv)
	identity.SaveSessionID(testutil.SessionID1)
	identity.SaveThreadID(testutil.ThreadID2)
	NewConversationStore(kv).SaveMessages(sampleMessages())
	games := NewGameStore(kv, NewGameCatalog())
	_, _ = games.Save("stardew-valley")

	ctrl := NewController(identity, NewConversationStore(kv), games, &fakeGateway{}, ControllerOptions{})

	snap := ctrl.Snapshot()
	assert.Equal(t, testutil.SessionID1, snap.SessionID)
	assert.Equal(t, testutil.ThreadID2, snap.ThreadID)
	assert.Len(t, snap.Messages, 2)
	assert.Equal(t, "stardew-valley", snap.Game.ID)
	assert.Equal(t, PhaseIdle, snap.Phase)
}

func TestController_PersistenceFailureKeepsMemoryLog(t *testing.T) {
	f := newControllerFixture(t, ControllerOptions{})
	f.kv.failWrites = true

	_, err := f.ctrl.Ask(context.Background(), "hi")
	require.NoError(t, err)
	assert.Len(t, f.ctrl.Messages(), 2)
	assert.Equal(t, testutil.ThreadID1, f.ctrl.ThreadID())
}

// End to end through the HTTP gateway and SQLite storage.
func TestController_EndToEnd(t *testing.T) {
	srv := testutil.NewAnswerServer(t, testutil.JSONResponder(http.StatusOK,
		testutil.AnswerPayload(testutil.SessionID1, testutil.ThreadID1, "Near the shore.",
			map[string]interface{}{"title": "Wiki", "url": "https://x"},
			map[string]interface{}{"title": "Wiki mirror", "url": "https://x"})))

	kv := NewSQLiteStore(testutil.CreateInMemoryDB(t), ":memory:")
	ctrl := NewController(
		NewIdentityStore(kv),
		NewConversationStore(kv),
		NewGameStore(kv, NewGameCatalog()),
		NewHTTPGateway(srv.URL, "", srv.Client()),
		ControllerOptions{Spoiler: SpoilerLight},
	)

	_, err := ctrl.Ask(context.Background(), "Where is the forge?")
	require.NoError(t, err)

	msgs := ctrl.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	require.Len(t, msgs[1].Sources, 1)
	assert.Equal(t, "Wiki", msgs[1].Sources[0].DisplayLabel())

	thread, ok := NewIdentityStore(kv).LoadThreadID()
	require.True(t, ok)
	assert.Equal(t, testutil.ThreadID1, thread)

	req := srv.Requests()[0]
	assert.Equal(t, float64(33), req["spoilerLevel"])

	srv.SetResponder(testutil.JSONResponder(http.StatusOK, map[string]interface{}{
		"ok": true, "session_id": testutil.SessionID1, "answer": "no thread",
	}))
	_, err = ctrl.Ask(context.Background(), "follow up")
	gwErr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, "Backend response missing session_id/thread_id", gwErr.Message)
	assert.Len(t, ctrl.Messages(), 3, "no assistant message on failure")
	assert.Equal(t, testutil.ThreadID1, srv.Requests()[1]["thread_id"])
}
