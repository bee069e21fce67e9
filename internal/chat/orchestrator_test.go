package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradechat/internal/config"
	"tradechat/internal/prompt"
	"tradechat/internal/provider"
	"tradechat/internal/store"
	"tradechat/internal/types"
)

type stubSource struct {
	sessions []types.TradingSession
	trades   []types.Trade
}

func (s *stubSource) ListSessions(ctx context.Context, userID string) ([]types.TradingSession, error) {
	return s.sessions, nil
}

func (s *stubSource) ListTrades(ctx context.Context, userID, sessionID string) ([]types.Trade, error) {
	return s.trades, nil
}

type stubClient struct {
	calls    int
	lastSys  string
	lastUser string
	complete func(system, user string, opts provider.Options) (provider.Result, error)
}

func (c *stubClient) Complete(ctx context.Context, system, user string, opts provider.Options) (provider.Result, error) {
	c.calls++
	c.lastSys = system
	c.lastUser = user
	if c.complete != nil {
		return c.complete(system, user, opts)
	}
	return provider.Result{Content: "ok"}, nil
}

type recordingAudit struct {
	recs []store.TurnLogRecord
}

func (a *recordingAudit) AppendTurnLog(ctx context.Context, rec store.TurnLogRecord) error {
	a.recs = append(a.recs, rec)
	return nil
}

func newTestRenderer(t *testing.T) *prompt.Renderer {
	t.Helper()
	r, err := prompt.NewRenderer(config.PromptConfig{})
	require.NoError(t, err)
	return r
}

func testSource() *stubSource {
	now := time.Now()
	return &stubSource{
		sessions: []types.TradingSession{{
			ID: "s1", UserID: "alice", Name: "Scalping",
			InitialCapital: decimal.NewFromInt(1000),
			CurrentCapital: decimal.NewFromInt(1200),
			CreatedAt:      now,
		}},
		trades: []types.Trade{{
			ID: "t1", SessionID: "s1", UserID: "alice", Side: types.SideLong,
			Margin: decimal.NewFromInt(100), ROI: decimal.NewFromInt(20),
			ProfitLoss: decimal.NewFromInt(200), CreatedAt: now,
		}},
	}
}

func newTestOrchestrator(t *testing.T, client provider.Client, onSwitch func(string)) (*Orchestrator, *recordingAudit) {
	t.Helper()
	audit := &recordingAudit{}
	o := NewOrchestrator(testSource(), newTestRenderer(t), client, audit, Options{
		UserID:          "alice",
		Limits:          Limits{MaxSessions: 5, MaxTrades: 10},
		MaxTokens:       512,
		Temperature:     0.7,
		OnSessionSwitch: onSwitch,
	})
	return o, audit
}

func TestSubmitEmptyMessageIsNoOp(t *testing.T) {
	client := &stubClient{}
	o, _ := newTestOrchestrator(t, client, nil)

	_, err := o.Submit(context.Background(), "   ", "")
	require.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, client.calls)
	assert.Empty(t, o.Snapshot().Messages)
	assert.Equal(t, "idle", o.Snapshot().State)
}

func TestSubmitSessionSwitchShortCircuits(t *testing.T) {
	client := &stubClient{}
	var switched []string
	o, audit := newTestOrchestrator(t, client, func(name string) { switched = append(switched, name) })

	result, err := o.Submit(context.Background(), "Load the BTC 5 Minute session", "")
	require.NoError(t, err)
	assert.Equal(t, "BTC 5 Minute", result.SwitchedTo)
	assert.Equal(t, []string{"BTC 5 Minute"}, switched)
	// the completion backend is never contacted
	assert.Zero(t, client.calls)

	msgs := o.Snapshot().Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, types.RoleUser, msgs[0].Role)
	assert.Equal(t, types.RoleAssistant, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "BTC 5 Minute")

	require.Len(t, audit.recs, 1)
	assert.Equal(t, "session_switch", audit.recs[0].Kind)
}

func TestSubmitGeneralQuerySuccess(t *testing.T) {
	client := &stubClient{complete: func(system, user string, opts provider.Options) (provider.Result, error) {
		return provider.Result{Content: "Your win rate is 100%.", Usage: types.Usage{TotalTokens: 42}}, nil
	}}
	o, audit := newTestOrchestrator(t, client, nil)

	result, err := o.Submit(context.Background(), "What is my win rate?", "")
	require.NoError(t, err)
	assert.Equal(t, "Your win rate is 100%.", result.Reply)
	assert.Equal(t, 42, result.Usage.TotalTokens)

	// the user message rides in the user role, data in the system role
	assert.Equal(t, "What is my win rate?", client.lastUser)
	assert.Contains(t, client.lastSys, "Scalping")

	msgs := o.Snapshot().Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "What is my win rate?", msgs[0].Content)
	assert.Equal(t, "Your win rate is 100%.", msgs[1].Content)

	require.Len(t, audit.recs, 1)
	assert.Equal(t, "chat", audit.recs[0].Kind)
	assert.Equal(t, 42, audit.recs[0].Usage.TotalTokens)
}

func TestSubmitBackendFailureAppendsNothing(t *testing.T) {
	client := &stubClient{complete: func(system, user string, opts provider.Options) (provider.Result, error) {
		return provider.Result{}, provider.ErrBackendUnavailable
	}}
	o, audit := newTestOrchestrator(t, client, nil)

	_, err := o.Submit(context.Background(), "hello", "")
	require.ErrorIs(t, err, provider.ErrBackendUnavailable)

	msgs := o.Snapshot().Messages
	// the user's message stays, no fabricated assistant reply
	require.Len(t, msgs, 1)
	assert.Equal(t, types.RoleUser, msgs[0].Role)
	assert.Equal(t, "idle", o.Snapshot().State)
	assert.Empty(t, audit.recs)
}

func TestSubmitEmptyResponseFallsBack(t *testing.T) {
	client := &stubClient{complete: func(system, user string, opts provider.Options) (provider.Result, error) {
		return provider.Result{}, provider.ErrEmptyResponse
	}}
	o, _ := newTestOrchestrator(t, client, nil)

	result, err := o.Submit(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, fallbackReply, result.Reply)

	msgs := o.Snapshot().Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, fallbackReply, msgs[1].Content)
}

func TestSubmitSingleTurnInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	client := &stubClient{complete: func(system, user string, opts provider.Options) (provider.Result, error) {
		close(started)
		<-release
		return provider.Result{Content: "done"}, nil
	}}
	o, _ := newTestOrchestrator(t, client, nil)

	errCh := make(chan error, 1)
	go func() {
		_, err := o.Submit(context.Background(), "first", "")
		errCh <- err
	}()
	<-started

	// the user message is already visible while the turn is in flight
	snap := o.Snapshot()
	assert.Equal(t, "sending", snap.State)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "first", snap.Messages[0].Content)

	_, err := o.Submit(context.Background(), "second", "")
	require.ErrorIs(t, err, ErrTurnInFlight)

	close(release)
	require.NoError(t, <-errCh)

	msgs := o.Snapshot().Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
}

func TestResetClearsTranscript(t *testing.T) {
	o, _ := newTestOrchestrator(t, &stubClient{}, nil)
	for i := 0; i < 3; i++ {
		_, err := o.Submit(context.Background(), "What changed?", "")
		require.NoError(t, err)
	}
	require.Len(t, o.Snapshot().Messages, 6)

	require.NoError(t, o.Reset())
	assert.Empty(t, o.Snapshot().Messages)
}

func TestSubscribeSeesStateChanges(t *testing.T) {
	o, _ := newTestOrchestrator(t, &stubClient{}, nil)
	ch, cancel := o.Subscribe()
	defer cancel()

	_, err := o.Submit(context.Background(), "hi there assistant", "")
	require.NoError(t, err)

	select {
	case snap := <-ch:
		assert.Equal(t, "alice", snap.UserID)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestSubscribeCancelRemovesObserver(t *testing.T) {
	o, _ := newTestOrchestrator(t, &stubClient{}, nil)
	ch, cancel := o.Subscribe()
	cancel()
	cancel() // idempotent

	_, err := o.Submit(context.Background(), "hello again", "")
	require.NoError(t, err)

	select {
	case <-ch:
		t.Fatal("cancelled subscriber still receives snapshots")
	default:
	}
}

func TestSubmitUnknownFocusSession(t *testing.T) {
	o, _ := newTestOrchestrator(t, &stubClient{}, nil)
	_, err := o.Submit(context.Background(), "how did it go", "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFocusSessionNotFound))
}
