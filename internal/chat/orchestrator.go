package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tradechat/internal/intent"
	"tradechat/internal/logger"
	"tradechat/internal/prompt"
	"tradechat/internal/provider"
	"tradechat/internal/store"
	"tradechat/internal/types"
)

// State is the lifecycle of a conversational turn. Resolved and Failed are
// momentary: the orchestrator returns to Idle before Submit returns.
type State int

const (
	StateIdle State = iota
	StateSending
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSending:
		return "sending"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

var (
	// ErrEmptyMessage: blank submits are a no-op.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrTurnInFlight: at most one outstanding turn per conversation.
	ErrTurnInFlight = errors.New("a turn is already in flight")
)

// fallbackReply substitutes for an empty completion. This is the one case
// where a failure still appends an assistant message.
const fallbackReply = "I couldn't generate a response this time. Please try again."

// DataSource supplies the per-user collections the context is built from.
type DataSource interface {
	ListSessions(ctx context.Context, userID string) ([]types.TradingSession, error)
	ListTrades(ctx context.Context, userID, sessionID string) ([]types.Trade, error)
}

// TurnLogger receives the audit record of each resolved turn. Failures to
// write are logged and swallowed; auditing never fails a turn.
type TurnLogger interface {
	AppendTurnLog(ctx context.Context, rec store.TurnLogRecord) error
}

// Options configures one conversation orchestrator.
type Options struct {
	UserID          string
	Limits          Limits
	MaxTokens       int
	Temperature     float64
	OnSessionSwitch func(name string)
}

// TurnResult is what a resolved turn produced.
type TurnResult struct {
	Reply      string
	SwitchedTo string
	Usage      types.Usage
}

// Snapshot is the queryable, serializable view of a conversation.
type Snapshot struct {
	UserID   string              `json:"user_id"`
	State    string              `json:"state"`
	Messages []types.ChatMessage `json:"messages"`
}

// Orchestrator drives one conversation. Each instance owns its transcript
// exclusively; concurrent conversations are independent.
type Orchestrator struct {
	source   DataSource
	renderer *prompt.Renderer
	client   provider.Client
	audit    TurnLogger
	opts     Options

	mu         sync.Mutex
	state      State
	transcript transcript
	subs       []chan Snapshot
}

func NewOrchestrator(source DataSource, renderer *prompt.Renderer, client provider.Client, audit TurnLogger, opts Options) *Orchestrator {
	return &Orchestrator{
		source:   source,
		renderer: renderer,
		client:   client,
		audit:    audit,
		opts:     opts,
		state:    StateIdle,
	}
}

// Submit runs one turn to completion. A blank message or an in-flight turn is
// rejected without touching any state. The user message lands in the
// transcript synchronously, before the completion call suspends, so it is
// visible immediately regardless of backend latency. A non-empty
// focusSessionID narrows the context to that session.
func (o *Orchestrator) Submit(ctx context.Context, message, focusSessionID string) (TurnResult, error) {
	text := strings.TrimSpace(message)
	if text == "" {
		return TurnResult{}, ErrEmptyMessage
	}

	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return TurnResult{}, ErrTurnInFlight
	}
	o.state = StateSending
	o.transcript.append(types.RoleUser, text)
	o.notifyLocked()
	o.mu.Unlock()

	started := time.Now()
	result, err := o.runTurn(ctx, text, focusSessionID)

	o.mu.Lock()
	if err != nil {
		// A failed turn never appends a fabricated assistant message; the
		// caller surfaces the notification.
		o.state = StateFailed
	} else {
		o.state = StateResolved
	}
	o.notifyLocked()
	// Resolved/Failed -> Idle is immediate and unconditional.
	o.state = StateIdle
	o.notifyLocked()
	o.mu.Unlock()

	if err == nil {
		o.logTurn(ctx, text, result, time.Since(started))
	}
	return result, err
}

func (o *Orchestrator) runTurn(ctx context.Context, text, focusSessionID string) (TurnResult, error) {
	if it := intent.Classify(text); it.Kind == intent.SessionSwitch {
		ack := fmt.Sprintf("Switching to the %q session.", it.SessionName)
		o.mu.Lock()
		o.transcript.append(types.RoleAssistant, ack)
		o.notifyLocked()
		o.mu.Unlock()
		if o.opts.OnSessionSwitch != nil {
			o.opts.OnSessionSwitch(it.SessionName)
		}
		return TurnResult{Reply: ack, SwitchedTo: it.SessionName}, nil
	}

	sessions, err := o.source.ListSessions(ctx, o.opts.UserID)
	if err != nil {
		return TurnResult{}, fmt.Errorf("loading sessions: %w", err)
	}
	trades, err := o.source.ListTrades(ctx, o.opts.UserID, "")
	if err != nil {
		return TurnResult{}, fmt.Errorf("loading trades: %w", err)
	}
	cctx, err := BuildContext(o.opts.UserID, sessions, trades, focusSessionID, o.opts.Limits)
	if err != nil {
		return TurnResult{}, err
	}
	system, err := o.renderer.RenderSystem(systemData(cctx))
	if err != nil {
		return TurnResult{}, err
	}

	res, err := o.client.Complete(ctx, system, text, provider.Options{
		MaxTokens:   o.opts.MaxTokens,
		Temperature: o.opts.Temperature,
		Purpose:     "chat",
	})
	if err != nil {
		if errors.Is(err, provider.ErrEmptyResponse) {
			// Soft failure: degrade to the fixed fallback instead of failing
			// the turn.
			o.mu.Lock()
			o.transcript.append(types.RoleAssistant, fallbackReply)
			o.notifyLocked()
			o.mu.Unlock()
			return TurnResult{Reply: fallbackReply}, nil
		}
		return TurnResult{}, err
	}

	o.mu.Lock()
	o.transcript.append(types.RoleAssistant, res.Content)
	o.notifyLocked()
	o.mu.Unlock()
	return TurnResult{Reply: res.Content, Usage: res.Usage}, nil
}

func (o *Orchestrator) logTurn(ctx context.Context, text string, result TurnResult, elapsed time.Duration) {
	if o.audit == nil {
		return
	}
	kind := "chat"
	if result.SwitchedTo != "" {
		kind = "session_switch"
	}
	rec := store.TurnLogRecord{
		UserID:      o.opts.UserID,
		Kind:        kind,
		PromptChars: len(text),
		Usage:       result.Usage,
		LatencyMS:   elapsed.Milliseconds(),
		SwitchedTo:  result.SwitchedTo,
		CreatedAt:   time.Now(),
	}
	if err := o.audit.AppendTurnLog(ctx, rec); err != nil {
		logger.Warnf("turn audit write failed: %v", err)
	}
}

// Reset empties the transcript. Rejected while a turn is in flight.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateSending {
		return ErrTurnInFlight
	}
	o.transcript.clear()
	o.notifyLocked()
	return nil
}

// Snapshot returns the current state and a copy of the transcript.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Subscribe registers an observer channel. The latest snapshot replaces any
// undelivered one; a slow consumer only ever misses intermediate states. The
// returned cancel func removes the subscription; calling it twice is safe.
func (o *Orchestrator) Subscribe() (<-chan Snapshot, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	ch := make(chan Snapshot, 1)
	o.subs = append(o.subs, ch)
	cancel := func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, sub := range o.subs {
			if sub == ch {
				o.subs = append(o.subs[:i], o.subs[i+1:]...)
				return
			}
		}
	}
	return ch, cancel
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	return Snapshot{
		UserID:   o.opts.UserID,
		State:    o.state.String(),
		Messages: o.transcript.snapshot(),
	}
}

func (o *Orchestrator) notifyLocked() {
	if len(o.subs) == 0 {
		return
	}
	snap := o.snapshotLocked()
	for _, ch := range o.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func systemData(c Context) prompt.SystemData {
	return prompt.SystemData{
		CurrentDate:  c.CurrentDate.Format("2006-01-02"),
		FocusSession: c.FocusSession,
		Sessions:     c.Sessions,
		Trades:       c.Trades,
		Stats:        c.Stats,
		TotalTrades:  c.TotalTrades,
	}
}
