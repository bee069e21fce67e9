// Package store defines the persistence boundary for trading sessions and
// trades. Every read is scoped by user id server-side; the context builder
// re-checks ownership as a second line of defense, not a substitute.
package store

import (
	"context"
	"errors"
	"time"

	"tradechat/internal/types"
)

// ErrSessionNotFound is returned when a (sessionID, userID) lookup misses.
// Ownership is checked at lookup time: a foreign session is indistinguishable
// from a missing one.
var ErrSessionNotFound = errors.New("session not found")

// Store is the session/trade collaborator plus the turn audit log.
type Store interface {
	ListSessions(ctx context.Context, userID string) ([]types.TradingSession, error)
	// ListTrades returns the user's trades, optionally restricted to one
	// session when sessionID is non-empty.
	ListTrades(ctx context.Context, userID, sessionID string) ([]types.Trade, error)
	GetSession(ctx context.Context, sessionID, userID string) (types.TradingSession, error)

	CreateSession(ctx context.Context, session *types.TradingSession) error
	CreateTrade(ctx context.Context, trade *types.Trade) error

	AppendTurnLog(ctx context.Context, rec TurnLogRecord) error

	Close() error
}

// TurnLogRecord is one resolved conversational turn, persisted for audit.
// Writing it must never fail the turn itself.
type TurnLogRecord struct {
	UserID      string
	Kind        string // "chat", "summary", "session_switch"
	PromptChars int
	Usage       types.Usage
	LatencyMS   int64
	SwitchedTo  string
	CreatedAt   time.Time
}
