package chat

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"tradechat/internal/stats"
	"tradechat/internal/types"
)

// ErrInvalidOwnership means the input collections contained a record owned by
// a different user. The store filters by user id server-side, so hitting this
// indicates an upstream bug; the builder fails loudly rather than silently
// dropping the foreign record.
var ErrInvalidOwnership = errors.New("context includes data not owned by the requesting user")

// ErrFocusSessionNotFound means a requested focus session is absent from the
// user's session set.
var ErrFocusSessionNotFound = errors.New("focus session not found")

// Context is the bounded snapshot handed to the prompt renderer. Sessions and
// Trades are truncated samples; Stats always covers the full trade set.
type Context struct {
	UserID       string
	CurrentDate  time.Time
	FocusSession *types.TradingSession
	Sessions     []types.TradingSession
	Trades       []types.Trade
	Stats        types.AggregateStats
	TotalTrades  int
}

// Limits bounds the displayed sample for prompt-size control.
type Limits struct {
	MaxSessions int
	MaxTrades   int
}

// BuildContext assembles a context for userID from the supplied collections.
// With a focusSessionID it restricts to that one session and its trades
// (summary use case); otherwise it keeps the most recent MaxSessions sessions
// and MaxTrades trades by creation time. Inputs are never mutated.
func BuildContext(userID string, sessions []types.TradingSession, trades []types.Trade, focusSessionID string, limits Limits) (Context, error) {
	for _, s := range sessions {
		if s.UserID != userID {
			return Context{}, fmt.Errorf("%w: session %s belongs to %s", ErrInvalidOwnership, s.ID, s.UserID)
		}
	}
	for _, t := range trades {
		if t.UserID != userID {
			return Context{}, fmt.Errorf("%w: trade %s belongs to %s", ErrInvalidOwnership, t.ID, t.UserID)
		}
	}

	out := Context{UserID: userID, CurrentDate: time.Now()}

	if focusSessionID != "" {
		var focus *types.TradingSession
		for i := range sessions {
			if sessions[i].ID == focusSessionID {
				copied := sessions[i]
				focus = &copied
				break
			}
		}
		if focus == nil {
			return Context{}, fmt.Errorf("%w: %s", ErrFocusSessionNotFound, focusSessionID)
		}
		var focused []types.Trade
		for _, t := range trades {
			if t.SessionID == focusSessionID {
				focused = append(focused, t)
			}
		}
		sortTradesDesc(focused)
		out.FocusSession = focus
		out.Trades = focused
		out.TotalTrades = len(focused)
		out.Stats = stats.Aggregate(focused)
		return out, nil
	}

	// Stats cover the untruncated set so the numbers stay accurate even when
	// the displayed examples are cut off.
	out.Stats = stats.Aggregate(trades)
	out.TotalTrades = len(trades)

	sortedSessions := append([]types.TradingSession(nil), sessions...)
	sort.SliceStable(sortedSessions, func(i, j int) bool {
		return sortedSessions[i].CreatedAt.After(sortedSessions[j].CreatedAt)
	})
	if limits.MaxSessions > 0 && len(sortedSessions) > limits.MaxSessions {
		sortedSessions = sortedSessions[:limits.MaxSessions]
	}
	out.Sessions = sortedSessions

	sortedTrades := append([]types.Trade(nil), trades...)
	sortTradesDesc(sortedTrades)
	if limits.MaxTrades > 0 && len(sortedTrades) > limits.MaxTrades {
		sortedTrades = sortedTrades[:limits.MaxTrades]
	}
	out.Trades = sortedTrades
	return out, nil
}

func sortTradesDesc(trades []types.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].CreatedAt.After(trades[j].CreatedAt)
	})
}
