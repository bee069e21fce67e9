package chat

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradechat/internal/types"
)

func sessionAt(id, userID, name string, created time.Time) types.TradingSession {
	return types.TradingSession{
		ID:             id,
		UserID:         userID,
		Name:           name,
		InitialCapital: decimal.NewFromInt(1000),
		CurrentCapital: decimal.NewFromInt(1100),
		CreatedAt:      created,
	}
}

func tradeAt(id, sessionID, userID string, pnl int64, created time.Time) types.Trade {
	return types.Trade{
		ID:         id,
		SessionID:  sessionID,
		UserID:     userID,
		Side:       types.SideLong,
		Margin:     decimal.NewFromInt(100),
		ROI:        decimal.NewFromInt(5),
		ProfitLoss: decimal.NewFromInt(pnl),
		CreatedAt:  created,
	}
}

func TestBuildContextRejectsForeignSession(t *testing.T) {
	now := time.Now()
	sessions := []types.TradingSession{
		sessionAt("s1", "alice", "A", now),
		sessionAt("s2", "mallory", "B", now),
	}
	_, err := BuildContext("alice", sessions, nil, "", Limits{})
	require.ErrorIs(t, err, ErrInvalidOwnership)
}

func TestBuildContextRejectsForeignTrade(t *testing.T) {
	now := time.Now()
	sessions := []types.TradingSession{sessionAt("s1", "alice", "A", now)}
	trades := []types.Trade{
		tradeAt("t1", "s1", "alice", 10, now),
		tradeAt("t2", "s1", "mallory", 10, now),
	}
	_, err := BuildContext("alice", sessions, trades, "", Limits{})
	require.ErrorIs(t, err, ErrInvalidOwnership)
}

func TestBuildContextTruncatesButAggregatesFullSet(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var sessions []types.TradingSession
	for i := 0; i < 8; i++ {
		sessions = append(sessions, sessionAt(
			string(rune('a'+i)), "alice", "S", base.Add(time.Duration(i)*time.Hour)))
	}
	var trades []types.Trade
	for i := 0; i < 25; i++ {
		trades = append(trades, tradeAt(
			string(rune('A'+i)), "a", "alice", 1, base.Add(time.Duration(i)*time.Minute)))
	}

	got, err := BuildContext("alice", sessions, trades, "", Limits{MaxSessions: 5, MaxTrades: 10})
	require.NoError(t, err)

	assert.Len(t, got.Sessions, 5)
	assert.Len(t, got.Trades, 10)
	// stats cover all 25 trades, not the displayed 10
	assert.Equal(t, 25, got.Stats.TotalTrades)
	assert.Equal(t, 25, got.TotalTrades)
	// newest first
	assert.True(t, got.Sessions[0].CreatedAt.After(got.Sessions[1].CreatedAt))
	assert.True(t, got.Trades[0].CreatedAt.After(got.Trades[1].CreatedAt))
}

func TestBuildContextDoesNotMutateInputs(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	trades := []types.Trade{
		tradeAt("t1", "s1", "alice", 1, base),
		tradeAt("t2", "s1", "alice", 1, base.Add(time.Hour)),
	}
	sessions := []types.TradingSession{sessionAt("s1", "alice", "A", base)}

	_, err := BuildContext("alice", sessions, trades, "", Limits{MaxTrades: 1})
	require.NoError(t, err)
	// input order untouched even though output is sorted descending
	assert.Equal(t, "t1", trades[0].ID)
	assert.Equal(t, "t2", trades[1].ID)
}

func TestBuildContextFocusedSession(t *testing.T) {
	now := time.Now()
	sessions := []types.TradingSession{
		sessionAt("s1", "alice", "Scalping", now),
		sessionAt("s2", "alice", "Swing", now),
	}
	trades := []types.Trade{
		tradeAt("t1", "s1", "alice", 100, now),
		tradeAt("t2", "s2", "alice", -500, now),
	}

	got, err := BuildContext("alice", sessions, trades, "s1", Limits{})
	require.NoError(t, err)
	require.NotNil(t, got.FocusSession)
	assert.Equal(t, "Scalping", got.FocusSession.Name)
	require.Len(t, got.Trades, 1)
	assert.Equal(t, "t1", got.Trades[0].ID)
	assert.Equal(t, 1, got.Stats.TotalTrades)
	assert.Equal(t, "100", got.Stats.NetProfitLoss.String())
}

func TestBuildContextFocusMissing(t *testing.T) {
	now := time.Now()
	sessions := []types.TradingSession{sessionAt("s1", "alice", "A", now)}
	_, err := BuildContext("alice", sessions, nil, "nope", Limits{})
	require.ErrorIs(t, err, ErrFocusSessionNotFound)
}
