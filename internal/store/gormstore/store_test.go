package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradechat/internal/store"
	"tradechat/internal/types"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	s, err := NewGormStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestSession(t *testing.T, s *GormStore, userID, name string) types.TradingSession {
	t.Helper()
	session := types.TradingSession{
		UserID:         userID,
		Name:           name,
		InitialCapital: decimal.NewFromInt(1000),
		CurrentCapital: decimal.NewFromInt(1100),
	}
	require.NoError(t, s.CreateSession(context.Background(), &session))
	require.NotEmpty(t, session.ID)
	return session
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := createTestSession(t, s, "alice", "Scalping")

	got, err := s.GetSession(ctx, created.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Scalping", got.Name)
	assert.True(t, got.InitialCapital.Equal(decimal.NewFromInt(1000)))

	list, err := s.ListSessions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestGetSessionEnforcesOwnership(t *testing.T) {
	s := newTestStore(t)
	created := createTestSession(t, s, "alice", "Scalping")

	_, err := s.GetSession(context.Background(), created.ID, "mallory")
	require.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestListScopesByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	aliceSession := createTestSession(t, s, "alice", "A")
	bobSession := createTestSession(t, s, "bob", "B")

	for _, owner := range []types.TradingSession{aliceSession, bobSession} {
		trade := types.Trade{
			SessionID:  owner.ID,
			UserID:     owner.UserID,
			Side:       types.SideLong,
			Margin:     decimal.NewFromInt(50),
			ROI:        decimal.NewFromInt(5),
			ProfitLoss: decimal.NewFromInt(10),
		}
		require.NoError(t, s.CreateTrade(ctx, &trade))
	}

	aliceTrades, err := s.ListTrades(ctx, "alice", "")
	require.NoError(t, err)
	require.Len(t, aliceTrades, 1)
	assert.Equal(t, "alice", aliceTrades[0].UserID)

	aliceSessions, err := s.ListSessions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, aliceSessions, 1)
	assert.Equal(t, "A", aliceSessions[0].Name)
}

func TestCreateTradeRejectsForeignSession(t *testing.T) {
	s := newTestStore(t)
	created := createTestSession(t, s, "alice", "A")

	trade := types.Trade{
		SessionID:  created.ID,
		UserID:     "mallory",
		Margin:     decimal.NewFromInt(50),
		ROI:        decimal.NewFromInt(5),
		ProfitLoss: decimal.NewFromInt(10),
	}
	err := s.CreateTrade(context.Background(), &trade)
	require.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestCreateSessionRejectsNegativeCapital(t *testing.T) {
	s := newTestStore(t)
	cases := []types.TradingSession{
		{UserID: "alice", Name: "A", InitialCapital: decimal.NewFromInt(-1)},
		{UserID: "alice", Name: "A", CurrentCapital: decimal.NewFromInt(-1)},
	}
	for _, session := range cases {
		err := s.CreateSession(context.Background(), &session)
		require.Error(t, err)
	}
}

func TestCreateTradeRejectsNegativeMargin(t *testing.T) {
	s := newTestStore(t)
	created := createTestSession(t, s, "alice", "A")

	trade := types.Trade{
		SessionID: created.ID,
		UserID:    "alice",
		Margin:    decimal.NewFromInt(-1),
	}
	err := s.CreateTrade(context.Background(), &trade)
	require.Error(t, err)
}

func TestListTradesFiltersBySession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s1 := createTestSession(t, s, "alice", "A")
	s2 := createTestSession(t, s, "alice", "B")
	for i, owner := range []types.TradingSession{s1, s1, s2} {
		trade := types.Trade{
			SessionID:  owner.ID,
			UserID:     "alice",
			Margin:     decimal.NewFromInt(int64(10 + i)),
			ROI:        decimal.Zero,
			ProfitLoss: decimal.Zero,
		}
		require.NoError(t, s.CreateTrade(ctx, &trade))
	}

	all, err := s.ListTrades(ctx, "alice", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	only1, err := s.ListTrades(ctx, "alice", s1.ID)
	require.NoError(t, err)
	assert.Len(t, only1, 2)
}

func TestAppendTurnLog(t *testing.T) {
	s := newTestStore(t)
	rec := store.TurnLogRecord{
		UserID:      "alice",
		Kind:        "chat",
		PromptChars: 17,
		Usage:       types.Usage{PromptTokens: 100, CompletionTokens: 30, TotalTokens: 130},
		LatencyMS:   420,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, s.AppendTurnLog(context.Background(), rec))
}
