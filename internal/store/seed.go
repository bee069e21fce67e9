package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"tradechat/internal/logger"
	"tradechat/internal/types"
)

// Seed fixture format: a list of sessions, each optionally carrying trades.
// Used to populate a dev/demo database on startup. Decimal fields are kept
// as strings in YAML and parsed explicitly.
type seedFile struct {
	Sessions []seedSession `yaml:"sessions"`
}

type seedSession struct {
	ID             string      `yaml:"id"`
	UserID         string      `yaml:"user_id"`
	Name           string      `yaml:"name"`
	InitialCapital string      `yaml:"initial_capital"`
	CurrentCapital string      `yaml:"current_capital"`
	CreatedAt      time.Time   `yaml:"created_at"`
	Trades         []seedTrade `yaml:"trades"`
}

type seedTrade struct {
	ID         string    `yaml:"id"`
	Side       string    `yaml:"side"`
	Margin     string    `yaml:"margin"`
	ROI        string    `yaml:"roi"`
	ProfitLoss string    `yaml:"profit_loss"`
	Comment    string    `yaml:"comment"`
	CreatedAt  time.Time `yaml:"created_at"`
}

// ImportSeed loads the YAML fixture at path into the store. Sessions whose id
// already exists are skipped together with their trades, so re-running on the
// same database is harmless.
func ImportSeed(ctx context.Context, s Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}
	var fixture seedFile
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return fmt.Errorf("parsing seed file: %w", err)
	}
	imported := 0
	for _, ss := range fixture.Sessions {
		if ss.ID != "" {
			if _, err := s.GetSession(ctx, ss.ID, ss.UserID); err == nil {
				continue
			} else if !errors.Is(err, ErrSessionNotFound) {
				return err
			}
		}
		initial, err := parseSeedDecimal(ss.InitialCapital)
		if err != nil {
			return fmt.Errorf("session %q initial_capital: %w", ss.Name, err)
		}
		current, err := parseSeedDecimal(ss.CurrentCapital)
		if err != nil {
			return fmt.Errorf("session %q current_capital: %w", ss.Name, err)
		}
		session := types.TradingSession{
			ID:             ss.ID,
			UserID:         ss.UserID,
			Name:           ss.Name,
			InitialCapital: initial,
			CurrentCapital: current,
			CreatedAt:      ss.CreatedAt,
		}
		if err := s.CreateSession(ctx, &session); err != nil {
			return fmt.Errorf("seeding session %q: %w", ss.Name, err)
		}
		for _, st := range ss.Trades {
			trade, err := seedTradeToRecord(st, session)
			if err != nil {
				return fmt.Errorf("seeding trade for session %q: %w", ss.Name, err)
			}
			if err := s.CreateTrade(ctx, &trade); err != nil {
				return fmt.Errorf("seeding trade for session %q: %w", ss.Name, err)
			}
		}
		imported++
	}
	if imported > 0 {
		logger.Infof("seed import: %d session(s) loaded from %s", imported, path)
	}
	return nil
}

func seedTradeToRecord(st seedTrade, session types.TradingSession) (types.Trade, error) {
	margin, err := parseSeedDecimal(st.Margin)
	if err != nil {
		return types.Trade{}, fmt.Errorf("margin: %w", err)
	}
	roi, err := parseSeedDecimal(st.ROI)
	if err != nil {
		return types.Trade{}, fmt.Errorf("roi: %w", err)
	}
	pnl, err := parseSeedDecimal(st.ProfitLoss)
	if err != nil {
		return types.Trade{}, fmt.Errorf("profit_loss: %w", err)
	}
	return types.Trade{
		ID:         st.ID,
		SessionID:  session.ID,
		UserID:     session.UserID,
		Side:       types.ParseSide(st.Side),
		Margin:     margin,
		ROI:        roi,
		ProfitLoss: pnl,
		Comment:    st.Comment,
		CreatedAt:  st.CreatedAt,
	}, nil
}

func parseSeedDecimal(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
