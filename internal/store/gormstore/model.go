package gormstore

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"tradechat/internal/store"
	"tradechat/internal/types"
)

type sessionModel struct {
	ID             string          `gorm:"column:id;primaryKey"`
	UserID         string          `gorm:"column:user_id;index"`
	Name           string          `gorm:"column:name"`
	InitialCapital decimal.Decimal `gorm:"column:initial_capital;type:decimal(20,8)"`
	CurrentCapital decimal.Decimal `gorm:"column:current_capital;type:decimal(20,8)"`
	CreatedAtUnix  int64           `gorm:"column:created_at"`
	UpdatedAtUnix  int64           `gorm:"column:updated_at"`
}

func (sessionModel) TableName() string { return "trading_sessions" }

type tradeModel struct {
	ID            string          `gorm:"column:id;primaryKey"`
	SessionID     string          `gorm:"column:session_id;index"`
	UserID        string          `gorm:"column:user_id;index"`
	Side          string          `gorm:"column:side"`
	Margin        decimal.Decimal `gorm:"column:margin;type:decimal(20,8)"`
	ROI           decimal.Decimal `gorm:"column:roi;type:decimal(20,8)"`
	ProfitLoss    decimal.Decimal `gorm:"column:profit_loss;type:decimal(20,8)"`
	Comment       string          `gorm:"column:comment"`
	CreatedAtUnix int64           `gorm:"column:created_at;index"`
}

func (tradeModel) TableName() string { return "trades" }

type turnLogModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	UserID        string         `gorm:"column:user_id;index"`
	Kind          string         `gorm:"column:kind"`
	PromptChars   int            `gorm:"column:prompt_chars"`
	Usage         datatypes.JSON `gorm:"column:usage_json"`
	LatencyMS     int64          `gorm:"column:latency_ms"`
	SwitchedTo    string         `gorm:"column:switched_to"`
	CreatedAtUnix int64          `gorm:"column:created_at;index"`
}

func (turnLogModel) TableName() string { return "turn_log" }

func newSessionModel(s types.TradingSession) sessionModel {
	return sessionModel{
		ID:             strings.TrimSpace(s.ID),
		UserID:         strings.TrimSpace(s.UserID),
		Name:           strings.TrimSpace(s.Name),
		InitialCapital: s.InitialCapital,
		CurrentCapital: s.CurrentCapital,
		CreatedAtUnix:  s.CreatedAt.UnixMilli(),
		UpdatedAtUnix:  s.UpdatedAt.UnixMilli(),
	}
}

func sessionModelToRecord(m sessionModel) types.TradingSession {
	return types.TradingSession{
		ID:             m.ID,
		UserID:         m.UserID,
		Name:           m.Name,
		InitialCapital: m.InitialCapital,
		CurrentCapital: m.CurrentCapital,
		CreatedAt:      millisToTime(m.CreatedAtUnix),
		UpdatedAt:      millisToTime(m.UpdatedAtUnix),
	}
}

func newTradeModel(t types.Trade) tradeModel {
	return tradeModel{
		ID:            strings.TrimSpace(t.ID),
		SessionID:     strings.TrimSpace(t.SessionID),
		UserID:        strings.TrimSpace(t.UserID),
		Side:          string(t.Side),
		Margin:        t.Margin,
		ROI:           t.ROI,
		ProfitLoss:    t.ProfitLoss,
		Comment:       t.Comment,
		CreatedAtUnix: t.CreatedAt.UnixMilli(),
	}
}

func tradeModelToRecord(m tradeModel) types.Trade {
	return types.Trade{
		ID:         m.ID,
		SessionID:  m.SessionID,
		UserID:     m.UserID,
		Side:       types.ParseSide(m.Side),
		Margin:     m.Margin,
		ROI:        m.ROI,
		ProfitLoss: m.ProfitLoss,
		Comment:    m.Comment,
		CreatedAt:  millisToTime(m.CreatedAtUnix),
	}
}

func newTurnLogModel(rec store.TurnLogRecord, usageJSON []byte) turnLogModel {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return turnLogModel{
		UserID:        strings.TrimSpace(rec.UserID),
		Kind:          strings.TrimSpace(rec.Kind),
		PromptChars:   rec.PromptChars,
		Usage:         datatypes.JSON(usageJSON),
		LatencyMS:     rec.LatencyMS,
		SwitchedTo:    strings.TrimSpace(rec.SwitchedTo),
		CreatedAtUnix: created.UnixMilli(),
	}
}

func millisToTime(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(v)
}
