package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// ParseSide normalizes a raw side string. Unknown values fall back to long.
func ParseSide(raw string) Side {
	switch raw {
	case "short", "Short", "SHORT", "sell":
		return SideShort
	default:
		return SideLong
	}
}

// Trade is one executed position. Records are immutable once created; the
// user id is denormalized from the owning session so ownership can be
// verified without a join.
type Trade struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"session_id"`
	UserID     string          `json:"user_id"`
	Side       Side            `json:"side"`
	Margin     decimal.Decimal `json:"margin"`
	ROI        decimal.Decimal `json:"roi"`
	ProfitLoss decimal.Decimal `json:"profit_loss"`
	Comment    string          `json:"comment,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TradingSession is a named container of trades for one user. This service
// only reads capital figures, it never mutates them.
type TradingSession struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Name           string          `json:"name"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
	CurrentCapital decimal.Decimal `json:"current_capital"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Message roles used in the conversation transcript and completion requests.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is one transcript entry. The transcript is append-only and
// ordered by insertion.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// AggregateStats is derived from a trade sequence, never persisted.
type AggregateStats struct {
	TotalTrades       int             `json:"total_trades"`
	NetProfitLoss     decimal.Decimal `json:"net_profit_loss"`
	WinningTrades     int             `json:"winning_trades"`
	LosingTrades      int             `json:"losing_trades"`
	WinRatePercent    decimal.Decimal `json:"win_rate_percent"`
	TotalMarginUsed   decimal.Decimal `json:"total_margin_used"`
	AverageROIPercent decimal.Decimal `json:"average_roi_percent"`
}

// Usage reports token accounting from the completion backend, when present.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
