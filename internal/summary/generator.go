// Package summary produces on-demand narrative reviews of a single trading
// session. It is the batch-style sibling of the chat orchestrator: same
// context pipeline and completion client, but no user message.
package summary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tradechat/internal/chat"
	"tradechat/internal/logger"
	"tradechat/internal/prompt"
	"tradechat/internal/provider"
	"tradechat/internal/store"
	"tradechat/internal/types"
)

// Source is the slice of the store the generator needs. GetSession checks
// ownership at lookup time, so a foreign session surfaces as not-found.
type Source interface {
	GetSession(ctx context.Context, sessionID, userID string) (types.TradingSession, error)
	ListTrades(ctx context.Context, userID, sessionID string) ([]types.Trade, error)
}

const fallbackSummary = "No summary could be generated for this session. Please try again."

// Options tunes the summary completion call. Summaries get a larger token
// budget than conversational turns.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Result carries the narrative and token accounting.
type Result struct {
	Summary string
	Usage   types.Usage
}

type Generator struct {
	source Source
	client provider.Client
	audit  chat.TurnLogger
	opts   Options
}

func NewGenerator(source Source, client provider.Client, audit chat.TurnLogger, opts Options) *Generator {
	return &Generator{source: source, client: client, audit: audit, opts: opts}
}

// Generate builds a focused context for exactly one session and requests a
// five-section narrative. Returns store.ErrSessionNotFound when the
// (sessionID, userID) pair resolves to nothing.
func (g *Generator) Generate(ctx context.Context, sessionID, userID string) (Result, error) {
	session, err := g.source.GetSession(ctx, sessionID, userID)
	if err != nil {
		return Result{}, err
	}
	trades, err := g.source.ListTrades(ctx, userID, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("loading trades: %w", err)
	}
	cctx, err := chat.BuildContext(userID, []types.TradingSession{session}, trades, sessionID, chat.Limits{})
	if err != nil {
		return Result{}, err
	}
	system := prompt.RenderSummary(prompt.SystemData{
		CurrentDate:  cctx.CurrentDate.Format("2006-01-02"),
		FocusSession: cctx.FocusSession,
		Trades:       cctx.Trades,
		Stats:        cctx.Stats,
		TotalTrades:  cctx.TotalTrades,
	})

	started := time.Now()
	res, err := g.client.Complete(ctx, system, "", provider.Options{
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
		Purpose:     "summary",
	})
	if err != nil {
		if errors.Is(err, provider.ErrEmptyResponse) {
			g.logTurn(ctx, userID, len(system), types.Usage{}, time.Since(started))
			return Result{Summary: fallbackSummary}, nil
		}
		return Result{}, err
	}
	g.logTurn(ctx, userID, len(system), res.Usage, time.Since(started))
	return Result{Summary: res.Content, Usage: res.Usage}, nil
}

func (g *Generator) logTurn(ctx context.Context, userID string, promptChars int, usage types.Usage, elapsed time.Duration) {
	if g.audit == nil {
		return
	}
	rec := store.TurnLogRecord{
		UserID:      userID,
		Kind:        "summary",
		PromptChars: promptChars,
		Usage:       usage,
		LatencyMS:   elapsed.Milliseconds(),
		CreatedAt:   time.Now(),
	}
	if err := g.audit.AppendTurnLog(ctx, rec); err != nil {
		logger.Warnf("summary audit write failed: %v", err)
	}
}
