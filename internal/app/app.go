// Package app assembles the service: config in, running HTTP server out.
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"tradechat/internal/chat"
	"tradechat/internal/config"
	"tradechat/internal/logger"
	"tradechat/internal/prompt"
	"tradechat/internal/provider"
	"tradechat/internal/store"
	"tradechat/internal/store/gormstore"
	"tradechat/internal/summary"
	httpapi "tradechat/internal/transport/http"
)

type App struct {
	cfg      *config.Config
	store    store.Store
	renderer *prompt.Renderer
	server   *httpapi.Server
}

// NewApp builds the dependency graph without starting anything.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	st, err := gormstore.NewGormStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if cfg.Seed.Path != "" {
		if err := store.ImportSeed(context.Background(), st, cfg.Seed.Path); err != nil {
			st.Close()
			return nil, fmt.Errorf("importing seed: %w", err)
		}
	}

	renderer, err := prompt.NewRenderer(cfg.Prompt)
	if err != nil {
		st.Close()
		return nil, err
	}

	chatClient := &provider.OpenAIChatClient{
		BaseURL:      cfg.AI.BaseURL,
		APIKey:       cfg.AI.ResolveAPIKey(),
		Model:        cfg.AI.Model,
		Timeout:      time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
		ExtraHeaders: cfg.AI.ExtraHeaders,
	}
	summaryClient := &provider.OpenAIChatClient{
		BaseURL:      cfg.AI.BaseURL,
		APIKey:       cfg.AI.ResolveAPIKey(),
		Model:        cfg.AI.Model,
		Timeout:      time.Duration(cfg.AI.SummaryTimeoutSeconds) * time.Second,
		ExtraHeaders: cfg.AI.ExtraHeaders,
	}

	limits := chat.Limits{
		MaxSessions: cfg.Context.MaxSessions,
		MaxTrades:   cfg.Context.MaxTrades,
	}
	hub := httpapi.NewHub(func(userID string) *chat.Orchestrator {
		return chat.NewOrchestrator(st, renderer, chatClient, st, chat.Options{
			UserID:      userID,
			Limits:      limits,
			MaxTokens:   cfg.AI.ChatMaxTokens,
			Temperature: cfg.AI.Temperature,
			OnSessionSwitch: func(name string) {
				logger.Infof("user %s switched to session %q", userID, name)
			},
		})
	})
	summaries := summary.NewGenerator(st, summaryClient, st, summary.Options{
		MaxTokens:   cfg.AI.SummaryMaxTokens,
		Temperature: cfg.AI.Temperature,
	})

	server, err := httpapi.NewServer(httpapi.ServerConfig{
		Addr:      cfg.App.HTTPAddr,
		Hub:       hub,
		Summaries: summaries,
		Store:     st,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	return &App{cfg: cfg, store: st, renderer: renderer, server: server}, nil
}

// Run serves HTTP (and the prompt template watcher) until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.store.Close()

	logger.Infof("tradechat listening on %s (env=%s, model=%s)",
		a.server.Addr(), a.cfg.App.Env, a.cfg.AI.Model)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	if a.cfg.Prompt.HotReload {
		group.Go(func() error {
			return a.renderer.Watch(ctx)
		})
	}
	return group.Wait()
}
