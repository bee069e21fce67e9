// Package httpapi exposes the conversational entry points over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tradechat/internal/logger"
	"tradechat/internal/store"
	"tradechat/internal/summary"
)

// Server wires the chat hub, summary generator and store behind gin.
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig lists the server's dependencies.
type ServerConfig struct {
	Addr      string
	Hub       *Hub
	Summaries *summary.Generator
	Store     store.Store
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Hub == nil || cfg.Summaries == nil || cfg.Store == nil {
		return nil, errors.New("http server requires hub, summaries and store")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8787"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), corsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handlers{hub: cfg.Hub, summaries: cfg.Summaries, store: cfg.Store}
	api := router.Group("/api")
	{
		api.POST("/chat", h.chat)
		api.GET("/chat/state", h.chatState)
		api.POST("/chat/reset", h.chatReset)
		api.POST("/summary", h.summarize)
		api.GET("/sessions", h.listSessions)
		api.POST("/sessions", h.createSession)
		api.GET("/trades", h.listTrades)
		api.POST("/trades", h.createTrade)
	}

	return &Server{addr: cfg.Addr, router: router}, nil
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

// corsMiddleware answers preflight with an empty 200 and stamps permissive
// headers on every response; the widget client is served from elsewhere.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			method, path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}
