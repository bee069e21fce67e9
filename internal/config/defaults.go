package config

import "strings"

const (
	defaultHTTPAddr         = ":8787"
	defaultStorePath        = "data/tradechat.db"
	defaultChatTimeoutSec   = 60
	defaultSummaryTimeout   = 120
	defaultChatMaxTokens    = 1024
	defaultSummaryMaxTokens = 2048
	defaultTemperature      = 0.7
	defaultMaxSessions      = 5
	defaultMaxTrades        = 10
)

func (c *Config) applyDefaults() {
	if c == nil {
		return
	}
	if strings.TrimSpace(c.App.Env) == "" {
		c.App.Env = "dev"
	}
	if strings.TrimSpace(c.App.LogLevel) == "" {
		c.App.LogLevel = "info"
	}
	if strings.TrimSpace(c.App.HTTPAddr) == "" {
		c.App.HTTPAddr = defaultHTTPAddr
	}
	if strings.TrimSpace(c.AI.BaseURL) == "" {
		c.AI.BaseURL = "https://api.openai.com/v1"
	}
	if strings.TrimSpace(c.AI.APIKeyEnv) == "" {
		c.AI.APIKeyEnv = "TRADECHAT_API_KEY"
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = defaultChatTimeoutSec
	}
	if c.AI.SummaryTimeoutSeconds <= 0 {
		c.AI.SummaryTimeoutSeconds = defaultSummaryTimeout
	}
	if c.AI.ChatMaxTokens <= 0 {
		c.AI.ChatMaxTokens = defaultChatMaxTokens
	}
	if c.AI.SummaryMaxTokens <= 0 {
		c.AI.SummaryMaxTokens = defaultSummaryMaxTokens
	}
	if c.AI.Temperature <= 0 {
		c.AI.Temperature = defaultTemperature
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = defaultStorePath
	}
	if c.Context.MaxSessions <= 0 {
		c.Context.MaxSessions = defaultMaxSessions
	}
	if c.Context.MaxTrades <= 0 {
		c.Context.MaxTrades = defaultMaxTrades
	}
}
