package config

import (
	"os"
	"strings"
)

// Config is the top-level configuration for the chat service.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	AI      AIConfig      `mapstructure:"ai"`
	Store   StoreConfig   `mapstructure:"store"`
	Prompt  PromptConfig  `mapstructure:"prompt"`
	Context ContextConfig `mapstructure:"context"`
	Seed    SeedConfig    `mapstructure:"seed"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	HTTPAddr string `mapstructure:"http_addr"`
	LogPath  string `mapstructure:"log_path"`
	LLMLog   string `mapstructure:"llm_log_path"`
	LLMDump  bool   `mapstructure:"llm_dump_payload"`
}

// AIConfig describes the completion backend. The key can be inlined or read
// from the environment variable named by api_key_env; the env var wins.
type AIConfig struct {
	BaseURL               string            `mapstructure:"base_url"`
	APIKey                string            `mapstructure:"api_key"`
	APIKeyEnv             string            `mapstructure:"api_key_env"`
	Model                 string            `mapstructure:"model"`
	TimeoutSeconds        int               `mapstructure:"timeout_seconds"`
	SummaryTimeoutSeconds int               `mapstructure:"summary_timeout_seconds"`
	ChatMaxTokens         int               `mapstructure:"chat_max_tokens"`
	SummaryMaxTokens      int               `mapstructure:"summary_max_tokens"`
	Temperature           float64           `mapstructure:"temperature"`
	ExtraHeaders          map[string]string `mapstructure:"extra_headers"`
}

// ResolveAPIKey returns the effective bearer credential, preferring the
// environment variable when configured.
func (a AIConfig) ResolveAPIKey() string {
	if env := strings.TrimSpace(a.APIKeyEnv); env != "" {
		if val := strings.TrimSpace(os.Getenv(env)); val != "" {
			return val
		}
	}
	return strings.TrimSpace(a.APIKey)
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// PromptConfig selects the system prompt template directory. When the dir is
// empty or missing the built-in template is used.
type PromptConfig struct {
	Dir            string `mapstructure:"dir"`
	SystemTemplate string `mapstructure:"system_template"`
	HotReload      bool   `mapstructure:"hot_reload"`
}

// ContextConfig bounds the prompt context size.
type ContextConfig struct {
	MaxSessions int `mapstructure:"max_sessions"`
	MaxTrades   int `mapstructure:"max_trades"`
}

// SeedConfig optionally points at a YAML fixture imported on startup.
type SeedConfig struct {
	Path string `mapstructure:"path"`
}
