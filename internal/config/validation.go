package config

import (
	"fmt"
	"strings"
)

func validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if strings.TrimSpace(cfg.AI.Model) == "" {
		return fmt.Errorf("ai.model is required")
	}
	if cfg.AI.Temperature < 0 || cfg.AI.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be within [0,2], got %v", cfg.AI.Temperature)
	}
	if cfg.Context.MaxSessions > 100 {
		return fmt.Errorf("context.max_sessions too large: %d", cfg.Context.MaxSessions)
	}
	if cfg.Context.MaxTrades > 1000 {
		return fmt.Errorf("context.max_trades too large: %d", cfg.Context.MaxTrades)
	}
	if cfg.Prompt.SystemTemplate != "" && strings.TrimSpace(cfg.Prompt.Dir) == "" {
		return fmt.Errorf("prompt.system_template set but prompt.dir is empty")
	}
	return nil
}
