package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"tradechat/internal/logger"
	"tradechat/internal/types"
)

// OpenAIChatClient targets any OpenAI-compatible /v1/chat/completions
// endpoint (OpenAI, DeepSeek, Qwen, local gateways). One instance is shared
// by every conversation, so Complete must stay safe for concurrent use.
type OpenAIChatClient struct {
	BaseURL      string
	APIKey       string
	Model        string
	Timeout      time.Duration
	ExtraHeaders map[string]string

	clientOnce sync.Once
	httpClient *http.Client
}

var _ Client = (*OpenAIChatClient)(nil)

func (c *OpenAIChatClient) Complete(ctx context.Context, systemContext, userMessage string, opts Options) (Result, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return Result{}, ErrMissingCredential
	}
	url := c.endpoint()

	messages := []map[string]string{
		{"role": types.RoleSystem, "content": systemContext},
	}
	if strings.TrimSpace(userMessage) != "" {
		messages = append(messages, map[string]string{"role": types.RoleUser, "content": userMessage})
	}
	body := map[string]any{
		"model":       c.Model,
		"messages":    messages,
		"temperature": opts.Temperature,
	}
	if opts.MaxTokens > 0 {
		body["max_tokens"] = opts.MaxTokens
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: encoding request: %v", ErrBackendUnavailable, err)
	}

	logger.Debugf("[AI] POST %s model=%s purpose=%s headers=%v", url, c.Model, opts.Purpose, c.maskedHeaders())
	logger.LLMRequest(opts.Purpose, systemContext, userMessage)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	for k, v := range c.ExtraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.client().Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	raw := new(bytes.Buffer)
	if _, err := raw.ReadFrom(resp.Body); err != nil {
		return Result{}, fmt.Errorf("%w: reading response: %v", ErrBackendUnavailable, err)
	}
	doc := raw.String()

	if resp.StatusCode/100 != 2 {
		msg := strings.TrimSpace(gjson.Get(doc, "error.message").String())
		if msg == "" {
			msg = resp.Status
		}
		return Result{}, fmt.Errorf("%w: status=%d: %s", ErrBackendUnavailable, resp.StatusCode, msg)
	}

	content := gjson.Get(doc, "choices.0.message.content").String()
	if strings.TrimSpace(content) == "" {
		return Result{}, ErrEmptyResponse
	}
	logger.LLMResponse(opts.Purpose, content)
	return Result{
		Content: content,
		Usage: types.Usage{
			PromptTokens:     int(gjson.Get(doc, "usage.prompt_tokens").Int()),
			CompletionTokens: int(gjson.Get(doc, "usage.completion_tokens").Int()),
			TotalTokens:      int(gjson.Get(doc, "usage.total_tokens").Int()),
		},
	}, nil
}

func (c *OpenAIChatClient) client() *http.Client {
	c.clientOnce.Do(func() {
		if c.httpClient != nil {
			return
		}
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		c.httpClient = &http.Client{Timeout: timeout}
	})
	return c.httpClient
}

// endpoint normalizes BaseURL so a configured value already ending in
// /chat/completions does not produce a doubled path.
func (c *OpenAIChatClient) endpoint() string {
	url := strings.TrimSpace(c.BaseURL)
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	url = strings.TrimRight(url, "/")
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/chat/completions"
}

func (c *OpenAIChatClient) maskedHeaders() map[string]string {
	out := map[string]string{"Content-Type": "application/json", "Authorization": "Bearer " + maskSecret(c.APIKey)}
	for k, v := range c.ExtraHeaders {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "key") || strings.Contains(lk, "token") || strings.Contains(lk, "auth") {
			v = maskSecret(v)
		}
		out[k] = v
	}
	return out
}

func maskSecret(v string) string {
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}
