package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

// Separate channel for raw completion payloads so full prompts can be
// inspected without flooding the main log. Disabled unless both a writer is
// set and dumping is enabled in config.

var (
	llmMu   sync.Mutex
	llmLog  *log.Logger
	llmDump bool
)

// SetLLMWriter installs (or clears, with nil) the payload dump destination.
func SetLLMWriter(w io.Writer) {
	llmMu.Lock()
	defer llmMu.Unlock()
	if w == nil {
		llmLog = nil
		return
	}
	llmLog = log.New(w, "", log.LstdFlags)
}

// EnableLLMPayloadDump toggles payload dumping at runtime.
func EnableLLMPayloadDump(enabled bool) {
	llmMu.Lock()
	llmDump = enabled
	llmMu.Unlock()
}

// LLMRequest dumps an outgoing completion request.
func LLMRequest(purpose, system, user string) {
	sections := []llmSection{{Title: "SYSTEM", Body: system}}
	if strings.TrimSpace(user) != "" {
		sections = append(sections, llmSection{Title: "USER", Body: user})
	}
	writeLLM("REQUEST", purpose, sections)
}

// LLMResponse dumps a completion response (or the error text on failure).
func LLMResponse(purpose, content string) {
	writeLLM("RESPONSE", purpose, []llmSection{{Title: "CONTENT", Body: content}})
}

type llmSection struct {
	Title string
	Body  string
}

func writeLLM(kind, purpose string, sections []llmSection) {
	llmMu.Lock()
	sink := llmLog
	enabled := llmDump
	llmMu.Unlock()
	if sink == nil || !enabled {
		return
	}
	var b strings.Builder
	b.WriteString("[LLM][" + kind + "]")
	if purpose != "" {
		b.WriteString("[" + purpose + "]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		body := strings.TrimSpace(sec.Body)
		if body == "" {
			continue
		}
		b.WriteString("----- " + sec.Title + " -----\n")
		b.WriteString(body)
		b.WriteString("\n")
	}
	sink.Print(b.String())
}
