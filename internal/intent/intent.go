// Package intent classifies raw user messages before they reach the
// completion backend. Detection is a single deterministic pattern so a
// smarter classifier can replace it behind the same API.
package intent

import (
	"regexp"
	"strings"
)

// Kind discriminates the classification result.
type Kind int

const (
	// GeneralQuery is the fallback: forward the message to the model.
	GeneralQuery Kind = iota
	// SessionSwitch means the user asked to change the active session.
	SessionSwitch
)

// Intent is the result of classifying one message.
type Intent struct {
	Kind Kind
	// SessionName is the extracted target, verbatim apart from surrounding
	// whitespace. Only set for SessionSwitch.
	SessionName string
}

// switchPattern matches only when the whole message is a switch request:
// an optional politeness prefix, one of the verb phrases, then the session
// name occupying the tail (with an optional trailing "session"). Anchoring
// both ends keeps questions like "can you load my recent trades" out.
var switchPattern = regexp.MustCompile(
	`(?i)^(?:please\s+)?(?:load|switch\s+to|open)\s+(?:the\s+)?(.+?)(?:\s+session)?\s*$`,
)

// Classify inspects a raw message and decides whether it is a session-switch
// request. It is pure and synchronous; no fuzzy matching, no scoring.
func Classify(message string) Intent {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return Intent{Kind: GeneralQuery}
	}
	m := switchPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return Intent{Kind: GeneralQuery}
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return Intent{Kind: GeneralQuery}
	}
	return Intent{Kind: SessionSwitch, SessionName: name}
}
