package chat

import (
	"time"

	"github.com/google/uuid"

	"tradechat/internal/types"
)

// transcript is the append-only message history of one conversation. It is
// not safe for concurrent use on its own; the orchestrator serializes access.
type transcript struct {
	messages []types.ChatMessage
}

func (t *transcript) append(role, content string) types.ChatMessage {
	msg := types.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	t.messages = append(t.messages, msg)
	return msg
}

func (t *transcript) snapshot() []types.ChatMessage {
	out := make([]types.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *transcript) clear() {
	t.messages = nil
}
