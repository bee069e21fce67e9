package httpapi

import (
	"sync"

	"tradechat/internal/chat"
)

// Hub hands out one orchestrator per user. Conversations are independent and
// share no mutable state; the per-conversation in-flight guard lives in the
// orchestrator itself.
type Hub struct {
	mu      sync.Mutex
	convs   map[string]*chat.Orchestrator
	factory func(userID string) *chat.Orchestrator
}

func NewHub(factory func(userID string) *chat.Orchestrator) *Hub {
	return &Hub{
		convs:   make(map[string]*chat.Orchestrator),
		factory: factory,
	}
}

// Conversation returns the user's orchestrator, creating it on first use.
func (h *Hub) Conversation(userID string) *chat.Orchestrator {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conv, ok := h.convs[userID]; ok {
		return conv
	}
	conv := h.factory(userID)
	h.convs[userID] = conv
	return conv
}
