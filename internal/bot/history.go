package bot

import (
	"sync"

	"github.com/knamoah/kasabot/internal/llm"
)

// History keeps the last turns of each user's conversation, in memory
// only. It exists purely to give prompts short-range context; nothing is
// persisted across restarts.
type History struct {
	mu    sync.Mutex
	limit int
	turns map[int64][]llm.Message
}

// NewHistory creates a History retaining at most limit messages per user.
func NewHistory(limit int) *History {
	return &History{
		limit: limit,
		turns: make(map[int64][]llm.Message),
	}
}

// Append records one message for the user, evicting the oldest entries
// beyond the limit.
func (h *History) Append(userID int64, role llm.Role, content string) {
	if h.limit == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := append(h.turns[userID], llm.Message{Role: role, Content: content})
	if len(msgs) > h.limit {
		msgs = msgs[len(msgs)-h.limit:]
	}
	h.turns[userID] = msgs
}

// Messages returns a copy of the user's recorded messages, oldest first.
func (h *History) Messages(userID int64) []llm.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := h.turns[userID]
	out := make([]llm.Message, len(msgs))
	copy(out, msgs)
	return out
}

// Clear forgets the user's conversation.
func (h *History) Clear(userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.turns, userID)
}
