package store

import (
	"sort"

	"chatcore/pkg/models"
)

// Summary projects a conversation into its list row: last message
// preview, unread counter and typing indicator. First access
// materializes the seeded history.
func (s *Store) Summary(conversationID string) (models.Summary, bool) {
	c := s.lookup(conversationID)
	if c == nil {
		return models.Summary{}, false
	}
	c.mu.Lock()
	seedEvs := s.materialize(c)
	out := models.Summary{
		Conversation: c.id,
		Peer:         c.peer,
		UnreadCount:  c.unread,
		Typing:       c.typing > 0,
	}
	if n := len(c.msgs); n > 0 {
		out.LastMessagePreview = c.msgs[n-1].Preview()
	}
	c.mu.Unlock()
	for _, sev := range seedEvs {
		s.emit(sev)
	}
	return out, true
}

// Summaries returns every registered conversation's summary, ordered by
// conversation id for stable output.
func (s *Store) Summaries() []models.Summary {
	s.mu.RLock()
	ids := make([]string, 0, len(s.convs))
	for id := range s.convs {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	out := make([]models.Summary, 0, len(ids))
	for _, id := range ids {
		if sum, ok := s.Summary(id); ok {
			out = append(out, sum)
		}
	}
	return out
}

// SetTyping adjusts the typing indicator for a conversation. Overlapping
// simulated-reply pipelines stack: the indicator shows while at least one
// pipeline is composing.
func (s *Store) SetTyping(conversationID string, composing bool) {
	c := s.lookup(conversationID)
	if c == nil {
		return
	}
	c.mu.Lock()
	if composing {
		c.typing++
	} else if c.typing > 0 {
		c.typing--
	}
	c.mu.Unlock()
}

// Typing reports whether the simulated peer is composing in this
// conversation.
func (s *Store) Typing(conversationID string) bool {
	c := s.lookup(conversationID)
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typing > 0
}

// UnreadCount returns the conversation's unread counter. It always equals
// the number of incoming messages whose delivery state is not read.
func (s *Store) UnreadCount(conversationID string) int {
	c := s.lookup(conversationID)
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}
