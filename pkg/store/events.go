package store

import "chatcore/pkg/models"

// EventType tags a store mutation published to observers.
type EventType string

const (
	// EventAppend fires when a message enters a conversation sequence
	// (user append, simulated reply, or seed materialization).
	EventAppend EventType = "append"
	// EventUpdate fires when an existing message mutates in place
	// (delivery transition, reaction, edit, soft-delete, read marking).
	EventUpdate EventType = "update"
	// EventDispose fires when a conversation is torn down.
	EventDispose EventType = "dispose"
)

// Event is the mutation record handed to observers. Message is a deep
// copy; observers may retain it. Observers run synchronously on the
// mutating goroutine and must not call back into the same conversation.
type Event struct {
	Type         EventType
	Conversation string
	Peer         string
	NextSeq      uint64
	Message      models.Message
}

// Observer receives store mutation events.
type Observer func(Event)

// Subscribe registers an observer for all subsequent mutations.
// Registration is expected at wiring time, before traffic.
func (s *Store) Subscribe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Store) emit(ev Event) {
	s.mu.RLock()
	obs := s.observers
	s.mu.RUnlock()
	for _, fn := range obs {
		fn(ev)
	}
}
