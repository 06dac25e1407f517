// Package store owns the per-conversation ordered message sequences and
// their mutation primitives. All operations are total over well-formed
// input: unknown conversation or message ids and guard violations are
// silent no-ops, mirroring forgiving client semantics. The policy is
// uniform across every operation and pinned by tests.
package store

import (
	"fmt"
	"strings"
	"sync"

	"chatcore/pkg/clock"
	"chatcore/pkg/logger"
	"chatcore/pkg/models"
	"chatcore/pkg/telemetry"
	"chatcore/pkg/validation"
)

// Draft is the caller-supplied content for an outgoing message.
type Draft struct {
	Text    string
	Media   *models.Media
	ReplyTo string // id of the message being replied to, optional
}

// conversation is one peer conversation's owned state. Each conversation
// carries its own mutex so mutations to different conversations never
// contend; within one conversation all mutations serialize, which is what
// preserves append order and transition monotonicity.
type conversation struct {
	mu      sync.Mutex
	id      string
	peer    string
	msgs    []*models.Message
	index   map[string]int // message id -> slice position
	nextSeq uint64
	unread  int
	// typing counts overlapping simulated-reply pipelines currently in
	// their composing phase; the indicator shows while > 0.
	typing int
	seeded bool
}

// Store is the message store for all registered conversations.
type Store struct {
	mu          sync.RWMutex
	clk         clock.Clock
	participant string
	convs       map[string]*conversation
	active      string
	observers   []Observer
}

// New creates an empty store for the given local participant.
func New(clk clock.Clock, participantID string) *Store {
	if clk == nil {
		clk = clock.Wall()
	}
	return &Store{
		clk:         clk,
		participant: participantID,
		convs:       make(map[string]*conversation),
	}
}

// ParticipantID returns the local participant identity the store tags
// outgoing messages and reactions with.
func (s *Store) ParticipantID() string { return s.participant }

// Register declares a conversation from the identity context. The message
// sequence is not materialized until first access. Re-registering an
// existing id only refreshes the peer identity. Ids containing ':' are
// rejected; the persistence key layout reserves it as a separator.
func (s *Store) Register(conversationID, peer string) {
	if conversationID == "" {
		return
	}
	if strings.ContainsRune(conversationID, ':') {
		logger.Warn("register_invalid_conversation_id", "conversation", conversationID)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.convs[conversationID]; ok {
		c.peer = peer
		return
	}
	s.convs[conversationID] = &conversation{
		id:    conversationID,
		peer:  peer,
		index: make(map[string]int),
	}
}

// Restore installs a conversation recovered from the persistence adapter.
// Restored conversations are considered materialized and are not re-seeded.
func (s *Store) Restore(meta models.Conversation, msgs []models.Message) {
	if meta.ID == "" {
		return
	}
	c := &conversation{
		id:      meta.ID,
		peer:    meta.Peer,
		index:   make(map[string]int, len(msgs)),
		nextSeq: meta.NextSeq,
		seeded:  true,
	}
	for i := range msgs {
		m := msgs[i].Clone()
		c.index[m.ID] = len(c.msgs)
		c.msgs = append(c.msgs, &m)
		if m.Direction == models.DirectionIncoming && m.DeliveryState != models.DeliveryRead {
			c.unread++
		}
		if m.Seq >= c.nextSeq {
			c.nextSeq = m.Seq + 1
		}
	}
	s.mu.Lock()
	s.convs[meta.ID] = c
	s.mu.Unlock()
	logger.Info("conversation_restored", "conversation", meta.ID, "messages", len(msgs))
}

// lookup returns the conversation for id, or nil. Callers take c.mu.
func (s *Store) lookup(id string) *conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.convs[id]
}

func (s *Store) isActive(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active == id
}

func msgID(seq uint64) string { return fmt.Sprintf("m%06d", seq) }

// Append constructs a new outgoing message from the draft and appends it
// to the tail of the conversation's sequence in state sending. The
// created message is returned synchronously; delivery has not happened
// yet. Unknown conversation ids are a no-op returning a zero Message.
func (s *Store) Append(conversationID string, d Draft) (models.Message, error) {
	if err := validation.ValidateDraft(d.Text, d.Media); err != nil {
		return models.Message{}, err
	}
	c := s.lookup(conversationID)
	if c == nil {
		telemetry.RejectedMutations.WithLabelValues("append").Inc()
		logger.Debug("append_unknown_conversation", "conversation", conversationID)
		return models.Message{}, nil
	}
	c.mu.Lock()
	seedEvs := s.materialize(c)
	m := &models.Message{
		ID:            msgID(c.nextSeq),
		Conversation:  c.id,
		Seq:           c.nextSeq,
		Text:          d.Text,
		Direction:     models.DirectionOutgoing,
		DeliveryState: models.DeliverySending,
		CreatedAt:     s.clk.Now().UnixNano(),
	}
	if d.Media != nil {
		media := *d.Media
		m.Media = &media
	}
	if d.ReplyTo != "" {
		if i, ok := c.index[d.ReplyTo]; ok {
			m.ReplyTo = c.msgs[i].Snapshot()
		}
	}
	c.index[m.ID] = len(c.msgs)
	c.msgs = append(c.msgs, m)
	c.nextSeq++
	ev := s.appendEvent(c, m)
	out := m.Clone()
	c.mu.Unlock()

	telemetry.MessagesAppended.WithLabelValues(string(models.DirectionOutgoing)).Inc()
	for _, sev := range seedEvs {
		s.emit(sev)
	}
	s.emit(ev)
	return out, nil
}

// InjectIncoming appends a message from the simulated peer. It is born
// read when the conversation is currently active, otherwise delivered and
// counted unread. The boolean reports whether the conversation exists.
func (s *Store) InjectIncoming(conversationID, text string) (models.Message, bool) {
	c := s.lookup(conversationID)
	if c == nil {
		telemetry.RejectedMutations.WithLabelValues("inject").Inc()
		return models.Message{}, false
	}
	active := s.isActive(conversationID)
	c.mu.Lock()
	seedEvs := s.materialize(c)
	m := &models.Message{
		ID:            msgID(c.nextSeq),
		Conversation:  c.id,
		Seq:           c.nextSeq,
		Text:          text,
		Direction:     models.DirectionIncoming,
		DeliveryState: models.DeliveryDelivered,
		CreatedAt:     s.clk.Now().UnixNano(),
	}
	if active {
		m.DeliveryState = models.DeliveryRead
	} else {
		c.unread++
	}
	c.index[m.ID] = len(c.msgs)
	c.msgs = append(c.msgs, m)
	c.nextSeq++
	ev := s.appendEvent(c, m)
	out := m.Clone()
	c.mu.Unlock()

	telemetry.MessagesAppended.WithLabelValues(string(models.DirectionIncoming)).Inc()
	for _, sev := range seedEvs {
		s.emit(sev)
	}
	s.emit(ev)
	return out, true
}

// TransitionDelivery advances a message's delivery state. Backward or
// sideways transitions and unknown ids are no-ops; monotonicity is
// enforced here and nowhere else.
func (s *Store) TransitionDelivery(conversationID, messageID string, next models.DeliveryState) {
	c := s.lookup(conversationID)
	if c == nil {
		telemetry.RejectedMutations.WithLabelValues("transition").Inc()
		return
	}
	c.mu.Lock()
	i, ok := c.index[messageID]
	if !ok || !c.msgs[i].DeliveryState.CanAdvance(next) {
		c.mu.Unlock()
		telemetry.RejectedMutations.WithLabelValues("transition").Inc()
		return
	}
	m := c.msgs[i]
	m.DeliveryState = next
	ev := s.updateEvent(c, m)
	c.mu.Unlock()

	telemetry.DeliveryTransitions.WithLabelValues(string(next)).Inc()
	s.emit(ev)
}

// SetReaction applies toggle semantics for one participant's reaction on
// a message: absent adds, same emoji removes, different emoji replaces.
// Deleted messages are inert.
func (s *Store) SetReaction(conversationID, messageID, participantID, emoji string) {
	c := s.lookup(conversationID)
	if c == nil {
		telemetry.RejectedMutations.WithLabelValues("reaction").Inc()
		return
	}
	c.mu.Lock()
	i, ok := c.index[messageID]
	if !ok || c.msgs[i].Deleted || participantID == "" || emoji == "" {
		c.mu.Unlock()
		telemetry.RejectedMutations.WithLabelValues("reaction").Inc()
		return
	}
	m := c.msgs[i]
	found := -1
	for j, r := range m.Reactions {
		if r.ParticipantID == participantID {
			found = j
			break
		}
	}
	switch {
	case found < 0:
		m.Reactions = append(m.Reactions, models.Reaction{ParticipantID: participantID, Emoji: emoji})
	case m.Reactions[found].Emoji == emoji:
		m.Reactions = append(m.Reactions[:found], m.Reactions[found+1:]...)
	default:
		m.Reactions[found].Emoji = emoji
	}
	ev := s.updateEvent(c, m)
	c.mu.Unlock()
	s.emit(ev)
}

// EditText replaces the text of an outgoing, non-deleted message and
// marks it edited. The original text is not retained on the live row;
// the persistence adapter keeps prior versions.
func (s *Store) EditText(conversationID, messageID, newText string) {
	c := s.lookup(conversationID)
	if c == nil {
		telemetry.RejectedMutations.WithLabelValues("edit").Inc()
		return
	}
	c.mu.Lock()
	i, ok := c.index[messageID]
	if !ok || c.msgs[i].Direction != models.DirectionOutgoing || c.msgs[i].Deleted {
		c.mu.Unlock()
		telemetry.RejectedMutations.WithLabelValues("edit").Inc()
		return
	}
	m := c.msgs[i]
	m.Text = newText
	m.Edited = true
	ev := s.updateEvent(c, m)
	c.mu.Unlock()

	logger.AuditEvent("message_edited", "conversation", conversationID, "id", messageID)
	s.emit(ev)
}

// SoftDelete tombstones an outgoing, non-deleted message. The row stays
// in the sequence; text becomes the tombstone and reactions/media become
// inert for editing while remaining queryable.
func (s *Store) SoftDelete(conversationID, messageID string) {
	c := s.lookup(conversationID)
	if c == nil {
		telemetry.RejectedMutations.WithLabelValues("delete").Inc()
		return
	}
	c.mu.Lock()
	i, ok := c.index[messageID]
	if !ok || c.msgs[i].Direction != models.DirectionOutgoing || c.msgs[i].Deleted {
		c.mu.Unlock()
		telemetry.RejectedMutations.WithLabelValues("delete").Inc()
		return
	}
	m := c.msgs[i]
	m.Deleted = true
	m.Text = models.Tombstone
	ev := s.updateEvent(c, m)
	c.mu.Unlock()

	logger.AuditEvent("message_deleted", "conversation", conversationID, "id", messageID)
	s.emit(ev)
}

// MarkConversationRead zeroes the unread counter and promotes every
// incoming message to read. Calling it twice in a row is a no-op the
// second time.
func (s *Store) MarkConversationRead(conversationID string) {
	c := s.lookup(conversationID)
	if c == nil {
		return
	}
	c.mu.Lock()
	evs := s.materialize(c)
	for _, m := range c.msgs {
		if m.Direction != models.DirectionIncoming || m.DeliveryState == models.DeliveryRead {
			continue
		}
		m.DeliveryState = models.DeliveryRead
		telemetry.DeliveryTransitions.WithLabelValues(string(models.DeliveryRead)).Inc()
		evs = append(evs, s.updateEvent(c, m))
	}
	c.unread = 0
	c.mu.Unlock()
	for _, ev := range evs {
		s.emit(ev)
	}
}

// MarkPeerRead records that the simulated peer has caught up: every
// outgoing message short of read advances to read. The simulator invokes
// this just before injecting a reply.
func (s *Store) MarkPeerRead(conversationID string) {
	c := s.lookup(conversationID)
	if c == nil {
		return
	}
	c.mu.Lock()
	var evs []Event
	for _, m := range c.msgs {
		if m.Direction != models.DirectionOutgoing || !m.DeliveryState.CanAdvance(models.DeliveryRead) {
			continue
		}
		m.DeliveryState = models.DeliveryRead
		telemetry.DeliveryTransitions.WithLabelValues(string(models.DeliveryRead)).Inc()
		evs = append(evs, s.updateEvent(c, m))
	}
	c.mu.Unlock()
	for _, ev := range evs {
		s.emit(ev)
	}
}

// SetActive marks a conversation as the open one and reconciles its read
// state. An empty id clears the active conversation.
func (s *Store) SetActive(conversationID string) {
	s.mu.Lock()
	s.active = conversationID
	s.mu.Unlock()
	if conversationID != "" {
		s.MarkConversationRead(conversationID)
	}
}

// ActiveConversation returns the currently open conversation id.
func (s *Store) ActiveConversation() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Messages returns a copy of the conversation's sequence in append order.
// First access materializes the seeded history.
func (s *Store) Messages(conversationID string) []models.Message {
	c := s.lookup(conversationID)
	if c == nil {
		return nil
	}
	c.mu.Lock()
	seedEvs := s.materialize(c)
	out := make([]models.Message, 0, len(c.msgs))
	for _, m := range c.msgs {
		out = append(out, m.Clone())
	}
	c.mu.Unlock()
	for _, sev := range seedEvs {
		s.emit(sev)
	}
	return out
}

// Dispose tears a conversation down. Pending simulator timers observe the
// dispose event and cancel; any late callback finds the id unknown and
// no-ops.
func (s *Store) Dispose(conversationID string) {
	s.mu.Lock()
	c, ok := s.convs[conversationID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.convs, conversationID)
	if s.active == conversationID {
		s.active = ""
	}
	s.mu.Unlock()

	logger.Info("conversation_disposed", "conversation", conversationID)
	s.emit(Event{Type: EventDispose, Conversation: conversationID, Peer: c.peer})
}

func (s *Store) appendEvent(c *conversation, m *models.Message) Event {
	return Event{
		Type:         EventAppend,
		Conversation: c.id,
		Peer:         c.peer,
		NextSeq:      c.nextSeq,
		Message:      m.Clone(),
	}
}

func (s *Store) updateEvent(c *conversation, m *models.Message) Event {
	return Event{
		Type:         EventUpdate,
		Conversation: c.id,
		Peer:         c.peer,
		NextSeq:      c.nextSeq,
		Message:      m.Clone(),
	}
}
