package models

// Direction tags who authored a message relative to the local participant.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// MediaKind describes the type of an attached media item.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// Media is an optional attachment carried by a message.
type Media struct {
	URL  string    `json:"url"`
	Kind MediaKind `json:"kind"`
}

// Reaction is a single participant's emoji on a message. A participant
// holds at most one reaction per message; the latest emoji wins.
type Reaction struct {
	ParticipantID string `json:"participant_id"`
	Emoji         string `json:"emoji"`
}

// ReplySnapshot is an immutable copy of the quoted message's key fields,
// captured when the reply is created. Later edits or deletes of the
// original do not alter it.
type ReplySnapshot struct {
	ID            string        `json:"id"`
	Text          string        `json:"text"`
	Direction     Direction     `json:"direction"`
	DeliveryState DeliveryState `json:"delivery_state"`
	CreatedAt     int64         `json:"created_at"`
}

// Tombstone replaces the text of a soft-deleted message. The message row
// stays in the sequence for ordering and audit; only its content is gone.
const Tombstone = "message deleted"

type Message struct {
	ID           string `json:"id"`
	Conversation string `json:"conversation"`
	// Seq is the message's position in its conversation's append order.
	Seq  uint64 `json:"seq"`
	Text string `json:"text,omitempty"`
	// Direction is outgoing (authored locally) or incoming (from the peer).
	Direction     Direction     `json:"direction"`
	DeliveryState DeliveryState `json:"delivery_state"`
	// CreatedAt is the creation timestamp in nanoseconds; immutable.
	CreatedAt int64          `json:"created_at"`
	Media     *Media         `json:"media,omitempty"`
	ReplyTo   *ReplySnapshot `json:"reply_to,omitempty"`
	Reactions []Reaction     `json:"reactions,omitempty"`
	// Edited is set once text changes post-send; original text is not kept
	// on the live row (prior versions live in the persistence adapter).
	Edited bool `json:"edited,omitempty"`
	// Deleted marks a tombstoned message. Reactions and media become inert
	// for editing but remain queryable.
	Deleted bool `json:"deleted,omitempty"`
}

// Clone returns a deep copy of m so callers can hand messages across the
// store boundary without sharing mutable slices or pointers.
func (m Message) Clone() Message {
	out := m
	if m.Media != nil {
		media := *m.Media
		out.Media = &media
	}
	if m.ReplyTo != nil {
		snap := *m.ReplyTo
		out.ReplyTo = &snap
	}
	if m.Reactions != nil {
		out.Reactions = append([]Reaction(nil), m.Reactions...)
	}
	return out
}

// Preview returns the text shown in a conversation list row for this
// message: the tombstone for deleted messages, the text when present, or
// a media placeholder for textless attachments.
func (m Message) Preview() string {
	if m.Deleted {
		return Tombstone
	}
	if m.Text != "" {
		return m.Text
	}
	if m.Media != nil {
		switch m.Media.Kind {
		case MediaImage:
			return "[photo]"
		case MediaVideo:
			return "[video]"
		case MediaAudio:
			return "[audio]"
		}
	}
	return ""
}

// Snapshot captures the reply snapshot of m at the present moment.
func (m Message) Snapshot() *ReplySnapshot {
	return &ReplySnapshot{
		ID:            m.ID,
		Text:          m.Text,
		Direction:     m.Direction,
		DeliveryState: m.DeliveryState,
		CreatedAt:     m.CreatedAt,
	}
}

// GroupReactions aggregates reactions by emoji for display. It is a pure
// read-side projection; the stored per-participant records are untouched.
func GroupReactions(rs []Reaction) map[string]int {
	if len(rs) == 0 {
		return nil
	}
	out := make(map[string]int, len(rs))
	for _, r := range rs {
		out[r.Emoji]++
	}
	return out
}
