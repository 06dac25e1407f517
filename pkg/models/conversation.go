package models

// Conversation is the metadata for one peer conversation. The message
// sequence itself lives in the store; this row is what the persistence
// adapter keeps alongside it.
type Conversation struct {
	ID   string `json:"id"`
	Peer string `json:"peer"`
	// NextSeq is the sequence number the next appended message receives.
	NextSeq uint64 `json:"next_seq"`
}

// Summary is the derived conversation-list row: last message preview,
// unread counter and the typing indicator. It is a projection, never
// authoritative state.
type Summary struct {
	Conversation       string `json:"conversation"`
	Peer               string `json:"peer"`
	LastMessagePreview string `json:"last_message_preview"`
	UnreadCount        int    `json:"unread_count"`
	Typing             bool   `json:"typing"`
}
