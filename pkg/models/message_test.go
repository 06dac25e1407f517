package models

import "testing"

// TestDeliveryCanAdvance pins the forward-only delivery state machine:
// every forward move is allowed, every backward or sideways move is not.
func TestDeliveryCanAdvance(t *testing.T) {
	cases := []struct {
		from, to DeliveryState
		want     bool
	}{
		{DeliverySending, DeliverySent, true},
		{DeliverySending, DeliveryDelivered, true},
		{DeliverySending, DeliveryRead, true},
		{DeliverySent, DeliveryDelivered, true},
		{DeliverySent, DeliveryRead, true},
		{DeliveryDelivered, DeliveryRead, true},
		{DeliverySent, DeliverySending, false},
		{DeliveryDelivered, DeliverySent, false},
		{DeliveryRead, DeliveryDelivered, false},
		{DeliveryRead, DeliveryRead, false},
		{DeliverySending, DeliverySending, false},
		{DeliveryState("bogus"), DeliverySent, false},
		{DeliverySending, DeliveryState("bogus"), false},
	}
	for _, c := range cases {
		if got := c.from.CanAdvance(c.to); got != c.want {
			t.Fatalf("CanAdvance(%s -> %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestDeliveryValid(t *testing.T) {
	for _, s := range []DeliveryState{DeliverySending, DeliverySent, DeliveryDelivered, DeliveryRead} {
		if !s.Valid() {
			t.Fatalf("%s should be valid", s)
		}
	}
	if DeliveryState("pending").Valid() {
		t.Fatalf("unknown state should not be valid")
	}
}

func TestPreview(t *testing.T) {
	m := Message{Text: "hello"}
	if got := m.Preview(); got != "hello" {
		t.Fatalf("text preview = %q", got)
	}
	m = Message{Media: &Media{URL: "u", Kind: MediaImage}}
	if got := m.Preview(); got != "[photo]" {
		t.Fatalf("image preview = %q", got)
	}
	m.Media.Kind = MediaVideo
	if got := m.Preview(); got != "[video]" {
		t.Fatalf("video preview = %q", got)
	}
	m.Media.Kind = MediaAudio
	if got := m.Preview(); got != "[audio]" {
		t.Fatalf("audio preview = %q", got)
	}
	// deletion wins over everything else
	m = Message{Text: "hello", Deleted: true}
	if got := m.Preview(); got != Tombstone {
		t.Fatalf("deleted preview = %q, want tombstone", got)
	}
}

// TestCloneIsDeep verifies mutations on a clone never leak back into the
// original's media, reply snapshot or reaction slice.
func TestCloneIsDeep(t *testing.T) {
	orig := Message{
		ID:        "m1",
		Text:      "hi",
		Media:     &Media{URL: "u", Kind: MediaImage},
		ReplyTo:   &ReplySnapshot{ID: "m0", Text: "quoted"},
		Reactions: []Reaction{{ParticipantID: "me", Emoji: "👍"}},
	}
	cp := orig.Clone()
	cp.Media.URL = "other"
	cp.ReplyTo.Text = "changed"
	cp.Reactions[0].Emoji = "❤️"

	if orig.Media.URL != "u" {
		t.Fatalf("clone shared media: %q", orig.Media.URL)
	}
	if orig.ReplyTo.Text != "quoted" {
		t.Fatalf("clone shared reply snapshot: %q", orig.ReplyTo.Text)
	}
	if orig.Reactions[0].Emoji != "👍" {
		t.Fatalf("clone shared reactions: %q", orig.Reactions[0].Emoji)
	}
}

func TestSnapshotCapturesCurrentFields(t *testing.T) {
	m := Message{ID: "m3", Text: "original", Direction: DirectionOutgoing, DeliveryState: DeliverySent, CreatedAt: 42}
	snap := m.Snapshot()
	m.Text = "edited later"
	if snap.Text != "original" || snap.ID != "m3" || snap.DeliveryState != DeliverySent || snap.CreatedAt != 42 {
		t.Fatalf("snapshot drifted: %+v", snap)
	}
}

func TestGroupReactions(t *testing.T) {
	rs := []Reaction{
		{ParticipantID: "a", Emoji: "👍"},
		{ParticipantID: "b", Emoji: "👍"},
		{ParticipantID: "c", Emoji: "😂"},
	}
	got := GroupReactions(rs)
	if got["👍"] != 2 || got["😂"] != 1 {
		t.Fatalf("grouped = %v", got)
	}
	if GroupReactions(nil) != nil {
		t.Fatalf("empty input should yield nil")
	}
}
