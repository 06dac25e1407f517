package store

import (
	"testing"

	"chatcore/pkg/models"
)

func TestSummaryProjection(t *testing.T) {
	st, _ := newTestStore(t)

	sum, ok := st.Summary("c1")
	if !ok {
		t.Fatalf("summary missing")
	}
	if sum.Peer != "alex" || sum.UnreadCount != 1 || sum.Typing {
		t.Fatalf("seeded summary = %+v", sum)
	}
	if sum.LastMessagePreview != "great. did you catch the new drop yet?" {
		t.Fatalf("preview = %q", sum.LastMessagePreview)
	}

	m, _ := st.Append("c1", Draft{Text: "not yet, tonight"})
	sum, _ = st.Summary("c1")
	if sum.LastMessagePreview != "not yet, tonight" {
		t.Fatalf("preview after append = %q", sum.LastMessagePreview)
	}

	st.SoftDelete("c1", m.ID)
	sum, _ = st.Summary("c1")
	if sum.LastMessagePreview != models.Tombstone {
		t.Fatalf("preview after delete = %q", sum.LastMessagePreview)
	}

	if _, ok := st.Summary("ghost"); ok {
		t.Fatalf("unknown conversation produced a summary")
	}
}

func TestSummaryMediaPlaceholder(t *testing.T) {
	st, _ := newTestStore(t)
	if _, err := st.Append("c1", Draft{Media: &models.Media{URL: "u", Kind: models.MediaImage}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	sum, _ := st.Summary("c1")
	if sum.LastMessagePreview != "[photo]" {
		t.Fatalf("preview = %q", sum.LastMessagePreview)
	}
}

// TestTypingStacks verifies overlapping composing phases keep the
// indicator on until the last one clears, and that clearing never goes
// negative.
func TestTypingStacks(t *testing.T) {
	st, _ := newTestStore(t)

	st.SetTyping("c1", true)
	st.SetTyping("c1", true)
	if !st.Typing("c1") {
		t.Fatalf("typing should be on")
	}
	st.SetTyping("c1", false)
	if !st.Typing("c1") {
		t.Fatalf("typing cleared while one pipeline still composing")
	}
	st.SetTyping("c1", false)
	if st.Typing("c1") {
		t.Fatalf("typing should be off")
	}
	st.SetTyping("c1", false) // underflow clamps
	st.SetTyping("c1", true)
	if !st.Typing("c1") {
		t.Fatalf("counter went negative")
	}
}

func TestSummariesSorted(t *testing.T) {
	st, _ := newTestStore(t)
	st.Register("b2", "pat")
	st.Register("a3", "sam")

	sums := st.Summaries()
	if len(sums) != 3 {
		t.Fatalf("summaries = %d", len(sums))
	}
	if sums[0].Conversation != "a3" || sums[1].Conversation != "b2" || sums[2].Conversation != "c1" {
		t.Fatalf("order = %s, %s, %s", sums[0].Conversation, sums[1].Conversation, sums[2].Conversation)
	}
}
