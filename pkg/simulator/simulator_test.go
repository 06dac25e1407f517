package simulator

import (
	"testing"
	"time"

	"chatcore/pkg/clock"
	"chatcore/pkg/config"
	"chatcore/pkg/models"
	"chatcore/pkg/store"
)

// pinnedConfig removes randomness: typing always 3s after send resolution
// scheduling, reply always 2s after typing starts.
func pinnedConfig(prob float64) config.SimulatorConfig {
	return config.SimulatorConfig{
		SentAfter:        config.Duration(500 * time.Millisecond),
		DeliveredAfter:   config.Duration(1500 * time.Millisecond),
		TypingMin:        config.Duration(3 * time.Second),
		TypingMax:        config.Duration(3 * time.Second),
		ReplyMin:         config.Duration(2 * time.Second),
		ReplyMax:         config.Duration(2 * time.Second),
		ReplyProbability: &prob,
	}
}

func setup(t *testing.T, prob float64) (*store.Store, *clock.VirtualClock, *Simulator) {
	t.Helper()
	clk := clock.NewVirtual(time.Unix(1_700_000_000, 0))
	st := store.New(clk, "me")
	st.Register("c1", "alex")
	sim := New(clk, st, pinnedConfig(prob))
	return st, clk, sim
}

func stateOf(t *testing.T, st *store.Store, id string) models.DeliveryState {
	t.Helper()
	for _, m := range st.Messages("c1") {
		if m.ID == id {
			return m.DeliveryState
		}
	}
	t.Fatalf("message %s not found", id)
	return ""
}

func countIncoming(st *store.Store) int {
	n := 0
	for _, m := range st.Messages("c1") {
		if m.Direction == models.DirectionIncoming {
			n++
		}
	}
	return n
}

// TestDeliveryTimeline pins the send round-trip: sending at creation,
// sent at +500ms, delivered at +1500ms, no earlier.
func TestDeliveryTimeline(t *testing.T) {
	st, clk, sim := setup(t, 0)
	defer sim.Close()

	m, err := st.Append("c1", store.Draft{Text: "heading out"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := stateOf(t, st, m.ID); got != models.DeliverySending {
		t.Fatalf("at t0 state = %s", got)
	}

	clk.Advance(499 * time.Millisecond)
	if got := stateOf(t, st, m.ID); got != models.DeliverySending {
		t.Fatalf("at 499ms state = %s", got)
	}
	clk.Advance(time.Millisecond)
	if got := stateOf(t, st, m.ID); got != models.DeliverySent {
		t.Fatalf("at 500ms state = %s", got)
	}
	clk.Advance(999 * time.Millisecond)
	if got := stateOf(t, st, m.ID); got != models.DeliverySent {
		t.Fatalf("at 1499ms state = %s", got)
	}
	clk.Advance(time.Millisecond)
	if got := stateOf(t, st, m.ID); got != models.DeliveryDelivered {
		t.Fatalf("at 1500ms state = %s", got)
	}
}

// TestReplyPipeline walks the full simulated response: typing indicator
// at +3s, reply at +5s, sender's message marked read by the peer, unread
// counting the new incoming message.
func TestReplyPipeline(t *testing.T) {
	st, clk, sim := setup(t, 1)
	defer sim.Close()

	m, _ := st.Append("c1", store.Draft{Text: "you around?"})
	before := countIncoming(st)

	clk.Advance(2999 * time.Millisecond)
	if st.Typing("c1") {
		t.Fatalf("typing before the window")
	}
	clk.Advance(time.Millisecond)
	if !st.Typing("c1") {
		t.Fatalf("typing indicator missing at +3s")
	}
	if countIncoming(st) != before {
		t.Fatalf("reply arrived before the composing phase finished")
	}

	clk.Advance(2 * time.Second)
	if st.Typing("c1") {
		t.Fatalf("typing still on after the reply")
	}
	if got := countIncoming(st); got != before+1 {
		t.Fatalf("incoming = %d, want %d", got, before+1)
	}
	if got := stateOf(t, st, m.ID); got != models.DeliveryRead {
		t.Fatalf("peer replied without reading: %s", got)
	}
	msgs := st.Messages("c1")
	last := msgs[len(msgs)-1]
	if last.Direction != models.DirectionIncoming || last.Text == "" {
		t.Fatalf("reply = %+v", last)
	}
	if last.DeliveryState != models.DeliveryDelivered {
		t.Fatalf("inactive reply born %s, want delivered", last.DeliveryState)
	}
	if clk.Pending() != 0 {
		t.Fatalf("pending timers = %d after pipeline", clk.Pending())
	}
}

func TestReplyBornReadWhenActive(t *testing.T) {
	st, clk, sim := setup(t, 1)
	defer sim.Close()

	st.SetActive("c1")
	st.Append("c1", store.Draft{Text: "ping"})
	clk.Advance(5 * time.Second)

	msgs := st.Messages("c1")
	last := msgs[len(msgs)-1]
	if last.Direction != models.DirectionIncoming || last.DeliveryState != models.DeliveryRead {
		t.Fatalf("active reply = %+v", last)
	}
	if got := st.UnreadCount("c1"); got != 0 {
		t.Fatalf("unread = %d while conversation active", got)
	}
}

func TestZeroProbabilityNeverReplies(t *testing.T) {
	st, clk, sim := setup(t, 0)
	defer sim.Close()

	st.Append("c1", store.Draft{Text: "anyone?"})
	before := countIncoming(st)
	clk.Advance(time.Minute)

	if st.Typing("c1") {
		t.Fatalf("typing with zero probability")
	}
	if got := countIncoming(st); got != before {
		t.Fatalf("incoming grew: %d -> %d", before, got)
	}
}

// TestDisposeCancelsTimers verifies teardown stops the whole timer set so
// no transition or reply lands after the conversation is gone.
func TestDisposeCancelsTimers(t *testing.T) {
	st, clk, sim := setup(t, 1)
	defer sim.Close()

	st.Append("c1", store.Draft{Text: "going away"})
	clk.Advance(500 * time.Millisecond) // sent fired, delivered and typing pending
	if clk.Pending() == 0 {
		t.Fatalf("expected pending timers before dispose")
	}

	st.Dispose("c1")
	if got := clk.Pending(); got != 0 {
		t.Fatalf("pending timers after dispose = %d", got)
	}
	clk.Advance(time.Minute) // nothing left to fire
}

func TestCloseStopsScheduling(t *testing.T) {
	st, clk, sim := setup(t, 1)

	sim.Close()
	st.Append("c1", store.Draft{Text: "into the void"})
	if got := clk.Pending(); got != 0 {
		t.Fatalf("closed simulator scheduled %d timers", got)
	}
	sim.Close() // idempotent
}

// TestReplyRateLimit verifies the per-conversation limiter drops the
// second reply when the budget is exhausted; the typing indicator still
// cycles because the pipeline runs, only the injection is suppressed.
func TestReplyRateLimit(t *testing.T) {
	clk := clock.NewVirtual(time.Unix(1_700_000_000, 0))
	st := store.New(clk, "me")
	st.Register("c1", "alex")
	cfg := pinnedConfig(1)
	cfg.ReplyRPS = 0.001
	cfg.ReplyBurst = 1
	sim := New(clk, st, cfg)
	defer sim.Close()

	st.Append("c1", store.Draft{Text: "first"})
	clk.Advance(5 * time.Second)
	after1 := countIncoming(st)

	st.Append("c1", store.Draft{Text: "second"})
	clk.Advance(5 * time.Second)
	if st.Typing("c1") {
		t.Fatalf("typing stuck on after suppressed reply")
	}
	if got := countIncoming(st); got != after1 {
		t.Fatalf("rate-limited reply was injected: %d -> %d", after1, got)
	}
}
