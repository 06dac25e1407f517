// Package simulator models the asynchronous round-trip of a sent message
// and the optional simulated peer response, without a real network. It
// observes the store and schedules deferred transitions against the
// injected clock: sending->sent, sent->delivered, and with configurable
// probability a typing-indicator-then-reply pipeline. All timers for a
// conversation form one cancellable set, torn down on dispose.
package simulator

import (
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"chatcore/pkg/clock"
	"chatcore/pkg/config"
	"chatcore/pkg/logger"
	"chatcore/pkg/models"
	"chatcore/pkg/store"
	"chatcore/pkg/telemetry"
)

type Simulator struct {
	clk clock.Clock
	st  *store.Store
	cfg config.SimulatorConfig

	mu        sync.Mutex
	rng       *rand.Rand
	limiters  map[string]*rate.Limiter
	pending   map[string]map[uint64]clock.Timer
	nextTimer uint64
	closed    bool
}

// New creates a simulator bound to the store and subscribes it to store
// mutations. Zero config fields are filled with the standard timings.
func New(clk clock.Clock, st *store.Store, cfg config.SimulatorConfig) *Simulator {
	cfg.Normalize()
	s := &Simulator{
		clk:      clk,
		st:       st,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(clk.Now().UnixNano())),
		limiters: make(map[string]*rate.Limiter),
		pending:  make(map[string]map[uint64]clock.Timer),
	}
	st.Subscribe(s.onEvent)
	return s
}

func (s *Simulator) onEvent(ev store.Event) {
	switch ev.Type {
	case store.EventAppend:
		// Only fresh local sends enter the pipeline; restored or seeded
		// messages are already past sending.
		if ev.Message.Direction == models.DirectionOutgoing &&
			ev.Message.DeliveryState == models.DeliverySending {
			s.scheduleDelivery(ev.Conversation, ev.Message.ID)
		}
	case store.EventDispose:
		s.CancelConversation(ev.Conversation)
	}
}

// scheduleDelivery registers the delivery transitions for one sent
// message and, with the configured probability, a simulated reply. Both
// delivery timers are registered up front; the monotonic transition guard
// in the store makes their relative firing safe even under equal delays.
func (s *Simulator) scheduleDelivery(conversationID, messageID string) {
	s.after(conversationID, s.cfg.SentAfter.Duration(), func() {
		s.st.TransitionDelivery(conversationID, messageID, models.DeliverySent)
	})
	s.after(conversationID, s.cfg.DeliveredAfter.Duration(), func() {
		s.st.TransitionDelivery(conversationID, messageID, models.DeliveryDelivered)
	})
	if s.roll() < s.cfg.Probability() {
		s.scheduleReply(conversationID)
	}
}

// scheduleReply runs the typing-indicator-then-reply pair for one send.
// The pair is ordered within itself but independent across sends; the
// store's typing counter tolerates overlapping pipelines.
func (s *Simulator) scheduleReply(conversationID string) {
	typingDelay := s.randDelay(s.cfg.TypingMin.Duration(), s.cfg.TypingMax.Duration())
	s.after(conversationID, typingDelay, func() {
		s.st.SetTyping(conversationID, true)
		replyDelay := s.randDelay(s.cfg.ReplyMin.Duration(), s.cfg.ReplyMax.Duration())
		s.after(conversationID, replyDelay, func() {
			s.st.SetTyping(conversationID, false)
			if !s.allowReply(conversationID) {
				logger.Debug("reply_rate_limited", "conversation", conversationID)
				return
			}
			s.st.MarkPeerRead(conversationID)
			if _, ok := s.st.InjectIncoming(conversationID, s.pickReply()); ok {
				telemetry.RepliesSimulated.Inc()
			}
		})
	})
}

// after registers fn in the conversation's cancellable timer set. A
// closed simulator schedules nothing. The slot is reserved before the
// timer handle exists so a cancel racing the registration still wins.
func (s *Simulator) after(conversationID string, d time.Duration, fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.nextTimer++
	id := s.nextTimer
	set, ok := s.pending[conversationID]
	if !ok {
		set = make(map[uint64]clock.Timer)
		s.pending[conversationID] = set
	}
	set[id] = nil // reserved until the handle exists
	s.mu.Unlock()
	telemetry.PendingTimers.Inc()

	t := s.clk.AfterFunc(d, func() {
		s.release(conversationID, id)
		fn()
	})

	s.mu.Lock()
	if cur, ok := s.pending[conversationID]; ok {
		if _, reserved := cur[id]; reserved {
			cur[id] = t
			s.mu.Unlock()
			return
		}
	}
	s.mu.Unlock()
	// The set was cancelled (or the timer fired) while the handle was
	// being created; stop it so a cancelled timer cannot fire late.
	t.Stop()
}

// release drops a fired timer from its set. The gauge only moves when the
// entry was still tracked, so a racing cancel does not double-count.
func (s *Simulator) release(conversationID string, id uint64) {
	s.mu.Lock()
	set, ok := s.pending[conversationID]
	if ok {
		if _, tracked := set[id]; tracked {
			delete(set, id)
			s.mu.Unlock()
			telemetry.PendingTimers.Dec()
			return
		}
	}
	s.mu.Unlock()
}

// CancelConversation stops every pending timer for the conversation as a
// set. Timers that already fired are left alone.
func (s *Simulator) CancelConversation(conversationID string) {
	s.mu.Lock()
	set := s.pending[conversationID]
	delete(s.pending, conversationID)
	s.mu.Unlock()
	s.stopSet(set)
	if len(set) > 0 {
		logger.Debug("timers_cancelled", "conversation", conversationID, "count", len(set))
	}
}

// Close cancels everything and refuses further scheduling.
func (s *Simulator) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	all := s.pending
	s.pending = make(map[string]map[uint64]clock.Timer)
	s.mu.Unlock()
	for _, set := range all {
		s.stopSet(set)
	}
}

func (s *Simulator) stopSet(set map[uint64]clock.Timer) {
	for _, t := range set {
		if t != nil && t.Stop() {
			telemetry.TimersCancelled.Inc()
		}
		telemetry.PendingTimers.Dec()
	}
}

// allowReply consults the per-conversation reply limiter when one is
// configured.
func (s *Simulator) allowReply(conversationID string) bool {
	if s.cfg.ReplyRPS <= 0 {
		return true
	}
	s.mu.Lock()
	lim, ok := s.limiters[conversationID]
	if !ok {
		burst := s.cfg.ReplyBurst
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(s.cfg.ReplyRPS), burst)
		s.limiters[conversationID] = lim
	}
	s.mu.Unlock()
	return lim.Allow()
}

func (s *Simulator) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// randDelay picks a duration in [min, max); equal bounds pin the delay,
// which tests rely on.
func (s *Simulator) randDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + time.Duration(s.rng.Int63n(int64(max-min)))
}
