package store

import (
	"time"

	"chatcore/pkg/models"
	"chatcore/pkg/telemetry"
)

// seedScript is the fixed historical set a conversation materializes with
// on first access when nothing was restored for it. Offsets are relative
// to the materialization instant.
var seedScript = []struct {
	direction models.Direction
	text      string
	age       time.Duration
	state     models.DeliveryState
}{
	{models.DirectionIncoming, "hey! how have you been?", 52 * time.Minute, models.DeliveryRead},
	{models.DirectionOutgoing, "all good over here, you?", 50 * time.Minute, models.DeliveryRead},
	{models.DirectionIncoming, "great. did you catch the new drop yet?", 31 * time.Minute, models.DeliveryDelivered},
}

// materialize seeds a conversation's history on first access. The caller
// holds c.mu; returned events must be emitted after the lock is released.
func (s *Store) materialize(c *conversation) []Event {
	if c.seeded {
		return nil
	}
	c.seeded = true
	now := s.clk.Now()
	var evs []Event
	for _, sd := range seedScript {
		m := &models.Message{
			ID:            msgID(c.nextSeq),
			Conversation:  c.id,
			Seq:           c.nextSeq,
			Text:          sd.text,
			Direction:     sd.direction,
			DeliveryState: sd.state,
			CreatedAt:     now.Add(-sd.age).UnixNano(),
		}
		c.index[m.ID] = len(c.msgs)
		c.msgs = append(c.msgs, m)
		c.nextSeq++
		if m.Direction == models.DirectionIncoming && m.DeliveryState != models.DeliveryRead {
			c.unread++
		}
		telemetry.MessagesAppended.WithLabelValues(string(m.Direction)).Inc()
		evs = append(evs, s.appendEvent(c, m))
	}
	return evs
}
