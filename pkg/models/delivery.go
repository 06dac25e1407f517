package models

// DeliveryState is the lifecycle stage of an outgoing message as perceived
// by the sender. States only advance forward; Read is terminal.
type DeliveryState string

const (
	DeliverySending   DeliveryState = "sending"
	DeliverySent      DeliveryState = "sent"
	DeliveryDelivered DeliveryState = "delivered"
	DeliveryRead      DeliveryState = "read"
)

// deliveryRank orders states for the forward-only check. Unknown states
// rank below sending so they can never be transitioned into.
var deliveryRank = map[DeliveryState]int{
	DeliverySending:   1,
	DeliverySent:      2,
	DeliveryDelivered: 3,
	DeliveryRead:      4,
}

// Valid reports whether s is a known delivery state.
func (s DeliveryState) Valid() bool {
	_, ok := deliveryRank[s]
	return ok
}

// CanAdvance reports whether a transition from s to next is a strictly
// forward move through the state machine. Every delivery mutation in the
// store funnels through this predicate; there is no other transition path.
func (s DeliveryState) CanAdvance(next DeliveryState) bool {
	cur, ok := deliveryRank[s]
	if !ok {
		return false
	}
	nxt, ok := deliveryRank[next]
	if !ok {
		return false
	}
	return nxt > cur
}
