package events

import "slices"

// EventCollector buffers the domain events an aggregate raises until its
// repository commits them to the outbox.
type EventCollector struct {
	pending []DomainEvent
}

// Record buffers events in the order they were raised.
func (c *EventCollector) Record(evts ...DomainEvent) {
	c.pending = append(c.pending, evts...)
}

// PendingEvents returns a copy of the buffered events.
func (c *EventCollector) PendingEvents() []DomainEvent {
	return slices.Clone(c.pending)
}

// ClearEvents hands the buffered events to the caller and empties the buffer.
func (c *EventCollector) ClearEvents() []DomainEvent {
	collected := c.pending
	c.pending = nil
	return collected
}
