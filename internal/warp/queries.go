// Message queries: the partitions each role works from. An astropath's
// outbound queue, a receiver's command inbox, a trader's command ledger.
package warp

import "github.com/talgya/voidtrader/internal/empire"

// listWhere returns copies of messages matching keep, in send order.
func (r *Router) listWhere(keep func(*empire.Message) bool) []empire.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []empire.Message
	for _, id := range r.order {
		if m := r.messages[id]; keep(m) {
			out = append(out, *m)
		}
	}
	return out
}

// All returns every message in send order (persistence snapshots).
func (r *Router) All() []empire.Message {
	return r.listWhere(func(*empire.Message) bool { return true })
}

// ForActor returns every message the actor sent or received.
func (r *Router) ForActor(actorID uint64) []empire.Message {
	return r.listWhere(func(m *empire.Message) bool {
		return m.SenderID == actorID || m.ReceiverID == actorID
	})
}

// PendingFrom returns the sender's messages still awaiting delivery, an
// astropath's outbound warp queue.
func (r *Router) PendingFrom(senderID uint64) []empire.Message {
	return r.listWhere(func(m *empire.Message) bool {
		return m.SenderID == senderID && !m.Delivered
	})
}

// DeliveredFrom returns the sender's messages already delivered.
func (r *Router) DeliveredFrom(senderID uint64) []empire.Message {
	return r.listWhere(func(m *empire.Message) bool {
		return m.SenderID == senderID && m.Delivered
	})
}

// CommandsFor returns the receiver's inbox of commands awaiting execution:
// typed navigation/upgrade/crisis messages not yet completed.
func (r *Router) CommandsFor(receiverID uint64) []empire.Message {
	return r.listWhere(func(m *empire.Message) bool {
		return m.ReceiverID == receiverID && m.IsCommand()
	})
}

// NotesFor returns the receiver's plain traffic: untyped messages and typed
// informational ones (transfers, status updates).
func (r *Router) NotesFor(receiverID uint64) []empire.Message {
	return r.listWhere(func(m *empire.Message) bool {
		return m.ReceiverID == receiverID && (m.Type == nil || !m.Type.Command())
	})
}

// PendingCommandsFrom returns commands the sender dispatched that have not
// been executed yet, a trader tracking outstanding orders.
func (r *Router) PendingCommandsFrom(senderID uint64) []empire.Message {
	return r.listWhere(func(m *empire.Message) bool {
		return m.SenderID == senderID && m.Type != nil && m.Type.Command() && !m.Completed
	})
}

// CompletedCommandsFrom returns the sender's executed commands.
func (r *Router) CompletedCommandsFrom(senderID uint64) []empire.Message {
	return r.listWhere(func(m *empire.Message) bool {
		return m.SenderID == senderID && m.Type != nil && m.Type.Command() && m.Completed
	})
}

// Trace returns every hop sharing a trace id, in send order.
func (r *Router) Trace(traceID string) []empire.Message {
	return r.listWhere(func(m *empire.Message) bool {
		return m.TraceID == traceID
	})
}
