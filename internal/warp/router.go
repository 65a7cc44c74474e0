// Package warp routes messages between role actors through an unreliable
// medium. Every send rolls for distortion exactly once (delivery and
// completion never re-roll or alter content) and completion is at most
// once per command.
package warp

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/voidtrader/internal/empire"
	"github.com/talgya/voidtrader/internal/entropy"
)

const (
	// DefaultDistortionChance applies when the sender does not override it.
	DefaultDistortionChance = 0.10
	// RelayDistortionChance applies to astropath-forwarded commands; relay
	// hops degrade the signal.
	RelayDistortionChance = 0.15
	// DistortionMarker is appended to the stored content of a distorted
	// message. Fixed; corruption is recognizable but irreversible.
	DistortionMarker = " [DISTORTED IN THE WARP]"
)

// Directory resolves actor identities. The simulation satisfies it.
type Directory interface {
	ActorExists(id uint64) bool
}

// SendOptions carries the optional fields of a send.
type SendOptions struct {
	Type             *empire.MessageType
	CommandID        *uint64
	Payload          *empire.Amounts
	DistortionChance *float64 // nil → DefaultDistortionChance
}

// Router creates, stores, and transitions messages.
type Router struct {
	mu       sync.Mutex
	messages map[uint64]*empire.Message
	order    []uint64 // send order, for stable listings
	nextID   uint64

	actors Directory
	rand   entropy.Source
	clock  func() time.Time
}

// NewRouter creates a router over the given actor directory and randomness
// source.
func NewRouter(actors Directory, src entropy.Source) *Router {
	return &Router{
		messages: make(map[uint64]*empire.Message),
		actors:   actors,
		rand:     src,
		clock:    time.Now,
	}
}

// SetClock overrides the router's time source (tests).
func (r *Router) SetClock(clock func() time.Time) { r.clock = clock }

// Send creates a message from sender to receiver. The single distortion
// roll happens here: a uniform sample below the distortion chance marks the
// message distorted and appends the corruption marker to its content.
// Returns a copy of the stored record.
func (r *Router) Send(senderID, receiverID uint64, content string, opts SendOptions) (empire.Message, error) {
	if !r.actors.ActorExists(senderID) {
		return empire.Message{}, fmt.Errorf("sender %d: %w", senderID, empire.ErrNotFound)
	}
	if !r.actors.ActorExists(receiverID) {
		return empire.Message{}, fmt.Errorf("receiver %d: %w", receiverID, empire.ErrNotFound)
	}
	if opts.Type != nil && !opts.Type.Valid() {
		return empire.Message{}, fmt.Errorf("message type %q: %w", *opts.Type, empire.ErrInvalidRange)
	}
	if opts.Payload != nil && opts.Payload.Negative() {
		return empire.Message{}, fmt.Errorf("message payload negative: %w", empire.ErrInvalidRange)
	}

	chance := DefaultDistortionChance
	if opts.DistortionChance != nil {
		chance = *opts.DistortionChance
		if chance < 0 || chance > 1 {
			return empire.Message{}, fmt.Errorf("distortion chance %.2f: %w", chance, empire.ErrInvalidRange)
		}
	}

	distorted := r.rand.Float64() < chance
	if distorted {
		content += DistortionMarker
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	m := &empire.Message{
		ID:         r.nextID,
		TraceID:    uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Type:       opts.Type,
		CommandID:  opts.CommandID,
		Payload:    opts.Payload,
		SentAt:     r.clock(),
		Distorted:  distorted,
	}
	r.messages[m.ID] = m
	r.order = append(r.order, m.ID)
	return *m, nil
}

// Restore replaces the router's contents with persisted messages, given in
// send order, and primes the id allocator above them (state load).
func (r *Router) Restore(msgs []empire.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = make(map[uint64]*empire.Message, len(msgs))
	r.order = make([]uint64, 0, len(msgs))
	r.nextID = 0
	for i := range msgs {
		m := msgs[i]
		r.messages[m.ID] = &m
		r.order = append(r.order, m.ID)
		if m.ID > r.nextID {
			r.nextID = m.ID
		}
	}
}

// Get returns a copy of the message or ErrNotFound.
func (r *Router) Get(id uint64) (empire.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return empire.Message{}, fmt.Errorf("message %d: %w", id, empire.ErrNotFound)
	}
	return *m, nil
}

// Deliver marks the message delivered. Idempotent: re-delivering an already
// delivered message is not an error and has no further effect.
func (r *Router) Deliver(id uint64) (empire.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return empire.Message{}, fmt.Errorf("message %d: %w", id, empire.ErrNotFound)
	}
	m.Delivered = true
	return *m, nil
}

// MarkCompleted marks a command executed, stamping the completion date on
// the first call only. Idempotent.
func (r *Router) MarkCompleted(id uint64) (empire.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.messages[id]
	if !ok {
		return empire.Message{}, fmt.Errorf("message %d: %w", id, empire.ErrNotFound)
	}
	if !m.Completed {
		m.Completed = true
		t := r.clock()
		m.CompletionDate = &t
	}
	return *m, nil
}

// Forward relays a command through an astropath: the original message is
// marked delivered, and a new message carrying the same content, type,
// command correlation, and payload goes from the relay to the final
// receiver at the elevated relay distortion chance. The new message keeps
// the original's trace id so the command can be followed across hops.
func (r *Router) Forward(relayID, originalID, finalReceiverID uint64) (empire.Message, error) {
	r.mu.Lock()
	orig, ok := r.messages[originalID]
	if !ok {
		r.mu.Unlock()
		return empire.Message{}, fmt.Errorf("message %d: %w", originalID, empire.ErrNotFound)
	}
	if orig.ReceiverID != relayID {
		r.mu.Unlock()
		return empire.Message{}, fmt.Errorf("message %d is not addressed to actor %d: %w", originalID, relayID, empire.ErrInvalidAction)
	}
	content := orig.Content
	opts := SendOptions{Type: orig.Type, CommandID: orig.CommandID, Payload: orig.Payload}
	r.mu.Unlock()

	// Relays re-transmit what they received; an already-present marker
	// stays, and the relay adds its own roll on top.
	chance := RelayDistortionChance
	opts.DistortionChance = &chance
	fwd, err := r.Send(relayID, finalReceiverID, content, opts)
	if err != nil {
		return empire.Message{}, err
	}

	r.mu.Lock()
	if live, ok := r.messages[fwd.ID]; ok {
		live.TraceID = orig.TraceID
	}
	fwd.TraceID = orig.TraceID
	orig.Delivered = true
	r.mu.Unlock()
	return fwd, nil
}
