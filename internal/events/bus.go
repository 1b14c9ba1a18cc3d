package events

import "sync"

// EventKind represents the type of domain event produced by the services.

type EventKind string

const (
	EventFriendRequestReceived  EventKind = "friend_request_received"
	EventFriendRequestAccepted  EventKind = "friend_request_accepted"
	EventFriendRequestDeclined  EventKind = "friend_request_declined"
	EventFriendRequestCancelled EventKind = "friend_request_cancelled"
	EventFriendshipRemoved      EventKind = "friendship_removed"
	EventInvitationReceived     EventKind = "invitation_received"
	EventInvitationAccepted     EventKind = "invitation_accepted"
	EventInvitationDeclined     EventKind = "invitation_declined"
)

// Event carries the minimum data a live client needs. Only IDs travel on the
// bus; consumers query full records from the service layer.

type Event struct {
	Kind         EventKind `json:"kind"`
	UserID       string    `json:"userId"`
	ActorID      string    `json:"actorId,omitempty"`
	RequestID    string    `json:"requestId,omitempty"`
	InvitationID string    `json:"invitationId,omitempty"`
	PlaydateID   string    `json:"playdateId,omitempty"`
}

// Bus is a lightweight in-process pub-sub keyed by user. Each subscriber gets
// its own buffered channel so one slow websocket cannot stall the rest.

type Bus struct {
	mu     sync.RWMutex
	buffer int
	subs   map[string]map[int]chan Event
	nextID int
}

// NewBus creates a bus whose subscriber channels hold up to buffer events.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	return &Bus{buffer: buffer, subs: make(map[string]map[int]chan Event)}
}

// Publish delivers evt to every subscriber of evt.UserID without blocking.
// Events for a subscriber with a full buffer are dropped.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[evt.UserID] {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Subscribe registers a listener for a user's events. The returned cancel
// func unregisters the listener and closes the channel; it is safe to call
// more than once.
func (b *Bus) Subscribe(userID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	id := b.nextID
	b.nextID++
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[int]chan Event)
	}
	b.subs[userID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[userID], id)
			if len(b.subs[userID]) == 0 {
				delete(b.subs, userID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// SubscriberCount reports the number of active listeners for a user.
func (b *Bus) SubscriberCount(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}
