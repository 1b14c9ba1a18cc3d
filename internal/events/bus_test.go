package events

import (
	"testing"
	"time"
)

func TestBusDeliversToUserSubscribers(t *testing.T) {
	b := NewBus(4)
	ch, cancel := b.Subscribe("alice")
	defer cancel()

	other, cancelOther := b.Subscribe("bob")
	defer cancelOther()

	b.Publish(Event{Kind: EventFriendRequestReceived, UserID: "alice", ActorID: "bob"})

	select {
	case evt := <-ch:
		if evt.Kind != EventFriendRequestReceived || evt.ActorID != "bob" {
			t.Fatalf("unexpected event: %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("alice subscriber received nothing")
	}

	select {
	case evt := <-other:
		t.Fatalf("bob received alice's event: %+v", evt)
	default:
	}
}

func TestBusCancelClosesChannelAndUnregisters(t *testing.T) {
	b := NewBus(4)
	ch, cancel := b.Subscribe("alice")
	if got := b.SubscriberCount("alice"); got != 1 {
		t.Fatalf("SubscriberCount=%d, want 1", got)
	}

	cancel()
	cancel() // second call is a no-op

	if got := b.SubscriberCount("alice"); got != 0 {
		t.Fatalf("SubscriberCount after cancel=%d, want 0", got)
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel not closed after cancel")
	}

	// Publishing after cancel must not panic or deliver.
	b.Publish(Event{Kind: EventFriendshipRemoved, UserID: "alice"})
}

func TestBusDropsWhenBufferFull(t *testing.T) {
	b := NewBus(1)
	ch, cancel := b.Subscribe("alice")
	defer cancel()

	b.Publish(Event{Kind: EventInvitationReceived, UserID: "alice", InvitationID: "i1"})
	b.Publish(Event{Kind: EventInvitationReceived, UserID: "alice", InvitationID: "i2"})

	evt := <-ch
	if evt.InvitationID != "i1" {
		t.Fatalf("got %q, want first event retained", evt.InvitationID)
	}
	select {
	case evt := <-ch:
		t.Fatalf("overflow event delivered: %+v", evt)
	default:
	}
}
