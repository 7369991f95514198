package ledger

import "testing"

func TestNotifierPublishReachesSubscriber(t *testing.T) {
	n := NewNotifier()
	defer n.Close()

	ch, cancel := n.Subscribe("lesson-1")
	defer cancel()

	n.Publish("lesson-1")
	select {
	case id := <-ch:
		if id != "lesson-1" {
			t.Errorf("got event for %q", id)
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestNotifierIsScopedPerLesson(t *testing.T) {
	n := NewNotifier()
	defer n.Close()

	ch, cancel := n.Subscribe("lesson-1")
	defer cancel()

	n.Publish("lesson-2")
	select {
	case <-ch:
		t.Fatal("received event for another lesson")
	default:
	}
}

func TestNotifierCoalescesBursts(t *testing.T) {
	n := NewNotifier()
	defer n.Close()

	ch, cancel := n.Subscribe("lesson-1")
	defer cancel()

	// A burst must never block the publisher
	for i := 0; i < 10; i++ {
		n.Publish("lesson-1")
	}
	select {
	case <-ch:
	default:
		t.Fatal("burst produced no event")
	}
}

func TestNotifierCancelIsIdempotent(t *testing.T) {
	n := NewNotifier()
	defer n.Close()

	ch, cancel := n.Subscribe("lesson-1")
	cancel()
	cancel()

	if _, open := <-ch; open {
		t.Fatal("channel still open after cancel")
	}

	// Publishing after cancel must not panic
	n.Publish("lesson-1")
}

func TestNotifierCloseTerminatesSubscribers(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Subscribe("lesson-1")
	defer cancel()

	n.Close()
	if _, open := <-ch; open {
		t.Fatal("channel still open after Close")
	}

	// Subscriptions after Close come back already closed
	ch2, cancel2 := n.Subscribe("lesson-1")
	defer cancel2()
	if _, open := <-ch2; open {
		t.Fatal("subscribe after Close returned a live channel")
	}
}
