package ledger

import "sync"

// Notifier fans change events out to in-process subscribers (SSE streams).
// Events carry no payload beyond the lesson ID: every event means
// "invalidate and refetch". Subscriptions are scoped handles; the returned
// cancel func is safe to call more than once and must run on every exit
// path of the subscriber.
type Notifier struct {
	mu     sync.Mutex
	closed bool
	nextID int
	subs   map[string]map[int]chan string
}

// NewNotifier creates an empty notifier
func NewNotifier() *Notifier {
	return &Notifier{
		subs: make(map[string]map[int]chan string),
	}
}

// Subscribe registers interest in change events for one lesson. The channel
// is buffered and events coalesce: a slow reader sees at least one event
// for any burst of changes, which is enough for refetch semantics.
func (n *Notifier) Subscribe(lessonID string) (<-chan string, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan string, 1)
	if n.closed {
		close(ch)
		return ch, func() {}
	}

	n.nextID++
	id := n.nextID
	if n.subs[lessonID] == nil {
		n.subs[lessonID] = make(map[int]chan string)
	}
	n.subs[lessonID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if subs, ok := n.subs[lessonID]; ok {
				if _, ok := subs[id]; ok {
					delete(subs, id)
					close(ch)
				}
				if len(subs) == 0 {
					delete(n.subs, lessonID)
				}
			}
		})
	}
	return ch, cancel
}

// Publish notifies all subscribers of the lesson. Never blocks.
func (n *Notifier) Publish(lessonID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	for _, ch := range n.subs[lessonID] {
		select {
		case ch <- lessonID:
		default: // subscriber already has a pending event
		}
	}
}

// Close closes all subscriber channels and rejects further subscriptions
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	for lessonID, subs := range n.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(n.subs, lessonID)
	}
}
