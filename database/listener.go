package database

import (
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/okeyenglish/okey-learn-connect-sub016/config"
)

// LedgerChannel is the Postgres NOTIFY channel fired by the triggers
// installed in Init for every session/payment write.
const LedgerChannel = "ledger_changed"

// ChangeListener consumes Postgres LISTEN/NOTIFY events for the ledger.
// The notification payload is a lesson ID, but subscribers treat any event
// as "invalidate and refetch" - the payload only scopes which lesson.
type ChangeListener struct {
	listener *pq.Listener
	done     chan struct{}
}

// StartChangeListener opens a LISTEN connection and invokes handler with the
// lesson ID of every change event until Close is called.
func StartChangeListener(handler func(lessonID string)) (*ChangeListener, error) {
	getEnv, err := config.Get()
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		getEnv.DB_HOST,
		getEnv.DB_USER_NAME,
		getEnv.DB_PASSWORD,
		getEnv.DB_NAME,
		getEnv.DB_PORT,
		getEnv.DB_SSL_MODE,
	)

	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("[LISTEN] connection event %v: %v", ev, err)
		}
	})
	if err := listener.Listen(LedgerChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to LISTEN on %s: %w", LedgerChannel, err)
	}

	cl := &ChangeListener{
		listener: listener,
		done:     make(chan struct{}),
	}

	go cl.run(handler)

	log.Printf("Listening for ledger changes on channel %q", LedgerChannel)
	return cl, nil
}

func (cl *ChangeListener) run(handler func(lessonID string)) {
	// Periodic ping so a silently dropped connection reconnects
	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-cl.done:
			return
		case n := <-cl.listener.Notify:
			// n is nil after a reconnect; events may have been missed, but
			// the caches expire on their own so a missed event only delays
			// a refresh
			if n == nil {
				continue
			}
			handler(n.Extra)
		case <-ping.C:
			if err := cl.listener.Ping(); err != nil {
				log.Printf("[LISTEN] ping failed: %v", err)
			}
		}
	}
}

// Close stops the listener. Safe to call once.
func (cl *ChangeListener) Close() error {
	close(cl.done)
	return cl.listener.Close()
}
