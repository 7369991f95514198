package ledger

import (
	"bufio"
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/okeyenglish/okey-learn-connect-sub016/services"
	"github.com/okeyenglish/okey-learn-connect-sub016/utils/response"
	"github.com/okeyenglish/okey-learn-connect-sub016/utils/sse"
)

// streamHeartbeat keeps idle SSE connections from being dropped by proxies
const streamHeartbeat = 30 * time.Second

// StreamLedger handles GET /api/v1/lessons/:lesson_id/ledger/stream.
// It pushes the current ledger immediately, then a fresh copy every time
// the lesson's sessions or payments change.
func (h *LedgerHandler) StreamLedger(c *fiber.Ctx) error {
	lessonID := c.Params("lesson_id")

	// Validate the lesson before committing to a stream so the client
	// still gets a proper 404
	if _, err := h.ledgerSvc.GetLedger(c.Context(), lessonID); err != nil {
		if errors.Is(err, services.ErrLessonNotFound) {
			return response.NotFound(c, "Lesson not found")
		}
		return response.InternalServerError(c, "Failed to compute ledger")
	}

	// Set SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
	c.Set("X-Accel-Buffering", "no") // Disable nginx buffering

	events, cancel := h.ledgerSvc.Notifier().Subscribe(lessonID)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		// The Fiber context is not valid inside the stream writer
		ctx := context.Background()

		if err := h.pushLedger(ctx, w, lessonID); err != nil {
			return
		}

		ticker := time.NewTicker(streamHeartbeat)
		defer ticker.Stop()

		for {
			select {
			case _, ok := <-events:
				if !ok {
					return
				}
				if err := h.pushLedger(ctx, w, lessonID); err != nil {
					return
				}
			case <-ticker.C:
				if err := sse.Send(w, sse.Event{Event: "ping", Data: "keepalive"}); err != nil {
					return
				}
			}
		}
	})

	return nil
}

// pushLedger recomputes-or-fetches the ledger and writes it as one SSE event.
// A write error means the client went away.
func (h *LedgerHandler) pushLedger(ctx context.Context, w *bufio.Writer, lessonID string) error {
	result, err := h.ledgerSvc.GetLedger(ctx, lessonID)
	if err != nil {
		if errors.Is(err, services.ErrLessonNotFound) {
			sse.SendError(w, "Lesson not found")
			return err
		}
		sse.SendError(w, "Failed to compute ledger")
		return err
	}
	return sse.Send(w, sse.Event{Event: "ledger", Data: result})
}
