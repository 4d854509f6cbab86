// Package notify decouples event processing from outbound chat latency with a
// single-consumer FIFO queue. Delivery is best effort and at most once:
// failures are logged and the message dropped, never retried.
package notify

import (
	"context"
	"log/slog"

	"github.com/comebin/ecobin-bot/pkg/metrics"
)

// Sender delivers one message to the chat transport.
type Sender interface {
	Send(recipient int64, text string) error
}

// Message is one queued notification.
type Message struct {
	Recipient int64
	Text      string
}

const defaultQueueSize = 256

// Dispatcher buffers notifications and delivers them one at a time. The
// transport is bound at Run time, so producers can enqueue before the chat
// client exists.
type Dispatcher struct {
	queue chan Message
	log   *slog.Logger
}

// NewDispatcher creates a Dispatcher with the given queue bound.
func NewDispatcher(queueSize int, log *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		queue: make(chan Message, queueSize),
		log:   log,
	}
}

// Enqueue adds a notification without blocking. When the queue is full the
// message is dropped; producers never receive backpressure.
func (d *Dispatcher) Enqueue(recipient int64, text string) {
	select {
	case d.queue <- Message{Recipient: recipient, Text: text}:
	default:
		d.log.Warn("notification queue full, dropping message", slog.Int64("recipient", recipient))
		metrics.RecordNotification("dropped")
	}
}

// Run drains the queue in FIFO order until ctx is cancelled. A failed
// delivery is logged and skipped; the loop never stops on transport errors.
func (d *Dispatcher) Run(ctx context.Context, sender Sender) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-d.queue:
			if err := sender.Send(msg.Recipient, msg.Text); err != nil {
				d.log.Error("failed to deliver notification",
					slog.Int64("recipient", msg.Recipient),
					slog.Any("error", err),
				)
				metrics.RecordNotification("failed")
				continue
			}

			metrics.RecordNotification("sent")
		}
	}
}
