package internal

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	publishTimeout = 2 * time.Second
	outboxSize     = 256
)

type outboundEvent struct {
	key  string
	body []byte
}

// outbox feeds the Publisher from a single goroutine, so responses never wait
// on the broker. Events are dropped when the queue is full.
type outbox struct {
	pub Publisher
	q   chan outboundEvent
}

func newOutbox(pub Publisher) *outbox {
	return &outbox{pub: pub, q: make(chan outboundEvent, outboxSize)}
}

func (o *outbox) enqueue(key string, body []byte) {
	select {
	case o.q <- outboundEvent{key: key, body: body}:
	default:
		log.Warn().Str("key", key).Msg("event queue full, dropping")
	}
}

// Run publishes queued events until ctx is cancelled.
func (o *outbox) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-o.q:
			o.publish(ctx, ev)
		}
	}
}

func (o *outbox) publish(ctx context.Context, ev outboundEvent) {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := o.pub.Publish(pubCtx, ev.key, ev.body); err != nil {
		log.Warn().Err(err).Str("key", ev.key).Msg("publish event")
	}
}
