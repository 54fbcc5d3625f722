package internal

import (
	"context"
	"testing"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"
)

func TestOutboxRunReturnsOnCancel(t *testing.T) {
	o := newOutbox(stuckPublisher{})
	o.enqueue("question.answered", []byte(`{}`))
	testboil.ReturnsOnContextCancel(t, func(ctx context.Context) {
		o.Run(ctx)
	}, time.Second)
}

func TestOutboxDropsWhenFull(t *testing.T) {
	o := newOutbox(&recordingPublisher{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < outboxSize+10; i++ {
			o.enqueue("question.answered", []byte(`{}`))
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
	testboil.FailTestIfDiff(t, len(o.q), outboxSize)
}

func TestOutboxPublishesInOrder(t *testing.T) {
	pub := &recordingPublisher{}
	o := newOutbox(pub)
	for _, k := range []string{"a", "b", "c"} {
		o.enqueue(k, []byte(k))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	eventually(t, func() bool { return pub.count() == 3 })
	pub.mu.Lock()
	defer pub.mu.Unlock()
	testboil.FailTestIfDiff(t, pub.keys[0], "a")
	testboil.FailTestIfDiff(t, pub.keys[2], "c")
	testboil.FailTestIfDiff(t, string(pub.bodies[1]), "b")
}
