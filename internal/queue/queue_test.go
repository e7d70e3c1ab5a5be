package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrattend/internal/queue"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queue.NewInMemory(4)
	require.NoError(t, q.Publish(ctx, queue.Message{Type: "claim", Body: "claim-1"}))

	messages, err := q.Consume(ctx)
	require.NoError(t, err)

	select {
	case msg := <-messages:
		assert.Equal(t, "claim", msg.Type)
		assert.Equal(t, "claim-1", msg.Body)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestInMemoryPublishCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := queue.NewInMemory(0)
	cancel()

	err := q.Publish(ctx, queue.Message{Type: "claim", Body: "claim-1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInMemoryConsumeCancelWithPendingMessage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := queue.NewInMemory(1)
	require.NoError(t, q.Publish(ctx, queue.Message{Type: "claim", Body: "claim-1"}))

	messages, err := q.Consume(ctx)
	require.NoError(t, err)

	// Let the consumer goroutine pick the message up and block on the
	// unreceived send, then cancel underneath it.
	time.Sleep(20 * time.Millisecond)
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-messages:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("consumer did not stop after cancellation")
		}
	}
}

func TestInMemoryConsumeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := queue.NewInMemory(1)

	messages, err := q.Consume(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, open := <-messages:
		assert.False(t, open, "channel must close after cancellation")
	case <-time.After(time.Second):
		t.Fatal("channel did not close")
	}
}
