package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRoundtrip(t *testing.T) {
	q := NewInMemory(4)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	body, _ := json.Marshal(map[string]string{"action": "registration.enroll"})
	require.NoError(t, q.Publish(ctx, Message{Type: "audit", Body: body}))

	messages, err := q.Consume(ctx)
	require.NoError(t, err)

	select {
	case msg := <-messages:
		assert.Equal(t, "audit", msg.Type)
		assert.JSONEq(t, string(body), string(msg.Body))
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}
}

func TestConsumeStopsOnCancel(t *testing.T) {
	q := NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, q.Publish(ctx, Message{Type: "audit"}))
	messages, err := q.Consume(ctx)
	require.NoError(t, err)

	// Cancel with a message pending and nobody reading: the consume goroutine
	// must still exit and close the channel instead of blocking on the forward.
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-messages:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("consume goroutine kept running after cancel")
		}
	}
}

func TestInMemoryPublishCancelled(t *testing.T) {
	q := NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, q.Publish(ctx, Message{Type: "audit"}))
	cancel()
	// Buffer full and context cancelled: publish must not block forever.
	err := q.Publish(ctx, Message{Type: "audit"})
	assert.ErrorIs(t, err, context.Canceled)
}
