package realtime

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishToSubscribers(t *testing.T) {
	h := NewHub()
	topic := UserTopic(uuid.New())

	a, cancelA := h.Subscribe(topic)
	defer cancelA()
	b, cancelB := h.Subscribe(topic)
	defer cancelB()
	other, cancelOther := h.Subscribe(ConversationTopic(uuid.New()))
	defer cancelOther()

	assert.Equal(t, 2, h.Publish(topic, "hello"))
	assert.Equal(t, "hello", <-a)
	assert.Equal(t, "hello", <-b)

	select {
	case v := <-other:
		t.Fatalf("unexpected delivery on other topic: %v", v)
	default:
	}
}

func TestHub_CancelClosesAndUnregisters(t *testing.T) {
	h := NewHub()
	topic := "user:x"

	ch, cancel := h.Subscribe(topic)
	assert.Equal(t, 1, h.Subscribers(topic))

	cancel()
	cancel() // idempotent

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.Subscribers(topic))
	assert.Equal(t, 0, h.Publish(topic, "ignored"))
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	topic := "conversation:slow"
	_, cancel := h.Subscribe(topic)
	defer cancel()

	for i := 0; i < subscriberBuffer; i++ {
		require.Equal(t, 1, h.Publish(topic, i))
	}
	assert.Equal(t, 0, h.Publish(topic, "overflow"), "full buffer drops instead of blocking")
}

func TestHub_ConcurrentPublishAndCancel(t *testing.T) {
	h := NewHub()
	topic := "user:concurrent"

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, cancel := h.Subscribe(topic)
			cancel()
		}()
		go func(i int) {
			defer wg.Done()
			h.Publish(topic, i)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, h.Subscribers(topic))
}

func TestTopics(t *testing.T) {
	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	assert.Equal(t, "user:11111111-1111-1111-1111-111111111111", UserTopic(id))
	assert.Equal(t, "conversation:11111111-1111-1111-1111-111111111111", ConversationTopic(id))
}
