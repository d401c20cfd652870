package notify

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/db/memdb"
	"github.com/jonathan/jobni/internal/observability"
	"github.com/jonathan/jobni/internal/realtime"
	"github.com/jonathan/jobni/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_EmitAndList(t *testing.T) {
	hub := realtime.NewHub()
	sink := NewSink(memdb.New(), hub, observability.DiscardLogger())
	ctx := context.Background()
	user := uuid.New()

	stream, cancel := hub.Subscribe(realtime.UserTopic(user))
	defer cancel()

	for _, text := range []string{"first", "second", "third"} {
		_, err := sink.Emit(ctx, user, TypeNewApplication, text)
		require.NoError(t, err)
	}
	_, err := sink.Emit(ctx, uuid.New(), TypeNewApplication, "someone else")
	require.NoError(t, err)

	list, err := sink.ListFor(ctx, user)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Message)
	assert.Equal(t, "first", list[2].Message)
	assert.False(t, list[0].Read)

	got := (<-stream).(db.Notification)
	assert.Equal(t, "first", got.Message)
}

func TestSink_ListForIsCapped(t *testing.T) {
	sink := NewSink(memdb.New(), nil, observability.DiscardLogger())
	ctx := context.Background()
	user := uuid.New()
	for i := 0; i < PageSize+5; i++ {
		_, err := sink.Emit(ctx, user, TypeApplicationUpdate, "x")
		require.NoError(t, err)
	}
	list, err := sink.ListFor(ctx, user)
	require.NoError(t, err)
	assert.Len(t, list, PageSize)
}

func TestSink_MarkRead(t *testing.T) {
	sink := NewSink(memdb.New(), nil, observability.DiscardLogger())
	ctx := context.Background()
	owner, stranger := uuid.New(), uuid.New()

	n, err := sink.Emit(ctx, owner, TypeApplicationUpdate, "hello")
	require.NoError(t, err)
	_, err = sink.Emit(ctx, owner, TypeApplicationUpdate, "again")
	require.NoError(t, err)

	t.Run("unknown and foreign ids succeed silently", func(t *testing.T) {
		require.NoError(t, sink.MarkRead(ctx, uuid.New(), owner))
		require.NoError(t, sink.MarkRead(ctx, n.ID, stranger))
		count, err := sink.UnreadCount(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("owner marks read", func(t *testing.T) {
		require.NoError(t, sink.MarkRead(ctx, n.ID, owner))
		count, err := sink.UnreadCount(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("mark all", func(t *testing.T) {
		changed, err := sink.MarkAllRead(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, int64(1), changed)
		count, err := sink.UnreadCount(ctx, owner)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestMessages(t *testing.T) {
	ar := NewMessages(LocaleArabic)
	assert.Equal(t, "تقدم سارة على وظيفة مطور", ar.NewApplication("سارة", "مطور"))
	assert.Equal(t, "طلبك على وظيفة مطور قُبل", ar.StatusUpdate("مطور", types.StatusAccepted))
	assert.Contains(t, ar.Welcome("مطور"), "مطور")

	en := NewMessages(LocaleEnglish)
	assert.Equal(t, "Sara applied to your job Developer", en.NewApplication("Sara", "Developer"))
	assert.Equal(t, "Your application for Developer was rejected", en.StatusUpdate("Developer", types.StatusRejected))
	assert.Equal(t, "Your application for Developer was weird", en.StatusUpdate("Developer", "weird"))

	fallback := NewMessages("fr")
	assert.Equal(t, ar.NewApplication("a", "b"), fallback.NewApplication("a", "b"))
}
