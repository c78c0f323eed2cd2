package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/conflictfewer/internal/timeutil"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGetSession(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	created, err := store.CreateSession(ctx, "work")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "work", created.Account)

	got, err := store.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "work", got.Account)

	_, err = store.GetSession(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateSessionDefaultAccount(t *testing.T) {
	store := openStore(t)

	created, err := store.CreateSession(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "default", created.Account)
}

func TestAppendAndListMessages(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "work")
	require.NoError(t, err)

	_, err = store.AppendMessage(ctx, sess.ID, "user", "schedule a sync tomorrow at 10:00")
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, sess.ID, "assistant", "created the event")
	require.NoError(t, err)

	msgs, err := store.Messages(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)

	_, err = store.AppendMessage(ctx, "nope", "user", "hello")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLatestSession(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.LatestSession(ctx, "work")
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := store.CreateSession(ctx, "work")
	require.NoError(t, err)
	second, err := store.CreateSession(ctx, "work")
	require.NoError(t, err)

	// Activity on the first session makes it the latest again.
	_, err = store.AppendMessage(ctx, first.ID, "user", "ping")
	require.NoError(t, err)

	latest, err := store.LatestSession(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, first.ID, latest.ID)
	assert.NotEqual(t, second.ID, latest.ID)
}

func TestRecordAndListEvents(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "work")
	require.NoError(t, err)

	window, err := timeutil.NewInterval(
		time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	ev, err := store.RecordEvent(ctx, sess.ID, "evt123", "primary", "Team sync", "https://calendar.example/evt123", window)
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)

	events, err := store.Events(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt123", events[0].EventID)
	assert.Equal(t, "Team sync", events[0].Title)
	assert.True(t, events[0].Start.Equal(window.Start))
	assert.True(t, events[0].End.Equal(window.End))
}

func TestDeleteSession(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "work")
	require.NoError(t, err)
	_, err = store.AppendMessage(ctx, sess.ID, "user", "hello")
	require.NoError(t, err)

	require.NoError(t, store.DeleteSession(ctx, sess.ID))
	_, err = store.GetSession(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	msgs, err := store.Messages(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.ErrorIs(t, store.DeleteSession(ctx, sess.ID), ErrNotFound)
}
