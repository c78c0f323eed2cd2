package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/conflictfewer/internal/session"
)

func TestResolveSession(t *testing.T) {
	store, err := session.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	_, err = resolveSession(ctx, store, "work", "")
	assert.ErrorIs(t, err, session.ErrNotFound)

	first, err := store.CreateSession(ctx, "work")
	require.NoError(t, err)
	second, err := store.CreateSession(ctx, "work")
	require.NoError(t, err)

	// The appended message bumps first past second's creation time, so
	// the default lookup must return it.
	_, err = store.AppendMessage(ctx, first.ID, "assistant", "scheduled a sync")
	require.NoError(t, err)

	got, err := resolveSession(ctx, store, "work", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	got, err = resolveSession(ctx, store, "work", second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	_, err = resolveSession(ctx, store, "work", "no-such-session")
	assert.ErrorIs(t, err, session.ErrNotFound)
}
