package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexbridge/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleMessages() []domain.Message {
	return []domain.Message{
		{Role: domain.RoleUser, Content: "summarize the lease", Timestamp: time.Now()},
		{Role: domain.RoleAssistant, Content: "The lease runs for five years.", Timestamp: time.Now()},
	}
}

func TestSaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	session := domain.Session{ID: "s-1", CreatedAt: time.Now()}

	require.NoError(t, store.Save(ctx, session, sampleMessages()))

	messages, err := store.Load(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "summarize the lease", messages[0].Content)
	assert.Equal(t, domain.RoleAssistant, messages[1].Role)
}

func TestSaveUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	session := domain.Session{ID: "s-1", CreatedAt: time.Now()}

	require.NoError(t, store.Save(ctx, session, sampleMessages()[:1]))
	require.NoError(t, store.Save(ctx, session, sampleMessages()))

	messages, err := store.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, messages, 2, "second save replaces the transcript")

	summaries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 1, "upsert must not duplicate the row")
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Session{ID: "older", CreatedAt: time.Now()}, sampleMessages()))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, store.Save(ctx, domain.Session{ID: "newer", CreatedAt: time.Now()}, sampleMessages()))

	summaries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "newer", summaries[0].SessionID)
	assert.Equal(t, 2, summaries[0].Messages)
}

func TestLoadMissingSession(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Load(context.Background(), "absent")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Session{ID: "s-1", CreatedAt: time.Now()}, sampleMessages()))
	require.NoError(t, store.Delete(ctx, "s-1"))

	_, err := store.Load(ctx, "s-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "s-1"), domain.ErrSessionNotFound)
}
