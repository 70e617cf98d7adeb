package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLogChatMessage_RoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	msg := domain.ChatMessage{
		ID:        "m1",
		Role:      domain.ChatRoleAssistant,
		Content:   "The treaty was signed in 1648.",
		SourceIDs: []string{"doc1", "doc2"},
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.LogChatMessage(ctx, msg))

	got, err := store.RecentMessages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, domain.ChatRoleAssistant, got[0].Role)
	assert.Equal(t, msg.Content, got[0].Content)
	assert.Equal(t, []string{"doc1", "doc2"}, got[0].SourceIDs)
}

func TestLogChatMessage_NilSourceIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.LogChatMessage(ctx, domain.ChatMessage{
		ID: "m1", Role: domain.ChatRoleUser, Content: "hello",
	}))

	got, err := store.RecentMessages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].SourceIDs)
}

func TestRecentMessages_NewestFirstAndLimited(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, store.LogChatMessage(ctx, domain.ChatMessage{
			ID:        id,
			Role:      domain.ChatRoleUser,
			Content:   id,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := store.RecentMessages(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m3", got[0].ID)
	assert.Equal(t, "m2", got[1].ID)
}

func TestLogAIOperation_RoundTrips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	op := domain.AIOperation{
		ID:           "op1",
		Kind:         "rag_answer",
		Query:        "when was the treaty signed",
		Backend:      "openai",
		Model:        "gpt-4o-mini",
		PassageCount: 5,
		DurationMs:   1234,
		CacheHit:     true,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, store.LogAIOperation(ctx, op))

	got, err := store.RecentOperations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "op1", got[0].ID)
	assert.Equal(t, "rag_answer", got[0].Kind)
	assert.Equal(t, "openai", got[0].Backend)
	assert.Equal(t, 5, got[0].PassageCount)
	assert.Equal(t, int64(1234), got[0].DurationMs)
	assert.True(t, got[0].CacheHit)
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.LogChatMessage(context.Background(), domain.ChatMessage{
		ID: "m1", Role: domain.ChatRoleUser, Content: "hello",
	}))
	require.NoError(t, first.Close())

	// Reopening must not re-run migrations or lose data.
	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.RecentMessages(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
