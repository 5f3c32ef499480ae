package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mikey/email-triage/internal/core"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func email(id, thread string, role core.SenderRole, body string) *core.Email {
	return &core.Email{
		ID:          id,
		Sender:      "client@example.com",
		Subject:     "Loan " + id,
		Body:        body,
		Date:        "2025-03-20",
		Attachments: []string{id + ".txt"},
		ThreadID:    thread,
		Role:        role,
	}
}

// exerciseRepository runs the shared ThreadRepository contract against a store
func exerciseRepository(t *testing.T, repo core.ThreadRepository) {
	t.Helper()
	ctx := context.Background()

	empty, err := repo.Thread(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, repo.Append(ctx, email("1", "t-1", core.RoleCustomer, "first")))
	require.NoError(t, repo.Append(ctx, email("2", "t-2", core.RoleCustomer, "other")))
	require.NoError(t, repo.Append(ctx, email("3", "t-1", core.RoleSupport, "reply")))
	require.NoError(t, repo.Append(ctx, email("4", "t-1", core.RoleCustomer, "second")))

	thread, err := repo.Thread(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, thread, 3)

	ids := make([]string, 0, len(thread))
	for _, e := range thread {
		ids = append(ids, e.ID)
		assert.Equal(t, "t-1", e.ThreadKey())
	}
	assert.Equal(t, []string{"1", "3", "4"}, ids)
	assert.Equal(t, core.RoleSupport, thread[1].Role)
	assert.Equal(t, []string{"1.txt"}, thread[0].Attachments)
	assert.Equal(t, "second", thread[2].Body)

	keys, err := repo.Threads(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t-1", "t-2"}, keys)
}

func TestMemoryStore(t *testing.T) {
	exerciseRepository(t, NewMemoryStore(zaptest.NewLogger(t)))
}

func TestMemoryStoreThreadIsACopy(t *testing.T) {
	s := NewMemoryStore(zaptest.NewLogger(t))
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, email("1", "t", core.RoleCustomer, "a")))

	thread, err := s.Thread(ctx, "t")
	require.NoError(t, err)
	thread[0] = nil

	again, err := s.Thread(ctx, "t")
	require.NoError(t, err)
	require.NotNil(t, again[0])
}

func TestMemoryStoreFallsBackToSender(t *testing.T) {
	s := NewMemoryStore(zaptest.NewLogger(t))
	ctx := context.Background()

	e := email("1", "", core.RoleCustomer, "a")
	e.Sender = "  Client@Example.com "
	require.NoError(t, s.Append(ctx, e))

	thread, err := s.Thread(ctx, "client@example.com")
	require.NoError(t, err)
	assert.Len(t, thread, 1)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "threads.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Stop()

	exerciseRepository(t, s)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threads.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, email("1", "t", core.RoleCustomer, "persisted")))
	s.Stop()

	reopened, err := NewSQLiteStore(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer reopened.Stop()

	thread, err := reopened.Thread(ctx, "t")
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, "persisted", thread[0].Body)
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	s, err := NewRedisStore("redis://"+mr.Addr()+"/0", "test", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(s.Stop)
	return s, mr
}

func TestRedisStore(t *testing.T) {
	s, _ := newRedisStore(t)
	exerciseRepository(t, s)
}

func TestRedisStoreRoundTripsEmail(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	original := email("1", "t-1", core.RoleCustomer, "Please transfer $10,000")
	original.Attachments = []string{"a.pdf", "b.txt"}
	require.NoError(t, s.Append(ctx, original))

	thread, err := s.Thread(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, original, thread[0])

	assert.True(t, mr.Exists("test:thread:t-1"))
	members, err := mr.Members("test:threads")
	require.NoError(t, err)
	assert.Equal(t, []string{"t-1"}, members)
}

func TestRedisStoreRejectsUndecodableEntry(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, email("1", "t-1", core.RoleCustomer, "first")))
	_, err := mr.RPush("test:thread:t-1", "{not json")
	require.NoError(t, err)

	_, err = s.Thread(ctx, "t-1")
	assert.ErrorContains(t, err, "entry 1 of thread t-1")
}

func TestRedisStoreDefaultPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreFromClient(client, "", zaptest.NewLogger(t))
	defer s.Stop()

	require.NoError(t, s.Append(context.Background(), email("1", "t", core.RoleCustomer, "a")))
	assert.True(t, mr.Exists("triage:thread:t"))
}

func TestNewRedisStoreRejectsBadURL(t *testing.T) {
	_, err := NewRedisStore("://nope", "", zaptest.NewLogger(t))
	assert.Error(t, err)
}
