package state

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, RedisOptions{TTL: ttl}), mr
}

func backends(t *testing.T) map[string]Store {
	rs, _ := newRedisStore(t, 0)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  rs,
	}
}

func TestStoreStateAndDraft(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			st, err := s.State(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, StateIdle, st)

			require.NoError(t, s.SetState(ctx, 1, "reg:major"))
			require.NoError(t, s.UpdateDraft(ctx, 1, map[string]string{"course": "3"}))
			require.NoError(t, s.UpdateDraft(ctx, 1, map[string]string{"major": "Physics"}))

			st, err = s.State(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, State("reg:major"), st)

			draft, err := s.Draft(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"course": "3", "major": "Physics"}, draft)

			require.NoError(t, s.ClearState(ctx, 1))
			st, _ = s.State(ctx, 1)
			assert.Equal(t, StateIdle, st)
			draft, _ = s.Draft(ctx, 1)
			assert.Empty(t, draft)
		})
	}
}

func TestStoreClearStateKeepsAdminMode(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SetAdminMode(ctx, 7, true))
			require.NoError(t, s.SetState(ctx, 7, "event:name"))
			require.NoError(t, s.ClearState(ctx, 7))

			on, err := s.AdminMode(ctx, 7)
			require.NoError(t, err)
			assert.True(t, on)

			require.NoError(t, s.SetAdminMode(ctx, 7, false))
			on, _ = s.AdminMode(ctx, 7)
			assert.False(t, on)
		})
	}
}

func TestStoreLastMessage(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.LastMessage(ctx, 5)
			require.NoError(t, err)
			assert.False(t, ok)

			want := LastMessage{ChatID: 5, MessageID: 42, HasPhoto: true}
			require.NoError(t, s.SetLastMessage(ctx, 5, want))
			got, ok, err := s.LastMessage(ctx, 5)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, want, got)

			require.NoError(t, s.SetLastMessage(ctx, 5, LastMessage{ChatID: 5, MessageID: 43}))
			got, _, _ = s.LastMessage(ctx, 5)
			assert.False(t, got.HasPhoto)
			assert.Equal(t, 43, got.MessageID)

			require.NoError(t, s.ClearLastMessage(ctx, 5))
			_, ok, _ = s.LastMessage(ctx, 5)
			assert.False(t, ok)
		})
	}
}

func TestStoreClearRemovesEverything(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SetState(ctx, 9, "verify:photo"))
			require.NoError(t, s.SetAdminMode(ctx, 9, true))
			require.NoError(t, s.SetLastMessage(ctx, 9, LastMessage{ChatID: 9, MessageID: 1}))
			require.NoError(t, s.Clear(ctx, 9))

			st, _ := s.State(ctx, 9)
			on, _ := s.AdminMode(ctx, 9)
			_, ok, _ := s.LastMessage(ctx, 9)
			assert.Equal(t, StateIdle, st)
			assert.False(t, on)
			assert.False(t, ok)
		})
	}
}

func TestStoreUsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SetState(ctx, 1, "reg:age"))
			st, _ := s.State(ctx, 2)
			assert.Equal(t, StateIdle, st)
		})
	}
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, time.Minute)

	require.NoError(t, s.SetState(ctx, 3, "reg:name"))
	require.NoError(t, s.UpdateDraft(ctx, 3, map[string]string{"name": "Ann"}))
	mr.FastForward(2 * time.Minute)

	st, err := s.State(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, st)
	draft, _ := s.Draft(ctx, 3)
	assert.Empty(t, draft)
}

func TestRedisStoreKeyLayout(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, 0)
	require.NoError(t, s.SetState(ctx, 11, "reg:course"))
	v, err := mr.Get("unimeet:sess:11:state")
	require.NoError(t, err)
	assert.Equal(t, "reg:course", v)
}

func TestMemoryDraftConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			_ = st.UpdateDraft(ctx, 1, map[string]string{"k" + strconv.Itoa(i%50): "v"})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			d, err := st.Draft(ctx, 1)
			assert.NoError(t, err)
			d["local"] = "x"
		}
	}()
	wg.Wait()

	d, err := st.Draft(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, d, 50)
	assert.NotContains(t, d, "local")
}
