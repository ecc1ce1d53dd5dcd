package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow-app/taskflow-sync/internal/cache"
	"github.com/taskflow-app/taskflow-sync/internal/projects/domain"
)

// fakeStore is an in-memory RemoteStore with manually triggered pushes.
type fakeStore struct {
	mu        sync.Mutex
	added     []map[string]interface{}
	updated   map[string]map[string]interface{}
	deleted   []string
	loadRes   []domain.Project
	loadErr   error
	addErr    error
	listeners map[int]func([]domain.Project)
	nextSub   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		updated:   make(map[string]map[string]interface{}),
		listeners: make(map[int]func([]domain.Project)),
	}
}

func (f *fakeStore) Add(_ context.Context, fields map[string]interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return "", f.addErr
	}
	f.added = append(f.added, fields)
	return "generated-id", nil
}

func (f *fakeStore) Update(_ context.Context, id string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[id] = fields
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) Load(context.Context) ([]domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadRes, f.loadErr
}

func (f *fakeStore) Listen(_ context.Context, push func([]domain.Project)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.listeners[id] = push
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

// push delivers a snapshot to every active listener, synchronously.
func (f *fakeStore) push(projects []domain.Project) {
	f.mu.Lock()
	listeners := make([]func([]domain.Project), 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	f.mu.Unlock()
	for _, l := range listeners {
		l(projects)
	}
}

func setupRegistry(t *testing.T) (*Registry, *fakeStore, *cache.ProjectCache) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := newFakeStore()
	projectCache := cache.NewProjectCache(client)
	return New(context.Background(), store, projectCache), store, projectCache
}

func TestGenerateKey(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		key, err := GenerateKey()
		require.NoError(t, err)
		assert.Len(t, key, 8)
		for _, ch := range key {
			assert.True(t, strings.ContainsRune(alphabet, ch), "unexpected character %q", ch)
		}
		seen[key] = true
	}
	// not a uniqueness guarantee, but 50 collisions would mean a broken generator
	assert.Greater(t, len(seen), 1)
}

func TestVerifyKey(t *testing.T) {
	r, store, _ := setupRegistry(t)
	stop := r.Subscribe(context.Background())
	defer stop()

	store.push([]domain.Project{{ID: "p1", Name: "Launch", AccessKey: "ABC123XY"}})

	t.Run("exact match", func(t *testing.T) {
		assert.True(t, r.VerifyKey("p1", "ABC123XY"))
	})

	t.Run("wrong key", func(t *testing.T) {
		assert.False(t, r.VerifyKey("p1", "ABC123XYx"))
	})

	t.Run("case sensitive", func(t *testing.T) {
		assert.False(t, r.VerifyKey("p1", "abc123xy"))
	})

	t.Run("unknown project", func(t *testing.T) {
		assert.False(t, r.VerifyKey("nope", "ABC123XY"))
	})
}

func TestCanOpen_OwnerBypass(t *testing.T) {
	r, store, _ := setupRegistry(t)
	stop := r.Subscribe(context.Background())
	defer stop()

	store.push([]domain.Project{{ID: "p1", OwnerID: "owner-1", AccessKey: "SECRET01"}})

	t.Run("owner needs no key", func(t *testing.T) {
		assert.True(t, r.CanOpen("p1", "owner-1", ""))
	})

	t.Run("non-owner needs the key", func(t *testing.T) {
		assert.False(t, r.CanOpen("p1", "someone-else", ""))
		assert.True(t, r.CanOpen("p1", "someone-else", "SECRET01"))
	})

	t.Run("unknown project", func(t *testing.T) {
		assert.False(t, r.CanOpen("nope", "owner-1", "SECRET01"))
	})
}

func TestSubscribe_ReplacesNotMerges(t *testing.T) {
	r, store, projectCache := setupRegistry(t)
	stop := r.Subscribe(context.Background())
	defer stop()

	store.push([]domain.Project{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	require.Len(t, r.Projects(), 3)

	store.push([]domain.Project{{ID: "a"}, {ID: "d"}})

	got := r.Projects()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "d", got[1].ID)

	// the cache mirrors every push
	cached := projectCache.Load(context.Background())
	require.Len(t, cached, 2)
	assert.Equal(t, "d", cached[1].ID)
}

func TestSubscribe_StopEndsDelivery(t *testing.T) {
	r, store, _ := setupRegistry(t)
	stop := r.Subscribe(context.Background())

	store.push([]domain.Project{{ID: "a"}})
	require.Len(t, r.Projects(), 1)

	stop()
	store.push([]domain.Project{{ID: "a"}, {ID: "b"}})
	assert.Len(t, r.Projects(), 1)
}

func TestSubscribe_ConcurrentLastPushWins(t *testing.T) {
	r, store, _ := setupRegistry(t)
	stop1 := r.Subscribe(context.Background())
	defer stop1()
	stop2 := r.Subscribe(context.Background())
	defer stop2()

	// both subscriptions receive the push; the collection stays coherent
	store.push([]domain.Project{{ID: "x"}})
	got := r.Projects()
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].ID)
}

func TestCreate_StripsUnsetFields(t *testing.T) {
	r, store, _ := setupRegistry(t)

	err := r.Create(context.Background(), domain.Draft{
		Name:      "X",
		OwnerID:   "owner-1",
		AccessKey: "ABC123XY",
	})
	require.NoError(t, err)

	require.Len(t, store.added, 1)
	fields := store.added[0]
	assert.Equal(t, "X", fields["name"])
	assert.NotContains(t, fields, "description")
	assert.NotContains(t, fields, "startDate")
	assert.NotContains(t, fields, "deadline")
	assert.NotContains(t, fields, "keyPeople")
	assert.NotContains(t, fields, "resources")
	assert.NotEmpty(t, fields["createdAt"])
}

func TestCreate_DoesNotTouchLocalState(t *testing.T) {
	r, _, _ := setupRegistry(t)

	err := r.Create(context.Background(), domain.Draft{Name: "X", AccessKey: "K"})
	require.NoError(t, err)
	assert.Empty(t, r.Projects(), "creation waits for the subscription push")
}

func TestCreate_PropagatesWriteFailure(t *testing.T) {
	r, store, _ := setupRegistry(t)
	store.addErr = errors.New("store unavailable")

	err := r.Create(context.Background(), domain.Draft{Name: "X"})
	assert.Error(t, err)
}

func TestUpdate_StripsUnsetFields(t *testing.T) {
	r, store, _ := setupRegistry(t)

	name := "Renamed"
	err := r.Update(context.Background(), "p1", domain.Updates{Name: &name})
	require.NoError(t, err)

	fields := store.updated["p1"]
	require.NotNil(t, fields)
	assert.Equal(t, map[string]interface{}{"name": "Renamed"}, fields)
}

func TestUpdate_EmptyIsNoOp(t *testing.T) {
	r, store, _ := setupRegistry(t)

	require.NoError(t, r.Update(context.Background(), "p1", domain.Updates{}))
	assert.Empty(t, store.updated)
}

func TestLoad_RemoteRefreshesCache(t *testing.T) {
	r, store, projectCache := setupRegistry(t)
	store.loadRes = []domain.Project{{ID: "p1", Name: "Launch"}}

	r.Load(context.Background())

	require.Len(t, r.Projects(), 1)
	cached := projectCache.Load(context.Background())
	require.Len(t, cached, 1)
	assert.Equal(t, "p1", cached[0].ID)
}

func TestLoad_FallsBackToCache(t *testing.T) {
	r, store, projectCache := setupRegistry(t)
	projectCache.Save(context.Background(), []domain.Project{{ID: "cached", Name: "Offline"}})
	store.loadErr = errors.New("network down")

	r.Load(context.Background())

	got := r.Projects()
	require.Len(t, got, 1)
	assert.Equal(t, "cached", got[0].ID)
}

func TestNew_WarmStartsFromCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	projectCache := cache.NewProjectCache(client)
	projectCache.Save(context.Background(), []domain.Project{{ID: "warm"}})

	r := New(context.Background(), newFakeStore(), projectCache)
	got := r.Projects()
	require.Len(t, got, 1)
	assert.Equal(t, "warm", got[0].ID)
}
