package service

import (
	"context"
	"crypto/rand"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/taskflow-app/taskflow-sync/internal/cache"
	"github.com/taskflow-app/taskflow-sync/internal/projects/domain"
)

// RemoteStore is the project collection surface of the remote document
// store. Implemented by repository.ProjectRepository; faked in tests.
type RemoteStore interface {
	Add(ctx context.Context, fields map[string]interface{}) (string, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	Load(ctx context.Context) ([]domain.Project, error)
	Listen(ctx context.Context, push func([]domain.Project)) func()
}

// Registry owns the authoritative in-memory project collection. Mutations go
// to the remote store only; the live subscription is the source of truth
// that ultimately updates the collection. Updates are coarse-grained
// whole-collection replacements, guarded by a single mutex.
type Registry struct {
	store RemoteStore
	cache *cache.ProjectCache

	mu       sync.RWMutex
	projects []domain.Project
}

// New creates a registry warm-started from the local cache, so reads work
// before any remote data arrives.
func New(ctx context.Context, store RemoteStore, cache *cache.ProjectCache) *Registry {
	return &Registry{
		store:    store,
		cache:    cache,
		projects: cache.Load(ctx),
	}
}

const (
	keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	keyLength   = 8
)

// GenerateKey produces an 8-character uppercase alphanumeric access key.
// There is no uniqueness guarantee against existing keys.
func GenerateKey() (string, error) {
	max := big.NewInt(int64(len(keyAlphabet)))
	key := make([]byte, keyLength)
	for i := range key {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		key[i] = keyAlphabet[n.Int64()]
	}
	return string(key), nil
}

// Projects returns a copy of the current in-memory collection, ordered by
// createdAt descending as delivered by the remote subscription.
func (r *Registry) Projects() []domain.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Project, len(r.projects))
	copy(out, r.projects)
	return out
}

// Get returns the project with the given id from the in-memory collection.
func (r *Registry) Get(id string) (domain.Project, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.projects {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Project{}, false
}

// VerifyKey reports whether a project with the given id exists locally and
// candidate matches its access key exactly (case-sensitive). It operates on
// possibly-stale local state and never queries the remote store.
func (r *Registry) VerifyKey(projectID, candidate string) bool {
	p, ok := r.Get(projectID)
	return ok && p.AccessKey == candidate
}

// CanOpen reports whether the user may open the project: the owner always
// may, anyone else needs a matching access key.
func (r *Registry) CanOpen(projectID, userID, candidate string) bool {
	p, ok := r.Get(projectID)
	if !ok {
		return false
	}
	if p.OwnerID != "" && p.OwnerID == userID {
		return true
	}
	return p.AccessKey == candidate
}

// Create stamps createdAt and writes the project to the remote store. The
// in-memory collection is not touched: the live subscription observes the
// new record. A failed write propagates to the caller.
func (r *Registry) Create(ctx context.Context, draft domain.Draft) error {
	fields := draft.Fields(time.Now().UTC().Format(time.RFC3339))
	if _, err := r.store.Add(ctx, fields); err != nil {
		return err
	}
	return nil
}

// Update writes a partial update to the remote store. Same eventual
// consistency contract as Create.
func (r *Registry) Update(ctx context.Context, id string, updates domain.Updates) error {
	fields := updates.Fields()
	if len(fields) == 0 {
		return nil
	}
	return r.store.Update(ctx, id, fields)
}

// Delete removes the remote record. Cascading task deletion is the caller's
// responsibility; the registry does not coordinate across collections.
func (r *Registry) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, id)
}

// Load fetches the project collection once and refreshes the local cache.
// On remote failure it degrades to the cached list; the error is absorbed
// and logged, never surfaced.
func (r *Registry) Load(ctx context.Context) {
	projects, err := r.store.Load(ctx)
	if err != nil {
		log.Printf("projects: load from remote store: %v (falling back to cache)", err)
		cached := r.cache.Load(ctx)
		r.mu.Lock()
		r.projects = cached
		r.mu.Unlock()
		return
	}
	r.replaceAll(ctx, projects)
}

// Subscribe opens a live subscription on the project collection. Every push
// atomically replaces the whole in-memory collection and refreshes the
// cache. The returned handle stops further delivery. Multiple concurrent
// subscriptions are tolerated; each replaces state on its own pushes and
// the last push wins.
func (r *Registry) Subscribe(ctx context.Context) func() {
	return r.store.Listen(ctx, func(projects []domain.Project) {
		r.replaceAll(ctx, projects)
	})
}

// replaceAll is the pure state transition applied on every snapshot push:
// replace, never merge.
func (r *Registry) replaceAll(ctx context.Context, projects []domain.Project) {
	r.mu.Lock()
	r.projects = projects
	r.mu.Unlock()
	r.cache.Save(ctx, projects)
}
