package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow-app/taskflow-sync/internal/tasks/domain"
)

type taskWrite struct {
	projectID string
	id        string
	fields    map[string]interface{}
}

// fakeTaskStore is an in-memory RemoteStore with per-project listeners and
// manually triggered pushes.
type fakeTaskStore struct {
	mu        sync.Mutex
	added     []taskWrite
	updated   []taskWrite
	deleted   []taskWrite
	wiped     []string
	updateErr error
	listeners map[int]struct {
		projectID string
		push      func([]domain.Task)
	}
	nextSub int
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{listeners: make(map[int]struct {
		projectID string
		push      func([]domain.Task)
	})}
}

func (f *fakeTaskStore) Add(_ context.Context, projectID string, fields map[string]interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, taskWrite{projectID: projectID, fields: fields})
	return "generated-id", nil
}

func (f *fakeTaskStore) Update(_ context.Context, projectID, id string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = append(f.updated, taskWrite{projectID: projectID, id: id, fields: fields})
	return nil
}

func (f *fakeTaskStore) Delete(_ context.Context, projectID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, taskWrite{projectID: projectID, id: id})
	return nil
}

func (f *fakeTaskStore) DeleteAll(_ context.Context, projectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wiped = append(f.wiped, projectID)
	return nil
}

func (f *fakeTaskStore) Listen(_ context.Context, projectID string, push func([]domain.Task)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.listeners[id] = struct {
		projectID string
		push      func([]domain.Task)
	}{projectID, push}
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners, id)
	}
}

// push delivers a snapshot to every listener subscribed to projectID.
func (f *fakeTaskStore) push(projectID string, tasks []domain.Task) {
	f.mu.Lock()
	pushes := make([]func([]domain.Task), 0, len(f.listeners))
	for _, l := range f.listeners {
		if l.projectID == projectID {
			pushes = append(pushes, l.push)
		}
	}
	f.mu.Unlock()
	for _, p := range pushes {
		p(tasks)
	}
}

func pendingTask(id, projectID string) domain.Task {
	return domain.Task{
		ID:        id,
		Title:     "Task " + id,
		Status:    domain.StatusPending,
		Priority:  domain.PriorityMedium,
		DueDate:   "2026-09-01T12:00:00Z",
		ProjectID: projectID,
	}
}

func TestCreate_RequiresProjectID(t *testing.T) {
	r := New(newFakeTaskStore())

	err := r.Create(context.Background(), domain.Draft{Title: "No home", DueDate: "2026-09-01"})
	assert.ErrorIs(t, err, domain.ErrMissingProjectID)
}

func TestCreate_WritesRemoteOnly(t *testing.T) {
	store := newFakeTaskStore()
	r := New(store)

	err := r.Create(context.Background(), domain.Draft{
		Title:     "Write spec",
		DueDate:   "2026-09-01T12:00:00Z",
		ProjectID: "p1",
		Priority:  domain.PriorityHigh,
	})
	require.NoError(t, err)

	require.Len(t, store.added, 1)
	assert.Equal(t, "p1", store.added[0].projectID)
	assert.Equal(t, domain.StatusPending, store.added[0].fields["status"])
	assert.Empty(t, r.Tasks(), "creation waits for the subscription push")
}

func TestToggle_TwiceRestoresStatus(t *testing.T) {
	store := newFakeTaskStore()
	r := New(store)
	stop := r.Subscribe(context.Background(), "p1")
	defer stop()

	store.push("p1", []domain.Task{pendingTask("t1", "p1")})

	require.NoError(t, r.ToggleStatus(context.Background(), "t1", "p1"))
	got, ok := r.Get("t1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	require.NoError(t, r.ToggleStatus(context.Background(), "t1", "p1"))
	got, ok = r.Get("t1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestToggle_UnknownTaskIsNoOp(t *testing.T) {
	store := newFakeTaskStore()
	r := New(store)

	require.NoError(t, r.ToggleStatus(context.Background(), "ghost", "p1"))
	assert.Empty(t, store.updated)
}

func TestUpdate_OptimisticPatch(t *testing.T) {
	store := newFakeTaskStore()
	r := New(store)
	stop := r.Subscribe(context.Background(), "p1")
	defer stop()

	store.push("p1", []domain.Task{pendingTask("t1", "p1")})

	title := "Renamed"
	require.NoError(t, r.Update(context.Background(), "t1", domain.Updates{Title: &title}))

	// local state reflects the change before any snapshot arrives
	got, ok := r.Get("t1")
	require.True(t, ok)
	assert.Equal(t, "Renamed", got.Title)

	require.Len(t, store.updated, 1)
	assert.Equal(t, "p1", store.updated[0].projectID, "project id discovered from local state")
}

func TestUpdate_UnknownTaskIsNoOp(t *testing.T) {
	store := newFakeTaskStore()
	r := New(store)

	title := "Renamed"
	require.NoError(t, r.Update(context.Background(), "ghost", domain.Updates{Title: &title}))
	assert.Empty(t, store.updated)
}

func TestUpdate_RemoteFailureSkipsPatch(t *testing.T) {
	store := newFakeTaskStore()
	r := New(store)
	stop := r.Subscribe(context.Background(), "p1")
	defer stop()

	store.push("p1", []domain.Task{pendingTask("t1", "p1")})
	store.updateErr = errors.New("store unavailable")

	title := "Renamed"
	err := r.Update(context.Background(), "t1", domain.Updates{Title: &title})
	assert.Error(t, err)

	got, _ := r.Get("t1")
	assert.Equal(t, "Task t1", got.Title, "failed write must not patch local state")
}

func TestDelete_ProjectIDFallback(t *testing.T) {
	store := newFakeTaskStore()
	r := New(store)
	stop := r.Subscribe(context.Background(), "p1")
	defer stop()

	store.push("p1", []domain.Task{pendingTask("t1", "p1")})

	require.NoError(t, r.Delete(context.Background(), "t1", ""))

	require.Len(t, store.deleted, 1)
	assert.Equal(t, "p1", store.deleted[0].projectID)
	_, ok := r.Get("t1")
	assert.False(t, ok, "deletion removes the task optimistically")
}

func TestDelete_MissingProjectIDIsNoOp(t *testing.T) {
	store := newFakeTaskStore()
	r := New(store)

	require.NoError(t, r.Delete(context.Background(), "ghost", ""))
	assert.Empty(t, store.deleted)
}

func TestSubscribe_ReplacesWholesale(t *testing.T) {
	store := newFakeTaskStore()
	r := New(store)
	stop := r.Subscribe(context.Background(), "p1")
	defer stop()

	store.push("p1", []domain.Task{pendingTask("t1", "p1"), pendingTask("t2", "p1"), pendingTask("t3", "p1")})
	require.Len(t, r.Tasks(), 3)

	store.push("p1", []domain.Task{pendingTask("t1", "p1")})
	got := r.Tasks()
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].ID)
}

func TestSubscribe_SecondProjectOverwritesFirst(t *testing.T) {
	store := newFakeTaskStore()
	r := New(store)

	stopA := r.Subscribe(context.Background(), "projA")
	store.push("projA", []domain.Task{pendingTask("a1", "projA")})
	require.Len(t, r.Tasks(), 1)
	stopA()

	stopB := r.Subscribe(context.Background(), "projB")
	defer stopB()
	store.push("projB", []domain.Task{pendingTask("b1", "projB"), pendingTask("b2", "projB")})

	got := r.Tasks()
	require.Len(t, got, 2)
	assert.Equal(t, "projB", got[0].ProjectID, "a push replaces the whole collection, not a per-project subset")
}

func TestDeleteAllForProject(t *testing.T) {
	store := newFakeTaskStore()
	r := New(store)
	stop := r.Subscribe(context.Background(), "p1")
	defer stop()

	store.push("p1", []domain.Task{pendingTask("t1", "p1"), pendingTask("t2", "p1")})

	require.NoError(t, r.DeleteAllForProject(context.Background(), "p1"))

	assert.Equal(t, []string{"p1"}, store.wiped)
	for _, task := range r.Tasks() {
		assert.NotEqual(t, "p1", task.ProjectID)
	}
	assert.Empty(t, r.Tasks())
}

func TestOnChange_FiresOnPushAndPatch(t *testing.T) {
	store := newFakeTaskStore()
	r := New(store)

	var mu sync.Mutex
	var calls int
	r.OnChange(func([]domain.Task) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	stop := r.Subscribe(context.Background(), "p1")
	defer stop()

	store.push("p1", []domain.Task{pendingTask("t1", "p1")})
	title := "Renamed"
	require.NoError(t, r.Update(context.Background(), "t1", domain.Updates{Title: &title}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}
