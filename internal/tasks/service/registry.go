package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/taskflow-app/taskflow-sync/internal/tasks/domain"
)

// RemoteStore is the per-project task sub-collection surface of the remote
// document store. Implemented by repository.TaskRepository; faked in tests.
type RemoteStore interface {
	Add(ctx context.Context, projectID string, fields map[string]interface{}) (string, error)
	Update(ctx context.Context, projectID, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, projectID, id string) error
	DeleteAll(ctx context.Context, projectID string) error
	Listen(ctx context.Context, projectID string, push func([]domain.Task)) func()
}

// Registry owns the in-memory task collection for the active project. Every
// push from an active subscription replaces the whole collection; the
// optimistic patches in Update and Delete are the only local mutations
// outside of a push, and a later snapshot always wins over them.
type Registry struct {
	store RemoteStore

	mu        sync.RWMutex
	tasks     []domain.Task
	observers []func([]domain.Task)
}

// New creates an empty task registry.
func New(store RemoteStore) *Registry {
	return &Registry{store: store}
}

// Tasks returns a copy of the current in-memory collection, ordered by
// dueDate ascending as delivered by the remote subscription.
func (r *Registry) Tasks() []domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

// Get returns the task with the given id from the in-memory collection.
func (r *Registry) Get(id string) (domain.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

// OnChange registers an observer invoked with the full collection whenever
// it changes, on pushes as well as optimistic patches.
func (r *Registry) OnChange(fn func([]domain.Task)) {
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}

// Create writes a new task to its project's sub-collection. Required field
// presence (title, due date) is the caller's concern; the registry only
// checks what it needs to address the record. No local insertion happens:
// the subscription push delivers the new task.
func (r *Registry) Create(ctx context.Context, draft domain.Draft) error {
	if draft.ProjectID == "" {
		return fmt.Errorf("create task: %w", domain.ErrMissingProjectID)
	}
	if _, err := r.store.Add(ctx, draft.ProjectID, draft.Fields()); err != nil {
		return err
	}
	return nil
}

// Update looks the task up locally to discover its owning project, writes
// the partial update remotely, then patches the local copy optimistically so
// the caller sees the change before the next snapshot. A task not present
// locally is a logged no-op: it may exist remotely but has not been
// observed yet, and failing loudly would be misleading.
func (r *Registry) Update(ctx context.Context, id string, updates domain.Updates) error {
	task, ok := r.Get(id)
	if !ok {
		log.Printf("tasks: update %s: not in local state, skipping", id)
		return nil
	}

	fields := updates.Fields()
	if len(fields) == 0 {
		return nil
	}
	if err := r.store.Update(ctx, task.ProjectID, id, fields); err != nil {
		return err
	}

	r.mu.Lock()
	for i, t := range r.tasks {
		if t.ID == id {
			r.tasks[i] = updates.Apply(t)
			break
		}
	}
	snapshot := r.snapshotLocked()
	r.mu.Unlock()
	r.notify(snapshot)
	return nil
}

// Delete removes the task remotely and drops it from local state
// optimistically. projectID may be empty, in which case the locally cached
// task supplies it; if neither source yields one the deletion is a logged
// no-op.
func (r *Registry) Delete(ctx context.Context, id, projectID string) error {
	if projectID == "" {
		if task, ok := r.Get(id); ok {
			projectID = task.ProjectID
		}
	}
	if projectID == "" {
		log.Printf("tasks: delete %s: missing project id, skipping", id)
		return nil
	}

	if err := r.store.Delete(ctx, projectID, id); err != nil {
		return err
	}

	r.mu.Lock()
	kept := r.tasks[:0]
	for _, t := range r.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	r.tasks = kept
	snapshot := r.snapshotLocked()
	r.mu.Unlock()
	r.notify(snapshot)
	return nil
}

// DeleteAllForProject removes every task of the project remotely and drops
// the project's tasks from local state. This is the cascade half invoked by
// the caller coordinating a project deletion.
func (r *Registry) DeleteAllForProject(ctx context.Context, projectID string) error {
	if err := r.store.DeleteAll(ctx, projectID); err != nil {
		return err
	}

	r.mu.Lock()
	kept := r.tasks[:0]
	for _, t := range r.tasks {
		if t.ProjectID != projectID {
			kept = append(kept, t)
		}
	}
	r.tasks = kept
	snapshot := r.snapshotLocked()
	r.mu.Unlock()
	r.notify(snapshot)
	return nil
}

// ToggleStatus flips the task between pending and completed by delegating
// to Update. A task not present locally is a no-op.
func (r *Registry) ToggleStatus(ctx context.Context, id, projectID string) error {
	task, ok := r.Get(id)
	if !ok {
		log.Printf("tasks: toggle %s: not in local state, skipping", id)
		return nil
	}
	next := task.Status.Toggle()
	return r.Update(ctx, id, domain.Updates{Status: &next})
}

// Subscribe opens a live subscription on one project's task sub-collection.
// Every push wholesale-replaces the entire collection, not just that
// project's subset: callers must tear down a project's subscription before
// opening another, or the second one overwrites the first's tasks on its
// next push.
func (r *Registry) Subscribe(ctx context.Context, projectID string) func() {
	if projectID == "" {
		return func() {}
	}
	return r.store.Listen(ctx, projectID, func(tasks []domain.Task) {
		r.replaceAll(tasks)
	})
}

// replaceAll is the state transition applied on every snapshot push:
// replace, never merge.
func (r *Registry) replaceAll(tasks []domain.Task) {
	r.mu.Lock()
	r.tasks = tasks
	snapshot := r.snapshotLocked()
	r.mu.Unlock()
	r.notify(snapshot)
}

func (r *Registry) snapshotLocked() []domain.Task {
	out := make([]domain.Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

func (r *Registry) notify(tasks []domain.Task) {
	r.mu.RLock()
	observers := make([]func([]domain.Task), len(r.observers))
	copy(observers, r.observers)
	r.mu.RUnlock()
	for _, fn := range observers {
		fn(tasks)
	}
}
