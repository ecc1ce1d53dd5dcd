package repository

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/taskflow-app/taskflow-sync/internal/tasks/domain"
)

const (
	projectsCollection = "projects"
	tasksSubcollection = "tasks"
)

// TaskRepository provides remote-store operations on the per-project task
// sub-collections, ordered by dueDate ascending.
type TaskRepository struct {
	client *firestore.Client
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(client *firestore.Client) *TaskRepository {
	return &TaskRepository{client: client}
}

func (r *TaskRepository) col(projectID string) *firestore.CollectionRef {
	return r.client.Collection(projectsCollection).Doc(projectID).Collection(tasksSubcollection)
}

// Add writes a new task document under the project and returns the
// store-assigned id.
func (r *TaskRepository) Add(ctx context.Context, projectID string, fields map[string]interface{}) (string, error) {
	ref, _, err := r.col(projectID).Add(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("add task: %w", err)
	}
	return ref.ID, nil
}

// Update applies a partial update to an existing task document.
func (r *TaskRepository) Update(ctx context.Context, projectID, id string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if _, err := r.col(projectID).Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update task %s: %w", id, err)
	}
	return nil
}

// Delete removes a task document.
func (r *TaskRepository) Delete(ctx context.Context, projectID, id string) error {
	if _, err := r.col(projectID).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// DeleteAll removes every task document under the project. Used by callers
// that coordinate cascade deletion when a project goes away.
func (r *TaskRepository) DeleteAll(ctx context.Context, projectID string) error {
	it := r.col(projectID).Documents(ctx)
	defer it.Stop()
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("list tasks for project %s: %w", projectID, err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("delete task %s: %w", doc.Ref.ID, err)
		}
	}
}

// Listen opens a live snapshot subscription scoped to one project's tasks
// and invokes push with the full decoded collection on every change event.
// The returned handle stops delivery.
func (r *TaskRepository) Listen(ctx context.Context, projectID string, push func([]domain.Task)) func() {
	lctx, cancel := context.WithCancel(ctx)
	snaps := r.col(projectID).OrderBy("dueDate", firestore.Asc).Snapshots(lctx)

	go func() {
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					log.Printf("tasks: snapshot stream for project %s closed: %v", projectID, err)
				}
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				log.Printf("tasks: read snapshot for project %s: %v", projectID, err)
				continue
			}
			push(decodeTasks(docs))
		}
	}()

	return cancel
}

func decodeTasks(docs []*firestore.DocumentSnapshot) []domain.Task {
	out := make([]domain.Task, 0, len(docs))
	for _, doc := range docs {
		var t domain.Task
		if err := doc.DataTo(&t); err != nil {
			log.Printf("tasks: decode %s: %v", doc.Ref.ID, err)
			continue
		}
		t.ID = doc.Ref.ID
		out = append(out, t)
	}
	return out
}
