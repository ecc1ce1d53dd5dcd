package repository

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/taskflow-app/taskflow-sync/internal/projects/domain"
)

const projectsCollection = "projects"

// ProjectRepository provides remote-store operations on the projects
// collection, ordered by createdAt descending.
type ProjectRepository struct {
	client *firestore.Client
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(client *firestore.Client) *ProjectRepository {
	return &ProjectRepository{client: client}
}

func (r *ProjectRepository) col() *firestore.CollectionRef {
	return r.client.Collection(projectsCollection)
}

func (r *ProjectRepository) query() firestore.Query {
	return r.col().OrderBy("createdAt", firestore.Desc)
}

// Add writes a new project document and returns the store-assigned id.
func (r *ProjectRepository) Add(ctx context.Context, fields map[string]interface{}) (string, error) {
	ref, _, err := r.col().Add(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("add project: %w", err)
	}
	return ref.ID, nil
}

// Update applies a partial update to an existing project document.
func (r *ProjectRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	if _, err := r.col().Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update project %s: %w", id, err)
	}
	return nil
}

// Delete removes a project document. Deleting a missing document is not an
// error at the store level.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.col().Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}

// Load fetches the full project collection once.
func (r *ProjectRepository) Load(ctx context.Context) ([]domain.Project, error) {
	docs, err := r.query().Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	return decodeProjects(docs), nil
}

// Listen opens a live snapshot subscription on the project collection and
// invokes push with the full decoded collection on every change event. The
// returned handle stops delivery; it does not affect in-flight mutations.
func (r *ProjectRepository) Listen(ctx context.Context, push func([]domain.Project)) func() {
	lctx, cancel := context.WithCancel(ctx)
	snaps := r.query().Snapshots(lctx)

	go func() {
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					log.Printf("projects: snapshot stream closed: %v", err)
				}
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				log.Printf("projects: read snapshot: %v", err)
				continue
			}
			push(decodeProjects(docs))
		}
	}()

	return cancel
}

func decodeProjects(docs []*firestore.DocumentSnapshot) []domain.Project {
	out := make([]domain.Project, 0, len(docs))
	for _, doc := range docs {
		var p domain.Project
		if err := doc.DataTo(&p); err != nil {
			log.Printf("projects: decode %s: %v", doc.Ref.ID, err)
			continue
		}
		p.ID = doc.Ref.ID
		out = append(out, p)
	}
	return out
}
