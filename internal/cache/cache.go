package cache

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/taskflow-app/taskflow-sync/internal/projects/domain"
)

// storageKey is where the last-known project list lives in local storage.
const storageKey = "taskflow-projects"

// ProjectCache mirrors the last remote project snapshot into durable local
// storage. It is non-authoritative: used to warm-start the project registry
// and as the fallback when the remote store is unreachable. Every fresh
// snapshot overwrites it unconditionally.
type ProjectCache struct {
	client *redis.Client
}

// NewProjectCache creates a new project cache.
func NewProjectCache(client *redis.Client) *ProjectCache {
	return &ProjectCache{client: client}
}

// Load returns the cached project list. Missing or corrupt data yields an
// empty list; Load never fails.
func (c *ProjectCache) Load(ctx context.Context) []domain.Project {
	data, err := c.client.Get(ctx, storageKey).Result()
	if err == redis.Nil {
		return []domain.Project{}
	}
	if err != nil {
		log.Printf("cache: load projects: %v", err)
		return []domain.Project{}
	}

	var projects []domain.Project
	if err := json.Unmarshal([]byte(data), &projects); err != nil {
		log.Printf("cache: corrupt project data, ignoring: %v", err)
		return []domain.Project{}
	}
	return projects
}

// Save overwrites the cached project list. Best-effort: failures are logged,
// never propagated.
func (c *ProjectCache) Save(ctx context.Context, projects []domain.Project) {
	data, err := json.Marshal(projects)
	if err != nil {
		log.Printf("cache: marshal projects: %v", err)
		return
	}
	if err := c.client.Set(ctx, storageKey, data, 0).Err(); err != nil {
		log.Printf("cache: save projects: %v", err)
	}
}
