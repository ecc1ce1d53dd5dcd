package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskflow-app/taskflow-sync/internal/auth"
	"github.com/taskflow-app/taskflow-sync/internal/projects/domain"
	"github.com/taskflow-app/taskflow-sync/internal/projects/service"
	taskservice "github.com/taskflow-app/taskflow-sync/internal/tasks/service"
)

// Handler exposes the project registry over HTTP. It also plays the caller
// role in cascade deletion: the project registry itself does not reach into
// the task collection, so the delete endpoint coordinates both registries.
type Handler struct {
	projects *service.Registry
	tasks    *taskservice.Registry
}

// NewHandler creates a project handler.
func NewHandler(projects *service.Registry, tasks *taskservice.Registry) *Handler {
	return &Handler{projects: projects, tasks: tasks}
}

// Register mounts the project routes on the given router group.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/projects", h.List)
	r.POST("/projects", h.Create)
	r.PATCH("/projects/:id", h.Update)
	r.DELETE("/projects/:id", h.Delete)
	r.POST("/projects/:id/open", h.Open)
	r.POST("/projects/:id/key", h.RegenerateKey)
}

// List returns the in-memory project collection.
func (h *Handler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"projects": h.projects.Projects()})
}

// Create validates the draft, stamps the owner, generates an access key when
// the client did not supply one, and writes to the remote store. The
// response is 202: the collection reflects the project once the
// subscription observes it.
func (h *Handler) Create(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	key := req.AccessKey
	if key == "" {
		generated, err := service.GenerateKey()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate access key"})
			return
		}
		key = generated
	}

	draft := domain.Draft{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     auth.UserUID(c),
		AccessKey:   key,
		KeyPeople:   req.KeyPeople,
		Resources:   req.Resources,
		StartDate:   req.StartDate,
		Deadline:    req.Deadline,
	}

	if err := h.projects.Create(c.Request.Context(), draft); err != nil {
		log.Printf("projects: create: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create project"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"key": key})
}

// Update writes a partial update to the remote store.
func (h *Handler) Update(c *gin.Context) {
	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.projects.Update(c.Request.Context(), c.Param("id"), req.updates()); err != nil {
		log.Printf("projects: update %s: %v", c.Param("id"), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to update project"})
		return
	}

	c.Status(http.StatusAccepted)
}

// Delete cascades: the project's tasks are deleted first, then the project
// record itself.
func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	if err := h.tasks.DeleteAllForProject(ctx, id); err != nil {
		log.Printf("projects: cascade tasks for %s: %v", id, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to delete project tasks"})
		return
	}

	if err := h.projects.Delete(ctx, id); err != nil {
		log.Printf("projects: delete %s: %v", id, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to delete project"})
		return
	}

	c.Status(http.StatusAccepted)
}

// Open grants access to a project: owners bypass the key check, everyone
// else must supply a matching access key. A wrong key is a normal outcome,
// not an error.
func (h *Handler) Open(c *gin.Context) {
	id := c.Param("id")

	var req openProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	project, ok := h.projects.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	if !h.projects.CanOpen(id, auth.UserUID(c), req.Key) {
		c.JSON(http.StatusForbidden, gin.H{"granted": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"granted": true, "project": project})
}

// RegenerateKey replaces the project's access key with a fresh one.
func (h *Handler) RegenerateKey(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.projects.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	key, err := service.GenerateKey()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate access key"})
		return
	}

	if err := h.projects.Update(c.Request.Context(), id, domain.Updates{AccessKey: &key}); err != nil {
		log.Printf("projects: regenerate key for %s: %v", id, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to update project"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"key": key})
}
