package http

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/taskflow-app/taskflow-sync/internal/auth"
	"github.com/taskflow-app/taskflow-sync/internal/tasks/domain"
	"github.com/taskflow-app/taskflow-sync/internal/tasks/service"
)

// Handler exposes the task registry over HTTP and manages the single active
// per-project subscription on behalf of its clients: opening a project's
// task view tears down the previous project's subscription first, because a
// second concurrent subscription would overwrite the first project's tasks
// on its next push.
type Handler struct {
	tasks *service.Registry

	subMu      sync.Mutex
	subProject string
	stopSub    func()
}

// NewHandler creates a task handler.
func NewHandler(tasks *service.Registry) *Handler {
	return &Handler{tasks: tasks}
}

// Register mounts the task routes on the given router group.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/tasks", h.List)
	r.POST("/projects/:id/tasks", h.Create)
	r.POST("/projects/:id/tasks/subscribe", h.Subscribe)
	r.POST("/projects/:id/tasks/unsubscribe", h.Unsubscribe)
	r.PATCH("/tasks/:id", h.Update)
	r.DELETE("/tasks/:id", h.Delete)
	r.POST("/tasks/:id/toggle", h.Toggle)
}

// List returns the in-memory task collection of the active project.
func (h *Handler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.tasks.Tasks()})
}

// Create validates the draft and writes it to the project's task
// sub-collection. The collection reflects the task once the subscription
// observes it.
func (h *Handler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and dueDate are required"})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft := domain.Draft{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.StatusPending,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		ProjectID:   c.Param("id"),
		CreatedBy:   auth.UserUID(c),
	}

	if err := h.tasks.Create(c.Request.Context(), draft); err != nil {
		log.Printf("tasks: create: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to create task"})
		return
	}

	c.Status(http.StatusAccepted)
}

// Update writes a partial update; a task unknown locally is a silent no-op.
func (h *Handler) Update(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tasks.Update(c.Request.Context(), c.Param("id"), req.updates()); err != nil {
		log.Printf("tasks: update %s: %v", c.Param("id"), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to update task"})
		return
	}

	c.Status(http.StatusAccepted)
}

// Delete removes the task. The project id comes from the query string when
// given, or from the locally cached task otherwise.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), c.Param("id"), c.Query("projectId")); err != nil {
		log.Printf("tasks: delete %s: %v", c.Param("id"), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to delete task"})
		return
	}
	c.Status(http.StatusAccepted)
}

// Toggle flips the task between pending and completed.
func (h *Handler) Toggle(c *gin.Context) {
	if err := h.tasks.ToggleStatus(c.Request.Context(), c.Param("id"), c.Query("projectId")); err != nil {
		log.Printf("tasks: toggle %s: %v", c.Param("id"), err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to toggle task"})
		return
	}
	c.Status(http.StatusAccepted)
}

// Subscribe makes the project the active task view. A previous project's
// subscription is stopped before the new one opens.
func (h *Handler) Subscribe(c *gin.Context) {
	projectID := c.Param("id")

	h.subMu.Lock()
	defer h.subMu.Unlock()

	if h.stopSub != nil {
		h.stopSub()
		h.stopSub = nil
	}
	h.subProject = projectID
	// Detach from the request context: the subscription outlives the call.
	h.stopSub = h.tasks.Subscribe(context.Background(), projectID)

	c.JSON(http.StatusOK, gin.H{"subscribed": projectID})
}

// Unsubscribe tears down the active task subscription, if it belongs to the
// given project.
func (h *Handler) Unsubscribe(c *gin.Context) {
	projectID := c.Param("id")

	h.subMu.Lock()
	defer h.subMu.Unlock()

	if h.stopSub != nil && h.subProject == projectID {
		h.stopSub()
		h.stopSub = nil
		h.subProject = ""
	}

	c.JSON(http.StatusOK, gin.H{"subscribed": nil})
}

// Close stops the active subscription. Called on shutdown.
func (h *Handler) Close() {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	if h.stopSub != nil {
		h.stopSub()
		h.stopSub = nil
	}
}
