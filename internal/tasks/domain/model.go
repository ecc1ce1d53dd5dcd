package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a task does not exist in the remote store.
var ErrNotFound = errors.New("task not found")

// ErrMissingProjectID is returned when an operation cannot address the
// remote record because no project id was supplied or cached.
var ErrMissingProjectID = errors.New("missing project id")

// Status is the two-state completion machine of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Toggle returns the logical complement of s.
func (s Status) Toggle() Status {
	if s == StatusCompleted {
		return StatusPending
	}
	return StatusCompleted
}

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Field length limits enforced at the caller boundary.
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
)

// Task belongs to exactly one project; ProjectID never changes after
// creation. DueDate is an ISO-8601 string so that the store's ascending
// ordering matches chronological ordering.
type Task struct {
	ID          string   `firestore:"-" json:"id"`
	Title       string   `firestore:"title" json:"title"`
	Description string   `firestore:"description" json:"description"`
	Status      Status   `firestore:"status" json:"status"`
	Priority    Priority `firestore:"priority" json:"priority"`
	DueDate     string   `firestore:"dueDate" json:"dueDate"`
	ProjectID   string   `firestore:"projectId" json:"projectId"`
	CreatedBy   string   `firestore:"createdBy,omitempty" json:"createdBy,omitempty"`
}

// dueLayouts are the accepted due-date shapes, from most to least precise.
var dueLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// Due parses the task's due date.
func (t Task) Due() (time.Time, error) {
	var err error
	for _, layout := range dueLayouts {
		var due time.Time
		if due, err = time.Parse(layout, t.DueDate); err == nil {
			return due, nil
		}
	}
	return time.Time{}, err
}

// Draft holds the fields of a task about to be created.
type Draft struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     string
	ProjectID   string
	CreatedBy   string
}

// Fields returns the document fields for the draft, omitting unset optional
// fields. Status defaults to pending.
func (d Draft) Fields() map[string]interface{} {
	status := d.Status
	if status == "" {
		status = StatusPending
	}
	f := map[string]interface{}{
		"title":       d.Title,
		"description": d.Description,
		"status":      status,
		"dueDate":     d.DueDate,
		"projectId":   d.ProjectID,
	}
	if d.Priority != "" {
		f["priority"] = d.Priority
	}
	if d.CreatedBy != "" {
		f["createdBy"] = d.CreatedBy
	}
	return f
}

// Updates is a partial task mutation. Nil fields are left untouched.
type Updates struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	DueDate     *string
}

// Fields returns only the fields that are actually set.
func (u Updates) Fields() map[string]interface{} {
	f := make(map[string]interface{})
	if u.Title != nil {
		f["title"] = *u.Title
	}
	if u.Description != nil {
		f["description"] = *u.Description
	}
	if u.Status != nil {
		f["status"] = *u.Status
	}
	if u.Priority != nil {
		f["priority"] = *u.Priority
	}
	if u.DueDate != nil {
		f["dueDate"] = *u.DueDate
	}
	return f
}

// Apply returns a copy of t with the set fields overwritten. Used for the
// optimistic local patch after a remote update.
func (u Updates) Apply(t Task) Task {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.DueDate != nil {
		t.DueDate = *u.DueDate
	}
	return t
}
