package http

import (
	"fmt"

	"github.com/taskflow-app/taskflow-sync/internal/tasks/domain"
)

type createTaskRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Priority    domain.Priority `json:"priority"`
	DueDate     string          `json:"dueDate" binding:"required"`
}

func (r createTaskRequest) validate() error {
	if len(r.Title) > domain.MaxTitleLen {
		return fmt.Errorf("title exceeds %d characters", domain.MaxTitleLen)
	}
	if len(r.Description) > domain.MaxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters", domain.MaxDescriptionLen)
	}
	switch r.Priority {
	case "", domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
	default:
		return fmt.Errorf("invalid priority %q", r.Priority)
	}
	return nil
}

type updateTaskRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Status      *domain.Status   `json:"status"`
	Priority    *domain.Priority `json:"priority"`
	DueDate     *string          `json:"dueDate"`
}

func (r updateTaskRequest) validate() error {
	if r.Title != nil {
		if *r.Title == "" {
			return fmt.Errorf("title must not be empty")
		}
		if len(*r.Title) > domain.MaxTitleLen {
			return fmt.Errorf("title exceeds %d characters", domain.MaxTitleLen)
		}
	}
	if r.Description != nil && len(*r.Description) > domain.MaxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters", domain.MaxDescriptionLen)
	}
	if r.Status != nil && *r.Status != domain.StatusPending && *r.Status != domain.StatusCompleted {
		return fmt.Errorf("invalid status %q", *r.Status)
	}
	if r.Priority != nil {
		switch *r.Priority {
		case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
		default:
			return fmt.Errorf("invalid priority %q", *r.Priority)
		}
	}
	return nil
}

func (r updateTaskRequest) updates() domain.Updates {
	return domain.Updates{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
	}
}
