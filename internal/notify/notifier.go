package notify

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/taskflow-app/taskflow-sync/internal/tasks/domain"
)

// TaskSource supplies the currently observed task collection. Satisfied by
// the task registry.
type TaskSource interface {
	Tasks() []domain.Task
}

// Toaster publishes in-app transient notices. Satisfied by ToastCenter.
type Toaster interface {
	Push(t Toast)
}

// Notifier derives one-time deadline alerts from the task collection. It
// sweeps hourly, once immediately on Start, and whenever the collection
// changes (wire TasksChanged to the task registry's OnChange).
type Notifier struct {
	tasks  TaskSource
	dedupe *DedupeStore
	sink   Sink
	toasts Toaster

	cron *cron.Cron
	now  func() time.Time
}

// NewNotifier creates a deadline notifier.
func NewNotifier(tasks TaskSource, dedupe *DedupeStore, sink Sink, toasts Toaster) *Notifier {
	return &Notifier{
		tasks:  tasks,
		dedupe: dedupe,
		sink:   sink,
		toasts: toasts,
		now:    time.Now,
	}
}

// Start requests the sink permission if it was never decided, runs one
// immediate sweep, and schedules the hourly one.
func (n *Notifier) Start(ctx context.Context) error {
	if n.sink.Permission(ctx) == PermissionDefault {
		n.sink.RequestPermission(ctx)
	}

	n.Check(ctx)

	n.cron = cron.New()
	if _, err := n.cron.AddFunc("@hourly", func() {
		n.Check(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule deadline sweep: %w", err)
	}
	n.cron.Start()
	return nil
}

// Stop halts the hourly sweep. Collection-change sweeps keep working as
// long as the observer stays registered.
func (n *Notifier) Stop() {
	if n.cron != nil {
		n.cron.Stop()
	}
}

// TasksChanged triggers a sweep; register it with the task registry.
func (n *Notifier) TasksChanged([]domain.Task) {
	n.Check(context.Background())
}

// Check sweeps the current task collection and emits at most one alert per
// task per calendar day, per alert kind.
func (n *Notifier) Check(ctx context.Context) {
	now := n.now()

	for _, task := range n.tasks.Tasks() {
		if task.Status != domain.StatusPending {
			continue
		}

		due, err := task.Due()
		if err != nil {
			log.Printf("notify: task %s has unparseable due date %q: %v", task.ID, task.DueDate, err)
			continue
		}

		hoursUntilDue := due.Sub(now).Hours()

		if hoursUntilDue > 0 && hoursUntilDue <= 24 {
			key := ApproachingKey(task.ID, due)
			if !n.dedupe.Seen(ctx, key) {
				n.alertApproaching(ctx, task, hoursUntilDue)
				n.dedupe.Mark(ctx, key)
			}
		}

		if due.Before(now) {
			key := OverdueKey(task.ID, now)
			if !n.dedupe.Seen(ctx, key) {
				n.alertOverdue(task)
				n.dedupe.Mark(ctx, key)
			}
		}
	}
}

func (n *Notifier) alertApproaching(ctx context.Context, task domain.Task, hoursUntilDue float64) {
	body := fmt.Sprintf("%q is due in %d hours", task.Title, int(math.Round(hoursUntilDue)))

	if n.sink.Permission(ctx) == PermissionGranted {
		if err := n.sink.Send(ctx, Notification{
			Title: "Task Deadline Approaching!",
			Body:  body,
			Tag:   task.ID,
		}); err != nil {
			log.Printf("notify: send approaching alert for task %s: %v", task.ID, err)
		}
	}

	n.toasts.Push(Toast{
		Title: "Deadline Reminder",
		Body:  body,
	})
}

func (n *Notifier) alertOverdue(task domain.Task) {
	n.toasts.Push(Toast{
		Title:   "Task Overdue",
		Body:    fmt.Sprintf("%q is overdue!", task.Title),
		Variant: ToastDestructive,
	})
}
