// Package automation sequences the daily background jobs: recurring-task
// generation, overdue escalation, deadline reminders, digests and periodic
// reports. Jobs run in a fixed order but fail independently; the run always
// reports every job by name.
package automation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mhasan91/teamhub/backend/internal/models"
	"github.com/mhasan91/teamhub/backend/internal/notify"
	"github.com/mhasan91/teamhub/backend/internal/webhooks"
)

// StatusOK and StatusSkipped are the non-error job outcomes; anything else
// in the result map is the captured error text of that job.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
)

// ReminderWindow is how far ahead the deadline-reminder job looks.
const ReminderWindow = 24 * time.Hour

// TaskStore is the narrow task persistence surface the jobs operate on.
type TaskStore interface {
	CreateTask(task *models.Task) error
	ListRecurringDue(now time.Time) ([]models.Task, error)
	ListOverdue(now time.Time) ([]models.Task, error)
	ListDueWithin(now time.Time, window time.Duration) ([]models.Task, error)
	MarkSpawned(taskID uint, at time.Time) error
	MarkEscalated(taskID uint, at time.Time) error
	MarkReminded(taskID uint, at time.Time) error
	CountCompletedSince(since time.Time) (int64, error)
}

// UserStore lists digest and report recipients.
type UserStore interface {
	ListActive() ([]models.User, error)
	ListAdmins() ([]models.User, error)
}

// NotificationStore is the housekeeping slice of notification persistence.
type NotificationStore interface {
	CountUnreadSince(recipientID uint, since time.Time) (int64, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// Notifier dispatches per-user notifications.
type Notifier interface {
	Notify(ctx context.Context, req notify.Request) (*models.Notification, error)
}

// WebhookTrigger fires integration events.
type WebhookTrigger interface {
	Trigger(ctx context.Context, event models.WebhookEvent, data map[string]any) []webhooks.DeliveryResult
}

// Orchestrator runs the daily sequence. Construct one per process and call
// RunDaily from the scheduled entry point.
type Orchestrator struct {
	tasks         TaskStore
	users         UserStore
	notifications NotificationStore
	notifier      Notifier
	email         notify.EmailSender
	resolver      *notify.Resolver
	hooks         WebhookTrigger

	now func() time.Time
}

func NewOrchestrator(
	tasks TaskStore,
	users UserStore,
	notifications NotificationStore,
	notifier Notifier,
	email notify.EmailSender,
	resolver *notify.Resolver,
	hooks WebhookTrigger,
) *Orchestrator {
	return &Orchestrator{
		tasks:         tasks,
		users:         users,
		notifications: notifications,
		notifier:      notifier,
		email:         email,
		resolver:      resolver,
		hooks:         hooks,
		now:           time.Now,
	}
}

// RunDaily executes every stage in order and returns one status per job.
// A failing stage is recorded and the run moves on; order matters because
// recurring generation must precede escalation and reminders so newly
// spawned tasks are eligible.
func (o *Orchestrator) RunDaily(ctx context.Context) map[string]string {
	results := make(map[string]string)

	o.runStage(ctx, results, "recurring_tasks", o.generateRecurringTasks)
	o.runStage(ctx, results, "overdue_escalation", o.escalateOverdueTasks)
	o.runStage(ctx, results, "deadline_reminders", o.sendDeadlineReminders)
	o.runStage(ctx, results, "daily_digest", o.sendDailyDigests)
	o.runStage(ctx, results, "notification_purge", o.purgeExpiredNotifications)

	// The report stage decomposes into two independently gated, independently
	// captured sub-calls.
	now := o.now()
	if now.Weekday() == time.Monday {
		o.runStage(ctx, results, "weekly_report", o.sendWeeklyReport)
	} else {
		results["weekly_report"] = StatusSkipped
	}
	if now.Day() == 1 {
		o.runStage(ctx, results, "monthly_report", o.sendMonthlyReport)
	} else {
		results["monthly_report"] = StatusSkipped
	}

	return results
}

func (o *Orchestrator) runStage(ctx context.Context, results map[string]string, name string, job func(context.Context) error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return job(ctx)
	}()

	if err != nil {
		log.Printf("automation stage %s failed: %v", name, err)
		results[name] = err.Error()
		return
	}
	results[name] = StatusOK
}
