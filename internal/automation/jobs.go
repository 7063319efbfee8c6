package automation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mhasan91/teamhub/backend/internal/models"
	"github.com/mhasan91/teamhub/backend/internal/notify"
)

// generateRecurringTasks spawns the next instance of each recurring task
// whose due date has arrived and notifies the assignee.
func (o *Orchestrator) generateRecurringTasks(ctx context.Context) error {
	now := o.now()
	due, err := o.tasks.ListRecurringDue(now)
	if err != nil {
		return fmt.Errorf("list recurring tasks: %w", err)
	}

	for _, task := range due {
		next := task.NextDueDate(*task.DueDate)
		spawned := &models.Task{
			ProjectID:  task.ProjectID,
			AssigneeID: task.AssigneeID,
			Title:      task.Title,
			Status:     models.TaskTodo,
			DueDate:    next,
			Recurrence: task.Recurrence,
		}
		if err := o.tasks.CreateTask(spawned); err != nil {
			log.Printf("spawn recurring task %d: %v", task.ID, err)
			continue
		}
		if err := o.tasks.MarkSpawned(task.ID, now); err != nil {
			log.Printf("mark task %d spawned: %v", task.ID, err)
		}
		o.notifier.Notify(ctx, notify.Request{
			RecipientID: spawned.AssigneeID,
			Type:        models.TypeTaskAssigned,
			Title:       "Recurring task created: " + spawned.Title,
			RefKind:     "task",
			RefID:       fmt.Sprint(spawned.ID),
		})
	}
	return nil
}

// escalateOverdueTasks notifies assignees of newly overdue tasks and fires
// the task.overdue integration event, marking each task so it escalates
// only once.
func (o *Orchestrator) escalateOverdueTasks(ctx context.Context) error {
	now := o.now()
	overdue, err := o.tasks.ListOverdue(now)
	if err != nil {
		return fmt.Errorf("list overdue tasks: %w", err)
	}

	for _, task := range overdue {
		o.notifier.Notify(ctx, notify.Request{
			RecipientID: task.AssigneeID,
			Type:        models.TypeTaskOverdue,
			Title:       "Task overdue: " + task.Title,
			Body:        fmt.Sprintf("Due %s", task.DueDate.Format("Jan 2, 2006")),
			RefKind:     "task",
			RefID:       fmt.Sprint(task.ID),
		})
		if o.hooks != nil {
			o.hooks.Trigger(ctx, models.EventTaskOverdue, map[string]any{
				"task_id":     task.ID,
				"project_id":  task.ProjectID,
				"assignee_id": task.AssigneeID,
				"title":       task.Title,
				"due_date":    task.DueDate,
			})
		}
		if err := o.tasks.MarkEscalated(task.ID, now); err != nil {
			log.Printf("mark task %d escalated: %v", task.ID, err)
		}
	}
	return nil
}

// sendDeadlineReminders warns assignees of tasks coming due within the
// reminder window, once per task.
func (o *Orchestrator) sendDeadlineReminders(ctx context.Context) error {
	now := o.now()
	upcoming, err := o.tasks.ListDueWithin(now, ReminderWindow)
	if err != nil {
		return fmt.Errorf("list upcoming tasks: %w", err)
	}

	for _, task := range upcoming {
		o.notifier.Notify(ctx, notify.Request{
			RecipientID: task.AssigneeID,
			Type:        models.TypeTaskDueSoon,
			Title:       "Due soon: " + task.Title,
			Body:        fmt.Sprintf("Due %s", task.DueDate.Format("Jan 2, 2006 15:04")),
			RefKind:     "task",
			RefID:       fmt.Sprint(task.ID),
		})
		if err := o.tasks.MarkReminded(task.ID, now); err != nil {
			log.Printf("mark task %d reminded: %v", task.ID, err)
		}
	}
	return nil
}

// sendDailyDigests emails each active user a summary of notifications that
// accumulated unread over the last day, honoring the daily_digest email
// preference.
func (o *Orchestrator) sendDailyDigests(ctx context.Context) error {
	if o.email == nil {
		return nil
	}
	users, err := o.users.ListActive()
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	since := o.now().Add(-24 * time.Hour)
	for _, user := range users {
		if !o.resolver.Resolve(ctx, user.ID, models.ChannelEmail, models.TypeDailyDigest) {
			continue
		}
		count, err := o.notifications.CountUnreadSince(user.ID, since)
		if err != nil {
			log.Printf("digest count for user %d: %v", user.ID, err)
			continue
		}
		if count == 0 {
			continue
		}
		body := fmt.Sprintf("You have %d unread notification(s) from the last day.", count)
		if err := o.email.Send(ctx, user.ID, "Your TeamHub daily digest", body); err != nil {
			log.Printf("digest email to user %d: %v", user.ID, err)
		}
	}
	return nil
}

// purgeExpiredNotifications applies the retention TTL.
func (o *Orchestrator) purgeExpiredNotifications(ctx context.Context) error {
	cutoff := o.now().Add(-models.NotificationRetention)
	purged, err := o.notifications.DeleteOlderThan(cutoff)
	if err != nil {
		return fmt.Errorf("purge notifications: %w", err)
	}
	if purged > 0 {
		log.Printf("purged %d expired notifications", purged)
	}
	return nil
}

func (o *Orchestrator) sendWeeklyReport(ctx context.Context) error {
	return o.sendCompletionReport(ctx, "weekly", 7*24*time.Hour)
}

func (o *Orchestrator) sendMonthlyReport(ctx context.Context) error {
	return o.sendCompletionReport(ctx, "monthly", 30*24*time.Hour)
}

func (o *Orchestrator) sendCompletionReport(ctx context.Context, period string, span time.Duration) error {
	if o.email == nil {
		return nil
	}
	completed, err := o.tasks.CountCompletedSince(o.now().Add(-span))
	if err != nil {
		return fmt.Errorf("count completed tasks: %w", err)
	}
	admins, err := o.users.ListAdmins()
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	subject := fmt.Sprintf("TeamHub %s report", period)
	body := fmt.Sprintf("%d task(s) completed in the last %s period.", completed, period)
	for _, admin := range admins {
		if err := o.email.Send(ctx, admin.ID, subject, body); err != nil {
			log.Printf("%s report to admin %d: %v", period, admin.ID, err)
		}
	}
	return nil
}
