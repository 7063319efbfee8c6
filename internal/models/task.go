package models

import "time"

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// Recurrence controls automatic re-spawning of a task by the daily run.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// Task carries just the fields the automation jobs operate on; full task
// CRUD lives outside this service.
type Task struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	ProjectID     uint       `json:"project_id" gorm:"index"`
	AssigneeID    uint       `json:"assignee_id" gorm:"index"`
	Title         string     `json:"title"`
	Status        TaskStatus `json:"status" gorm:"size:20;default:todo;index"`
	DueDate       *time.Time `json:"due_date,omitempty" gorm:"index"`
	Recurrence    Recurrence `json:"recurrence" gorm:"size:10;default:none"`
	LastSpawnedAt *time.Time `json:"last_spawned_at,omitempty"`
	EscalatedAt   *time.Time `json:"escalated_at,omitempty"`
	RemindedAt    *time.Time `json:"reminded_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NextDueDate returns the due date of the next spawned instance, or nil for
// non-recurring tasks.
func (t *Task) NextDueDate(from time.Time) *time.Time {
	var next time.Time
	switch t.Recurrence {
	case RecurrenceDaily:
		next = from.AddDate(0, 0, 1)
	case RecurrenceWeekly:
		next = from.AddDate(0, 0, 7)
	case RecurrenceMonthly:
		next = from.AddDate(0, 1, 0)
	default:
		return nil
	}
	return &next
}

// TaskComment is stored when a comment is posted through the event-source
// route; the comment itself is incidental, the notifications it triggers are
// the point.
type TaskComment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TaskID    uint      `json:"task_id" gorm:"index"`
	AuthorID  uint      `json:"author_id" gorm:"index"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCommentRequest is the POST body for task comments. Mentions are
// client-resolved user ids.
type CreateCommentRequest struct {
	Body     string `json:"body" validate:"required,min=1,max=5000"`
	Mentions []uint `json:"mentions" validate:"max=50"`
}
