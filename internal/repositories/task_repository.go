package repositories

import (
	"time"

	"github.com/mhasan91/teamhub/backend/internal/models"
	"gorm.io/gorm"
)

// TaskRepository exposes the narrow slice of task persistence the delivery
// fabric needs: the automation jobs and the comment event source.
type TaskRepository interface {
	GetTaskByID(id uint) (*models.Task, error)
	CreateTask(task *models.Task) error
	ListRecurringDue(now time.Time) ([]models.Task, error)
	ListOverdue(now time.Time) ([]models.Task, error)
	ListDueWithin(now time.Time, window time.Duration) ([]models.Task, error)
	MarkSpawned(taskID uint, at time.Time) error
	MarkEscalated(taskID uint, at time.Time) error
	MarkReminded(taskID uint, at time.Time) error
	CountCompletedSince(since time.Time) (int64, error)
	CreateComment(comment *models.TaskComment) error
}

type postgresTaskRepository struct {
	db *gorm.DB
}

func NewPostgresTaskRepository(db *gorm.DB) TaskRepository {
	return &postgresTaskRepository{db: db}
}

func (r *postgresTaskRepository) GetTaskByID(id uint) (*models.Task, error) {
	var task models.Task
	if err := r.db.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *postgresTaskRepository) CreateTask(task *models.Task) error {
	return r.db.Create(task).Error
}

// ListRecurringDue returns recurring tasks whose due date has arrived and
// that have not yet spawned their next instance.
func (r *postgresTaskRepository) ListRecurringDue(now time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Where("recurrence <> ? AND due_date IS NOT NULL AND due_date <= ?", models.RecurrenceNone, now).
		Where("last_spawned_at IS NULL OR last_spawned_at < due_date").
		Find(&tasks).Error
	return tasks, err
}

func (r *postgresTaskRepository) ListOverdue(now time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Where("status <> ? AND due_date IS NOT NULL AND due_date < ? AND escalated_at IS NULL", models.TaskDone, now).
		Find(&tasks).Error
	return tasks, err
}

func (r *postgresTaskRepository) ListDueWithin(now time.Time, window time.Duration) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Where("status <> ? AND due_date IS NOT NULL AND due_date >= ? AND due_date <= ? AND reminded_at IS NULL",
			models.TaskDone, now, now.Add(window)).
		Find(&tasks).Error
	return tasks, err
}

func (r *postgresTaskRepository) MarkSpawned(taskID uint, at time.Time) error {
	return r.db.Model(&models.Task{}).Where("id = ?", taskID).Update("last_spawned_at", at).Error
}

func (r *postgresTaskRepository) MarkEscalated(taskID uint, at time.Time) error {
	return r.db.Model(&models.Task{}).Where("id = ?", taskID).Update("escalated_at", at).Error
}

func (r *postgresTaskRepository) MarkReminded(taskID uint, at time.Time) error {
	return r.db.Model(&models.Task{}).Where("id = ?", taskID).Update("reminded_at", at).Error
}

func (r *postgresTaskRepository) CountCompletedSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).
		Where("status = ? AND completed_at >= ?", models.TaskDone, since).
		Count(&count).Error
	return count, err
}

func (r *postgresTaskRepository) CreateComment(comment *models.TaskComment) error {
	return r.db.Create(comment).Error
}
