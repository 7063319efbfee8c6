package models

import "time"

// NotificationType is the closed set of events a user can be notified about.
type NotificationType string

const (
	TypeMention          NotificationType = "mention"
	TypeReaction         NotificationType = "reaction"
	TypeReply            NotificationType = "reply"
	TypeTaskAssigned     NotificationType = "task_assigned"
	TypeTaskComment      NotificationType = "task_comment"
	TypeTaskCompleted    NotificationType = "task_completed"
	TypeTaskDueSoon      NotificationType = "task_due_soon"
	TypeTaskOverdue      NotificationType = "task_overdue"
	TypeProjectInvite    NotificationType = "project_invite"
	TypeRoleChanged      NotificationType = "role_changed"
	TypeAppraisalUpdated NotificationType = "appraisal_updated"
	TypeDailyDigest      NotificationType = "daily_digest"
	TypeWeeklyDigest     NotificationType = "weekly_digest"
)

// NotificationTypes enumerates every known notification type.
var NotificationTypes = []NotificationType{
	TypeMention, TypeReaction, TypeReply,
	TypeTaskAssigned, TypeTaskComment, TypeTaskCompleted,
	TypeTaskDueSoon, TypeTaskOverdue,
	TypeProjectInvite, TypeRoleChanged, TypeAppraisalUpdated,
	TypeDailyDigest, TypeWeeklyDigest,
}

// IsDigest reports whether t is a batched digest type. Digest notifications
// are assembled by the daily automation run, never emailed per-event.
func (t NotificationType) IsDigest() bool {
	return t == TypeDailyDigest || t == TypeWeeklyDigest
}

// Notification represents one delivered (or deliverable) event for one user (PostgreSQL)
type Notification struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	RecipientID uint             `json:"recipient_id" gorm:"index"`
	Type        NotificationType `json:"type" gorm:"size:30;index"`
	Title       string           `json:"title"`
	Body        string           `json:"body,omitempty"`
	ActorID     uint             `json:"actor_id,omitempty" gorm:"index"`
	RefKind     string           `json:"ref_kind,omitempty" gorm:"size:20"` // task, project, comment, appraisal
	RefID       string           `json:"ref_id,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty" gorm:"serializer:json"`
	IsRead      bool             `json:"is_read" gorm:"default:false;index"`
	ReadAt      *time.Time       `json:"read_at,omitempty"`
	ClickedAt   *time.Time       `json:"clicked_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index"`
}

// NotificationRetention is the housekeeping TTL after which old notifications
// are purged by the daily automation run.
const NotificationRetention = 30 * 24 * time.Hour
