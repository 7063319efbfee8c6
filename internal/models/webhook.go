package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WebhookEvent is the closed set of integration events external subscribers
// can listen for.
type WebhookEvent string

const (
	EventTaskCreated        WebhookEvent = "task.created"
	EventTaskCompleted      WebhookEvent = "task.completed"
	EventTaskCommented      WebhookEvent = "task.commented"
	EventTaskOverdue        WebhookEvent = "task.overdue"
	EventProjectCreated     WebhookEvent = "project.created"
	EventMemberRoleChanged  WebhookEvent = "member.role_changed"
	EventAppraisalCompleted WebhookEvent = "appraisal.completed"
	EventWebhookTest        WebhookEvent = "webhook.test"
)

var webhookEvents = map[WebhookEvent]bool{
	EventTaskCreated:        true,
	EventTaskCompleted:      true,
	EventTaskCommented:      true,
	EventTaskOverdue:        true,
	EventProjectCreated:     true,
	EventMemberRoleChanged:  true,
	EventAppraisalCompleted: true,
	EventWebhookTest:        true,
}

// IsValidWebhookEvent reports whether e names a known integration event.
func IsValidWebhookEvent(e WebhookEvent) bool {
	return webhookEvents[e]
}

// DefaultRetryAttempts is the per-webhook delivery budget used when a
// subscription does not configure its own.
const DefaultRetryAttempts = 3

// Webhook is an external subscription document (MongoDB).
type Webhook struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name"`
	URL             string             `json:"url" bson:"url"`
	Active          bool               `json:"active" bson:"active"`
	Events          []WebhookEvent     `json:"events" bson:"events"`
	Headers         map[string]string  `json:"headers,omitempty" bson:"headers,omitempty"`
	Secret          string             `json:"-" bson:"secret,omitempty"`
	RetryAttempts   int                `json:"retry_attempts" bson:"retryAttempts"`
	LastTriggeredAt *time.Time         `json:"last_triggered_at,omitempty" bson:"lastTriggeredAt,omitempty"`
	OwnerID         uint               `json:"owner_id" bson:"ownerId"`
	CreatedAt       time.Time          `json:"created_at" bson:"createdAt"`
}

// SubscribedTo reports whether the webhook listens for event e.
func (w *Webhook) SubscribedTo(e WebhookEvent) bool {
	for _, ev := range w.Events {
		if ev == e {
			return true
		}
	}
	return false
}

// CreateWebhookRequest is the POST body for registering a webhook.
type CreateWebhookRequest struct {
	Name          string            `json:"name" validate:"required,min=2,max=100"`
	URL           string            `json:"url" validate:"required,url"`
	Events        []WebhookEvent    `json:"events" validate:"required,min=1"`
	Headers       map[string]string `json:"headers"`
	Secret        string            `json:"secret"`
	RetryAttempts int               `json:"retry_attempts" validate:"min=0,max=10"`
	Active        *bool             `json:"active"`
}

// UpdateWebhookRequest is the PUT body for changing a webhook. Nil fields
// are left untouched.
type UpdateWebhookRequest struct {
	Name          *string           `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	URL           *string           `json:"url,omitempty" validate:"omitempty,url"`
	Events        []WebhookEvent    `json:"events,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	Secret        *string           `json:"secret,omitempty"`
	RetryAttempts *int              `json:"retry_attempts,omitempty" validate:"omitempty,min=0,max=10"`
	Active        *bool             `json:"active,omitempty"`
}
