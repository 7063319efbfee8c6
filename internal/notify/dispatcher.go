package notify

import (
	"context"
	"log"
	"time"

	"github.com/mhasan91/teamhub/backend/internal/models"
	"github.com/mhasan91/teamhub/backend/internal/realtime"
	"github.com/mhasan91/teamhub/backend/internal/repositories"
)

// PushSender delivers a notification to the recipient's registered devices.
type PushSender interface {
	Send(ctx context.Context, n *models.Notification) error
}

// EmailSender delivers a plain email to one user.
type EmailSender interface {
	Send(ctx context.Context, userID uint, subject, body string) error
}

// Request describes one notification to dispatch.
type Request struct {
	RecipientID uint
	Type        models.NotificationType
	Title       string
	Body        string
	ActorID     uint
	RefKind     string
	RefID       string
	Metadata    map[string]any
}

// Dispatcher persists notifications and routes them through the enabled
// channels. Only the durable write can fail the call; every delivery
// channel is best-effort.
type Dispatcher struct {
	notifications repositories.NotificationRepository
	resolver      *Resolver
	registry      *realtime.Registry
	push          PushSender
	email         EmailSender

	// spawn detaches a delivery hand-off from the calling request.
	// Overridden in tests to run inline.
	spawn func(func())
}

func NewDispatcher(
	notifications repositories.NotificationRepository,
	resolver *Resolver,
	registry *realtime.Registry,
	push PushSender,
	email EmailSender,
) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		resolver:      resolver,
		registry:      registry,
		push:          push,
		email:         email,
		spawn:         func(f func()) { go f() },
	}
}

// Notify records the notification and fans it out. The record is persisted
// before any delivery is attempted, so it survives even when every live
// channel misses. Self-triggered events never notify the actor.
func (d *Dispatcher) Notify(ctx context.Context, req Request) (*models.Notification, error) {
	if req.ActorID != 0 && req.ActorID == req.RecipientID {
		return nil, nil
	}

	n := &models.Notification{
		RecipientID: req.RecipientID,
		Type:        req.Type,
		Title:       req.Title,
		Body:        req.Body,
		ActorID:     req.ActorID,
		RefKind:     req.RefKind,
		RefID:       req.RefID,
		Metadata:    req.Metadata,
		CreatedAt:   time.Now(),
	}
	if err := d.notifications.CreateNotification(n); err != nil {
		return nil, err
	}

	if d.resolver.Resolve(ctx, req.RecipientID, models.ChannelInApp, req.Type) {
		d.registry.Send(req.RecipientID, realtime.Event{
			Type: "notification",
			Data: map[string]any{"notification": n},
		})
	}

	if d.push != nil && d.resolver.Resolve(ctx, req.RecipientID, models.ChannelPush, req.Type) {
		d.spawn(func() { d.sendPush(n) })
	}

	// Digest types are batched by the daily run, never emailed per event.
	if d.email != nil && !req.Type.IsDigest() &&
		d.resolver.Resolve(ctx, req.RecipientID, models.ChannelEmail, req.Type) {
		d.spawn(func() { d.sendEmail(n) })
	}

	return n, nil
}

// NotifyMany dispatches the same request to several recipients, isolating
// failures per recipient. The actor is skipped inside Notify.
func (d *Dispatcher) NotifyMany(ctx context.Context, recipientIDs []uint, req Request) []*models.Notification {
	created := make([]*models.Notification, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		r := req
		r.RecipientID = id
		n, err := d.Notify(ctx, r)
		if err != nil {
			log.Printf("notify user %d (%s): %v", id, req.Type, err)
			continue
		}
		if n != nil {
			created = append(created, n)
		}
	}
	return created
}

// Detached hand-offs get their own context: the triggering request may be
// long gone by the time the external sender answers.

func (d *Dispatcher) sendPush(n *models.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := d.push.Send(ctx, n); err != nil {
		log.Printf("push delivery to user %d failed: %v", n.RecipientID, err)
	}
}

func (d *Dispatcher) sendEmail(n *models.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := d.email.Send(ctx, n.RecipientID, n.Title, n.Body); err != nil {
		log.Printf("email delivery to user %d failed: %v", n.RecipientID, err)
	}
}
