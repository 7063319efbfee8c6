// Package notify turns domain events into persisted notifications and fans
// them out across the in-app, push and email channels according to each
// user's preferences.
package notify

import (
	"context"
	"log"

	"github.com/mhasan91/teamhub/backend/internal/models"
)

// PreferenceStore is the slice of preference persistence the resolver needs.
type PreferenceStore interface {
	GetOrCreate(ctx context.Context, userID uint) (*models.UserNotificationPreferences, error)
}

// Resolver decides whether a given channel is open for a given user and
// notification type. It never fails: a user without a stored document (or an
// unreachable store) resolves against the documented defaults.
type Resolver struct {
	store PreferenceStore
}

func NewResolver(store PreferenceStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns true when the channel should carry a notification of type
// t to the user. A type missing from the channel's map is enabled; disabling
// is always an explicit opt-out.
func (r *Resolver) Resolve(ctx context.Context, userID uint, ch models.Channel, t models.NotificationType) bool {
	prefs, err := r.store.GetOrCreate(ctx, userID)
	if err != nil {
		log.Printf("preference lookup failed for user %d, using defaults: %v", userID, err)
		prefs = models.DefaultPreferences(userID)
	}
	return prefs.ChannelBlock(ch).Allows(t)
}
