package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/mhasan91/teamhub/backend/internal/models"
)

type fakePreferenceStore struct {
	docs map[uint]*models.UserNotificationPreferences
	err  error
	gets int
}

func (f *fakePreferenceStore) GetOrCreate(ctx context.Context, userID uint) (*models.UserNotificationPreferences, error) {
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	if doc, ok := f.docs[userID]; ok {
		return doc, nil
	}
	// Lazy-default materialization, as the mongo repository does it.
	doc := models.DefaultPreferences(userID)
	if f.docs == nil {
		f.docs = map[uint]*models.UserNotificationPreferences{}
	}
	f.docs[userID] = doc
	return doc, nil
}

func TestResolve_DocumentedDefaults(t *testing.T) {
	r := NewResolver(&fakePreferenceStore{})
	ctx := context.Background()

	if !r.Resolve(ctx, 1, models.ChannelEmail, models.TypeTaskAssigned) {
		t.Fatalf("email/task_assigned default should be enabled")
	}
	if r.Resolve(ctx, 1, models.ChannelEmail, models.TypeTaskCompleted) {
		t.Fatalf("email/task_completed default should be disabled")
	}
	if !r.Resolve(ctx, 1, models.ChannelPush, models.TypeMention) {
		t.Fatalf("push/mention default should be enabled")
	}
	if !r.Resolve(ctx, 1, models.ChannelInApp, models.TypeReaction) {
		t.Fatalf("inApp/reaction default should be enabled")
	}
}

func TestResolve_DisabledChannelWins(t *testing.T) {
	doc := models.DefaultPreferences(2)
	doc.Email.Enabled = false
	store := &fakePreferenceStore{docs: map[uint]*models.UserNotificationPreferences{2: doc}}
	r := NewResolver(store)

	// Per-type flag says true, but the channel switch is off.
	if r.Resolve(context.Background(), 2, models.ChannelEmail, models.TypeTaskAssigned) {
		t.Fatalf("disabled channel must suppress every type")
	}
}

func TestResolve_ExplicitOptOut(t *testing.T) {
	doc := models.DefaultPreferences(3)
	doc.InApp.Types[models.TypeMention] = false
	store := &fakePreferenceStore{docs: map[uint]*models.UserNotificationPreferences{3: doc}}
	r := NewResolver(store)

	if r.Resolve(context.Background(), 3, models.ChannelInApp, models.TypeMention) {
		t.Fatalf("explicit per-type opt-out ignored")
	}
}

func TestResolve_UnknownTypeIsEnabled(t *testing.T) {
	r := NewResolver(&fakePreferenceStore{})
	// A type no preference document has ever heard of.
	if !r.Resolve(context.Background(), 4, models.ChannelEmail, models.NotificationType("team_merged")) {
		t.Fatalf("unknown type must default to enabled")
	}
	if !r.Resolve(context.Background(), 4, models.ChannelPush, models.NotificationType("team_merged")) {
		t.Fatalf("unknown type must default to enabled on every channel")
	}
}

func TestResolve_StoreFailureFallsBackToDefaults(t *testing.T) {
	r := NewResolver(&fakePreferenceStore{err: errors.New("mongo down")})
	ctx := context.Background()

	if !r.Resolve(ctx, 5, models.ChannelEmail, models.TypeTaskAssigned) {
		t.Fatalf("store failure should resolve against defaults, not deny")
	}
	if r.Resolve(ctx, 5, models.ChannelEmail, models.TypeTaskCompleted) {
		t.Fatalf("store failure should still honor default opt-outs")
	}
}
