package models

import "time"

// Channel is a delivery medium for a notification.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelInApp Channel = "inApp"
)

// ChannelPreferences holds one channel block of a user's preference document.
// Types not present in the map are treated as enabled, so newly introduced
// notification types are opt-out on every channel.
type ChannelPreferences struct {
	Enabled bool                      `json:"enabled" bson:"enabled"`
	Types   map[NotificationType]bool `json:"types" bson:"types"`
}

// Allows reports whether this channel block lets type t through. The per-type
// map is only consulted when the channel itself is enabled.
func (p ChannelPreferences) Allows(t NotificationType) bool {
	if !p.Enabled {
		return false
	}
	if v, ok := p.Types[t]; ok {
		return v
	}
	return true
}

// UserNotificationPreferences is one user's routing document (MongoDB).
// It is created lazily with defaults the first time it is read.
type UserNotificationPreferences struct {
	UserID    uint               `json:"user_id" bson:"userId"`
	Email     ChannelPreferences `json:"email" bson:"email"`
	Push      ChannelPreferences `json:"push" bson:"push"`
	InApp     ChannelPreferences `json:"inApp" bson:"inApp"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updatedAt"`
}

// ChannelBlock returns the block for the given channel.
func (p *UserNotificationPreferences) ChannelBlock(ch Channel) ChannelPreferences {
	switch ch {
	case ChannelEmail:
		return p.Email
	case ChannelPush:
		return p.Push
	case ChannelInApp:
		return p.InApp
	}
	return ChannelPreferences{}
}

// DefaultPreferences is the documented default routing table, in effect for
// any user without a stored preference document.
func DefaultPreferences(userID uint) *UserNotificationPreferences {
	return &UserNotificationPreferences{
		UserID: userID,
		Email: ChannelPreferences{
			Enabled: true,
			Types: map[NotificationType]bool{
				TypeMention:          true,
				TypeReaction:         false,
				TypeReply:            false,
				TypeTaskAssigned:     true,
				TypeTaskComment:      false,
				TypeTaskCompleted:    false,
				TypeTaskDueSoon:      true,
				TypeTaskOverdue:      true,
				TypeProjectInvite:    true,
				TypeRoleChanged:      true,
				TypeAppraisalUpdated: true,
				TypeDailyDigest:      true,
				TypeWeeklyDigest:     true,
			},
		},
		Push: ChannelPreferences{
			Enabled: true,
			Types: map[NotificationType]bool{
				TypeMention:          true,
				TypeReaction:         false,
				TypeReply:            true,
				TypeTaskAssigned:     true,
				TypeTaskComment:      false,
				TypeTaskCompleted:    false,
				TypeTaskDueSoon:      true,
				TypeTaskOverdue:      true,
				TypeProjectInvite:    true,
				TypeRoleChanged:      false,
				TypeAppraisalUpdated: true,
				TypeDailyDigest:      false,
				TypeWeeklyDigest:     false,
			},
		},
		InApp: ChannelPreferences{
			Enabled: true,
			Types: map[NotificationType]bool{
				TypeMention:          true,
				TypeReaction:         true,
				TypeReply:            true,
				TypeTaskAssigned:     true,
				TypeTaskComment:      true,
				TypeTaskCompleted:    true,
				TypeTaskDueSoon:      true,
				TypeTaskOverdue:      true,
				TypeProjectInvite:    true,
				TypeRoleChanged:      true,
				TypeAppraisalUpdated: true,
				TypeDailyDigest:      false,
				TypeWeeklyDigest:     false,
			},
		},
	}
}

// UpdatePreferencesRequest is the PUT body for the preferences route.
type UpdatePreferencesRequest struct {
	Email ChannelPreferences `json:"email"`
	Push  ChannelPreferences `json:"push"`
	InApp ChannelPreferences `json:"inApp"`
}
