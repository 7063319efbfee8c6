package notify

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"github.com/mhasan91/teamhub/backend/internal/models"
	"github.com/mhasan91/teamhub/backend/internal/repositories"
)

// FCMSender pushes notifications to the recipient's registered devices via
// Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
	users  repositories.UserRepository
}

func NewFCMSender(client *messaging.Client, users repositories.UserRepository) *FCMSender {
	return &FCMSender{client: client, users: users}
}

func (s *FCMSender) Send(ctx context.Context, n *models.Notification) error {
	tokens, err := s.users.ListPushTokens(n.RecipientID)
	if err != nil {
		return fmt.Errorf("load push tokens: %w", err)
	}
	if len(tokens) == 0 {
		// No registered device is a delivery miss, not an error.
		return nil
	}

	regTokens := make([]string, len(tokens))
	for i, t := range tokens {
		regTokens[i] = t.Token
	}

	msg := &messaging.MulticastMessage{
		Tokens: regTokens,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: map[string]string{
			"type":     string(n.Type),
			"ref_kind": n.RefKind,
			"ref_id":   n.RefID,
		},
	}

	resp, err := s.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return fmt.Errorf("fcm multicast: %w", err)
	}

	// Prune tokens FCM reports as gone so we stop retrying dead devices.
	for i, r := range resp.Responses {
		if r.Error != nil && messaging.IsUnregistered(r.Error) {
			s.users.DeletePushToken(n.RecipientID, regTokens[i])
		}
	}
	if resp.FailureCount > 0 && resp.SuccessCount == 0 {
		return fmt.Errorf("fcm rejected all %d tokens", resp.FailureCount)
	}
	return nil
}
