package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/mhasan91/teamhub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrWebhookNotFound is returned when a webhook id does not resolve.
var ErrWebhookNotFound = errors.New("webhook not found")

// WebhookRepository stores external subscription documents.
type WebhookRepository interface {
	GetAll(ctx context.Context) ([]models.Webhook, error)
	GetByID(ctx context.Context, id string) (*models.Webhook, error)
	FindActiveByEvent(ctx context.Context, event models.WebhookEvent) ([]models.Webhook, error)
	Create(ctx context.Context, webhook *models.Webhook) error
	Update(ctx context.Context, webhook *models.Webhook) error
	Delete(ctx context.Context, id string) error
	UpdateLastTriggered(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

type mongoWebhookRepository struct {
	coll *mongo.Collection
}

func NewMongoWebhookRepository(db *mongo.Database) WebhookRepository {
	return &mongoWebhookRepository{coll: db.Collection("webhooks")}
}

func (r *mongoWebhookRepository) GetAll(ctx context.Context) ([]models.Webhook, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	var webhooks []models.Webhook
	if err := cursor.All(ctx, &webhooks); err != nil {
		return nil, err
	}
	return webhooks, nil
}

func (r *mongoWebhookRepository) GetByID(ctx context.Context, id string) (*models.Webhook, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrWebhookNotFound
	}
	var webhook models.Webhook
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&webhook); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrWebhookNotFound
		}
		return nil, err
	}
	return &webhook, nil
}

// FindActiveByEvent returns webhooks eligible for delivery of the given
// event: active and subscribed to it.
func (r *mongoWebhookRepository) FindActiveByEvent(ctx context.Context, event models.WebhookEvent) ([]models.Webhook, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"active": true, "events": event})
	if err != nil {
		return nil, err
	}
	var webhooks []models.Webhook
	if err := cursor.All(ctx, &webhooks); err != nil {
		return nil, err
	}
	return webhooks, nil
}

func (r *mongoWebhookRepository) Create(ctx context.Context, webhook *models.Webhook) error {
	webhook.CreatedAt = time.Now()
	res, err := r.coll.InsertOne(ctx, webhook)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		webhook.ID = oid
	}
	return nil
}

func (r *mongoWebhookRepository) Update(ctx context.Context, webhook *models.Webhook) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": webhook.ID}, webhook)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrWebhookNotFound
	}
	return nil
}

func (r *mongoWebhookRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrWebhookNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrWebhookNotFound
	}
	return nil
}

func (r *mongoWebhookRepository) UpdateLastTriggered(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"lastTriggeredAt": at}})
	return err
}
