package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/mhasan91/teamhub/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PreferenceRepository stores per-user notification routing documents.
type PreferenceRepository interface {
	GetOrCreate(ctx context.Context, userID uint) (*models.UserNotificationPreferences, error)
	Update(ctx context.Context, prefs *models.UserNotificationPreferences) error
}

type mongoPreferenceRepository struct {
	coll *mongo.Collection
}

func NewMongoPreferenceRepository(db *mongo.Database) PreferenceRepository {
	return &mongoPreferenceRepository{coll: db.Collection("notification_preferences")}
}

// GetOrCreate loads the user's preference document, materializing the
// documented defaults on first access. A user therefore always resolves to a
// full routing table.
func (r *mongoPreferenceRepository) GetOrCreate(ctx context.Context, userID uint) (*models.UserNotificationPreferences, error) {
	var prefs models.UserNotificationPreferences
	err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&prefs)
	if err == nil {
		return &prefs, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	defaults := models.DefaultPreferences(userID)
	defaults.UpdatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, defaults); err != nil {
		// Lost a race with a concurrent first access; the defaults we hold
		// are identical to what won.
		if !mongo.IsDuplicateKeyError(err) {
			return nil, err
		}
	}
	return defaults, nil
}

func (r *mongoPreferenceRepository) Update(ctx context.Context, prefs *models.UserNotificationPreferences) error {
	prefs.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"userId": prefs.UserID}, prefs, options.Replace().SetUpsert(true))
	return err
}
