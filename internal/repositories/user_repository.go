package repositories

import (
	"github.com/mhasan91/teamhub/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user operations
type UserRepository interface {
	GetUserByID(id uint) (*models.User, error)
	ListActive() ([]models.User, error)
	ListAdmins() ([]models.User, error)
	ListPushTokens(userID uint) ([]models.PushToken, error)
	CreatePushToken(token *models.PushToken) error
	DeletePushToken(userID uint, token string) error
}

type postgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *postgresUserRepository) ListActive() ([]models.User, error) {
	var users []models.User
	err := r.db.Where("active = ?", true).Find(&users).Error
	return users, err
}

func (r *postgresUserRepository) ListAdmins() ([]models.User, error) {
	var users []models.User
	err := r.db.Where("active = ? AND role = ?", true, models.RoleAdmin).Find(&users).Error
	return users, err
}

func (r *postgresUserRepository) ListPushTokens(userID uint) ([]models.PushToken, error) {
	var tokens []models.PushToken
	err := r.db.Where("user_id = ?", userID).Find(&tokens).Error
	return tokens, err
}

func (r *postgresUserRepository) CreatePushToken(token *models.PushToken) error {
	// Re-registering the same token moves it to the current user.
	r.db.Where("token = ?", token.Token).Delete(&models.PushToken{})
	return r.db.Create(token).Error
}

func (r *postgresUserRepository) DeletePushToken(userID uint, token string) error {
	return r.db.Where("user_id = ? AND token = ?", userID, token).Delete(&models.PushToken{}).Error
}
