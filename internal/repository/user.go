package repository

import (
	"context"

	"stockflow/internal/cache"
	"stockflow/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// UserRepository defines persistence operations for company members.
type UserRepository interface {
	// GetByID returns the user with its company preloaded.
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewUserRepository returns a UserRepository; rdb may be nil to disable caching.
func NewUserRepository(db *gorm.DB, rdb *redis.Client) UserRepository {
	return &userRepository{db: db, rdb: rdb}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, r.rdb, cache.UserKey(id), &user, cache.UserTTL, func() error {
		return mapError(r.db.WithContext(ctx).Preload("Company").First(&user, id).Error, "User", id)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, mapError(err, "User", email)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return mapError(err, "User", user.Email)
	}
	cache.Invalidate(ctx, r.rdb, cache.UserKey(user.ID))
	return nil
}
