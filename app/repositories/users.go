// Package repositories maps rows to models. Every repository is bound to a
// *gorm.DB, either the pool or the tx of the caller's transaction.
package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockbook/app/models"
	"github.com/shashiranjanraj/stockbook/pkg/orm"
	"github.com/shashiranjanraj/stockbook/pkg/pagination"
)

// UserRepository handles database operations for User.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := orm.First(r.db.WithContext(ctx).Where("id = ?", id), &user, "User not found")
	return user, err
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := orm.First(r.db.WithContext(ctx).Where("username = ?", username), &user, "User not found")
	return user, err
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return orm.Exists(r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username))
}

// SetRefreshToken stores token, or clears it when token is nil.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id uint, token *string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("refresh_token", token).Error
}

// SetAdmin grants or revokes the admin flag.
func (r *UserRepository) SetAdmin(ctx context.Context, id uint, admin bool) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("admin", admin).Error
}

func (r *UserRepository) List(ctx context.Context, p pagination.Params) (pagination.Page[models.User], error) {
	return orm.Paginate[models.User](r.db.WithContext(ctx).Model(&models.User{}), p, "id ASC")
}
