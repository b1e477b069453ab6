package repository

import (
	"context"

	"storymagic-api/internal/domain/entity"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *entity.User) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
	UpdateLastLogin(ctx context.Context, id string) error
}
