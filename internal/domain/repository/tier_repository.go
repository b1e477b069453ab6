package repository

import (
	"context"

	"storymagic-api/internal/domain/entity"
)

// SubscriptionTierRepository 订阅套餐仓储接口
type SubscriptionTierRepository interface {
	List(ctx context.Context) ([]*entity.SubscriptionTier, error)
	GetByID(ctx context.Context, id string) (*entity.SubscriptionTier, error)
	// Upsert 按 ID 写入套餐，已存在则更新（bootstrap 用）
	Upsert(ctx context.Context, tier *entity.SubscriptionTier) error
}
