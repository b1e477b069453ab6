package repository

import (
	"context"
	"time"

	"storymagic-api/internal/domain/entity"
)

// ContinuationRepository 故事续写仓储接口
type ContinuationRepository interface {
	Create(ctx context.Context, cont *entity.StoryContinuation) error
	GetByID(ctx context.Context, id string) (*entity.StoryContinuation, error)
	ListByStory(ctx context.Context, storyID string) ([]*entity.StoryContinuation, error)
	UpdateContent(ctx context.Context, id string, content entity.StoryContent, status entity.StoryStatus) error
	// CountByOwnerSince 统计某用户自 since 起创建的续写数
	// 归属关系通过关联原故事推导，续写行上不冗余 user_id
	CountByOwnerSince(ctx context.Context, ownerID string, since time.Time) (int, error)
}
