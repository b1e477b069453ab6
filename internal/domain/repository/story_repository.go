package repository

import (
	"context"

	"storymagic-api/internal/domain/entity"
)

// StoryRepository 故事仓储接口
type StoryRepository interface {
	Create(ctx context.Context, story *entity.Story) error
	GetByID(ctx context.Context, id string) (*entity.Story, error)
	ListByUser(ctx context.Context, userID string, p Pagination) (*PagedResult[*entity.Story], error)
	// UpdateContent 覆盖故事内容（插画上传完成或修复后）
	UpdateContent(ctx context.Context, id string, content entity.StoryContent, status entity.StoryStatus) error
	Delete(ctx context.Context, id string) error
}
