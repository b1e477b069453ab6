package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"storymagic-api/internal/domain/entity"
	"storymagic-api/internal/domain/repository"
)

// StoryRepository 故事仓储实现
type StoryRepository struct {
	client *Client
}

// NewStoryRepository 创建故事仓储
func NewStoryRepository(client *Client) *StoryRepository {
	return &StoryRepository{client: client}
}

// Create 创建故事
func (r *StoryRepository) Create(ctx context.Context, story *entity.Story) error {
	ctx, span := tracer.Start(ctx, "postgres.StoryRepository.Create")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	configJSON, _ := json.Marshal(story.Config)
	contentJSON, _ := json.Marshal(story.Content)

	query := `
		INSERT INTO stories (id, user_id, title, config, content, status, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRowContext(ctx, query,
		story.UserID, story.Title, configJSON, contentJSON, story.Status,
	).Scan(&story.ID, &story.CreatedAt, &story.UpdatedAt)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create story: %w", err)
	}

	return nil
}

// GetByID 根据 ID 获取故事
func (r *StoryRepository) GetByID(ctx context.Context, id string) (*entity.Story, error) {
	ctx, span := tracer.Start(ctx, "postgres.StoryRepository.GetByID")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		SELECT id, user_id, title, config, content, status, created_at, updated_at
		FROM stories
		WHERE id = $1
	`

	var story entity.Story
	var configJSON, contentJSON []byte

	err := q.QueryRowContext(ctx, query, id).Scan(
		&story.ID, &story.UserID, &story.Title, &configJSON, &contentJSON,
		&story.Status, &story.CreatedAt, &story.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get story: %w", err)
	}

	json.Unmarshal(configJSON, &story.Config)
	json.Unmarshal(contentJSON, &story.Content)

	return &story, nil
}

// ListByUser 分页返回用户的故事，按创建时间倒序
func (r *StoryRepository) ListByUser(ctx context.Context, userID string, p repository.Pagination) (*repository.PagedResult[*entity.Story], error) {
	ctx, span := tracer.Start(ctx, "postgres.StoryRepository.ListByUser")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	var total int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM stories WHERE user_id = $1", userID).Scan(&total); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count stories: %w", err)
	}

	query := `
		SELECT id, user_id, title, config, content, status, created_at, updated_at
		FROM stories
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := q.QueryContext(ctx, query, userID, p.Limit(), p.Offset())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	var stories []*entity.Story
	for rows.Next() {
		var story entity.Story
		var configJSON, contentJSON []byte
		if err := rows.Scan(
			&story.ID, &story.UserID, &story.Title, &configJSON, &contentJSON,
			&story.Status, &story.CreatedAt, &story.UpdatedAt,
		); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		json.Unmarshal(configJSON, &story.Config)
		json.Unmarshal(contentJSON, &story.Content)
		stories = append(stories, &story)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return repository.NewPagedResult(stories, total, p), nil
}

// UpdateContent 覆盖故事内容与状态
func (r *StoryRepository) UpdateContent(ctx context.Context, id string, content entity.StoryContent, status entity.StoryStatus) error {
	ctx, span := tracer.Start(ctx, "postgres.StoryRepository.UpdateContent")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	contentJSON, _ := json.Marshal(content)

	query := `
		UPDATE stories
		SET content = $1, title = $2, status = $3, updated_at = NOW()
		WHERE id = $4
	`

	res, err := q.ExecContext(ctx, query, contentJSON, content.Title, status, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update story content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete 删除故事，级联删除其续写
func (r *StoryRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.StoryRepository.Delete")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	res, err := q.ExecContext(ctx, "DELETE FROM stories WHERE id = $1", id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete story: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
