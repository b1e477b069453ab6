package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"storymagic-api/internal/domain/entity"
)

// ContinuationRepository 故事续写仓储实现
type ContinuationRepository struct {
	client *Client
}

// NewContinuationRepository 创建续写仓储
func NewContinuationRepository(client *Client) *ContinuationRepository {
	return &ContinuationRepository{client: client}
}

// Create 创建续写
func (r *ContinuationRepository) Create(ctx context.Context, cont *entity.StoryContinuation) error {
	ctx, span := tracer.Start(ctx, "postgres.ContinuationRepository.Create")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	contentJSON, _ := json.Marshal(cont.Content)

	query := `
		INSERT INTO story_continuations (id, story_id, continuation_type, custom_prompt, content, status, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRowContext(ctx, query,
		cont.StoryID, cont.Type, nullString(cont.CustomPrompt), contentJSON, cont.Status,
	).Scan(&cont.ID, &cont.CreatedAt, &cont.UpdatedAt)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create continuation: %w", err)
	}

	return nil
}

// GetByID 根据 ID 获取续写
func (r *ContinuationRepository) GetByID(ctx context.Context, id string) (*entity.StoryContinuation, error) {
	ctx, span := tracer.Start(ctx, "postgres.ContinuationRepository.GetByID")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		SELECT id, story_id, continuation_type, custom_prompt, content, status, created_at, updated_at
		FROM story_continuations
		WHERE id = $1
	`

	cont, err := scanContinuationRow(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get continuation: %w", err)
	}
	return cont, nil
}

// ListByStory 返回某故事的全部续写，按创建时间升序
func (r *ContinuationRepository) ListByStory(ctx context.Context, storyID string) ([]*entity.StoryContinuation, error) {
	ctx, span := tracer.Start(ctx, "postgres.ContinuationRepository.ListByStory")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		SELECT id, story_id, continuation_type, custom_prompt, content, status, created_at, updated_at
		FROM story_continuations
		WHERE story_id = $1
		ORDER BY created_at ASC
	`

	rows, err := q.QueryContext(ctx, query, storyID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list continuations: %w", err)
	}
	defer rows.Close()

	var conts []*entity.StoryContinuation
	for rows.Next() {
		var cont entity.StoryContinuation
		var customPrompt sql.NullString
		var contentJSON []byte
		if err := rows.Scan(
			&cont.ID, &cont.StoryID, &cont.Type, &customPrompt, &contentJSON,
			&cont.Status, &cont.CreatedAt, &cont.UpdatedAt,
		); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan continuation: %w", err)
		}
		if customPrompt.Valid {
			cont.CustomPrompt = customPrompt.String
		}
		json.Unmarshal(contentJSON, &cont.Content)
		conts = append(conts, &cont)
	}
	return conts, rows.Err()
}

// UpdateContent 覆盖续写内容与状态
func (r *ContinuationRepository) UpdateContent(ctx context.Context, id string, content entity.StoryContent, status entity.StoryStatus) error {
	ctx, span := tracer.Start(ctx, "postgres.ContinuationRepository.UpdateContent")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	contentJSON, _ := json.Marshal(content)

	query := `
		UPDATE story_continuations
		SET content = $1, status = $2, updated_at = NOW()
		WHERE id = $3
	`

	res, err := q.ExecContext(ctx, query, contentJSON, status, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update continuation content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByOwnerSince 统计用户自 since 起创建的续写数
// 续写行不存 user_id，归属通过关联原故事推导
func (r *ContinuationRepository) CountByOwnerSince(ctx context.Context, ownerID string, since time.Time) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.ContinuationRepository.CountByOwnerSince")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		SELECT COUNT(*)
		FROM story_continuations c
		JOIN stories s ON s.id = c.story_id
		WHERE s.user_id = $1 AND c.created_at >= $2
	`

	var count int
	if err := q.QueryRowContext(ctx, query, ownerID, since).Scan(&count); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count continuations: %w", err)
	}
	return count, nil
}

func scanContinuationRow(row *sql.Row) (*entity.StoryContinuation, error) {
	var cont entity.StoryContinuation
	var customPrompt sql.NullString
	var contentJSON []byte

	if err := row.Scan(
		&cont.ID, &cont.StoryID, &cont.Type, &customPrompt, &contentJSON,
		&cont.Status, &cont.CreatedAt, &cont.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if customPrompt.Valid {
		cont.CustomPrompt = customPrompt.String
	}
	json.Unmarshal(contentJSON, &cont.Content)
	return &cont, nil
}
