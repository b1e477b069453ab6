package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// DailyUsageRepository 每日用量账本仓储实现
type DailyUsageRepository struct {
	client *Client
}

// NewDailyUsageRepository 创建用量仓储
func NewDailyUsageRepository(client *Client) *DailyUsageRepository {
	return &DailyUsageRepository{client: client}
}

// GetCount 返回用户当日的故事生成数，无记录时为 0
func (r *DailyUsageRepository) GetCount(ctx context.Context, userID, usageDate string) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.DailyUsageRepository.GetCount")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	var count int
	err := q.QueryRowContext(ctx,
		"SELECT stories_generated FROM daily_usage WHERE user_id = $1 AND usage_date = $2",
		userID, usageDate,
	).Scan(&count)

	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		span.RecordError(err)
		return 0, fmt.Errorf("failed to get daily usage: %w", err)
	}
	return count, nil
}

// Increment 原子递增当日计数并返回递增后的值。
// upsert 会在已有行上取写锁，并发事务在此串行化；
// 调用方在返回值超限时回滚事务即可撤销本次递增
func (r *DailyUsageRepository) Increment(ctx context.Context, userID, usageDate string) (int, error) {
	ctx, span := tracer.Start(ctx, "postgres.DailyUsageRepository.Increment")
	defer span.End()

	q := getQuerier(ctx, r.client.db)

	query := `
		INSERT INTO daily_usage (user_id, usage_date, stories_generated, updated_at)
		VALUES ($1, $2, 1, NOW())
		ON CONFLICT (user_id, usage_date)
		DO UPDATE SET
			stories_generated = daily_usage.stories_generated + 1,
			updated_at = NOW()
		RETURNING stories_generated
	`

	var count int
	if err := q.QueryRowContext(ctx, query, userID, usageDate).Scan(&count); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to increment daily usage: %w", err)
	}
	return count, nil
}
