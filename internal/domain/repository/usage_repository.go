package repository

import "context"

// DailyUsageRepository 每日用量账本仓储接口
type DailyUsageRepository interface {
	// GetCount 返回用户在指定 UTC 日期 (YYYY-MM-DD) 的故事生成数，无记录时为 0
	GetCount(ctx context.Context, userID, usageDate string) (int, error)
	// Increment 原子递增当日计数并返回递增后的值：无记录则插入 1，有记录则 +1。
	// 并发事务会在该行的写锁上串行化，调用方据返回值判定是否超限并回滚
	Increment(ctx context.Context, userID, usageDate string) (int, error)
}
