// Package quota 实现按套餐的每日用量限制（UTC 日切）
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storymagic-api/internal/domain/entity"
	"storymagic-api/internal/domain/repository"
)

// Kind 配额类别
type Kind string

const (
	KindStory        Kind = "story"
	KindContinuation Kind = "continuation"
)

// ExceededError 表示当日配额已用尽
type ExceededError struct {
	Kind  Kind
	Limit int
	Used  int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("daily %s limit reached: used %d of %d", e.Kind, e.Used, e.Limit)
}

// AsExceeded 提取配额错误，便于接口层返回 403 载荷
func AsExceeded(err error) (*ExceededError, bool) {
	var qe *ExceededError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

// StoryQuotaChecker 检查故事生成配额
type StoryQuotaChecker struct {
	usageRepo repository.DailyUsageRepository
	now       func() time.Time
}

func NewStoryQuotaChecker(usageRepo repository.DailyUsageRepository) *StoryQuotaChecker {
	return &StoryQuotaChecker{usageRepo: usageRepo, now: time.Now}
}

// Check 返回当日已用量；超限时返回 ExceededError。
// 普通读不加锁，只做快速拒绝；并发下的硬性上限由 Consume 保证。
func (c *StoryQuotaChecker) Check(ctx context.Context, userID string, tier *entity.SubscriptionTier) (used int, err error) {
	used, err = c.usageRepo.GetCount(ctx, userID, entity.UsageDateFor(c.now()))
	if err != nil {
		return 0, err
	}
	if tier.UnlimitedStories() {
		return used, nil
	}
	if used >= *tier.StoryLimit {
		return used, &ExceededError{Kind: KindStory, Limit: *tier.StoryLimit, Used: used}
	}
	return used, nil
}

// Consume 记一次用量并校验递增后的计数。
// 递增在用量行上取写锁，并发事务在此串行化：后到者读到的计数
// 已包含先到者的写入，超限时返回 ExceededError，由调用方回滚事务撤销递增。
func (c *StoryQuotaChecker) Consume(ctx context.Context, userID string, tier *entity.SubscriptionTier) error {
	count, err := c.usageRepo.Increment(ctx, userID, entity.UsageDateFor(c.now()))
	if err != nil {
		return err
	}
	if tier.UnlimitedStories() {
		return nil
	}
	if count > *tier.StoryLimit {
		return &ExceededError{Kind: KindStory, Limit: *tier.StoryLimit, Used: count - 1}
	}
	return nil
}

// ContinuationQuotaChecker 检查续写配额。
// 续写不走 daily_usage 表，直接按 UTC 当日的续写记录数统计。
type ContinuationQuotaChecker struct {
	contRepo repository.ContinuationRepository
	now      func() time.Time
}

func NewContinuationQuotaChecker(contRepo repository.ContinuationRepository) *ContinuationQuotaChecker {
	return &ContinuationQuotaChecker{contRepo: contRepo, now: time.Now}
}

// Check 返回当日已用量；超限时返回 ExceededError。
func (c *ContinuationQuotaChecker) Check(ctx context.Context, ownerID string, tier *entity.SubscriptionTier) (used int, err error) {
	used, err = c.contRepo.CountByOwnerSince(ctx, ownerID, entity.StartOfUTCDay(c.now()))
	if err != nil {
		return 0, err
	}
	if tier.UnlimitedContinuations() {
		return used, nil
	}
	if used >= *tier.ContinuationLimit {
		return used, &ExceededError{Kind: KindContinuation, Limit: *tier.ContinuationLimit, Used: used}
	}
	return used, nil
}
