package quota

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storymagic-api/internal/domain/entity"
)

type fakeUsageRepo struct {
	counts     map[string]int
	increments int
	getErr     error
}

func (f *fakeUsageRepo) GetCount(_ context.Context, userID, usageDate string) (int, error) {
	if f.getErr != nil {
		return 0, f.getErr
	}
	return f.counts[userID+"/"+usageDate], nil
}

func (f *fakeUsageRepo) Increment(_ context.Context, userID, usageDate string) (int, error) {
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[userID+"/"+usageDate]++
	f.increments++
	return f.counts[userID+"/"+usageDate], nil
}

type fakeContinuationRepo struct {
	count int
	err   error
}

func (f *fakeContinuationRepo) Create(context.Context, *entity.StoryContinuation) error {
	return nil
}

func (f *fakeContinuationRepo) GetByID(context.Context, string) (*entity.StoryContinuation, error) {
	return nil, nil
}

func (f *fakeContinuationRepo) ListByStory(context.Context, string) ([]*entity.StoryContinuation, error) {
	return nil, nil
}

func (f *fakeContinuationRepo) UpdateContent(context.Context, string, entity.StoryContent, entity.StoryStatus) error {
	return nil
}

func (f *fakeContinuationRepo) CountByOwnerSince(context.Context, string, time.Time) (int, error) {
	return f.count, f.err
}

func intPtr(n int) *int { return &n }

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 23, 30, 0, 0, time.UTC)
}

func TestStoryQuotaCheckUnderLimit(t *testing.T) {
	repo := &fakeUsageRepo{counts: map[string]int{"u1/2025-06-15": 3}}
	checker := NewStoryQuotaChecker(repo)
	checker.now = fixedNow

	tier := &entity.SubscriptionTier{ID: entity.TierPlus, StoryLimit: intPtr(5)}
	used, err := checker.Check(context.Background(), "u1", tier)
	require.NoError(t, err)
	assert.Equal(t, 3, used)
}

func TestStoryQuotaCheckExceeded(t *testing.T) {
	repo := &fakeUsageRepo{counts: map[string]int{"u1/2025-06-15": 1}}
	checker := NewStoryQuotaChecker(repo)
	checker.now = fixedNow

	tier := &entity.SubscriptionTier{ID: entity.TierFree, StoryLimit: intPtr(1)}
	used, err := checker.Check(context.Background(), "u1", tier)
	require.Error(t, err)
	assert.Equal(t, 1, used)

	qe, ok := AsExceeded(err)
	require.True(t, ok)
	assert.Equal(t, KindStory, qe.Kind)
	assert.Equal(t, 1, qe.Limit)
	assert.Equal(t, 1, qe.Used)
}

func TestStoryQuotaCheckUnlimited(t *testing.T) {
	repo := &fakeUsageRepo{counts: map[string]int{"u1/2025-06-15": 9000}}
	checker := NewStoryQuotaChecker(repo)
	checker.now = fixedNow

	tier := &entity.SubscriptionTier{ID: entity.TierPremium}
	used, err := checker.Check(context.Background(), "u1", tier)
	require.NoError(t, err)
	assert.Equal(t, 9000, used)
}

func TestStoryQuotaConsumeUsesUTCDate(t *testing.T) {
	repo := &fakeUsageRepo{}
	checker := NewStoryQuotaChecker(repo)
	// 本地时区已过午夜，UTC 仍是前一天
	checker.now = func() time.Time {
		loc := time.FixedZone("UTC+8", 8*3600)
		return time.Date(2025, 6, 16, 2, 0, 0, 0, loc)
	}

	tier := &entity.SubscriptionTier{ID: entity.TierFree, StoryLimit: intPtr(1)}
	require.NoError(t, checker.Consume(context.Background(), "u1", tier))
	assert.Equal(t, 1, repo.counts["u1/2025-06-15"])
}

func TestStoryQuotaConsumeEnforcesLimit(t *testing.T) {
	repo := &fakeUsageRepo{}
	checker := NewStoryQuotaChecker(repo)
	checker.now = fixedNow

	// 事前读到的计数可能已经过期，递增后的值才是判定依据
	tier := &entity.SubscriptionTier{ID: entity.TierFree, StoryLimit: intPtr(1)}
	require.NoError(t, checker.Consume(context.Background(), "u1", tier))

	err := checker.Consume(context.Background(), "u1", tier)
	require.Error(t, err)
	qe, ok := AsExceeded(err)
	require.True(t, ok)
	assert.Equal(t, KindStory, qe.Kind)
	assert.Equal(t, 1, qe.Limit)
	assert.Equal(t, 1, qe.Used)
}

func TestStoryQuotaConsumeUnlimited(t *testing.T) {
	repo := &fakeUsageRepo{counts: map[string]int{"u1/2025-06-15": 9000}}
	checker := NewStoryQuotaChecker(repo)
	checker.now = fixedNow

	require.NoError(t, checker.Consume(context.Background(), "u1", &entity.SubscriptionTier{ID: entity.TierPremium}))
	assert.Equal(t, 9001, repo.counts["u1/2025-06-15"])
}

func TestContinuationQuotaCheckExceeded(t *testing.T) {
	checker := NewContinuationQuotaChecker(&fakeContinuationRepo{count: 5})
	checker.now = fixedNow

	tier := &entity.SubscriptionTier{ID: entity.TierPlus, ContinuationLimit: intPtr(5)}
	used, err := checker.Check(context.Background(), "u1", tier)
	require.Error(t, err)
	assert.Equal(t, 5, used)

	qe, ok := AsExceeded(err)
	require.True(t, ok)
	assert.Equal(t, KindContinuation, qe.Kind)
	assert.Equal(t, 5, qe.Limit)
}

func TestContinuationQuotaCheckUnlimited(t *testing.T) {
	checker := NewContinuationQuotaChecker(&fakeContinuationRepo{count: 42})
	checker.now = fixedNow

	used, err := checker.Check(context.Background(), "u1", &entity.SubscriptionTier{ID: entity.TierPremium})
	require.NoError(t, err)
	assert.Equal(t, 42, used)
}

func TestAsExceededOnWrappedError(t *testing.T) {
	inner := &ExceededError{Kind: KindStory, Limit: 1, Used: 1}
	wrapped := fmt.Errorf("generate story: %w", inner)

	qe, ok := AsExceeded(wrapped)
	require.True(t, ok)
	assert.Equal(t, inner, qe)

	_, ok = AsExceeded(fmt.Errorf("boom"))
	assert.False(t, ok)
}
