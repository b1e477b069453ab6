package story

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storymagic-api/internal/application/quota"
	"storymagic-api/internal/config"
	"storymagic-api/internal/domain/entity"
	"storymagic-api/internal/domain/repository"
	wfmodel "storymagic-api/internal/workflow/model"
	wfnode "storymagic-api/internal/workflow/node"
	"storymagic-api/pkg/errors"
)

type fakeStoryChain struct {
	calls   int
	content string
	err     error
}

func (f *fakeStoryChain) Invoke(_ context.Context, _ *wfmodel.StoryGenerateInput) (*schema.Message, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.content, nil), nil
}

type fakeStoryRepo struct {
	stories map[string]*entity.Story
	nextID  int
}

func (f *fakeStoryRepo) Create(_ context.Context, st *entity.Story) error {
	if f.stories == nil {
		f.stories = map[string]*entity.Story{}
	}
	f.nextID++
	st.ID = fmt.Sprintf("story-%d", f.nextID)
	cp := *st
	f.stories[st.ID] = &cp
	return nil
}

func (f *fakeStoryRepo) GetByID(_ context.Context, id string) (*entity.Story, error) {
	st, ok := f.stories[id]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (f *fakeStoryRepo) ListByUser(_ context.Context, userID string, p repository.Pagination) (*repository.PagedResult[*entity.Story], error) {
	var items []*entity.Story
	for _, st := range f.stories {
		if st.UserID == userID {
			items = append(items, st)
		}
	}
	return repository.NewPagedResult(items, int64(len(items)), p), nil
}

func (f *fakeStoryRepo) UpdateContent(_ context.Context, id string, content entity.StoryContent, status entity.StoryStatus) error {
	st, ok := f.stories[id]
	if !ok {
		return fmt.Errorf("story %s not found", id)
	}
	st.Content = content
	st.Status = status
	return nil
}

func (f *fakeStoryRepo) Delete(_ context.Context, id string) error {
	delete(f.stories, id)
	return nil
}

type fakeTierRepo struct {
	tiers map[string]*entity.SubscriptionTier
}

func (f *fakeTierRepo) List(context.Context) ([]*entity.SubscriptionTier, error) {
	var out []*entity.SubscriptionTier
	for _, t := range f.tiers {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTierRepo) GetByID(_ context.Context, id string) (*entity.SubscriptionTier, error) {
	return f.tiers[id], nil
}

func (f *fakeTierRepo) Upsert(_ context.Context, tier *entity.SubscriptionTier) error {
	if f.tiers == nil {
		f.tiers = map[string]*entity.SubscriptionTier{}
	}
	f.tiers[tier.ID] = tier
	return nil
}

type fakeUsageRepo struct {
	counts map[string]int
	// staleReads 为真时 GetCount 固定返回 0，模拟并发事务未提交时读到的旧计数
	staleReads bool
}

func (f *fakeUsageRepo) GetCount(_ context.Context, userID, usageDate string) (int, error) {
	if f.staleReads {
		return 0, nil
	}
	return f.counts[userID+"/"+usageDate], nil
}

func (f *fakeUsageRepo) Increment(_ context.Context, userID, usageDate string) (int, error) {
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[userID+"/"+usageDate]++
	return f.counts[userID+"/"+usageDate], nil
}

func (f *fakeUsageRepo) total() int {
	n := 0
	for _, v := range f.counts {
		n += v
	}
	return n
}

type fakeTx struct{}

func (fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func storyContentJSON(t *testing.T) string {
	t.Helper()
	content := StaticStoryContent()
	raw, err := json.Marshal(content)
	require.NoError(t, err)
	return string(raw)
}

type generatorFixture struct {
	gen       *Generator
	chain     *fakeStoryChain
	storyRepo *fakeStoryRepo
	usageRepo *fakeUsageRepo
	imageGen  *fakeImageGen
	store     *fakeStore
}

func newGeneratorFixture(t *testing.T, mutate func(cfg *config.Config)) *generatorFixture {
	t.Helper()

	cfg := &config.Config{}
	if mutate != nil {
		mutate(cfg)
	}

	f := &generatorFixture{
		chain:     &fakeStoryChain{content: storyContentJSON(t)},
		storyRepo: &fakeStoryRepo{},
		usageRepo: &fakeUsageRepo{},
		imageGen:  &fakeImageGen{},
		store:     &fakeStore{},
	}

	tierRepo := &fakeTierRepo{}
	for _, tier := range entity.DefaultTiers() {
		require.NoError(t, tierRepo.Upsert(context.Background(), tier))
	}

	illustrator := NewIllustrator(f.imageGen, fakeCompressor{}, f.store, cfg)
	f.gen = NewGenerator(
		f.storyRepo,
		tierRepo,
		quota.NewStoryQuotaChecker(f.usageRepo),
		f.chain,
		illustrator,
		fakeTx{},
		nil,
		cfg,
	)
	return f
}

func freeUser() *entity.User {
	return &entity.User{ID: "u1", TierID: entity.TierFree}
}

func TestGenerateSavesStoryWithImages(t *testing.T) {
	f := newGeneratorFixture(t, nil)

	st, err := f.gen.Generate(context.Background(), freeUser(), StaticStoryConfig())
	require.NoError(t, err)
	require.NotNil(t, st)

	assert.Equal(t, "Bouncy Bunny and the Candy River", st.Title)
	assert.Len(t, st.Content.Pages, wfnode.StoryPageCount)
	assert.Equal(t, entity.StoryStatusReady, st.Status)
	for i, page := range st.Content.Pages {
		assert.NotEmpty(t, page.ImageURL, "page %d", i)
	}
	assert.Equal(t, 1, f.usageRepo.total())
	assert.Len(t, f.store.uploads, wfnode.StoryPageCount)
}

func TestGenerateWithImagesDisabled(t *testing.T) {
	f := newGeneratorFixture(t, func(cfg *config.Config) {
		cfg.Features.DisableImageGeneration = true
	})

	st, err := f.gen.Generate(context.Background(), freeUser(), StaticStoryConfig())
	require.NoError(t, err)

	// 文本已保存，插画留待开关恢复后修复
	assert.Equal(t, entity.StoryStatusImagesPending, st.Status)
	assert.Zero(t, f.imageGen.calls)
	assert.Equal(t, 1, f.usageRepo.total())
}

func TestGenerateQuotaExceeded(t *testing.T) {
	f := newGeneratorFixture(t, nil)
	user := freeUser()

	_, err := f.gen.Generate(context.Background(), user, StaticStoryConfig())
	require.NoError(t, err)

	_, err = f.gen.Generate(context.Background(), user, StaticStoryConfig())
	require.Error(t, err)

	qe, ok := quota.AsExceeded(err)
	require.True(t, ok)
	assert.Equal(t, quota.KindStory, qe.Kind)
	assert.Equal(t, 1, qe.Limit)
	assert.Equal(t, 1, qe.Used)
	// 超限请求不触发模型调用，也不会多记用量
	assert.Equal(t, 1, f.chain.calls)
	assert.Equal(t, 1, f.usageRepo.total())
}

func TestGenerateQuotaEnforcedOnStaleReads(t *testing.T) {
	// 并发下事前读可能看不到未提交的写入，上限由递增后的计数兜底
	f := newGeneratorFixture(t, nil)
	f.usageRepo.staleReads = true
	user := freeUser()

	_, err := f.gen.Generate(context.Background(), user, StaticStoryConfig())
	require.NoError(t, err)

	st, err := f.gen.Generate(context.Background(), user, StaticStoryConfig())
	require.Error(t, err)
	assert.Nil(t, st)

	qe, ok := quota.AsExceeded(err)
	require.True(t, ok)
	assert.Equal(t, quota.KindStory, qe.Kind)
	assert.Equal(t, 1, qe.Limit)
	assert.Equal(t, 1, qe.Used)
}

func TestGenerateUnknownTierTreatedAsFree(t *testing.T) {
	f := newGeneratorFixture(t, nil)
	user := &entity.User{ID: "u1", TierID: "legacy-gold"}

	_, err := f.gen.Generate(context.Background(), user, StaticStoryConfig())
	require.NoError(t, err)

	_, err = f.gen.Generate(context.Background(), user, StaticStoryConfig())
	qe, ok := quota.AsExceeded(err)
	require.True(t, ok)
	assert.Equal(t, 1, qe.Limit)
}

func TestGenerateRequiresSettingAndCharacter(t *testing.T) {
	f := newGeneratorFixture(t, nil)

	_, err := f.gen.Generate(context.Background(), freeUser(), entity.StoryConfig{})
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.CodeInvalidParam, appErr.Code)
	assert.Zero(t, f.chain.calls)
}

func TestGenerateStaticStorySkipsModel(t *testing.T) {
	f := newGeneratorFixture(t, func(cfg *config.Config) {
		cfg.Features.StaticStory = true
	})
	f.chain.err = fmt.Errorf("must not be called")

	st, err := f.gen.Generate(context.Background(), freeUser(), StaticStoryConfig())
	require.NoError(t, err)
	assert.Equal(t, "Bouncy Bunny and the Candy River", st.Title)
	assert.Zero(t, f.chain.calls)
}

func TestGenerateMalformedModelOutput(t *testing.T) {
	f := newGeneratorFixture(t, nil)
	f.chain.content = "once upon a time, the model rambled"

	_, err := f.gen.Generate(context.Background(), freeUser(), StaticStoryConfig())
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.CodeMalformedStoryOutput, appErr.Code)
	assert.Zero(t, f.usageRepo.total())
}

func TestGenerateChainFailure(t *testing.T) {
	f := newGeneratorFixture(t, nil)
	f.chain.err = fmt.Errorf("provider timeout")

	_, err := f.gen.Generate(context.Background(), freeUser(), StaticStoryConfig())
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.CodeLLMProviderError, appErr.Code)
}

func TestRepairFillsMissingImages(t *testing.T) {
	f := newGeneratorFixture(t, func(cfg *config.Config) {
		cfg.Features.DisableImageGeneration = true
	})

	st, err := f.gen.Generate(context.Background(), freeUser(), StaticStoryConfig())
	require.NoError(t, err)
	require.Equal(t, entity.StoryStatusImagesPending, st.Status)

	// 与生成时不同，修复时开关已恢复
	repairFixture := newGeneratorFixture(t, nil)
	repairFixture.storyRepo = f.storyRepo
	repairFixture.gen.storyRepo = f.storyRepo

	repaired, err := repairFixture.gen.Repair(context.Background(), "u1", st.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StoryStatusReady, repaired.Status)
	assert.Empty(t, repaired.Content.MissingImages())

	saved, err := f.storyRepo.GetByID(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StoryStatusReady, saved.Status)
}

func TestRepairOwnershipAndExistence(t *testing.T) {
	f := newGeneratorFixture(t, nil)

	st, err := f.gen.Generate(context.Background(), freeUser(), StaticStoryConfig())
	require.NoError(t, err)

	_, err = f.gen.Repair(context.Background(), "intruder", st.ID)
	assert.ErrorIs(t, err, errors.ErrForbidden)

	_, err = f.gen.Repair(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, errors.ErrStoryNotFound)
}

func TestGenerateRawDoesNotPersist(t *testing.T) {
	f := newGeneratorFixture(t, nil)

	content, err := f.gen.GenerateRaw(context.Background(), StaticStoryConfig())
	require.NoError(t, err)
	assert.Len(t, content.Pages, wfnode.StoryPageCount)
	assert.Empty(t, f.storyRepo.stories)
	assert.Zero(t, f.usageRepo.total())
}
