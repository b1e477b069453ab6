package story

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storymagic-api/internal/application/quota"
	"storymagic-api/internal/config"
	"storymagic-api/internal/domain/entity"
	wfmodel "storymagic-api/internal/workflow/model"
	"storymagic-api/pkg/errors"
)

type fakeContinuationChain struct {
	calls   int
	lastIn  *wfmodel.ContinuationGenerateInput
	content string
	err     error
}

func (f *fakeContinuationChain) Invoke(_ context.Context, in *wfmodel.ContinuationGenerateInput) (*schema.Message, error) {
	f.calls++
	f.lastIn = in
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.content, nil), nil
}

type fakeContRepo struct {
	conts  map[string]*entity.StoryContinuation
	nextID int
	count  int
}

func (f *fakeContRepo) Create(_ context.Context, cont *entity.StoryContinuation) error {
	if f.conts == nil {
		f.conts = map[string]*entity.StoryContinuation{}
	}
	f.nextID++
	cont.ID = fmt.Sprintf("cont-%d", f.nextID)
	cp := *cont
	f.conts[cont.ID] = &cp
	return nil
}

func (f *fakeContRepo) GetByID(_ context.Context, id string) (*entity.StoryContinuation, error) {
	cont, ok := f.conts[id]
	if !ok {
		return nil, nil
	}
	cp := *cont
	return &cp, nil
}

func (f *fakeContRepo) ListByStory(_ context.Context, storyID string) ([]*entity.StoryContinuation, error) {
	var out []*entity.StoryContinuation
	for _, cont := range f.conts {
		if cont.StoryID == storyID {
			out = append(out, cont)
		}
	}
	return out, nil
}

func (f *fakeContRepo) UpdateContent(_ context.Context, id string, content entity.StoryContent, status entity.StoryStatus) error {
	cont, ok := f.conts[id]
	if !ok {
		return fmt.Errorf("continuation %s not found", id)
	}
	cont.Content = content
	cont.Status = status
	return nil
}

func (f *fakeContRepo) CountByOwnerSince(context.Context, string, time.Time) (int, error) {
	return f.count, nil
}

type continuerFixture struct {
	continuer *Continuer
	chain     *fakeContinuationChain
	storyRepo *fakeStoryRepo
	contRepo  *fakeContRepo
	store     *fakeStore
	storyID   string
}

func newContinuerFixture(t *testing.T, mutate func(cfg *config.Config)) *continuerFixture {
	t.Helper()

	cfg := &config.Config{}
	if mutate != nil {
		mutate(cfg)
	}

	f := &continuerFixture{
		chain:     &fakeContinuationChain{content: storyContentJSON(t)},
		storyRepo: &fakeStoryRepo{},
		contRepo:  &fakeContRepo{},
		store:     &fakeStore{},
	}

	tierRepo := &fakeTierRepo{}
	for _, tier := range entity.DefaultTiers() {
		require.NoError(t, tierRepo.Upsert(context.Background(), tier))
	}

	st := entity.NewStory("u1", StaticStoryConfig(), StaticStoryContent())
	require.NoError(t, f.storyRepo.Create(context.Background(), st))
	f.storyID = st.ID

	f.continuer = NewContinuer(
		f.storyRepo,
		f.contRepo,
		tierRepo,
		quota.NewContinuationQuotaChecker(f.contRepo),
		f.chain,
		NewIllustrator(&fakeImageGen{}, fakeCompressor{}, f.store, cfg),
	)
	return f
}

func TestContinueCreatesContinuation(t *testing.T) {
	f := newContinuerFixture(t, nil)

	cont, err := f.continuer.Continue(context.Background(), freeUser(), f.storyID, "theme", "")
	require.NoError(t, err)
	require.NotNil(t, cont)

	assert.Equal(t, f.storyID, cont.StoryID)
	assert.Equal(t, entity.ContinuationTypeTheme, cont.Type)
	assert.Equal(t, entity.StoryStatusReady, cont.Status)
	for i, page := range cont.Content.Pages {
		assert.NotEmpty(t, page.ImageURL, "page %d", i)
	}

	// 工作流输入携带原故事的衔接信息
	in := f.chain.lastIn
	require.NotNil(t, in)
	assert.Equal(t, "Bouncy Bunny and the Candy River", in.OriginalTitle)
	assert.Equal(t, "Bouncy Bunny", in.CharacterName)
	assert.Equal(t, "Jellybean Jungle", in.SettingName)
	assert.NotEmpty(t, in.Summary)
	assert.NotEmpty(t, in.LastPageText)
}

func TestContinueCustomRequiresPrompt(t *testing.T) {
	f := newContinuerFixture(t, nil)

	_, err := f.continuer.Continue(context.Background(), freeUser(), f.storyID, "custom", "   ")
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.CodeInvalidContinuation, appErr.Code)

	cont, err := f.continuer.Continue(context.Background(), freeUser(), f.storyID, "custom", "they find a map")
	require.NoError(t, err)
	assert.Equal(t, "they find a map", cont.CustomPrompt)
	assert.Equal(t, "they find a map", f.chain.lastIn.CustomPrompt)
}

func TestContinueRejectsUnknownType(t *testing.T) {
	f := newContinuerFixture(t, nil)

	_, err := f.continuer.Continue(context.Background(), freeUser(), f.storyID, "remix", "")
	require.Error(t, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.CodeInvalidContinuation, appErr.Code)
	assert.Zero(t, f.chain.calls)
}

func TestContinueOwnerOnly(t *testing.T) {
	f := newContinuerFixture(t, nil)

	_, err := f.continuer.Continue(context.Background(), &entity.User{ID: "intruder", TierID: entity.TierFree}, f.storyID, "theme", "")
	assert.ErrorIs(t, err, errors.ErrForbidden)
	assert.Zero(t, f.chain.calls)
}

func TestContinueStoryNotFound(t *testing.T) {
	f := newContinuerFixture(t, nil)

	_, err := f.continuer.Continue(context.Background(), freeUser(), "missing", "theme", "")
	assert.ErrorIs(t, err, errors.ErrStoryNotFound)
}

func TestContinueQuotaExceeded(t *testing.T) {
	f := newContinuerFixture(t, nil)
	f.contRepo.count = 1

	_, err := f.continuer.Continue(context.Background(), freeUser(), f.storyID, "theme", "")
	require.Error(t, err)

	qe, ok := quota.AsExceeded(err)
	require.True(t, ok)
	assert.Equal(t, quota.KindContinuation, qe.Kind)
	assert.Equal(t, 1, qe.Limit)
	assert.Zero(t, f.chain.calls)
}

func TestContinueIllustrationFailureKeepsText(t *testing.T) {
	f := newContinuerFixture(t, nil)
	// 重建 illustrator，让所有插画生成失败
	f.continuer.illustrator = NewIllustrator(&fakeImageGen{failOn: "children's book"}, fakeCompressor{}, f.store, &config.Config{})

	cont, err := f.continuer.Continue(context.Background(), freeUser(), f.storyID, "new", "")
	require.NoError(t, err)
	assert.Equal(t, entity.StoryStatusImagesPending, cont.Status)
	assert.NotEmpty(t, cont.Content.Pages)
	for _, page := range cont.Content.Pages {
		assert.Empty(t, page.ImageURL)
	}

	saved, err := f.contRepo.GetByID(context.Background(), cont.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, entity.StoryStatusImagesPending, saved.Status)
}

func TestContinueImageKeysScopedToContinuation(t *testing.T) {
	f := newContinuerFixture(t, nil)

	cont, err := f.continuer.Continue(context.Background(), freeUser(), f.storyID, "character", "")
	require.NoError(t, err)

	prefix := fmt.Sprintf("stories/%s/continuations/%s/", f.storyID, cont.ID)
	for key := range f.store.uploads {
		assert.Contains(t, key, prefix)
	}
	assert.Len(t, f.store.uploads, len(cont.Content.Pages))
}
