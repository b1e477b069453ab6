package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContinuationType(t *testing.T) {
	for _, s := range []string{"theme", "character", "new", "custom"} {
		typ, err := ParseContinuationType(s)
		require.NoError(t, err)
		assert.Equal(t, ContinuationType(s), typ)
	}

	_, err := ParseContinuationType("remix")
	assert.Error(t, err)
	_, err = ParseContinuationType("")
	assert.Error(t, err)
}

func TestUsageDateForNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	// 本地 2 点，UTC 仍是前一天 18 点
	local := time.Date(2025, 6, 16, 2, 0, 0, 0, loc)
	assert.Equal(t, "2025-06-15", UsageDateFor(local))

	start := StartOfUTCDay(local)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), start)
}

func TestMissingImages(t *testing.T) {
	content := StoryContent{Pages: []StoryPage{
		{Text: "a", ImageURL: "https://cdn.test/0.jpg"},
		{Text: "b"},
		{Text: "c"},
	}}
	assert.Equal(t, []int{1, 2}, content.MissingImages())

	content.Pages[1].ImageURL = "https://cdn.test/1.jpg"
	content.Pages[2].ImageURL = "https://cdn.test/2.jpg"
	assert.Empty(t, content.MissingImages())

	var nilContent *StoryContent
	assert.Nil(t, nilContent.MissingImages())
}

func TestNewStoryStatus(t *testing.T) {
	withImages := StoryContent{
		Title: "T",
		Pages: []StoryPage{{Text: "a", ImageURL: "https://cdn.test/0.jpg"}},
	}
	st := NewStory("u1", StoryConfig{}, withImages)
	assert.Equal(t, StoryStatusReady, st.Status)
	assert.Equal(t, "T", st.Title)

	withoutImages := StoryContent{Title: "T", Pages: []StoryPage{{Text: "a"}}}
	st = NewStory("u1", StoryConfig{}, withoutImages)
	assert.Equal(t, StoryStatusImagesPending, st.Status)

	cont := NewStoryContinuation("s1", ContinuationTypeNew, "", withoutImages)
	assert.Equal(t, StoryStatusImagesPending, cont.Status)
	assert.Equal(t, "s1", cont.StoryID)
}

func TestTierLimits(t *testing.T) {
	tiers := DefaultTiers()
	require.Len(t, tiers, 3)

	byID := map[string]*SubscriptionTier{}
	for _, tier := range tiers {
		byID[tier.ID] = tier
	}

	free := byID[TierFree]
	require.NotNil(t, free.StoryLimit)
	assert.Equal(t, 1, *free.StoryLimit)
	assert.False(t, free.UnlimitedStories())
	assert.NotEmpty(t, free.Description)
	assert.NotEmpty(t, free.Features)

	premium := byID[TierPremium]
	assert.True(t, premium.UnlimitedStories())
	assert.True(t, premium.UnlimitedContinuations())

	var nilTier *SubscriptionTier
	assert.True(t, nilTier.UnlimitedStories())
}
