package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storymagic-api/internal/domain/entity"
)

type memTierRepo struct {
	tiers []*entity.SubscriptionTier
}

func (m *memTierRepo) List(_ context.Context) ([]*entity.SubscriptionTier, error) {
	return m.tiers, nil
}

func (m *memTierRepo) GetByID(_ context.Context, id string) (*entity.SubscriptionTier, error) {
	for _, t := range m.tiers {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (m *memTierRepo) Upsert(_ context.Context, tier *entity.SubscriptionTier) error {
	m.tiers = append(m.tiers, tier)
	return nil
}

func TestTierListServesPricingPageData(t *testing.T) {
	h := NewTierHandler(&memTierRepo{tiers: entity.DefaultTiers()}, nil)

	r := gin.New()
	r.GET("/v1/tiers", h.List)

	w := doRequest(r, http.MethodGet, "/v1/tiers")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Items []struct {
				ID          string   `json:"id"`
				Name        string   `json:"name"`
				Description string   `json:"description"`
				Features    []string `json:"features"`
				StoryLimit  *int     `json:"story_limit"`
				PriceCents  int      `json:"price_cents"`
			} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Items, 3)

	// 定价页需要每档的描述与卖点列表
	for _, item := range body.Data.Items {
		assert.NotEmpty(t, item.Description, "tier %s", item.ID)
		assert.NotEmpty(t, item.Features, "tier %s", item.ID)
	}

	free := body.Data.Items[0]
	assert.Equal(t, entity.TierFree, free.ID)
	assert.Contains(t, free.Description, "storytelling journey")
	assert.Contains(t, free.Features, "Create 1 story per day")
	require.NotNil(t, free.StoryLimit)
	assert.Equal(t, 1, *free.StoryLimit)

	premium := body.Data.Items[2]
	assert.Equal(t, entity.TierPremium, premium.ID)
	assert.Contains(t, premium.Features, "Unlimited story continuations")
	assert.Nil(t, premium.StoryLimit)
	assert.Equal(t, 999, premium.PriceCents)
}
