// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"storymagic-api/internal/domain/entity"
)

// TierResponse 订阅套餐响应。
// 限额为 null 表示不限量，描述与卖点列表供定价页展示。
type TierResponse struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Features          []string `json:"features"`
	StoryLimit        *int     `json:"story_limit"`
	ContinuationLimit *int     `json:"continuation_limit"`
	PriceCents        int      `json:"price_cents"`
}

// TierListResponse 套餐列表响应
type TierListResponse struct {
	Items []*TierResponse `json:"items"`
}

// ToTierResponse 实体转换为响应
func ToTierResponse(t *entity.SubscriptionTier) *TierResponse {
	if t == nil {
		return nil
	}
	return &TierResponse{
		ID:                t.ID,
		Name:              t.Name,
		Description:       t.Description,
		Features:          t.Features,
		StoryLimit:        t.StoryLimit,
		ContinuationLimit: t.ContinuationLimit,
		PriceCents:        t.PriceCents,
	}
}

// ToTierListResponse 实体列表转换为响应
func ToTierListResponse(tiers []*entity.SubscriptionTier) *TierListResponse {
	items := make([]*TierResponse, len(tiers))
	for i, t := range tiers {
		items[i] = ToTierResponse(t)
	}
	return &TierListResponse{Items: items}
}
