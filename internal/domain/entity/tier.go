package entity

import "time"

// 内置套餐 ID
const (
	TierFree    = "free"
	TierPlus    = "plus"
	TierPremium = "premium"
)

// SubscriptionTier 订阅套餐
// StoryLimit / ContinuationLimit 为 nil 表示不限量
type SubscriptionTier struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Features          []string  `json:"features"`
	StoryLimit        *int      `json:"story_limit"`
	ContinuationLimit *int      `json:"continuation_limit"`
	PriceCents        int       `json:"price_cents"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// UnlimitedStories 是否不限故事生成量
func (t *SubscriptionTier) UnlimitedStories() bool {
	return t == nil || t.StoryLimit == nil
}

// UnlimitedContinuations 是否不限续写量
func (t *SubscriptionTier) UnlimitedContinuations() bool {
	return t == nil || t.ContinuationLimit == nil
}

// DefaultTiers 系统初始化时写入的套餐
func DefaultTiers() []*SubscriptionTier {
	intPtr := func(n int) *int { return &n }
	now := time.Now()
	return []*SubscriptionTier{
		{
			ID:          TierFree,
			Name:        "Free",
			Description: "Begin your storytelling journey with magical tales that come to life",
			Features: []string{
				"Create 1 story per day",
				"Continue a story once per day",
				"Read stories online",
				"Download as PDF",
			},
			StoryLimit:        intPtr(1),
			ContinuationLimit: intPtr(1),
			PriceCents:        0,
			CreatedAt:         now,
			UpdatedAt:         now,
		},
		{
			ID:          TierPlus,
			Name:        "Plus",
			Description: "Unlock deeper storytelling with extended creative possibilities",
			Features: []string{
				"Create up to 5 stories per day",
				"Continue stories up to 5 times per day",
				"Read stories online",
				"Download as PDF",
			},
			StoryLimit:        intPtr(5),
			ContinuationLimit: intPtr(5),
			PriceCents:        499,
			CreatedAt:         now,
			UpdatedAt:         now,
		},
		{
			ID:          TierPremium,
			Name:        "Premium",
			Description: "Experience boundless creativity with unlimited story adventures",
			Features: []string{
				"Create unlimited stories",
				"Unlimited story continuations",
				"Read stories online",
				"Download as PDF",
			},
			StoryLimit:        nil,
			ContinuationLimit: nil,
			PriceCents:        999,
			CreatedAt:         now,
			UpdatedAt:         now,
		},
	}
}
