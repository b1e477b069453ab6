package handler

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"storymagic-api/internal/domain/repository"
	"storymagic-api/internal/infrastructure/persistence/redis"
	"storymagic-api/internal/interfaces/http/dto"
	"storymagic-api/pkg/logger"
)

// 套餐列表缓存时间，套餐变更走 bootstrap 后手动失效
const tierCacheTTL = 10 * time.Minute

// TierHandler 订阅套餐处理器
type TierHandler struct {
	tierRepo repository.SubscriptionTierRepository
	cache    *redis.Cache
}

// NewTierHandler 创建套餐处理器
func NewTierHandler(tierRepo repository.SubscriptionTierRepository, cache *redis.Cache) *TierHandler {
	return &TierHandler{
		tierRepo: tierRepo,
		cache:    cache,
	}
}

// List 列出全部订阅套餐
// @Summary 套餐列表
// @Tags Tier
// @Produce json
// @Success 200 {object} dto.Response[dto.TierListResponse]
// @Router /v1/tiers [get]
func (h *TierHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	if h.cache != nil {
		raw, err := h.cache.GetOrLoad(ctx, redis.TierListKey(), tierCacheTTL, func() (interface{}, error) {
			tiers, err := h.tierRepo.List(ctx)
			if err != nil {
				return nil, err
			}
			return dto.ToTierListResponse(tiers), nil
		})
		if err == nil {
			var resp dto.TierListResponse
			if err := json.Unmarshal(raw, &resp); err == nil {
				dto.Success(c, &resp)
				return
			}
		}
		logger.Warn(ctx, "tier cache lookup failed, falling back to database", "error", err)
	}

	tiers, err := h.tierRepo.List(ctx)
	if err != nil {
		logger.Error(ctx, "failed to list tiers", err)
		dto.InternalError(c, "failed to list tiers")
		return
	}

	dto.Success(c, dto.ToTierListResponse(tiers))
}
