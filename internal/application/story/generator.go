// Package story 实现故事生成、续写与插画修复的应用服务
package story

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storymagic-api/internal/application/quota"
	"storymagic-api/internal/config"
	"storymagic-api/internal/domain/entity"
	"storymagic-api/internal/domain/repository"
	"storymagic-api/internal/infrastructure/persistence/redis"
	wfmodel "storymagic-api/internal/workflow/model"
	wfnode "storymagic-api/internal/workflow/node"
	"storymagic-api/pkg/errors"
	"storymagic-api/pkg/logger"
	"storymagic-api/pkg/metrics"
)

// Generator 故事生成应用服务
type Generator struct {
	storyRepo   repository.StoryRepository
	tierRepo    repository.SubscriptionTierRepository
	storyQuota  *quota.StoryQuotaChecker
	chain       StoryChainInvoker
	illustrator *Illustrator
	tx          repository.Transactor
	cache       *redis.Cache
	staticStory bool
}

func NewGenerator(
	storyRepo repository.StoryRepository,
	tierRepo repository.SubscriptionTierRepository,
	storyQuota *quota.StoryQuotaChecker,
	chain StoryChainInvoker,
	illustrator *Illustrator,
	tx repository.Transactor,
	cache *redis.Cache,
	cfg *config.Config,
) *Generator {
	return &Generator{
		storyRepo:   storyRepo,
		tierRepo:    tierRepo,
		storyQuota:  storyQuota,
		chain:       chain,
		illustrator: illustrator,
		tx:          tx,
		cache:       cache,
		staticStory: cfg.Features.StaticStory,
	}
}

// Generate 走完整的生成流程：额度校验、文本生成、插画生成、落库、上传。
// 故事行与用量计数在同一事务中写入，递增持有用量行写锁并校验上限，
// 并发请求在此串行化，超限的一方整体回滚。
func (g *Generator) Generate(ctx context.Context, user *entity.User, cfg entity.StoryConfig) (*entity.Story, error) {
	if user == nil {
		return nil, fmt.Errorf("user is nil")
	}
	if strings.TrimSpace(cfg.Setting.Name) == "" || strings.TrimSpace(cfg.Character.Name) == "" {
		return nil, errors.New(errors.CodeInvalidParam, "setting and character are required")
	}

	start := time.Now()
	tier, err := g.resolveTier(ctx, user.TierID)
	if err != nil {
		return nil, err
	}

	// 事前快速校验，拦住明显超限的请求
	if _, err := g.storyQuota.Check(ctx, user.ID, tier); err != nil {
		if _, ok := quota.AsExceeded(err); ok {
			metrics.StoryLimitRejections.WithLabelValues(string(quota.KindStory)).Inc()
		}
		return nil, err
	}

	content, err := g.generateContent(ctx, cfg)
	if err != nil {
		metrics.StoryGenerationTotal.WithLabelValues("story", "error").Inc()
		return nil, err
	}

	// 插画先生成后落库，单页失败则整批失败
	var images []pageImage
	if !g.illustrator.Disabled() {
		indexes := make([]int, len(content.Pages))
		for i := range indexes {
			indexes[i] = i
		}
		images, err = g.illustrator.GenerateAll(ctx, content.Pages, indexes)
		if err != nil {
			metrics.StoryGenerationTotal.WithLabelValues("story", "error").Inc()
			return nil, err
		}
	}

	st := entity.NewStory(user.ID, cfg, *content)
	err = g.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := g.storyRepo.Create(txCtx, st); err != nil {
			return err
		}
		// 递增后的计数超限则回滚，故事行与用量计数一并撤销
		return g.storyQuota.Consume(txCtx, user.ID, tier)
	})
	if err != nil {
		if _, ok := quota.AsExceeded(err); ok {
			metrics.StoryLimitRejections.WithLabelValues(string(quota.KindStory)).Inc()
			return nil, err
		}
		metrics.StoryGenerationTotal.WithLabelValues("story", "error").Inc()
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to save story")
	}

	// 落库之后的上传与回填失败不回滚，留给修复流程补齐
	if len(images) > 0 {
		g.illustrator.UploadStoryImages(ctx, st.ID, &st.Content, images)
		status := entity.StoryStatusReady
		if len(st.Content.MissingImages()) > 0 {
			status = entity.StoryStatusImagesPending
		}
		if err := g.storyRepo.UpdateContent(ctx, st.ID, st.Content, status); err != nil {
			logger.Error(ctx, "failed to attach image urls", err, "story_id", st.ID)
		} else {
			st.Status = status
		}
	}

	if g.cache != nil {
		g.cache.InvalidateUserStories(ctx, user.ID)
	}
	metrics.StoryGenerationTotal.WithLabelValues("story", "success").Inc()
	metrics.StoryGenerationDuration.WithLabelValues("story").Observe(time.Since(start).Seconds())
	return st, nil
}

// Repair 为插画缺失的故事补齐图片。幂等，可重复执行。
func (g *Generator) Repair(ctx context.Context, userID, storyID string) (*entity.Story, error) {
	st, err := g.storyRepo.GetByID(ctx, storyID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to load story")
	}
	if st == nil {
		return nil, errors.ErrStoryNotFound
	}
	if st.UserID != userID {
		return nil, errors.ErrForbidden
	}

	filled, err := g.illustrator.GenerateMissing(ctx, st.ID, &st.Content)
	if err != nil {
		return nil, err
	}
	if filled == 0 {
		return st, nil
	}

	status := entity.StoryStatusReady
	if len(st.Content.MissingImages()) > 0 {
		status = entity.StoryStatusImagesPending
	}
	if err := g.storyRepo.UpdateContent(ctx, st.ID, st.Content, status); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to update story content")
	}
	st.Status = status

	if g.cache != nil {
		g.cache.InvalidateUserStories(ctx, userID)
	}
	return st, nil
}

// GenerateRaw 不落库的直通生成，供 /v1/generate/story 使用
func (g *Generator) GenerateRaw(ctx context.Context, cfg entity.StoryConfig) (*entity.StoryContent, error) {
	return g.generateContent(ctx, cfg)
}

func (g *Generator) generateContent(ctx context.Context, cfg entity.StoryConfig) (*entity.StoryContent, error) {
	if g.staticStory {
		content := StaticStoryContent()
		return &content, nil
	}

	msg, err := g.chain.Invoke(ctx, &wfmodel.StoryGenerateInput{Config: cfg})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeLLMProviderError, "failed to generate story")
	}
	return wfnode.ParseStoryContent(msg.Content)
}

func (g *Generator) resolveTier(ctx context.Context, tierID string) (*entity.SubscriptionTier, error) {
	tier, err := g.tierRepo.GetByID(ctx, tierID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to load tier")
	}
	if tier == nil {
		// 未知套餐按 free 处理
		return entity.DefaultTiers()[0], nil
	}
	return tier, nil
}
