package story

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storymagic-api/internal/application/quota"
	"storymagic-api/internal/domain/entity"
	"storymagic-api/internal/domain/repository"
	wfmodel "storymagic-api/internal/workflow/model"
	wfnode "storymagic-api/internal/workflow/node"
	"storymagic-api/pkg/errors"
	"storymagic-api/pkg/logger"
	"storymagic-api/pkg/metrics"
)

// Continuer 故事续写应用服务
type Continuer struct {
	storyRepo   repository.StoryRepository
	contRepo    repository.ContinuationRepository
	tierRepo    repository.SubscriptionTierRepository
	contQuota   *quota.ContinuationQuotaChecker
	chain       ContinuationChainInvoker
	illustrator *Illustrator
}

func NewContinuer(
	storyRepo repository.StoryRepository,
	contRepo repository.ContinuationRepository,
	tierRepo repository.SubscriptionTierRepository,
	contQuota *quota.ContinuationQuotaChecker,
	chain ContinuationChainInvoker,
	illustrator *Illustrator,
) *Continuer {
	return &Continuer{
		storyRepo:   storyRepo,
		contRepo:    contRepo,
		tierRepo:    tierRepo,
		contQuota:   contQuota,
		chain:       chain,
		illustrator: illustrator,
	}
}

// Continue 基于原故事生成一条续写，仅限故事所有者。
// 续写配额按所有者当日（UTC）已创建的续写数统计。
func (c *Continuer) Continue(ctx context.Context, user *entity.User, storyID, typeStr, customPrompt string) (*entity.StoryContinuation, error) {
	if user == nil {
		return nil, fmt.Errorf("user is nil")
	}

	typ, err := entity.ParseContinuationType(typeStr)
	if err != nil {
		return nil, errors.New(errors.CodeInvalidContinuation, err.Error())
	}
	if typ == entity.ContinuationTypeCustom && strings.TrimSpace(customPrompt) == "" {
		return nil, errors.New(errors.CodeInvalidContinuation, "custom continuation requires a prompt")
	}

	st, err := c.storyRepo.GetByID(ctx, storyID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to load story")
	}
	if st == nil {
		return nil, errors.ErrStoryNotFound
	}
	if st.UserID != user.ID {
		return nil, errors.ErrForbidden
	}

	tier, err := c.resolveTier(ctx, user.TierID)
	if err != nil {
		return nil, err
	}
	if _, err := c.contQuota.Check(ctx, user.ID, tier); err != nil {
		if _, ok := quota.AsExceeded(err); ok {
			metrics.StoryLimitRejections.WithLabelValues(string(quota.KindContinuation)).Inc()
		}
		return nil, err
	}

	start := time.Now()
	msg, err := c.chain.Invoke(ctx, &wfmodel.ContinuationGenerateInput{
		Type:          typ,
		CustomPrompt:  strings.TrimSpace(customPrompt),
		OriginalTitle: st.Title,
		CharacterName: st.Config.Character.Name,
		SettingName:   st.Config.Setting.Name,
		Summary:       st.Content.Summary,
		LastPageText:  st.Content.LastPageText(),
	})
	if err != nil {
		metrics.StoryGenerationTotal.WithLabelValues("continuation", "error").Inc()
		return nil, errors.Wrap(err, errors.CodeLLMProviderError, "failed to generate story continuation")
	}

	content, err := wfnode.ParseStoryContent(msg.Content)
	if err != nil {
		metrics.StoryGenerationTotal.WithLabelValues("continuation", "error").Inc()
		return nil, err
	}

	// 先落库拿到 ID，插画路径按故事与续写双重限定
	cont := entity.NewStoryContinuation(st.ID, typ, strings.TrimSpace(customPrompt), *content)
	if err := c.contRepo.Create(ctx, cont); err != nil {
		metrics.StoryGenerationTotal.WithLabelValues("continuation", "error").Inc()
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to save continuation")
	}

	if !c.illustrator.Disabled() {
		indexes := make([]int, len(cont.Content.Pages))
		for i := range indexes {
			indexes[i] = i
		}
		images, err := c.illustrator.GenerateAll(ctx, cont.Content.Pages, indexes)
		if err != nil {
			// 续写文本已保存，插画失败记日志后返回无插画的续写
			logger.Error(ctx, "continuation illustration failed", err, "continuation_id", cont.ID)
		} else {
			c.illustrator.UploadContinuationImages(ctx, st.ID, cont.ID, &cont.Content, images)
			status := entity.StoryStatusReady
			if len(cont.Content.MissingImages()) > 0 {
				status = entity.StoryStatusImagesPending
			}
			if err := c.contRepo.UpdateContent(ctx, cont.ID, cont.Content, status); err != nil {
				logger.Error(ctx, "failed to attach continuation image urls", err, "continuation_id", cont.ID)
			} else {
				cont.Status = status
			}
		}
	}

	metrics.StoryGenerationTotal.WithLabelValues("continuation", "success").Inc()
	metrics.StoryGenerationDuration.WithLabelValues("continuation").Observe(time.Since(start).Seconds())
	return cont, nil
}

func (c *Continuer) resolveTier(ctx context.Context, tierID string) (*entity.SubscriptionTier, error) {
	tier, err := c.tierRepo.GetByID(ctx, tierID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to load tier")
	}
	if tier == nil {
		return entity.DefaultTiers()[0], nil
	}
	return tier, nil
}
