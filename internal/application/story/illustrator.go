package story

import (
	"context"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"storymagic-api/internal/config"
	"storymagic-api/internal/domain/entity"
	"storymagic-api/pkg/errors"
	"storymagic-api/pkg/logger"
)

// illustrationStylePreamble 固定的插画风格前缀，拼在每页的 imagePrompt 前面
const illustrationStylePreamble = `Create a whimsical children's book illustration for:
%s

Style guide:
- Soft, warm colors with dreamy lighting
- Simple shapes with charming hidden details
- Friendly characters with expressive features
- Classic storybook style (like Beatrix Potter)
- Safe and inviting atmosphere
- Clear focal point with magical touches`

// pageImage 一页已生成待上传的插画
type pageImage struct {
	Index       int
	Data        []byte
	ContentType string
}

// Illustrator 负责插画的生成、压缩与上传
type Illustrator struct {
	gen      ImageGenerator
	comp     ImageCompressor
	store    ObjectStore
	disabled bool
}

func NewIllustrator(gen ImageGenerator, comp ImageCompressor, store ObjectStore, cfg *config.Config) *Illustrator {
	return &Illustrator{
		gen:      gen,
		comp:     comp,
		store:    store,
		disabled: cfg.Features.DisableImageGeneration,
	}
}

// Disabled 返回插画生成是否被配置关闭
func (il *Illustrator) Disabled() bool {
	return il.disabled
}

// StylePrompt 返回带固定风格前缀的完整插画提示词
func StylePrompt(imagePrompt string) string {
	return fmt.Sprintf(illustrationStylePreamble, strings.TrimSpace(imagePrompt))
}

// GenerateAll 为指定页并发生成并压缩插画。
// 任何一页失败则整批失败，调用方可选择降级为无插画保存。
func (il *Illustrator) GenerateAll(ctx context.Context, pages []entity.StoryPage, indexes []int) ([]pageImage, error) {
	if il.disabled {
		return nil, errors.ErrImageGenDisabled
	}

	images := make([]pageImage, len(indexes))
	g, gctx := errgroup.WithContext(ctx)
	for i, pageIdx := range indexes {
		i, pageIdx := i, pageIdx
		g.Go(func() error {
			data, err := il.gen.Generate(gctx, StylePrompt(pages[pageIdx].ImagePrompt))
			if err != nil {
				return fmt.Errorf("page %d: %w", pageIdx, err)
			}
			compressed, contentType := il.comp.Compress(gctx, data)
			images[i] = pageImage{Index: pageIdx, Data: compressed, ContentType: contentType}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

// UploadStoryImages 上传故事插画并回填 ImageURL。
// 单页上传失败仅记日志，对应页保持无插画，可由修复流程补齐。
func (il *Illustrator) UploadStoryImages(ctx context.Context, storyID string, content *entity.StoryContent, images []pageImage) {
	il.upload(ctx, path.Join("stories", storyID), content, images)
}

// UploadContinuationImages 上传续写插画，路径按故事与续写双重限定。
func (il *Illustrator) UploadContinuationImages(ctx context.Context, storyID, continuationID string, content *entity.StoryContent, images []pageImage) {
	prefix := path.Join("stories", storyID, "continuations", continuationID)
	il.upload(ctx, prefix, content, images)
}

func (il *Illustrator) upload(ctx context.Context, prefix string, content *entity.StoryContent, images []pageImage) {
	g, gctx := errgroup.WithContext(ctx)
	for i := range images {
		img := images[i]
		g.Go(func() error {
			key := fmt.Sprintf("%s/%d%s", prefix, img.Index, extensionFor(img.ContentType))
			url, err := il.store.Upload(gctx, key, img.Data, img.ContentType)
			if err != nil {
				logger.Error(gctx, "image upload failed", err, "key", key)
				return nil
			}
			content.Pages[img.Index].ImageURL = url
			return nil
		})
	}
	_ = g.Wait()
}

// GenerateMissing 为缺失插画的页重新生成并上传，用于补齐中断的生成。
// 幂等：已有 ImageURL 的页不会被触碰。
func (il *Illustrator) GenerateMissing(ctx context.Context, storyID string, content *entity.StoryContent) (filled int, err error) {
	missing := content.MissingImages()
	if len(missing) == 0 {
		return 0, nil
	}

	images, err := il.GenerateAll(ctx, content.Pages, missing)
	if err != nil {
		return 0, err
	}
	il.UploadStoryImages(ctx, storyID, content, images)

	return len(missing) - len(content.MissingImages()), nil
}

func extensionFor(contentType string) string {
	if contentType == "image/jpeg" {
		return ".jpg"
	}
	return ".png"
}
