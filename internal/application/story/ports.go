package story

import (
	"context"

	"github.com/cloudwego/eino/schema"

	wfmodel "storymagic-api/internal/workflow/model"
)

// ImageGenerator 插画生成与图片理解能力（port）
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
	Caption(ctx context.Context, image []byte, mimeType string) (string, error)
}

// ImageCompressor 插画压缩能力（port）。
// 实现约定：压缩失败时返回原始字节，不返回错误。
type ImageCompressor interface {
	Compress(ctx context.Context, data []byte) (compressed []byte, contentType string)
}

// ObjectStore 对象存储能力（port）
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (publicURL string, err error)
	Delete(ctx context.Context, key string) error
}

// StoryChainInvoker 故事生成工作流（port）
type StoryChainInvoker interface {
	Invoke(ctx context.Context, in *wfmodel.StoryGenerateInput) (*schema.Message, error)
}

// ContinuationChainInvoker 续写生成工作流（port）
type ContinuationChainInvoker interface {
	Invoke(ctx context.Context, in *wfmodel.ContinuationGenerateInput) (*schema.Message, error)
}
