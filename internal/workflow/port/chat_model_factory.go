package port

import (
	"context"

	"github.com/cloudwego/eino/components/model"
)

// ChatModelFactory 定义故事与续写链对 LLM ChatModel 的最小依赖（port）。
// name 为空时由实现方回落到默认服务商。
type ChatModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
}
