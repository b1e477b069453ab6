package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "storymagic-api/internal/domain/service"
	wfmodel "storymagic-api/internal/workflow/model"
	wfnode "storymagic-api/internal/workflow/node"
	workflowport "storymagic-api/internal/workflow/port"
	workflowprompt "storymagic-api/internal/workflow/prompt"
	"storymagic-api/pkg/logger"
)

// 原始产品固定的生成参数
const (
	defaultTemperature float32 = 0.7
	defaultMaxTokens   int     = 2000
)

type StoryChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.StoryGenerateInput, *schema.Message]
	chainErr  error
}

func NewStoryChain(factory workflowport.ChatModelFactory) *StoryChain {
	return &StoryChain{factory: factory}
}

func (c *StoryChain) Invoke(ctx context.Context, in *wfmodel.StoryGenerateInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

type storyChainState struct {
	In       *wfmodel.StoryGenerateInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *StoryChain) getChain() (compose.Runnable[*wfmodel.StoryGenerateInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *StoryChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.StoryGenerateInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.StoryGenerateInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.StoryGenerateInput) (*storyChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &storyChainState{In: in}, nil
		}),
		compose.WithNodeName("story.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *storyChainState) (*storyChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatStoryMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("story.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *storyChainState) (*storyChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "story_generate", strings.TrimSpace(st.In.Provider))
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildStoryModelOptions(st.In, true)...)
			if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
					"provider", strings.TrimSpace(st.In.Provider),
					"model", strings.TrimSpace(st.In.Model),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildStoryModelOptions(st.In, false)...)
			}
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("story.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *storyChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("story.finalize"),
	)

	return chain.Compile(ctx)
}

var defaultPromptRegistry = workflowprompt.NewRegistry()

func formatStoryMessages(ctx context.Context, in *wfmodel.StoryGenerateInput) ([]*schema.Message, error) {
	tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptStoryGenV1)
	if err != nil {
		return nil, err
	}

	cfg := in.Config
	visualStyle := strings.TrimSpace(cfg.Setting.VisualStyle)
	if visualStyle == "" {
		visualStyle = "classic storybook illustration"
	}

	vars := map[string]any{
		"setting_name":           strings.TrimSpace(cfg.Setting.Name),
		"setting_description":    strings.TrimSpace(cfg.Setting.Description),
		"setting_visual_style":   visualStyle,
		"character_name":         strings.TrimSpace(cfg.Character.Name),
		"character_description":  strings.TrimSpace(cfg.Character.Description),
		"traits_block":           wfnode.BuildTraitsBlock(cfg.Character.Traits),
		"captions_block":         wfnode.BuildCaptionsBlock(cfg.ImageCaptions),
		"idea_block":             wfnode.BuildIdeaBlock(cfg.Idea),
		"theme_name":             strings.TrimSpace(cfg.Theme.Name),
		"theme_description":      strings.TrimSpace(cfg.Theme.Description),
		"target_age_name":        strings.TrimSpace(cfg.TargetAge.Name),
		"target_age_description": strings.TrimSpace(cfg.TargetAge.Description),
	}
	return tpl.Format(ctx, vars)
}

func buildStoryModelOptions(in *wfmodel.StoryGenerateInput, enableSchema bool) []model.Option {
	opts := make([]model.Option, 0, 4)
	if in == nil {
		return opts
	}

	temperature := defaultTemperature
	if in.Temperature != nil {
		temperature = *in.Temperature
	}
	opts = append(opts, model.WithTemperature(temperature))

	maxTokens := defaultMaxTokens
	if in.MaxTokens != nil {
		maxTokens = *in.MaxTokens
	}
	opts = append(opts, model.WithMaxTokens(maxTokens))

	if strings.TrimSpace(in.Model) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(in.Model)))
	}

	if enableSchema {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   "story_content",
					"strict": false,
					"schema": storyJSONSchema(true),
				},
			},
		}))
	}

	return opts
}

// storyJSONSchema 以“最小可用”为目标，避免过度约束导致模型输出失败。
// 续写输出不包含 targetAge。
func storyJSONSchema(withTargetAge bool) map[string]any {
	required := []any{"title", "pages", "summary"}
	properties := map[string]any{
		"title":   map[string]any{"type": "string"},
		"summary": map[string]any{"type": "string"},
		"pages": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []any{"text", "imagePrompt"},
				"properties": map[string]any{
					"text":        map[string]any{"type": "string"},
					"imagePrompt": map[string]any{"type": "string"},
				},
			},
		},
	}
	if withTargetAge {
		required = append(required, "targetAge")
		properties["targetAge"] = map[string]any{"type": "string"}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             required,
		"properties":           properties,
	}
}
