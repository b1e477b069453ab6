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

	"storymagic-api/internal/domain/entity"
	llmctx "storymagic-api/internal/domain/service"
	wfmodel "storymagic-api/internal/workflow/model"
	wfnode "storymagic-api/internal/workflow/node"
	workflowport "storymagic-api/internal/workflow/port"
	workflowprompt "storymagic-api/internal/workflow/prompt"
	"storymagic-api/pkg/logger"
)

type ContinuationChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.ContinuationGenerateInput, *schema.Message]
	chainErr  error
}

func NewContinuationChain(factory workflowport.ChatModelFactory) *ContinuationChain {
	return &ContinuationChain{factory: factory}
}

func (c *ContinuationChain) Invoke(ctx context.Context, in *wfmodel.ContinuationGenerateInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if _, err := promptIDForType(in.Type); err != nil {
		return nil, err
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

type continuationChainState struct {
	In       *wfmodel.ContinuationGenerateInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *ContinuationChain) getChain() (compose.Runnable[*wfmodel.ContinuationGenerateInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *ContinuationChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.ContinuationGenerateInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.ContinuationGenerateInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.ContinuationGenerateInput) (*continuationChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &continuationChainState{In: in}, nil
		}),
		compose.WithNodeName("continuation.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *continuationChainState) (*continuationChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatContinuationMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("continuation.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *continuationChainState) (*continuationChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "continuation_generate", strings.TrimSpace(st.In.Provider))
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildContinuationModelOptions(st.In, true)...)
			if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
					"provider", strings.TrimSpace(st.In.Provider),
					"model", strings.TrimSpace(st.In.Model),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildContinuationModelOptions(st.In, false)...)
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
		compose.WithNodeName("continuation.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *continuationChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("continuation.finalize"),
	)

	return chain.Compile(ctx)
}

func promptIDForType(t entity.ContinuationType) (workflowprompt.PromptID, error) {
	switch t {
	case entity.ContinuationTypeTheme:
		return workflowprompt.PromptContinuationThemeV1, nil
	case entity.ContinuationTypeCharacter:
		return workflowprompt.PromptContinuationCharacterV1, nil
	case entity.ContinuationTypeNew:
		return workflowprompt.PromptContinuationNewV1, nil
	case entity.ContinuationTypeCustom:
		return workflowprompt.PromptContinuationCustomV1, nil
	default:
		return "", fmt.Errorf("unknown continuation type: %s", t)
	}
}

func formatContinuationMessages(ctx context.Context, in *wfmodel.ContinuationGenerateInput) ([]*schema.Message, error) {
	id, err := promptIDForType(in.Type)
	if err != nil {
		return nil, err
	}
	tpl, err := defaultPromptRegistry.ChatTemplate(id)
	if err != nil {
		return nil, err
	}

	characterName := strings.TrimSpace(in.CharacterName)
	if characterName == "" {
		characterName = "the main character"
	}
	settingName := strings.TrimSpace(in.SettingName)
	if settingName == "" {
		settingName = "the established setting"
	}

	vars := map[string]any{
		"original_title": strings.TrimSpace(in.OriginalTitle),
		"character_name": characterName,
		"setting_name":   settingName,
		"summary":        strings.TrimSpace(in.Summary),
		"last_page_text": strings.TrimSpace(in.LastPageText),
		"custom_prompt":  strings.TrimSpace(in.CustomPrompt),
	}
	return tpl.Format(ctx, vars)
}

func buildContinuationModelOptions(in *wfmodel.ContinuationGenerateInput, enableSchema bool) []model.Option {
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
					"name":   "story_continuation",
					"strict": false,
					"schema": storyJSONSchema(false),
				},
			},
		}))
	}

	return opts
}
