// Package imagegen 封装插画生成与图片理解客户端
package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"storymagic-api/internal/config"
	"storymagic-api/pkg/errors"
	"storymagic-api/pkg/metrics"

	goopenai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("imagegen")

// Client 基于 OpenAI Images API 的插画生成客户端
type Client struct {
	api *goopenai.Client
	cfg *config.ImageGenConfig
}

// NewClient 创建插画生成客户端
func NewClient(cfg *config.Config) *Client {
	apiCfg := goopenai.DefaultConfig(cfg.ImageGen.APIKey)
	if cfg.ImageGen.BaseURL != "" {
		apiCfg.BaseURL = cfg.ImageGen.BaseURL
	}

	return &Client{
		api: goopenai.NewClientWithConfig(apiCfg),
		cfg: &cfg.ImageGen,
	}
}

// Generate 根据提示词生成一张插画，返回 PNG 字节
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "imagegen.Generate")
	span.SetAttributes(
		attribute.String("imagegen.model", c.cfg.Model),
		attribute.String("imagegen.size", c.cfg.Size),
	)
	defer span.End()

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.api.CreateImage(ctx, goopenai.ImageRequest{
		Prompt:         prompt,
		Model:          c.cfg.Model,
		Size:           c.cfg.Size,
		N:              1,
		ResponseFormat: goopenai.CreateImageResponseFormatB64JSON,
	})
	metrics.ImageGenerationDuration.WithLabelValues(c.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		metrics.ImageGenerationTotal.WithLabelValues("error").Inc()
		return nil, errors.Wrap(err, errors.CodeImageGenFailed, "image generation request failed")
	}

	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		metrics.ImageGenerationTotal.WithLabelValues("error").Inc()
		return nil, errors.New(errors.CodeImageGenFailed, "image generation returned no data")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		span.RecordError(err)
		metrics.ImageGenerationTotal.WithLabelValues("error").Inc()
		return nil, errors.Wrap(err, errors.CodeImageGenFailed, "failed to decode image payload")
	}

	metrics.ImageGenerationTotal.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.Int("imagegen.bytes", len(data)))
	return data, nil
}

// Caption 使用视觉模型描述一张上传的图片
func (c *Client) Caption(ctx context.Context, image []byte, mimeType string) (string, error) {
	ctx, span := tracer.Start(ctx, "imagegen.Caption")
	span.SetAttributes(attribute.String("imagegen.caption_model", c.cfg.CaptionModel))
	defer span.End()

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.cfg.CaptionModel,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role: goopenai.ChatMessageRoleUser,
				MultiContent: []goopenai.ChatMessagePart{
					{
						Type: goopenai.ChatMessagePartTypeText,
						Text: "Describe the visual appearance of the subject in this image in one or two sentences, focusing on details useful for drawing them in a children's book illustration.",
					},
					{
						Type: goopenai.ChatMessagePartTypeImageURL,
						ImageURL: &goopenai.ChatMessageImageURL{
							URL: dataURL,
						},
					},
				},
			},
		},
		MaxTokens: 200,
	})
	if err != nil {
		span.RecordError(err)
		return "", errors.Wrap(err, errors.CodeImageGenFailed, "image caption request failed")
	}

	if len(resp.Choices) == 0 {
		return "", errors.New(errors.CodeImageGenFailed, "image caption returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
