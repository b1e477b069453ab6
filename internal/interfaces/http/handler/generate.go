package handler

import (
	"encoding/base64"
	"math"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"

	"storymagic-api/internal/application/story"
	"storymagic-api/internal/config"
	"storymagic-api/internal/infrastructure/imagegen"
	"storymagic-api/internal/infrastructure/llm"
	"storymagic-api/internal/interfaces/http/dto"
	wfnode "storymagic-api/internal/workflow/node"
	"storymagic-api/pkg/logger"
)

// GenerateHandler 低层生成接口处理器。
// 提供给受信客户端的直通能力，不落库也不计入配额。
type GenerateHandler struct {
	cfg        *config.Config
	factory    *llm.EinoFactory
	imageGen   story.ImageGenerator
	compressor *imagegen.Compressor
}

// NewGenerateHandler 创建生成处理器
func NewGenerateHandler(cfg *config.Config, factory *llm.EinoFactory, imageGen story.ImageGenerator, compressor *imagegen.Compressor) *GenerateHandler {
	return &GenerateHandler{
		cfg:        cfg,
		factory:    factory,
		imageGen:   imageGen,
		compressor: compressor,
	}
}

// Story 按原始提示词直通生成故事内容
func (h *GenerateHandler) Story(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GenerateRawStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	chatModel, err := h.factory.Default(ctx)
	if err != nil {
		logger.Error(ctx, "failed to get chat model", err)
		dto.InternalError(c, "story generation failed")
		return
	}

	msg, err := chatModel.Generate(ctx, []*schema.Message{schema.UserMessage(req.Prompt)})
	if err != nil {
		logger.Error(ctx, "llm generate failed", err)
		dto.InternalError(c, "story generation failed")
		return
	}

	content, err := wfnode.ParseStoryContent(msg.Content)
	if err != nil {
		logger.Error(ctx, "malformed story output", err)
		dto.InternalError(c, "model returned malformed story content")
		return
	}

	dto.Success(c, content)
}

// Image 生成单张插画，返回 base64 原图
func (h *GenerateHandler) Image(c *gin.Context) {
	ctx := c.Request.Context()

	if h.cfg.Features.DisableImageGeneration {
		dto.BadRequest(c, "image generation is temporarily disabled")
		return
	}

	var req dto.GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	data, err := h.imageGen.Generate(ctx, req.Prompt)
	if err != nil {
		logger.Error(ctx, "image generation failed", err)
		dto.InternalError(c, "image generation failed")
		return
	}

	dto.Success(c, &dto.GenerateImageResponse{
		Base64:           base64.StdEncoding.EncodeToString(data),
		NeedsCompression: true,
	})
}

// Compress 压缩 base64 图片
func (h *GenerateHandler) Compress(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CompressImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Base64Image)
	if err != nil {
		dto.BadRequest(c, "base64_image is not valid base64")
		return
	}

	comp := h.compressor
	if req.Quality > 0 {
		comp = imagegen.NewCompressorWithQuality(req.Quality)
	}

	compressed, _ := comp.Compress(ctx, data)

	// 比例为压缩掉的百分比，尺寸按 KB 取整返回
	ratio := 0.0
	if len(data) > 0 {
		ratio = (1 - float64(len(compressed))/float64(len(data))) * 100
		ratio = math.Round(ratio*100) / 100
	}

	dto.Success(c, &dto.CompressImageResponse{
		Base64:           base64.StdEncoding.EncodeToString(compressed),
		OriginalSize:     int(math.Round(float64(len(data)) / 1024)),
		CompressedSize:   int(math.Round(float64(len(compressed)) / 1024)),
		CompressionRatio: ratio,
	})
}

// Caption 为上传图片生成一句话描述
func (h *GenerateHandler) Caption(c *gin.Context) {
	ctx := c.Request.Context()

	fileHeader, err := c.FormFile("image")
	if err != nil {
		dto.BadRequest(c, "image file is required")
		return
	}

	data, contentType, err := readUpload(fileHeader)
	if err != nil {
		dto.BadRequest(c, "failed to read image file")
		return
	}

	caption, err := h.imageGen.Caption(ctx, data, contentType)
	if err != nil {
		logger.Error(ctx, "image caption failed", err)
		dto.InternalError(c, "image caption failed")
		return
	}

	dto.Success(c, &dto.CaptionResponse{Caption: caption})
}
