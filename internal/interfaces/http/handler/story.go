package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"storymagic-api/internal/application/story"
	"storymagic-api/internal/domain/repository"
	"storymagic-api/internal/interfaces/http/dto"
	"storymagic-api/pkg/logger"
)

// StoryHandler 故事处理器
type StoryHandler struct {
	generator *story.Generator
	storyRepo repository.StoryRepository
	contRepo  repository.ContinuationRepository
	userRepo  repository.UserRepository
}

// NewStoryHandler 创建故事处理器
func NewStoryHandler(
	generator *story.Generator,
	storyRepo repository.StoryRepository,
	contRepo repository.ContinuationRepository,
	userRepo repository.UserRepository,
) *StoryHandler {
	return &StoryHandler{
		generator: generator,
		storyRepo: storyRepo,
		contRepo:  contRepo,
		userRepo:  userRepo,
	}
}

// Generate 生成新故事
// @Summary 生成故事
// @Description 根据设定、角色、主题生成六页插画故事，受当日配额限制
// @Tags Story
// @Accept json
// @Produce json
// @Param body body dto.GenerateStoryRequest true "故事配置"
// @Success 201 {object} dto.Response[dto.StoryResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} map[string]any "配额超限，载荷含 limit 与 used"
// @Router /v1/stories [post]
func (h *StoryHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")

	var req dto.GenerateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Error(ctx, "failed to get user", err, "user_id", userID)
		dto.InternalError(c, "story generation failed")
		return
	}
	if user == nil {
		dto.Unauthorized(c, "user not found")
		return
	}

	st, err := h.generator.Generate(ctx, user, req.ToStoryConfig())
	if err != nil {
		logger.Error(ctx, "story generation failed", err, "user_id", userID)
		respondError(c, err, "story generation failed")
		return
	}

	dto.Created(c, dto.ToStoryResponse(st))
}

// List 分页列出当前用户的故事
func (h *StoryHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	pagination := repository.NewPagination(page, pageSize)

	result, err := h.storyRepo.ListByUser(ctx, userID, pagination)
	if err != nil {
		logger.Error(ctx, "failed to list stories", err, "user_id", userID)
		dto.InternalError(c, "failed to list stories")
		return
	}

	summaries := make([]*dto.StorySummaryResponse, 0, len(result.Items))
	for _, st := range result.Items {
		summaries = append(summaries, dto.ToStorySummaryResponse(st))
	}

	dto.SuccessWithPage(c, summaries, &dto.PageMeta{
		Page:       result.Page,
		PageSize:   result.PageSize,
		Total:      int(result.Total),
		TotalPages: result.TotalPages,
	})
}

// Get 获取故事详情
func (h *StoryHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	storyID := c.Param("id")

	st, err := h.storyRepo.GetByID(ctx, storyID)
	if err != nil {
		logger.Error(ctx, "failed to get story", err, "story_id", storyID)
		dto.InternalError(c, "failed to get story")
		return
	}
	if st == nil {
		dto.NotFound(c, "story not found")
		return
	}

	dto.Success(c, dto.ToStoryResponse(st))
}

// Delete 删除故事，仅限所有者
func (h *StoryHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")
	storyID := c.Param("id")

	st, err := h.storyRepo.GetByID(ctx, storyID)
	if err != nil {
		logger.Error(ctx, "failed to get story", err, "story_id", storyID)
		dto.InternalError(c, "failed to delete story")
		return
	}
	if st == nil {
		dto.NotFound(c, "story not found")
		return
	}
	if st.UserID != userID {
		dto.Forbidden(c, "not the story owner")
		return
	}

	if err := h.storyRepo.Delete(ctx, storyID); err != nil {
		logger.Error(ctx, "failed to delete story", err, "story_id", storyID)
		dto.InternalError(c, "failed to delete story")
		return
	}

	dto.NoContent(c)
}

// RepairImages 为缺失插画的页面补图
func (h *StoryHandler) RepairImages(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")
	storyID := c.Param("id")

	st, err := h.generator.Repair(ctx, userID, storyID)
	if err != nil {
		logger.Error(ctx, "failed to repair story images", err, "story_id", storyID)
		respondError(c, err, "failed to repair story images")
		return
	}

	dto.Success(c, dto.ToStoryResponse(st))
}

// ListContinuations 列出故事的全部续写
func (h *StoryHandler) ListContinuations(c *gin.Context) {
	ctx := c.Request.Context()
	storyID := c.Param("id")

	st, err := h.storyRepo.GetByID(ctx, storyID)
	if err != nil {
		logger.Error(ctx, "failed to get story", err, "story_id", storyID)
		dto.InternalError(c, "failed to list continuations")
		return
	}
	if st == nil {
		dto.NotFound(c, "story not found")
		return
	}

	conts, err := h.contRepo.ListByStory(ctx, storyID)
	if err != nil {
		logger.Error(ctx, "failed to list continuations", err, "story_id", storyID)
		dto.InternalError(c, "failed to list continuations")
		return
	}

	dto.Success(c, dto.ToContinuationListResponse(conts))
}
