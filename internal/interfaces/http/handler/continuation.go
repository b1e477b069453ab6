package handler

import (
	"github.com/gin-gonic/gin"

	"storymagic-api/internal/application/story"
	"storymagic-api/internal/domain/repository"
	"storymagic-api/internal/interfaces/http/dto"
	"storymagic-api/pkg/logger"
)

// ContinuationHandler 故事续写处理器
type ContinuationHandler struct {
	continuer *story.Continuer
	contRepo  repository.ContinuationRepository
	userRepo  repository.UserRepository
}

// NewContinuationHandler 创建续写处理器
func NewContinuationHandler(
	continuer *story.Continuer,
	contRepo repository.ContinuationRepository,
	userRepo repository.UserRepository,
) *ContinuationHandler {
	return &ContinuationHandler{
		continuer: continuer,
		contRepo:  contRepo,
		userRepo:  userRepo,
	}
}

// Continue 续写故事
// @Summary 续写故事
// @Description 按 theme/character/new/custom 四种方式续写六页新篇章，受当日配额限制
// @Tags Continuation
// @Accept json
// @Produce json
// @Param id path string true "原故事 ID"
// @Param body body dto.ContinueStoryRequest true "续写参数"
// @Success 201 {object} dto.Response[dto.ContinuationResponse]
// @Failure 403 {object} map[string]any "配额超限，载荷含 limit 与 used"
// @Router /v1/stories/{id}/continue [post]
func (h *ContinuationHandler) Continue(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")
	storyID := c.Param("id")

	var req dto.ContinueStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Error(ctx, "failed to get user", err, "user_id", userID)
		dto.InternalError(c, "story continuation failed")
		return
	}
	if user == nil {
		dto.Unauthorized(c, "user not found")
		return
	}

	cont, err := h.continuer.Continue(ctx, user, storyID, req.Type, req.CustomPrompt)
	if err != nil {
		logger.Error(ctx, "story continuation failed", err, "story_id", storyID, "type", req.Type)
		respondError(c, err, "story continuation failed")
		return
	}

	dto.Created(c, dto.ToContinuationResponse(cont))
}

// Get 获取续写详情
func (h *ContinuationHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	contID := c.Param("continuationId")

	cont, err := h.contRepo.GetByID(ctx, contID)
	if err != nil {
		logger.Error(ctx, "failed to get continuation", err, "continuation_id", contID)
		dto.InternalError(c, "failed to get continuation")
		return
	}
	if cont == nil {
		dto.NotFound(c, "continuation not found")
		return
	}

	dto.Success(c, dto.ToContinuationResponse(cont))
}
