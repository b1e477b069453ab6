package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storymagic-api/internal/application/story"
	"storymagic-api/internal/domain/entity"
	"storymagic-api/internal/domain/repository"
	"storymagic-api/internal/interfaces/http/dto"
	"storymagic-api/pkg/logger"
)

// 头像上传大小上限 5MB
const maxAvatarSize = 5 << 20

// UserHandler 用户处理器
type UserHandler struct {
	userRepo  repository.UserRepository
	tierRepo  repository.SubscriptionTierRepository
	storyRepo repository.StoryRepository
	usageRepo repository.DailyUsageRepository
	store     story.ObjectStore
}

// NewUserHandler 创建用户处理器
func NewUserHandler(
	userRepo repository.UserRepository,
	tierRepo repository.SubscriptionTierRepository,
	storyRepo repository.StoryRepository,
	usageRepo repository.DailyUsageRepository,
	store story.ObjectStore,
) *UserHandler {
	return &UserHandler{
		userRepo:  userRepo,
		tierRepo:  tierRepo,
		storyRepo: storyRepo,
		usageRepo: usageRepo,
		store:     store,
	}
}

// GetMe 获取当前用户信息
// @Summary 当前用户
// @Description 返回当前用户资料、订阅档位及当日故事用量
// @Tags User
// @Produce json
// @Success 200 {object} dto.Response[dto.ProfileResponse]
// @Router /v1/users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Error(ctx, "failed to get user", err, "user_id", userID)
		dto.InternalError(c, "failed to load profile")
		return
	}
	if user == nil {
		dto.NotFound(c, "user not found")
		return
	}

	tier, err := h.tierRepo.GetByID(ctx, user.TierID)
	if err != nil {
		logger.Error(ctx, "failed to get tier", err, "tier_id", user.TierID)
		dto.InternalError(c, "failed to load profile")
		return
	}
	if tier == nil {
		tier = entity.DefaultTiers()[0]
	}

	usedToday, err := h.usageRepo.GetCount(ctx, userID, entity.UsageDateFor(time.Now()))
	if err != nil {
		logger.Warn(ctx, "failed to get daily usage", "error", err, "user_id", userID)
	}

	var total int64
	if page, err := h.storyRepo.ListByUser(ctx, userID, repository.NewPagination(1, 1)); err != nil {
		logger.Warn(ctx, "failed to count stories", "error", err, "user_id", userID)
	} else {
		total = page.Total
	}

	dto.Success(c, &dto.ProfileResponse{
		User:              dto.ToUserResponse(user),
		Tier:              dto.ToTierResponse(tier),
		StoriesUsedToday:  usedToday,
		StoriesTotalCount: total,
	})
}

// UpdateMe 更新当前用户信息
func (h *UserHandler) UpdateMe(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Error(ctx, "failed to get user", err, "user_id", userID)
		dto.InternalError(c, "failed to update profile")
		return
	}
	if user == nil {
		dto.NotFound(c, "user not found")
		return
	}

	req.ApplyToUser(user)
	if err := h.userRepo.Update(ctx, user); err != nil {
		logger.Error(ctx, "failed to update user", err, "user_id", userID)
		dto.InternalError(c, "failed to update profile")
		return
	}

	dto.Success(c, dto.ToUserResponse(user))
}

// UploadAvatar 上传用户头像
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("user_id")

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		dto.BadRequest(c, "avatar file is required")
		return
	}
	if fileHeader.Size > maxAvatarSize {
		dto.BadRequest(c, "avatar file too large")
		return
	}

	data, contentType, err := readUpload(fileHeader)
	if err != nil {
		dto.BadRequest(c, "failed to read avatar file")
		return
	}
	if !strings.HasPrefix(contentType, "image/") {
		dto.BadRequest(c, "avatar must be an image")
		return
	}

	ext := filepath.Ext(fileHeader.Filename)
	if ext == "" {
		ext = ".png"
	}
	key := fmt.Sprintf("avatars/%s%s", userID, ext)

	url, err := h.store.Upload(ctx, key, data, contentType)
	if err != nil {
		logger.Error(ctx, "failed to upload avatar", err, "user_id", userID)
		dto.InternalError(c, "failed to upload avatar")
		return
	}

	if err := h.userRepo.UpdateAvatar(ctx, userID, url); err != nil {
		logger.Error(ctx, "failed to save avatar url", err, "user_id", userID)
		dto.InternalError(c, "failed to upload avatar")
		return
	}

	dto.Success(c, &dto.AvatarResponse{AvatarURL: url})
}

// readUpload 读取 multipart 文件内容与 MIME 类型
func readUpload(fh *multipart.FileHeader) ([]byte, string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}
