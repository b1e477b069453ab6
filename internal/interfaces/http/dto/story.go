// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"storymagic-api/internal/domain/entity"
)

// StoryOptionRequest 故事配置中的一个选项
type StoryOptionRequest struct {
	Name        string   `json:"name" binding:"required,max=128"`
	Description string   `json:"description" binding:"max=512"`
	Emoji       string   `json:"emoji" binding:"max=16"`
	VisualStyle string   `json:"visualStyle" binding:"max=512"`
	Traits      []string `json:"traits" binding:"max=8,dive,max=64"`
}

// GenerateStoryRequest 故事生成请求
type GenerateStoryRequest struct {
	Setting       StoryOptionRequest `json:"setting" binding:"required"`
	Character     StoryOptionRequest `json:"character" binding:"required"`
	Theme         StoryOptionRequest `json:"theme" binding:"required"`
	TargetAge     StoryOptionRequest `json:"targetAge" binding:"required"`
	ImageCaptions []string           `json:"imageCaptions" binding:"max=6,dive,max=1024"`
	Idea          string             `json:"idea" binding:"max=1024"`
}

// ToStoryConfig 请求转换为领域配置
func (r *GenerateStoryRequest) ToStoryConfig() entity.StoryConfig {
	toOption := func(o StoryOptionRequest) entity.StoryOption {
		return entity.StoryOption{
			Name:        o.Name,
			Description: o.Description,
			Emoji:       o.Emoji,
			VisualStyle: o.VisualStyle,
			Traits:      o.Traits,
		}
	}
	return entity.StoryConfig{
		Setting:       toOption(r.Setting),
		Character:     toOption(r.Character),
		Theme:         toOption(r.Theme),
		TargetAge:     toOption(r.TargetAge),
		ImageCaptions: r.ImageCaptions,
		Idea:          r.Idea,
	}
}

// StoryResponse 故事响应
type StoryResponse struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	Title     string              `json:"title"`
	Config    entity.StoryConfig  `json:"config"`
	Content   entity.StoryContent `json:"content"`
	Status    entity.StoryStatus  `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// StorySummaryResponse 列表用的故事摘要
type StorySummaryResponse struct {
	ID         string             `json:"id"`
	Title      string             `json:"title"`
	Summary    string             `json:"summary"`
	CoverURL   string             `json:"cover_url,omitempty"`
	Status     entity.StoryStatus `json:"status"`
	PageCount  int                `json:"page_count"`
	CreatedAt  time.Time          `json:"created_at"`
}

// StoryListResponse 故事列表响应
type StoryListResponse struct {
	Items []*StorySummaryResponse `json:"items"`
}

// ToStoryResponse 实体转换为响应
func ToStoryResponse(s *entity.Story) *StoryResponse {
	if s == nil {
		return nil
	}
	return &StoryResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		Title:     s.Title,
		Config:    s.Config,
		Content:   s.Content,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// ToStorySummaryResponse 实体转换为列表摘要
func ToStorySummaryResponse(s *entity.Story) *StorySummaryResponse {
	if s == nil {
		return nil
	}
	cover := ""
	if len(s.Content.Pages) > 0 {
		cover = s.Content.Pages[0].ImageURL
	}
	return &StorySummaryResponse{
		ID:        s.ID,
		Title:     s.Title,
		Summary:   s.Content.Summary,
		CoverURL:  cover,
		Status:    s.Status,
		PageCount: len(s.Content.Pages),
		CreatedAt: s.CreatedAt,
	}
}

// ToStoryListResponse 实体列表转换为响应
func ToStoryListResponse(stories []*entity.Story) *StoryListResponse {
	items := make([]*StorySummaryResponse, len(stories))
	for i, s := range stories {
		items[i] = ToStorySummaryResponse(s)
	}
	return &StoryListResponse{Items: items}
}
