// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"storymagic-api/internal/domain/entity"
)

// ContinueStoryRequest 故事续写请求
type ContinueStoryRequest struct {
	Type         string `json:"type" binding:"required,oneof=theme character new custom"`
	CustomPrompt string `json:"customPrompt" binding:"max=1024"`
}

// ContinuationResponse 续写响应
type ContinuationResponse struct {
	ID           string                  `json:"id"`
	StoryID      string                  `json:"story_id"`
	Type         entity.ContinuationType `json:"type"`
	CustomPrompt string                  `json:"custom_prompt,omitempty"`
	Content      entity.StoryContent     `json:"content"`
	Status       entity.StoryStatus      `json:"status"`
	CreatedAt    time.Time               `json:"created_at"`
}

// ContinuationListResponse 续写列表响应
type ContinuationListResponse struct {
	Items []*ContinuationResponse `json:"items"`
}

// ToContinuationResponse 实体转换为响应
func ToContinuationResponse(c *entity.StoryContinuation) *ContinuationResponse {
	if c == nil {
		return nil
	}
	return &ContinuationResponse{
		ID:           c.ID,
		StoryID:      c.StoryID,
		Type:         c.Type,
		CustomPrompt: c.CustomPrompt,
		Content:      c.Content,
		Status:       c.Status,
		CreatedAt:    c.CreatedAt,
	}
}

// ToContinuationListResponse 实体列表转换为响应
func ToContinuationListResponse(conts []*entity.StoryContinuation) *ContinuationListResponse {
	items := make([]*ContinuationResponse, len(conts))
	for i, c := range conts {
		items[i] = ToContinuationResponse(c)
	}
	return &ContinuationListResponse{Items: items}
}
