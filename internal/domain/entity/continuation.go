package entity

import (
	"fmt"
	"time"
)

// ContinuationType 续写类型
type ContinuationType string

const (
	// ContinuationTypeTheme 延展原故事的主题与价值观
	ContinuationTypeTheme ContinuationType = "theme"
	// ContinuationTypeCharacter 聚焦主角的后续旅程
	ContinuationTypeCharacter ContinuationType = "character"
	// ContinuationTypeNew 同一主角的新冒险
	ContinuationTypeNew ContinuationType = "new"
	// ContinuationTypeCustom 按用户给定的方向续写
	ContinuationTypeCustom ContinuationType = "custom"
)

// ParseContinuationType 解析续写类型，非法值返回错误
func ParseContinuationType(s string) (ContinuationType, error) {
	switch ContinuationType(s) {
	case ContinuationTypeTheme, ContinuationTypeCharacter, ContinuationTypeNew, ContinuationTypeCustom:
		return ContinuationType(s), nil
	default:
		return "", fmt.Errorf("unknown continuation type: %q", s)
	}
}

// StoryContinuation 故事续写实体
// 归属权通过 StoryID 关联到原故事的所有者
type StoryContinuation struct {
	ID           string           `json:"id"`
	StoryID      string           `json:"story_id"`
	Type         ContinuationType `json:"type"`
	CustomPrompt string           `json:"custom_prompt,omitempty"`
	Content      StoryContent     `json:"content"`
	Status       StoryStatus      `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// NewStoryContinuation 创建续写实体
func NewStoryContinuation(storyID string, typ ContinuationType, customPrompt string, content StoryContent) *StoryContinuation {
	now := time.Now()
	status := StoryStatusReady
	if len(content.MissingImages()) > 0 {
		status = StoryStatusImagesPending
	}
	return &StoryContinuation{
		StoryID:      storyID,
		Type:         typ,
		CustomPrompt: customPrompt,
		Content:      content,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
