package model

import "storymagic-api/internal/domain/entity"

// StoryGenerateInput 定义故事生成工作流的输入参数
type StoryGenerateInput struct {
	Config entity.StoryConfig

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}
