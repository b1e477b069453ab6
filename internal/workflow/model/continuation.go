package model

import "storymagic-api/internal/domain/entity"

// ContinuationGenerateInput 定义续写工作流的输入参数。
// 原故事的角色、场景与主题信息用于保证续写的连贯性。
type ContinuationGenerateInput struct {
	Type         entity.ContinuationType
	CustomPrompt string

	OriginalTitle        string
	CharacterName        string
	CharacterDescription string
	SettingName          string
	SettingDescription   string
	ThemeName            string
	TargetAge            string
	Summary              string
	LastPageText         string

	Provider string
	Model    string

	Temperature *float32
	MaxTokens   *int
}
