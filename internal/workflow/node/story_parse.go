package node

import (
	"encoding/json"
	"fmt"
	"strings"

	"storymagic-api/internal/domain/entity"
	"storymagic-api/pkg/errors"
)

// StoryPageCount 每个故事固定的页数
const StoryPageCount = 6

// ParseStoryContent 从模型输出中解析故事正文并做结构校验。
// 续写输出允许 targetAge 为空。
func ParseStoryContent(raw string) (*entity.StoryContent, error) {
	extracted := ExtractJSONObject(raw)
	if strings.TrimSpace(extracted) == "" {
		return nil, errors.New(errors.CodeMalformedStoryOutput, "empty model output")
	}

	var content entity.StoryContent
	if err := json.Unmarshal([]byte(extracted), &content); err != nil {
		return nil, errors.Wrap(err, errors.CodeMalformedStoryOutput, "model output is not valid JSON")
	}

	if err := validateStoryContent(&content); err != nil {
		return nil, err
	}
	return &content, nil
}

func validateStoryContent(content *entity.StoryContent) error {
	if strings.TrimSpace(content.Title) == "" {
		return errors.New(errors.CodeMalformedStoryOutput, "story title is empty")
	}
	if len(content.Pages) != StoryPageCount {
		return errors.New(errors.CodeMalformedStoryOutput,
			fmt.Sprintf("expected %d pages, got %d", StoryPageCount, len(content.Pages)))
	}
	for i, page := range content.Pages {
		if strings.TrimSpace(page.Text) == "" {
			return errors.New(errors.CodeMalformedStoryOutput,
				fmt.Sprintf("page %d has empty text", i+1))
		}
		if strings.TrimSpace(page.ImagePrompt) == "" {
			return errors.New(errors.CodeMalformedStoryOutput,
				fmt.Sprintf("page %d has empty image prompt", i+1))
		}
	}
	return nil
}
