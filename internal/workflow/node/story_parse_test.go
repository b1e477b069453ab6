package node

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storymagic-api/internal/domain/entity"
	"storymagic-api/pkg/errors"
)

func validStoryJSON(t *testing.T, pages int) string {
	t.Helper()
	content := entity.StoryContent{
		Title:     "Bouncy Bunny and the Candy River",
		TargetAge: "Ages 5-7",
		Summary:   "A bunny follows a candy river.",
	}
	for i := 0; i < pages; i++ {
		content.Pages = append(content.Pages, entity.StoryPage{
			Text:        fmt.Sprintf("Page %d text.", i+1),
			ImagePrompt: fmt.Sprintf("A bunny on page %d.", i+1),
		})
	}
	raw, err := json.Marshal(content)
	require.NoError(t, err)
	return string(raw)
}

func TestParseStoryContent(t *testing.T) {
	raw := validStoryJSON(t, 6)

	content, err := ParseStoryContent(raw)
	require.NoError(t, err)
	assert.Equal(t, "Bouncy Bunny and the Candy River", content.Title)
	assert.Len(t, content.Pages, StoryPageCount)
	assert.Equal(t, "Ages 5-7", content.TargetAge)
}

func TestParseStoryContentWithSurroundingText(t *testing.T) {
	raw := "Here is your story:\n```json\n" + validStoryJSON(t, 6) + "\n```\nEnjoy!"

	content, err := ParseStoryContent(raw)
	require.NoError(t, err)
	assert.Len(t, content.Pages, StoryPageCount)
}

func TestParseStoryContentWithoutTargetAge(t *testing.T) {
	// 续写输出不含 targetAge，仍然合法
	raw := `{"title":"Bouncy Bunny: The Cave","summary":"s","pages":[` +
		`{"text":"a","imagePrompt":"p"},{"text":"a","imagePrompt":"p"},{"text":"a","imagePrompt":"p"},` +
		`{"text":"a","imagePrompt":"p"},{"text":"a","imagePrompt":"p"},{"text":"a","imagePrompt":"p"}]}`

	content, err := ParseStoryContent(raw)
	require.NoError(t, err)
	assert.Empty(t, content.TargetAge)
}

func TestParseStoryContentRejectsWrongPageCount(t *testing.T) {
	for _, pages := range []int{0, 1, 5, 7} {
		_, err := ParseStoryContent(validStoryJSON(t, pages))
		require.Error(t, err, "pages=%d", pages)
		appErr, ok := err.(*errors.AppError)
		require.True(t, ok)
		assert.Equal(t, errors.CodeMalformedStoryOutput, appErr.Code)
	}
}

func TestParseStoryContentRejectsEmptyFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty output", "   "},
		{"not json", "Once upon a time there was no JSON at all."},
		{"empty title", `{"title":"","summary":"s","pages":[{"text":"a","imagePrompt":"p"},{"text":"a","imagePrompt":"p"},{"text":"a","imagePrompt":"p"},{"text":"a","imagePrompt":"p"},{"text":"a","imagePrompt":"p"},{"text":"a","imagePrompt":"p"}]}`},
		{"empty page text", `{"title":"t","summary":"s","pages":[{"text":"","imagePrompt":"p"},{"text":"a","imagePrompt":"p"},{"text":"a","imagePrompt":"p"},{"text":"a","imagePrompt":"p"},{"text":"a","imagePrompt":"p"},{"text":"a","imagePrompt":"p"}]}`},
		{"empty image prompt", `{"title":"t","summary":"s","pages":[{"text":"a","imagePrompt":""},{"text":"a","imagePrompt":"p"},{"text":"a","imagePrompt":"p"},{"text":"a","imagePrompt":"p"},{"text":"a","imagePrompt":"p"},{"text":"a","imagePrompt":"p"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStoryContent(tt.raw)
			require.Error(t, err)
			appErr, ok := err.(*errors.AppError)
			require.True(t, ok)
			assert.Equal(t, errors.CodeMalformedStoryOutput, appErr.Code)
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced block", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around object", `Sure! {"a":1} Hope that helps.`, `{"a":1}`},
		{"array", `noise [1,2,3] noise`, `[1,2,3]`},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSONObject(tt.in))
		})
	}
}
