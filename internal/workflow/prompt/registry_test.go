package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryLoadsAllPrompts(t *testing.T) {
	r := NewRegistry()
	for _, id := range []PromptID{
		PromptStoryGenV1,
		PromptContinuationThemeV1,
		PromptContinuationCharacterV1,
		PromptContinuationNewV1,
		PromptContinuationCustomV1,
	} {
		tpl, err := r.ChatTemplate(id)
		require.NoError(t, err, "prompt %s", id)
		assert.NotNil(t, tpl, "prompt %s", id)
	}
}

func TestRegistryCachesTemplates(t *testing.T) {
	r := NewRegistry()

	first, err := r.ChatTemplate(PromptStoryGenV1)
	require.NoError(t, err)
	second, err := r.ChatTemplate(PromptStoryGenV1)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestRegistryUnknownPrompt(t *testing.T) {
	r := NewRegistry()
	_, err := r.ChatTemplate("story_gen_v99")
	assert.Error(t, err)
}
