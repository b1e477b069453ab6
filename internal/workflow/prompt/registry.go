package prompt

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptStoryGenV1              PromptID = "story_gen_v1"
	PromptContinuationThemeV1     PromptID = "continuation_theme_v1"
	PromptContinuationCharacterV1 PromptID = "continuation_character_v1"
	PromptContinuationNewV1       PromptID = "continuation_new_v1"
	PromptContinuationCustomV1    PromptID = "continuation_custom_v1"
)

type Registry struct {
	mu    sync.RWMutex
	cache map[PromptID]einoprompt.ChatTemplate
}

func NewRegistry() *Registry {
	return &Registry{
		cache: make(map[PromptID]einoprompt.ChatTemplate),
	}
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}

	r.mu.RLock()
	if tpl, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return tpl, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if tpl, ok := r.cache[id]; ok {
		return tpl, nil
	}

	systemPath, userPath, err := resolvePromptFiles(id)
	if err != nil {
		return nil, err
	}
	system, err := readEmbeddedText(systemPath)
	if err != nil {
		return nil, err
	}
	user, err := readEmbeddedText(userPath)
	if err != nil {
		return nil, err
	}

	tpl := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	r.cache[id] = tpl
	return tpl, nil
}

func resolvePromptFiles(id PromptID) (systemFile string, userFile string, err error) {
	switch id {
	case PromptStoryGenV1:
		return "templates/story_gen_v1.system.txt", "templates/story_gen_v1.user.txt", nil
	case PromptContinuationThemeV1:
		return "templates/continuation_v1.system.txt", "templates/continuation_theme_v1.user.txt", nil
	case PromptContinuationCharacterV1:
		return "templates/continuation_v1.system.txt", "templates/continuation_character_v1.user.txt", nil
	case PromptContinuationNewV1:
		return "templates/continuation_v1.system.txt", "templates/continuation_new_v1.user.txt", nil
	case PromptContinuationCustomV1:
		return "templates/continuation_v1.system.txt", "templates/continuation_custom_v1.user.txt", nil
	default:
		return "", "", fmt.Errorf("unknown prompt id: %s", id)
	}
}

func readEmbeddedText(path string) (string, error) {
	b, err := templatesFS.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
