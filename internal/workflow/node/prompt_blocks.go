package node

import "strings"

// BuildTraitsBlock 拼接角色特质段落，特质为空时返回空串。
func BuildTraitsBlock(traits []string) string {
	cleaned := make([]string, 0, len(traits))
	for _, t := range traits {
		if s := strings.TrimSpace(t); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return ""
	}
	return "Character traits: " + strings.Join(cleaned, ", ")
}

// BuildCaptionsBlock 拼接参考图片描述段落，描述会作为故事的核心元素。
func BuildCaptionsBlock(captions []string) string {
	cleaned := make([]string, 0, len(captions))
	for _, c := range captions {
		if s := strings.TrimSpace(c); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return ""
	}
	return "IMPORTANT: The user has uploaded images for this story. These are their captions, which should be CENTRAL elements in your story: " +
		strings.Join(cleaned, ", ")
}

// BuildIdeaBlock 拼接读者自由输入的故事点子段落。
func BuildIdeaBlock(idea string) string {
	s := strings.TrimSpace(idea)
	if s == "" {
		return ""
	}
	return "IMPORTANT: If the user has provided an idea for the story, use it as a starting point for the story: " + s
}
