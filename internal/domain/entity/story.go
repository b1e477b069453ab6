package entity

import "time"

// StoryStatus 故事状态
type StoryStatus string

const (
	// StoryStatusReady 文本与插画均已就绪
	StoryStatusReady StoryStatus = "ready"
	// StoryStatusImagesPending 文本已保存，部分插画缺失（可修复）
	StoryStatusImagesPending StoryStatus = "images_pending"
)

// StoryOption 故事配置中的一个选项（场景/角色/主题/年龄段）
type StoryOption struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Emoji       string   `json:"emoji,omitempty"`
	VisualStyle string   `json:"visualStyle,omitempty"`
	Traits      []string `json:"traits,omitempty"`
}

// StoryConfig 故事生成配置
type StoryConfig struct {
	Setting       StoryOption `json:"setting"`
	Character     StoryOption `json:"character"`
	Theme         StoryOption `json:"theme"`
	TargetAge     StoryOption `json:"targetAge"`
	ImageCaptions []string    `json:"imageCaptions,omitempty"`
	Idea          string      `json:"idea,omitempty"`
}

// StoryPage 单页故事内容
type StoryPage struct {
	Text        string `json:"text"`
	ImagePrompt string `json:"imagePrompt"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// StoryContent 模型生成的结构化故事内容
type StoryContent struct {
	Title     string      `json:"title"`
	Pages     []StoryPage `json:"pages"`
	TargetAge string      `json:"targetAge,omitempty"`
	Summary   string      `json:"summary"`
}

// LastPageText 返回最后一页正文，用于续写的衔接提示
func (c *StoryContent) LastPageText() string {
	if c == nil || len(c.Pages) == 0 {
		return ""
	}
	return c.Pages[len(c.Pages)-1].Text
}

// MissingImages 返回缺失插画的页索引
func (c *StoryContent) MissingImages() []int {
	if c == nil {
		return nil
	}
	var missing []int
	for i := range c.Pages {
		if c.Pages[i].ImageURL == "" {
			missing = append(missing, i)
		}
	}
	return missing
}

// Story 故事实体
type Story struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Title     string       `json:"title"`
	Config    StoryConfig  `json:"config"`
	Content   StoryContent `json:"content"`
	Status    StoryStatus  `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewStory 创建故事实体
func NewStory(userID string, config StoryConfig, content StoryContent) *Story {
	now := time.Now()
	status := StoryStatusReady
	if len(content.MissingImages()) > 0 {
		status = StoryStatusImagesPending
	}
	return &Story{
		UserID:    userID,
		Title:     content.Title,
		Config:    config,
		Content:   content,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
