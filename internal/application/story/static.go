package story

import "storymagic-api/internal/domain/entity"

// StaticStoryConfig 内置的演示配置，也用作端到端测试的固定输入
func StaticStoryConfig() entity.StoryConfig {
	return entity.StoryConfig{
		Setting: entity.StoryOption{
			Name:        "Jellybean Jungle",
			Description: "A jungle filled with plants and animals made of jellybeans.",
			Emoji:       "🍬",
			VisualStyle: "Colorful, shiny jellybean trees, plants, and animals with a candy river.",
		},
		Character: entity.StoryOption{
			Name:        "Bouncy Bunny",
			Description: "A cheerful rabbit who loves to hop and play all day.",
			Emoji:       "🐰",
			Traits:      []string{"Energetic", "Playful", "Friendly"},
		},
		Theme: entity.StoryOption{
			Name:        "Friendship",
			Description: "Making friends and being a good friend to others",
			Emoji:       "👫",
		},
		TargetAge: entity.StoryOption{
			Name:        "Early Reader",
			Description: "Ages 5-7, short sentences with simple vocabulary",
		},
	}
}

// StaticStoryContent 固定的 6 页故事，启用 static_story 开关时替代模型输出
func StaticStoryContent() entity.StoryContent {
	return entity.StoryContent{
		Title:     "Bouncy Bunny and the Candy River",
		TargetAge: "Ages 5-7, short sentences with simple vocabulary",
		Summary:   "Bouncy Bunny explores the Jellybean Jungle, meets a shy gummy turtle by the candy river, and learns that sharing makes the sweetest friendships.",
		Pages: []entity.StoryPage{
			{
				Text:        "Bouncy Bunny hopped through the Jellybean Jungle one sunny morning. The trees sparkled with red and yellow jellybeans. Everything smelled like strawberries and sugar.",
				ImagePrompt: "A cheerful white rabbit hopping through a jungle of shiny jellybean trees under a bright sun",
			},
			{
				Text:        "By the candy river, Bouncy Bunny heard a tiny splash. A small gummy turtle was stuck on a licorice log. The turtle looked very shy and a little scared.",
				ImagePrompt: "A small green gummy turtle stuck on a black licorice log in a pink candy river, a white rabbit watching from the bank",
			},
			{
				Text:        "\"Hello! I'm Bouncy Bunny,\" said the rabbit with a big smile. \"Do you need some help?\" The turtle nodded slowly and whispered, \"My name is Gumdrop.\"",
				ImagePrompt: "A friendly white rabbit waving at a shy green gummy turtle beside a candy river",
			},
			{
				Text:        "Bouncy Bunny stretched out a long jellybean vine. Gumdrop held on tight and slid safely to the shore. \"Thank you!\" said Gumdrop with a tiny smile.",
				ImagePrompt: "A white rabbit pulling a green gummy turtle to shore with a colorful jellybean vine",
			},
			{
				Text:        "The two new friends shared a pile of sweet berries. They laughed and played by the river all afternoon. Gumdrop was not shy anymore.",
				ImagePrompt: "A white rabbit and a green gummy turtle sharing berries and laughing by a pink candy river at sunset",
			},
			{
				Text:        "As the sun began to set, Gumdrop pointed across the river. \"There is a secret cave of chocolate over there,\" he whispered. Bouncy Bunny's eyes grew wide. What could be waiting inside?",
				ImagePrompt: "A white rabbit and a green gummy turtle looking at a mysterious chocolate cave across a candy river in the sunset light",
			},
		},
	}
}
